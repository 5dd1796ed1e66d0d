package core

// streaming.go provides the reader chain the Record Source decodes CSV from.
//
// The file is never loaded into memory. Each layer wraps the previous one:
//
//	file -> countingReader -> bomSkipper -> utf8Sanitizer (optional) -> csv.Reader
//
// The counter sits directly on the file so progress is measured in file bytes.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some Windows tools prepend to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countingReader tracks how many bytes have been read from the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// newBOMSkipper returns a reader that drops a leading UTF-8 BOM, if any.
func newBOMSkipper(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 sequences with U+FFFD as it reads.
// A multi-byte rune split across two reads is carried over, not replaced.
type utf8Sanitizer struct {
	r       io.Reader
	in      []byte
	carry   []byte // incomplete rune from the previous read
	out     []byte // sanitized bytes not yet returned
	readErr error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, in: make([]byte, 32*1024)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.readErr != nil {
			if len(s.carry) > 0 {
				// Input ended inside a rune.
				s.out = s.appendSanitized(s.out[:0], s.carry, true)
				s.carry = nil
				continue
			}
			return 0, s.readErr
		}
		n, err := s.r.Read(s.in)
		s.readErr = err
		if n == 0 {
			continue
		}
		chunk := append(s.carry, s.in[:n]...)
		s.carry = nil
		s.out = s.appendSanitized(s.out[:0], chunk, err != nil)
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// appendSanitized appends data to dst with invalid bytes replaced. Unless
// final is set, a trailing incomplete rune is saved in s.carry.
func (s *utf8Sanitizer) appendSanitized(dst, data []byte, final bool) []byte {
	if utf8.Valid(data) {
		return append(dst, data...)
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			if !final && !utf8.FullRune(data[i:]) {
				s.carry = append([]byte(nil), data[i:]...)
				return dst
			}
			dst = utf8.AppendRune(dst, utf8.RuneError)
			i++
			continue
		}
		dst = append(dst, data[i:i+size]...)
		i += size
	}
	return dst
}

// wrapInput builds the reader chain for a CSV file and returns the reader
// to decode from along with the byte counter on the raw input.
func wrapInput(r io.Reader, sanitize bool) (io.Reader, *countingReader) {
	counter := &countingReader{r: r}
	var out io.Reader = newBOMSkipper(counter)
	if sanitize {
		out = newUTF8Sanitizer(out)
	}
	return out, counter
}
