// Package all links every database backend into the binary.
package all

import (
	// Import all the backends so they register themselves
	_ "github.com/JonMunkholm/csvimport/internal/database/pgdb"
	_ "github.com/JonMunkholm/csvimport/internal/database/spannerdb"
	_ "github.com/JonMunkholm/csvimport/internal/database/sqlitedb"
)
