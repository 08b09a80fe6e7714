// Package database provides a unified interface for connecting to the transfer ledger.
//
// The mirror jobs record every object they move in a ledger table. The
// ledger can live in PostgreSQL or SQLite; this package picks the backend
// from configuration and handles migrations and schema validation.
//
// # Supported Backends
//
//   - PostgreSQL: shared ledger using a pgx connection pool
//   - SQLite: single-host ledger, the default for local runs
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "closureme.db",
//	    Tables: closureme.Tables{Transfers: "closureme_transfers"},
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Connect only opens the backend. Open also pings it, runs migrations
// and validates the schema.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
