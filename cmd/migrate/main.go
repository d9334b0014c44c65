// Command migrate manages the checkout-service schema via goose.
// It connects with DATABASE_URL when set, otherwise from the same DB_*
// variables the server reads.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const connectTimeout = 5 * time.Second

func main() {
	dir := flag.String("dir", "internal/db/migrations", "directory with migration files")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	db, err := sql.Open("pgx", databaseDSN())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("connect to database: %v", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}
	if err := goose.RunContext(context.Background(), command, db, *dir, flag.Args()[1:]...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "checkout_service"),
		envOr("DB_SSL_MODE", "disable"),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: migrate [-dir DIR] COMMAND [ARGS]

Applies checkout-service schema migrations. Any goose command is
accepted; the common ones:

    up               apply all pending migrations
    up-to VERSION    migrate up to VERSION
    down             roll back the latest migration
    down-to VERSION  roll back to VERSION
    status           print per-migration state
    version          print the current schema version
    create NAME sql  scaffold a new timestamped migration

Connection comes from DATABASE_URL, or from DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME and DB_SSL_MODE.
`)
}
