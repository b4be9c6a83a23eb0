package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"

	"github.com/maple/policydesk/migrations"
)

const usage = `usage: migrate [--list] <up|down|version|force N>

Applies the embedded schema migrations to DATABASE_URL.`

func main() {
	listOnly := flag.Bool("list", false, "print the embedded migration files and exit")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if *listOnly {
		files, err := migrations.Files()
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, f := range files {
			fmt.Println(" ", f)
		}
		fmt.Printf("Total: %d files\n", len(files))
		return
	}

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	m, err := migrations.New(db)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if flag.NArg() < 2 {
			log.Fatal("force needs a version")
		}
		v, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatalf("force: %v", convErr)
		}
		err = m.Force(v)
	case "version":
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("%s: %v", cmd, err)
	}

	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("No migrations applied")
	case err != nil:
		log.Fatalf("version: %v", err)
	default:
		fmt.Printf("Schema version %d (dirty=%t)\n", v, dirty)
	}
}
