package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deepseek-ocr-api/internal/shared"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// splitStatements drops comment lines and splits the file on semicolons
func splitStatements(migrationSQL string) []string {
	var out []string
	for _, stmt := range strings.Split(migrationSQL, ";") {
		lines := strings.Split(stmt, "\n")
		var cleanLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
				cleanLines = append(cleanLines, line)
			}
		}
		stmt = strings.TrimSpace(strings.Join(cleanLines, "\n"))
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func main() {
	_ = godotenv.Load()

	DSN, err := shared.SafeEnv("DSN")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: DSN environment variable is required: %v\n", err)
		os.Exit(1)
	}

	migrationPath := filepath.Join("migrations", "create_ocr_request_table.sql")
	if len(os.Args) > 1 {
		migrationPath = os.Args[1]
	}

	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading migration file %s: %v\n", migrationPath, err)
		os.Exit(1)
	}

	db, err := sql.Open("mysql", DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	for _, stmt := range splitStatements(string(migrationSQL)) {
		if _, err := db.Exec(stmt); err != nil {
			fmt.Fprintf(os.Stderr, "Error executing statement: %v\n", err)
			fmt.Fprintf(os.Stderr, "Statement: %s\n", stmt)
			os.Exit(1)
		}
	}

	fmt.Println("Migration completed successfully!")
}
