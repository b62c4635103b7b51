// internal/output/sql.go
package output

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/valpere/SocialScrapexter/pkg/types"
)

// identifierPattern restricts table names to plain identifiers; table
// names are interpolated into DDL and cannot be bound as parameters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLWriter persists posts into a relational table, creating it on first
// use. Rows conflict on the post id and are skipped, so re-scraping the
// same target is idempotent.
type SQLWriter struct {
	db     *sql.DB
	driver string
	table  string
}

// NewSQLWriter opens a database by driver name and ensures the table
// exists. Supported drivers: sqlite3, mysql, postgres.
func NewSQLWriter(driver, dsn, table string) (*SQLWriter, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s output requires a dsn", driver)
	}
	if table == "" {
		table = "posts"
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}

	if driver == "sqlite3" && !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1) // single writer
	}

	w := &SQLWriter{db: db, driver: driver, table: table}
	if err := w.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) ensureTable() error {
	textType := "TEXT"
	if w.driver == "mysql" {
		// MySQL cannot index unbounded TEXT as a primary key.
		textType = "VARCHAR(255)"
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id %s PRIMARY KEY,
		author TEXT,
		author_url TEXT,
		content TEXT,
		timestamp TEXT,
		reactions INTEGER,
		comments INTEGER,
		shares INTEGER,
		url TEXT
	)`, w.table, textType)

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.table, err)
	}
	return nil
}

// insertStatement builds the dialect-appropriate conflict-skipping insert.
func (w *SQLWriter) insertStatement() string {
	switch w.driver {
	case "postgres":
		return fmt.Sprintf(
			"INSERT INTO %s (id, author, author_url, content, timestamp, reactions, comments, shares, url) "+
				"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO NOTHING", w.table)
	case "mysql":
		return fmt.Sprintf(
			"INSERT IGNORE INTO %s (id, author, author_url, content, timestamp, reactions, comments, shares, url) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", w.table)
	default:
		return fmt.Sprintf(
			"INSERT OR IGNORE INTO %s (id, author, author_url, content, timestamp, reactions, comments, shares, url) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", w.table)
	}
}

func (w *SQLWriter) Write(posts []types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(w.insertStatement())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range posts {
		if _, err := stmt.Exec(p.ID, p.Author, p.AuthorURL, p.Content, p.Timestamp,
			p.Reactions, p.Comments, p.Shares, p.URL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert post %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
