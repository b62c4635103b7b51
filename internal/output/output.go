// internal/output/output.go

// Package output persists scraped posts. One Writer per destination
// format; the Manager picks a writer from settings. All writers share the
// same fixed post schema.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/valpere/SocialScrapexter/internal/config"
	"github.com/valpere/SocialScrapexter/pkg/types"
)

// Format identifies a persistence destination.
type Format string

const (
	FormatJSON       Format = "json"
	FormatCSV        Format = "csv"
	FormatSQLite     Format = "sqlite"
	FormatMySQL      Format = "mysql"
	FormatPostgreSQL Format = "postgresql"
	FormatMongoDB    Format = "mongodb"
	FormatExcel      Format = "excel"
)

// IsValid reports whether f names a supported format.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatSQLite, FormatMySQL, FormatPostgreSQL, FormatMongoDB, FormatExcel:
		return true
	}
	return false
}

// Writer persists post records to one destination.
type Writer interface {
	Write(posts []types.Post) error
	Close() error
}

// postColumns is the shared flat schema, in column order.
var postColumns = []string{
	"id", "author", "author_url", "content", "timestamp",
	"reactions", "comments", "shares", "url",
}

// postRow flattens a post in postColumns order.
func postRow(p types.Post) []string {
	return []string{
		p.ID, p.Author, p.AuthorURL, p.Content, p.Timestamp,
		strconv.Itoa(p.Reactions), strconv.Itoa(p.Comments), strconv.Itoa(p.Shares), p.URL,
	}
}

// NewWriter builds a writer from output settings.
func NewWriter(settings *config.OutputSettings) (Writer, error) {
	if settings == nil {
		return nil, fmt.Errorf("output settings are required")
	}

	format := Format(strings.ToLower(settings.Format))
	switch format {
	case FormatJSON:
		return NewJSONWriter(settings.File)
	case FormatCSV:
		return NewCSVWriter(settings.File)
	case FormatSQLite:
		return NewSQLWriter("sqlite3", settings.File, settings.Table)
	case FormatMySQL:
		return NewSQLWriter("mysql", settings.DSN, settings.Table)
	case FormatPostgreSQL:
		return NewSQLWriter("postgres", settings.DSN, settings.Table)
	case FormatMongoDB:
		return NewMongoWriter(settings.DSN, settings.Table)
	case FormatExcel:
		return NewExcelWriter(settings.File)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", settings.Format)
	}
}

// JSONWriter appends posts to a JSON array file, or stdout when no file is
// configured.
type JSONWriter struct {
	file  *os.File
	posts []types.Post
}

// NewJSONWriter creates a JSON writer. An empty filename targets stdout.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	w := &JSONWriter{}
	if filename != "" {
		f, err := os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w.file = f
	}
	return w, nil
}

func (w *JSONWriter) Write(posts []types.Post) error {
	w.posts = append(w.posts, posts...)
	return nil
}

// Close flushes the accumulated posts as one indented JSON document.
func (w *JSONWriter) Close() error {
	out := os.Stdout
	if w.file != nil {
		out = w.file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.posts); err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CSVWriter streams posts to a CSV file with a header row.
type CSVWriter struct {
	file        *os.File
	writer      *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer. An empty filename targets stdout.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	w := &CSVWriter{}
	out := os.Stdout
	if filename != "" {
		f, err := os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w.file = f
		out = f
	}
	w.writer = csv.NewWriter(out)
	return w, nil
}

func (w *CSVWriter) Write(posts []types.Post) error {
	if !w.wroteHeader {
		if err := w.writer.Write(postColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHeader = true
	}
	for _, post := range posts {
		if err := w.writer.Write(postRow(post)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return err
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
