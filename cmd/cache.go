package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/cc-convo/internal"
	"github.com/spf13/cobra"
)

// tableInfo describes one table of the cache database
type tableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []columnInfo `json:"columns,omitempty"`
}

type columnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

type cacheInfo struct {
	Path      string      `json:"path"`
	Enabled   bool        `json:"enabled"`
	Exists    bool        `json:"exists"`
	SizeBytes int64       `json:"size_bytes"`
	Entries   int         `json:"entries"`
	Tables    []tableInfo `json:"tables,omitempty"`
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the event cache",
	Long: `The event cache stores normalized events per transcript and mode in a
SQLite database, keyed by file path and invalidated when a transcript's
modification time or size changes.`,
}

func newCacheInfoCmd() *cobra.Command {
	var schema bool
	c := &cobra.Command{
		Use:   "info",
		Short: "Show cache location, size and tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := inspectCache(app.cfg.Cache.Path, schema)
			if err != nil {
				return err
			}
			info.Enabled = app.cfg.Cache.Enabled
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, info)
			}
			displayCacheInfo(out, info)
			return nil
		},
	}
	c.Flags().BoolVar(&schema, "schema", false, "Include the column layout of each table")
	return c
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := internal.OpenEventCache(app.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()
			if err := cache.Clear(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, map[string]any{"path": cache.Path(), "cleared": true})
			}
			_, _ = fmt.Fprintln(out, render(out, okStyle, "Cache cleared: "+cache.Path()))
			return nil
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove entries for transcripts that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Prune against every transcript, not just the time window
			transcripts, err := internal.DiscoverTranscripts(app.claudeDir, internal.TimeWindow{})
			if err != nil {
				return err
			}
			cache, err := internal.OpenEventCache(app.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()
			removed, err := cache.Prune(transcripts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, map[string]any{"path": cache.Path(), "removed": removed})
			}
			_, _ = fmt.Fprintf(out, "Removed %d stale cache entr%s.\n", removed, pluralY(removed))
			return nil
		},
	}
}

func inspectCache(path string, schema bool) (*cacheInfo, error) {
	info := &cacheInfo{Path: path}
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "stat", Err: err}
	}
	info.Exists = true
	info.SizeBytes = st.Size()

	db, err := internal.OpenDatabase(path)
	if err != nil {
		return nil, &internal.CacheError{Path: path, Op: "open", Err: err}
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(db)
	if err != nil {
		return nil, &internal.CacheError{Path: path, Op: "inspect", Err: err}
	}
	for _, name := range tables {
		t := tableInfo{Name: name}
		// Table names come from sqlite_master, not user input
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&t.Rows); err != nil {
			return nil, &internal.CacheError{Path: path, Op: "count " + name, Err: err}
		}
		if name == "transcript_events" {
			info.Entries = t.Rows
		}
		if schema {
			if t.Columns, err = getTableSchema(db, name); err != nil {
				return nil, &internal.CacheError{Path: path, Op: "schema " + name, Err: err}
			}
		}
		info.Tables = append(info.Tables, t)
	}
	return info, nil
}

func getTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func getTableSchema(db *sql.DB, tableName string) ([]columnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	for rows.Next() {
		var (
			col          columnInfo
			cid          int
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func displayCacheInfo(out io.Writer, info *cacheInfo) {
	_, _ = fmt.Fprintln(out, render(out, headerStyle, "Event cache"))
	_, _ = fmt.Fprintf(out, "Path: %s\n", info.Path)
	_, _ = fmt.Fprintf(out, "Enabled: %t\n", info.Enabled)
	if !info.Exists {
		_, _ = fmt.Fprintln(out, render(out, dateStyle, "Not created yet"))
		return
	}
	_, _ = fmt.Fprintf(out, "Size: %s\n", humanize.Bytes(uint64(info.SizeBytes)))
	_, _ = fmt.Fprintf(out, "Entries: %d\n", info.Entries)
	for _, t := range info.Tables {
		_, _ = fmt.Fprintf(out, "\n%s %s\n", render(out, titleStyle, t.Name), render(out, dateStyle, fmt.Sprintf("(%d rows)", t.Rows)))
		for _, col := range t.Columns {
			extra := ""
			if col.NotNull {
				extra += " NOT NULL"
			}
			if col.PrimaryKey {
				extra += " [PRIMARY KEY]"
			}
			_, _ = fmt.Fprintf(out, "  • %s: %s%s\n", col.Name, col.Type, extra)
		}
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	cacheCmd.AddCommand(newCacheInfoCmd(), newCacheClearCmd(), newCachePruneCmd())
	rootCmd.AddCommand(cacheCmd)
}
