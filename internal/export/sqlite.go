// Package export writes a finished program's global variables to SQLite.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"datacode/internal/value"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// MetadataTable lists every exported global, tables or not.
const MetadataTable = "_datacode_variables"

// maxStoredValue caps the display text kept for one variable.
const maxStoredValue = 10000

type Summary struct {
	// Tables maps variable names to the SQLite table holding their rows.
	Tables    map[string]string
	Variables int
}

// SQLite exports globals into the database at path. Each table value gets
// its own SQLite table; every variable gets a metadata row.
func SQLite(ctx context.Context, path string, globals map[string]value.Value, now time.Time) (Summary, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, errors.Wrap(err, "begin export")
	}
	defer tx.Rollback()

	names := make([]string, 0, len(globals))
	for n := range globals {
		names = append(names, n)
	}
	sort.Strings(names)

	sum := Summary{Tables: map[string]string{}}
	used := map[string]bool{MetadataTable: true}
	for _, n := range names {
		t, ok := globals[n].(*value.Table)
		if !ok {
			continue
		}
		tableName := uniqueName(TableName(n), used)
		if err := writeTable(ctx, tx, tableName, t); err != nil {
			return Summary{}, errors.Wrapf(err, "export table %s", n)
		}
		sum.Tables[n] = tableName
	}

	if err := writeMetadata(ctx, tx, names, globals, sum.Tables, now); err != nil {
		return Summary{}, err
	}
	sum.Variables = len(names)

	if err := tx.Commit(); err != nil {
		return Summary{}, errors.Wrap(err, "commit export")
	}
	return sum, nil
}

// TableName turns a variable name into a SQLite identifier.
func TableName(name string) string {
	return ColumnName(name)
}

// ColumnName snake-cases name and replaces anything that is not a letter,
// digit or underscore. Names starting with a digit get a col_ prefix.
func ColumnName(name string) string {
	s := strcase.ToSnake(name)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "col"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "col_" + s
	}
	return s
}

func uniqueName(base string, used map[string]bool) string {
	name := base
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	used[name] = true
	return name
}

// Affinity maps an inferred column type to a SQLite column type.
func Affinity(d value.DataType) string {
	switch d {
	case value.DataInteger, value.DataBool:
		return "INTEGER"
	case value.DataFloat, value.DataCurrency:
		return "REAL"
	}
	return "TEXT"
}

func writeTable(ctx context.Context, tx *sql.Tx, name string, t *value.Table) error {
	cols := t.ColumnNames()
	if len(cols) == 0 {
		return errors.Errorf("table %s has no columns", name)
	}
	types := t.ColumnTypes()

	used := map[string]bool{}
	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		col := uniqueName(ColumnName(c), used)
		quoted[i] = quote(col)
		defs[i] = quoted[i] + " " + Affinity(types[i])
		marks[i] = "?"
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return errors.Wrap(err, "drop")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))); err != nil {
		return errors.Wrap(err, "create")
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(name), strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i, row := range t.Rows() {
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = sqlValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "insert row %d", i)
		}
	}
	return nil
}

func writeMetadata(ctx context.Context, tx *sql.Tx, names []string, globals map[string]value.Value, tables map[string]string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+MetadataTable+` (
	variable_name TEXT PRIMARY KEY,
	variable_type TEXT NOT NULL,
	table_name TEXT,
	row_count INTEGER,
	column_count INTEGER,
	created_at TEXT,
	value TEXT
)`); err != nil {
		return errors.Wrap(err, "create metadata table")
	}

	created := now.UTC().Format(time.RFC3339)
	for _, n := range names {
		v := globals[n]
		var tableName, rows, cols any
		if t, ok := v.(*value.Table); ok {
			tableName, rows, cols = tables[n], t.Len(), t.Width()
		}
		text := v.Inspect()
		if len(text) > maxStoredValue {
			text = fmt.Sprintf("%s... (truncated, len: %d)", text[:maxStoredValue], len(text))
		}
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO `+MetadataTable+`
	(variable_name, variable_type, table_name, row_count, column_count, created_at, value)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, n, string(v.Type()), tableName, rows, cols, created, text)
		if err != nil {
			return errors.Wrapf(err, "write metadata for %s", n)
		}
	}
	return nil
}

func sqlValue(v value.Value) any {
	switch x := v.(type) {
	case *value.Number:
		if x.IsInteger() {
			return int64(x.Value)
		}
		return x.Value
	case *value.String:
		return x.Value
	case *value.Bool:
		if x.Value {
			return int64(1)
		}
		return int64(0)
	case *value.Currency:
		return x.Amount
	case *value.Null, nil:
		return nil
	}
	return v.Inspect()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
