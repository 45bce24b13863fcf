package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// DataType is the inferred type of a table column.
type DataType int

const (
	DataNull DataType = iota
	DataInteger
	DataFloat
	DataString
	DataBool
	DataDate
	DataCurrency
	DataMixed
)

func (d DataType) String() string {
	switch d {
	case DataInteger:
		return "Integer"
	case DataFloat:
		return "Float"
	case DataString:
		return "String"
	case DataBool:
		return "Bool"
	case DataDate:
		return "Date"
	case DataCurrency:
		return "Currency"
	case DataMixed:
		return "Mixed"
	}
	return "Null"
}

func DataTypeOf(v Value) DataType {
	switch v := v.(type) {
	case *Number:
		if v.IsInteger() {
			return DataInteger
		}
		return DataFloat
	case *String:
		if _, ok := ParseCurrency(v.Value); ok {
			return DataCurrency
		}
		if IsDateString(v.Value) {
			return DataDate
		}
		return DataString
	case *Bool:
		return DataBool
	case *Currency:
		return DataCurrency
	case *Null:
		return DataNull
	}
	return DataMixed
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-1-2",
	"02.01.2006",
	"02.01.06",
	"01/02/2006",
	"02/01/2006",
	"1/2/2006",
	"01/02/06",
}

func IsDateString(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

type Column struct {
	Name     string
	Inferred DataType
	counts   map[DataType]int
	total    int
}

func (c *Column) add(v Value) {
	c.counts[DataTypeOf(v)]++
	c.total++
	c.infer()
}

func (c *Column) infer() {
	numeric := c.counts[DataInteger] + c.counts[DataFloat]
	if numeric > 0 {
		if c.counts[DataFloat] > 0 {
			c.Inferred = DataFloat
		} else {
			c.Inferred = DataInteger
		}
		return
	}
	best, bestCount := DataNull, 0
	for dt := DataString; dt <= DataMixed; dt++ {
		if c.counts[dt] > bestCount {
			best, bestCount = dt, c.counts[dt]
		}
	}
	c.Inferred = best
}

func (c *Column) warning() string {
	if c.total == 0 {
		return ""
	}
	switch c.Inferred {
	case DataInteger, DataFloat:
		other := c.total - c.counts[DataInteger] - c.counts[DataFloat]
		if other > 0 {
			return fmt.Sprintf("Column '%s' contains mixed data: %.1f%% of values are not numeric",
				c.Name, float64(other)/float64(c.total)*100)
		}
	case DataNull:
	default:
		other := c.total - c.counts[c.Inferred]
		if other > 0 {
			return fmt.Sprintf("Column '%s' contains mixed data: %.1f%% of values are not %s",
				c.Name, float64(other)/float64(c.total)*100, c.Inferred)
		}
	}
	return ""
}

// Table is a shared handle: every alias observes in-place mutation.
type Table struct {
	mu      deadlock.RWMutex
	columns []*Column
	rows    [][]Value
}

func NewTable(names []string) (*Table, error) {
	seen := make(map[string]bool, len(names))
	t := &Table{}
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("duplicate column '%s'", n)
		}
		seen[n] = true
		t.columns = append(t.columns, &Column{Name: n, counts: map[DataType]int{}})
	}
	return t, nil
}

func (*Table) Type() Type { return TABLE_VAL }
func (t *Table) Inspect() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return "Table(" + strconv.Itoa(len(t.rows)) + "x" + strconv.Itoa(len(t.columns)) + ")"
}

func (t *Table) AddRow(row []Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.columns))
	}
	cp := make([]Value, len(row))
	copy(cp, row)
	for i, v := range cp {
		t.columns[i].add(v)
	}
	t.rows = append(t.rows, cp)
	return nil
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table) Width() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.columns)
}

func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) ColumnTypes() []DataType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	types := make([]DataType, len(t.columns))
	for i, c := range t.columns {
		types[i] = c.Inferred
	}
	return types
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.columnIndex(name) >= 0
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[idx]
	}
	return out, true
}

// Row returns a copy of row i.
func (t *Table) Row(i int) ([]Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return nil, false
	}
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out, true
}

func (t *Table) RowObject(i int) (*Object, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return nil, false
	}
	obj := NewObject()
	for c, col := range t.columns {
		obj.Pairs[col.Name] = t.rows[i][c]
	}
	return obj, true
}

// Rows returns a snapshot of all rows.
func (t *Table) Rows() [][]Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		cp := make([]Value, len(r))
		copy(cp, r)
		out[i] = cp
	}
	return out
}

func (t *Table) Warnings() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, c := range t.columns {
		if w := c.warning(); w != "" {
			out = append(out, w)
		}
	}
	return out
}
