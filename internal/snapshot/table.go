package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Canonical dataset names, also used as CSV file stems and warehouse
// table names.
const (
	TableVisits     = "visits"
	TableOccupancy  = "bed_occupancy"
	TableFacilities = "health_facilities"
)

// MissingFieldError reports a column that an expected consumer could not
// find in a table. Classification treats it as fatal.
type MissingFieldError struct {
	Table  string
	Column string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("snapshot: table %q is missing column %q", e.Table, e.Column)
}

// Table is one batch extraction's rows for a single dataset.
// Cells are kept as strings; typed views parse them on demand.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table from a header and rows. Rows shorter than the
// header are rejected — extracts are written by us and must be rectangular.
func NewTable(name string, columns []string, rows [][]string) (*Table, error) {
	t := &Table{
		Name:    name,
		Columns: columns,
		Rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	for n, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("snapshot: table %q row %d has %d cells, want %d",
				name, n, len(row), len(columns))
		}
	}
	return t, nil
}

// Column returns the index of the named column and whether it exists.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ReadCSV reads a CSV extract from path into a Table named name.
// The first record is the header. An empty file (no header) is an error;
// a header with zero data rows is a valid, empty table.
func ReadCSV(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadCSVFrom(f, name)
}

// ReadCSVFrom is ReadCSV over an arbitrary reader.
func ReadCSVFrom(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("snapshot: table %q: empty file, no header", name)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: table %q: read header: %w", name, err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot: table %q: read row: %w", name, err)
		}
		rows = append(rows, rec)
	}
	return NewTable(name, header, rows)
}

// WriteCSV writes the table as a CSV file at path, header first.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", path, err)
	}
	defer f.Close()
	return t.WriteCSVTo(f)
}

// WriteCSVTo encodes the table as CSV onto w, header first.
func (t *Table) WriteCSVTo(out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("snapshot: write header for %q: %w", t.Name, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("snapshot: write rows for %q: %w", t.Name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("snapshot: flush %q: %w", t.Name, err)
	}
	return nil
}
