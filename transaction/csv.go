package transaction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a header row followed by data rows. Empty cells become
// nil so that they fail coercion like any other missing value.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, fmt.Errorf("read header: empty input")
		}
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	t := Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return Table{}, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(header) {
			line, _ := cr.FieldPos(0)
			return Table{}, fmt.Errorf("line %d: got %d fields, header has %d", line, len(rec), len(header))
		}

		row := make(RawRow, len(header))
		for i, col := range header {
			if strings.TrimSpace(rec[i]) == "" {
				row[col] = nil
				continue
			}
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
}
