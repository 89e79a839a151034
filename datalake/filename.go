package datalake

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/retail/transaction"
)

var ErrBadFileName = errors.New("bad file name")

// FileMeta is the positional metadata carried by an export file name of
// the form <prefix>_<day>_<month>_<year...>.csv.
type FileMeta struct {
	Name   string
	Prefix string
	Day    string
	Month  string
	Year   string
}

// ParseFileName extracts the batch date from name. Day and month are used
// verbatim; the year is the first four characters of the fourth token.
// Day and month must be zero padded: retail_5_1_2022.csv is rejected.
func ParseFileName(name string) (FileMeta, error) {
	base := filepath.Base(name)
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		return FileMeta{}, fmt.Errorf("%w %q: want <prefix>_<day>_<month>_<year>.csv", ErrBadFileName, base)
	}
	if len(parts[3]) < 4 {
		return FileMeta{}, fmt.Errorf("%w %q: short year %q", ErrBadFileName, base, parts[3])
	}

	m := FileMeta{
		Name:   base,
		Prefix: parts[0],
		Day:    parts[1],
		Month:  parts[2],
		Year:   parts[3][:4],
	}
	if _, err := time.Parse(transaction.DateLayout, m.Date()); err != nil {
		return FileMeta{}, fmt.Errorf("%w %q: %v", ErrBadFileName, base, err)
	}
	return m, nil
}

// Date returns the batch date as YYYY-MM-DD.
func (m FileMeta) Date() string {
	return m.Year + "-" + m.Month + "-" + m.Day
}

// Dir is the dated folder for this file under root: root/YYYY/MM/DD.
func (m FileMeta) Dir(root string) string {
	return filepath.Join(root, m.Year, m.Month, m.Day)
}

// Stem is the file name without its extension.
func (m FileMeta) Stem() string {
	return strings.TrimSuffix(m.Name, filepath.Ext(m.Name))
}
