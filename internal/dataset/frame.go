package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoHeader      = errors.New("csv has no header")
	ErrNonNumeric    = errors.New("non-numeric value")
	ErrEmptyColumn   = errors.New("column has no observed values")
	ErrUnknownColumn = errors.New("unknown column")
)

// Column keeps the raw cells of one CSV column. Values is filled once the
// column has been parsed as numeric.
type Column struct {
	Name   string
	Raw    []string
	Values []float64
}

type Frame struct {
	Columns []*Column
	rows    int
}

func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()
	frame, err := ReadCSV(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return frame, nil
}

func ReadCSV(r io.Reader) (*Frame, error) {
	var reader = csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.WithStack(ErrNoHeader)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Spreadsheet exports start with a UTF-8 byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var frame = &Frame{Columns: make([]*Column, len(header))}
	for i, name := range header {
		frame.Columns[i] = &Column{Name: strings.TrimSpace(name)}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for i, cell := range record {
			frame.Columns[i].Raw = append(frame.Columns[i].Raw, strings.TrimSpace(cell))
		}
		frame.rows++
	}
	return frame, nil
}

func (f *Frame) Rows() int { return f.rows }

func (f *Frame) Column(name string) (*Column, error) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownColumn, "%q", name)
}

// IsMissing reports whether a raw cell stands for a missing value.
func IsMissing(cell string) bool {
	switch cell {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}

// Floats parses the column, mapping missing cells to NaN.
func (c *Column) Floats() ([]float64, error) {
	var result = make([]float64, len(c.Raw))
	for i, cell := range c.Raw {
		if IsMissing(cell) {
			result[i] = math.NaN()
			continue
		}
		x, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrNonNumeric, "column %q row %d: %q", c.Name, i+1, cell)
		}
		result[i] = x
	}
	return result, nil
}
