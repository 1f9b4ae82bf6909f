// Package dataset reads and writes the numeric CSV tables stages hand to each
// other.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

// Frame is an in-memory numeric table.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the position of the named column, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]float64, error) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// SetColumn replaces the values of an existing column or appends a new one.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.Rows) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.Rows))
	}
	idx := f.Index(name)
	if idx < 0 {
		f.Columns = append(f.Columns, name)
		for i := range f.Rows {
			f.Rows[i] = append(f.Rows[i], values[i])
		}
		return nil
	}
	for i := range f.Rows {
		f.Rows[i][idx] = values[i]
	}
	return nil
}

// Take returns a new frame holding the given rows in order. Row slices are copied.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...), Rows: make([][]float64, len(rows))}
	for i, r := range rows {
		out.Rows[i] = append([]float64(nil), f.Rows[r]...)
	}
	return out
}

// FeatureNames returns every column except target, in frame order.
func (f *Frame) FeatureNames(target string) []string {
	var names []string
	for _, c := range f.Columns {
		if c != target {
			names = append(names, c)
		}
	}
	return names
}

// Matrix returns the named columns as a rows x len(columns) dense matrix.
func (f *Frame) Matrix(columns []string) (*mat.Dense, error) {
	if len(f.Rows) == 0 || len(columns) == 0 {
		return nil, fmt.Errorf("empty matrix: %d rows, %d columns", len(f.Rows), len(columns))
	}
	idx := make([]int, len(columns))
	for j, name := range columns {
		idx[j] = f.Index(name)
		if idx[j] < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
	}
	m := mat.NewDense(len(f.Rows), len(columns), nil)
	for i, row := range f.Rows {
		for j, k := range idx {
			m.Set(i, j, row[k])
		}
	}
	return m, nil
}

// ReadHeader returns the cleaned column names of a CSV file without reading
// the body.
func ReadHeader(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	r, err := newReader(file)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	return cleanHeader(header), nil
}

// ReadCSV loads a CSV file whose every cell parses as a float.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	r, err := newReader(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	f := &Frame{Columns: cleanHeader(header)}

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %q: %w", path, line, f.Columns[i], err)
			}
			row[i] = v
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// WriteCSV writes the frame with a header row, atomically.
func WriteCSV(path string, f *Frame) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	return pipeline.WriteAtomic(path, buf.Bytes())
}

// Encode writes the frame as comma-separated values with a header row.
func Encode(out io.Writer, f *Frame) error {
	w := csv.NewWriter(out)
	if err := w.Write(f.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// newReader sniffs the delimiter from the first line: files whose header has
// semicolons and no commas are read as semicolon-separated.
func newReader(r io.Reader) (*csv.Reader, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if nl := bytes.IndexByte(first, '\n'); nl >= 0 {
		first = first[:nl]
	}
	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	if bytes.Contains(first, []byte(";")) && !bytes.Contains(first, []byte(",")) {
		cr.Comma = ';'
	}
	return cr, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		h = strings.ReplaceAll(h, `"`, "")
		out[i] = h
	}
	return out
}
