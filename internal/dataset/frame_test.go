package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadHeader(t *testing.T) {
	path := writeFile(t, "\"fixed acidity\", alcohol ,quality\n7.4,9.4,5\n")
	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	want := []string{"fixed acidity", "alcohol", "quality"}
	if strings.Join(header, "|") != strings.Join(want, "|") {
		t.Errorf("header = %q, want %q", header, want)
	}
}

func TestReadCSVSemicolon(t *testing.T) {
	path := writeFile(t, "\"fixed acidity\";\"alcohol\";\"quality\"\n7.4;9.4;5\n7.8;9.8;5\n")
	f, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}
	if f.Columns[0] != "fixed acidity" {
		t.Errorf("Columns[0] = %q, want %q", f.Columns[0], "fixed acidity")
	}
	col, err := f.Column("alcohol")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if col[1] != 9.8 {
		t.Errorf("alcohol[1] = %v, want 9.8", col[1])
	}
}

func TestReadCSVBadCell(t *testing.T) {
	path := writeFile(t, "a,b\n1,x\n")
	_, err := ReadCSV(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), `column "b"`) {
		t.Errorf("error %q should name the column", err)
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := &Frame{
		Columns: []string{"x", "y"},
		Rows:    [][]float64{{0.1, 1.0 / 3.0}, {-2.5, 1e-12}},
	}
	path := filepath.Join(t.TempDir(), "out", "frame.csv")
	if err := WriteCSV(path, f); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	for i := range f.Rows {
		for j := range f.Rows[i] {
			if got.Rows[i][j] != f.Rows[i][j] {
				t.Errorf("cell (%d,%d) = %v, want %v", i, j, got.Rows[i][j], f.Rows[i][j])
			}
		}
	}
}

func TestSetColumnAndTake(t *testing.T) {
	f := &Frame{Columns: []string{"a"}, Rows: [][]float64{{1}, {2}, {3}}}
	if err := f.SetColumn("b", []float64{10, 20, 30}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	if err := f.SetColumn("a", []float64{4, 5, 6}); err != nil {
		t.Fatalf("SetColumn replace: %v", err)
	}
	if err := f.SetColumn("c", []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}

	sub := f.Take([]int{2, 0})
	if sub.Len() != 2 || sub.Rows[0][0] != 6 || sub.Rows[1][1] != 10 {
		t.Errorf("Take rows = %v", sub.Rows)
	}
	sub.Rows[0][0] = 99
	if f.Rows[2][0] != 6 {
		t.Error("Take shares row storage with the source frame")
	}
}

func TestMatrix(t *testing.T) {
	f := &Frame{Columns: []string{"a", "b", "t"}, Rows: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	names := f.FeatureNames("t")
	if len(names) != 2 || names[1] != "b" {
		t.Fatalf("FeatureNames = %v", names)
	}
	m, err := f.Matrix(names)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	r, c := m.Dims()
	if r != 2 || c != 2 || m.At(1, 1) != 5 {
		t.Errorf("matrix %dx%d, At(1,1)=%v", r, c, m.At(1, 1))
	}
	if _, err := f.Matrix([]string{"zzz"}); err == nil {
		t.Error("expected error for unknown column")
	}
}
