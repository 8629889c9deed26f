package table

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCellZeroValueIsMissing(t *testing.T) {
	var c Cell
	if !c.IsMissing() {
		t.Fatal("zero-value cell should be missing")
	}
	if c.Text() != "" {
		t.Fatalf("missing cell text = %q, want empty", c.Text())
	}
	if c.Value() != "" {
		t.Fatalf("missing cell value = %v, want empty string", c.Value())
	}
}

func TestMissingDistinctFromZeroAndEmptyString(t *testing.T) {
	if String("").IsMissing() {
		t.Fatal("empty string cell must not be missing")
	}
	if Number(decimal.Zero).IsMissing() {
		t.Fatal("zero number cell must not be missing")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{" 16.5 ", "16.5", true},
		{"-3.25", "-3.25", true},
		{"", "", false},
		{"   ", "", false},
		{"abc", "", false},
		{"12abc", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}

func TestFromGridRaggedRows(t *testing.T) {
	tab := FromGrid([]string{"a", "b", "c"}, [][]string{
		{"1", "2", "3"},
		{"4"},
		{"5", "6", "7", "extra"},
	})

	if tab.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tab.Len())
	}
	if !tab.Get(1, "b").IsMissing() {
		t.Error("short row should leave trailing cells missing")
	}
	if got := tab.Get(2, "c").Text(); got != "7" {
		t.Errorf("cell (2,c) = %q, want 7", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := FromGrid([]string{"x"}, [][]string{{"1"}})
	cl := orig.Clone()

	cl.Set(0, "x", String("changed"))
	cl.AddColumn("y", String("fill"))

	if got := orig.Get(0, "x").Text(); got != "1" {
		t.Errorf("original mutated through clone: x = %q", got)
	}
	if orig.HasColumn("y") {
		t.Error("column added on clone leaked into original")
	}
}

func TestAddColumnFillsExistingRows(t *testing.T) {
	tab := FromGrid([]string{"a"}, [][]string{{"1"}, {"2"}})
	tab.AddColumn("b", String(""))

	for i := 0; i < tab.Len(); i++ {
		if tab.Get(i, "b").Text() != "" || tab.Get(i, "b").IsMissing() {
			t.Errorf("row %d: fill cell = %v", i, tab.Get(i, "b"))
		}
	}

	// Re-adding is a no-op.
	tab.AddColumn("b", String("other"))
	if got := len(tab.Columns()); got != 2 {
		t.Fatalf("columns = %d, want 2", got)
	}
}

func TestRenameColumnMovesCells(t *testing.T) {
	tab := FromGrid([]string{"precio", "iva"}, [][]string{{"100", "16"}})
	tab.RenameColumn("precio", "precio_venta")

	if tab.HasColumn("precio") {
		t.Error("old column name still present")
	}
	if got := tab.Get(0, "precio_venta").Text(); got != "100" {
		t.Errorf("renamed cell = %q, want 100", got)
	}
}

func TestFilterCopiesRows(t *testing.T) {
	tab := FromGrid([]string{"n"}, [][]string{{"1"}, {"2"}, {"3"}})
	odd := tab.Filter(func(r Row) bool { return r["n"].Text() != "2" })

	if odd.Len() != 2 {
		t.Fatalf("filtered Len = %d, want 2", odd.Len())
	}
	odd.Set(0, "n", String("mutated"))
	if tab.Get(0, "n").Text() != "1" {
		t.Error("filter result shares rows with source")
	}
}

func TestWriteCSV(t *testing.T) {
	tab := New("a", "b")
	tab.Append(Row{"a": String("1"), "b": NumberFromFloat(2.5)})
	tab.Append(Row{"a": String("x,y")}) // missing b, comma needs quoting

	var buf bytes.Buffer
	if err := tab.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	want := "a,b\n1,2.5\n\"x,y\",\n"
	if buf.String() != want {
		t.Errorf("CSV = %q, want %q", buf.String(), want)
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var tab *Table
	if !tab.IsEmpty() {
		t.Error("nil table should be empty")
	}
	if tab.Len() != 0 {
		t.Error("nil table Len should be 0")
	}
}
