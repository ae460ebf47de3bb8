package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Well-known column names in compound datasets.
const (
	ColSMILES       = "smiles"
	ColActivity     = "acvalue"
	ColCategories   = "categories"
	ColSMILESLength = "smiles_length"
)

// ErrMissingColumn is returned when a required column is not present.
var ErrMissingColumn = errors.New("missing column")

// Kind is the semantic type of a column, fixed at load time.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindCategory Kind = "category"
)

// DefaultNAValues mirrors the tokens commonly treated as missing by tabular tools.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// LoadOptions controls how a delimited file becomes a Table.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffs by file extension.
	Delimiter rune
	// NAValues are cell values treated as null. Nil means DefaultNAValues.
	NAValues []string
	// CategoryMaxUnique caps distinct values for a text column to be inferred as category.
	CategoryMaxUnique int
	// DecimalSeparator for numbers. If 0, auto-detect per value.
	DecimalSeparator rune
}

// DefaultLoadOptions returns reasonable defaults for compound datasets.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		CategoryMaxUnique: 50,
	}
}

// Column is one named, typed column of a Table.
type Column struct {
	Name string
	Kind Kind
	// Raw holds the trimmed cell text as read.
	Raw []string
	// Nums holds parsed values for number columns; undefined where Null is set.
	Nums []float64
	Null []bool
	// Coerced marks non-null cells of a number column that failed to parse.
	Coerced []bool
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Raw) }

// Missing counts null cells.
func (c *Column) Missing() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// NonNull counts non-null cells.
func (c *Column) NonNull() int { return c.Len() - c.Missing() }

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, c.Len())
	for i, v := range c.Nums {
		if c.Null[i] || c.coerced(i) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Text returns the string form of cell i. Null cells read as "nan" and
// numbers use their shortest decimal form.
func (c *Column) Text(i int) string {
	if c.Null[i] {
		return "nan"
	}
	if c.Kind == KindNumber && !c.coerced(i) {
		return formatNumber(c.Nums[i])
	}
	return c.Raw[i]
}

func (c *Column) coerced(i int) bool {
	return c.Coerced != nil && c.Coerced[i]
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is a column-oriented in-memory dataset.
type Table struct {
	Name    string
	Columns []*Column
	rows    int
	index   map[string]int
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Cols returns the column count.
func (t *Table) Cols() int { return len(t.Columns) }

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Columns[i], true
}

// MustColumn is Column with ErrMissingColumn on absence.
func (t *Table) MustColumn(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return c, nil
}

// Row returns the display text of row i across all columns.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		if c.Null[i] {
			out[j] = "NaN"
			continue
		}
		out[j] = c.Raw[i]
	}
	return out
}

// AppendColumn adds a derived column. Its length must match the row count.
func (t *Table) AppendColumn(c *Column) error {
	if c.Len() != t.rows {
		return fmt.Errorf("append column %q: %d cells, table has %d rows", c.Name, c.Len(), t.rows)
	}
	if _, dup := t.index[c.Name]; dup {
		return fmt.Errorf("append column %q: already exists", c.Name)
	}
	t.index[c.Name] = len(t.Columns)
	t.Columns = append(t.Columns, c)
	return nil
}

// Schema records which well-known columns were present at load time.
type Schema struct {
	HasSMILES     bool
	HasActivity   bool
	HasCategories bool
}

// ResolveSchema inspects the table once. The smiles column is required.
func (t *Table) ResolveSchema() (Schema, error) {
	_, smiles := t.index[ColSMILES]
	_, act := t.index[ColActivity]
	_, cat := t.index[ColCategories]
	s := Schema{HasSMILES: smiles, HasActivity: act, HasCategories: cat}
	if !smiles {
		return s, fmt.Errorf("%w: %q", ErrMissingColumn, ColSMILES)
	}
	return s, nil
}

// Load reads a delimited file with a header row into a Table.
func Load(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	na := opt.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	naSet := make(map[string]struct{}, len(na))
	for _, v := range na {
		naSet[v] = struct{}{}
	}

	t := &Table{Name: filepath.Base(path), index: make(map[string]int, ncol)}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("read header: duplicate column %q", name)
		}
		t.index[name] = i
		t.Columns = append(t.Columns, &Column{Name: name})
	}

	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.rows+1, err)
		}
		t.rows++
		for j, c := range t.Columns {
			v := strings.TrimSpace(rec[j])
			_, null := naSet[v]
			c.Raw = append(c.Raw, v)
			c.Null = append(c.Null, null)
		}
	}

	for _, c := range t.Columns {
		inferKind(c, opt)
	}
	return t, nil
}

// inferKind decides a column's Kind and fills Nums for number columns.
func inferKind(c *Column, opt LoadOptions) {
	switch c.Name {
	case ColSMILES:
		c.Kind = KindText
		return
	case ColCategories:
		c.Kind = KindCategory
		return
	case ColActivity:
		// Always numeric; unparseable cells are kept but left out of Floats.
		c.Kind = KindNumber
		c.Nums = make([]float64, c.Len())
		c.Coerced = make([]bool, c.Len())
		for i, v := range c.Raw {
			if c.Null[i] {
				continue
			}
			x, ok := parseNumeric(v, opt.DecimalSeparator)
			if !ok {
				c.Coerced[i] = true
				continue
			}
			c.Nums[i] = x
		}
		return
	}

	nums := make([]float64, c.Len())
	numeric := c.NonNull() > 0
	distinct := map[string]struct{}{}
	for i, v := range c.Raw {
		if c.Null[i] {
			continue
		}
		distinct[v] = struct{}{}
		if !numeric {
			continue
		}
		x, ok := parseNumeric(v, opt.DecimalSeparator)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = x
	}
	if numeric {
		c.Kind = KindNumber
		c.Nums = nums
		return
	}
	maxUnique := opt.CategoryMaxUnique
	if maxUnique <= 0 {
		maxUnique = 50
	}
	if n := c.NonNull(); n > 0 && len(distinct) <= maxUnique && len(distinct)*2 <= n {
		c.Kind = KindCategory
		return
	}
	c.Kind = KindText
}

// SMILESLength derives a number column holding the character length of each
// cell's text form.
func SMILESLength(src *Column) *Column {
	n := src.Len()
	out := &Column{
		Name: ColSMILESLength,
		Kind: KindNumber,
		Raw:  make([]string, n),
		Nums: make([]float64, n),
		Null: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		l := utf8.RuneCountInString(src.Text(i))
		out.Nums[i] = float64(l)
		out.Raw[i] = strconv.Itoa(l)
	}
	return out
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}
