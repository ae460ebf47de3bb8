package analysis

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/chemeda/internal/dataset"
)

// Printer writes human-readable diagnostics for a table.
// The output is for people; nothing should parse it.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Shape writes the row and column counts.
func (p *Printer) Shape(t *dataset.Table) {
	fmt.Fprintf(p.w, "[INFO] Dataset loaded: %d rows, %d columns\n\n", t.Rows(), t.Cols())
}

// Head writes the first n rows as an aligned table.
func (p *Printer) Head(t *dataset.Table, n int) {
	if n > t.Rows() {
		n = t.Rows()
	}
	fmt.Fprintln(p.w, "Head:")
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	names := make([]string, 0, t.Cols())
	for _, c := range t.Columns {
		names = append(names, safeName(c.Name))
	}
	fmt.Fprintf(tw, "\t%s\n", strings.Join(names, "\t"))
	for i := 0; i < n; i++ {
		row := t.Row(i)
		for j := range row {
			row[j] = safeVal(truncate(row[j], 40))
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(row, "\t"))
	}
	tw.Flush()
	fmt.Fprintln(p.w)
}

// Info writes the structural summary: kind and non-null count per column.
func (p *Printer) Info(t *dataset.Table) {
	fmt.Fprintln(p.w, "Info:")
	fmt.Fprintf(p.w, "%d entries, %d columns\n", t.Rows(), t.Cols())
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tKind")
	for i, c := range t.Columns {
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", i, safeName(c.Name), c.NonNull(), c.Kind)
	}
	tw.Flush()
	fmt.Fprintln(p.w)
}

// Missing writes the null count of every column in table order.
func (p *Printer) Missing(t *dataset.Table) {
	fmt.Fprintln(p.w, "Missing values per column:")
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, c := range t.Columns {
		fmt.Fprintf(tw, "%s\t%d\n", safeName(c.Name), c.Missing())
	}
	tw.Flush()
	fmt.Fprintln(p.w)
}

// Describe writes descriptive statistics for a named column.
func (p *Printer) Describe(name string, s Stats) {
	fmt.Fprintf(p.w, "Descriptive statistics for '%s':\n", name)
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, e := range s.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, formatStat(e.Value))
	}
	tw.Flush()
	fmt.Fprintln(p.w)
}

// Categories writes the distinct labels followed by their frequencies.
func (p *Printer) Categories(unique []string, counts []CategoryCount) {
	quoted := make([]string, len(unique))
	for i, u := range unique {
		quoted[i] = strconv.Quote(u)
	}
	fmt.Fprintf(p.w, "Unique categories: [%s]\n\n", strings.Join(quoted, " "))
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, kv := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", safeVal(kv.Value), kv.Count)
	}
	tw.Flush()
	fmt.Fprintln(p.w)
}

// Done writes the completion message.
func (p *Printer) Done(outDir string) {
	fmt.Fprintf(p.w, "[INFO] Figures saved to %s\n", outDir)
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string {
	return strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
}
