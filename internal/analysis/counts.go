package analysis

import (
	"sort"

	"github.com/KaramelBytes/chemeda/internal/dataset"
)

// CategoryCount is one label and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// MissingCounts returns the null count per column.
func MissingCounts(t *dataset.Table) map[string]int {
	out := make(map[string]int, t.Cols())
	for _, c := range t.Columns {
		out[c.Name] = c.Missing()
	}
	return out
}

// ValueCounts counts non-null labels, most frequent first; ties sort by label.
func ValueCounts(c *dataset.Column) []CategoryCount {
	counts := map[string]int{}
	for i := 0; i < c.Len(); i++ {
		if c.Null[i] {
			continue
		}
		counts[c.Text(i)]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Unique lists distinct labels in order of first appearance. A null cell
// contributes "nan" once.
func Unique(c *dataset.Column) []string {
	seen := map[string]struct{}{}
	var out []string
	for i := 0; i < c.Len(); i++ {
		v := c.Text(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CountsMap converts value counts to a label → count map.
func CountsMap(counts []CategoryCount) map[string]int {
	out := make(map[string]int, len(counts))
	for _, kv := range counts {
		out[kv.Value] = kv.Count
	}
	return out
}
