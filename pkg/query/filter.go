package query

import (
	"fmt"
	"sort"
	"strings"
)

// Filter DSL: a map of filter keys to string values. A bare key compiles to
// an equality predicate; a ".gt"/".lt" suffix to a comparison; ".like" to a
// substring match. A key with an unrecognized suffix is treated as a literal
// equality on the full key string.
const (
	suffixGt   = ".gt"
	suffixLt   = ".lt"
	suffixLike = ".like"
)

// CompiledFilter is one predicate fragment with its bind parameter.
type CompiledFilter struct {
	Field    string
	Fragment string
	Param    interface{}
}

// CompileFilters translates the filter DSL into predicate fragments. Keys are
// processed in sorted order so generated SQL is deterministic. Values are
// always bound as parameters, never interpolated.
func CompileFilters(filters map[string]string) []CompiledFilter {
	if len(filters) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	compiled := make([]CompiledFilter, 0, len(keys))
	for _, key := range keys {
		compiled = append(compiled, compileOne(key, filters[key]))
	}
	return compiled
}

func compileOne(key, value string) CompiledFilter {
	switch {
	case strings.HasSuffix(key, suffixGt):
		field := strings.TrimSuffix(key, suffixGt)
		return CompiledFilter{
			Field:    field,
			Fragment: fmt.Sprintf("`%s` > ?", field),
			Param:    value,
		}
	case strings.HasSuffix(key, suffixLt):
		field := strings.TrimSuffix(key, suffixLt)
		return CompiledFilter{
			Field:    field,
			Fragment: fmt.Sprintf("`%s` < ?", field),
			Param:    value,
		}
	case strings.HasSuffix(key, suffixLike):
		field := strings.TrimSuffix(key, suffixLike)
		return CompiledFilter{
			Field:    field,
			Fragment: fmt.Sprintf("`%s` LIKE ?", field),
			Param:    "%" + value + "%",
		}
	default:
		// Bare keys and unrecognized suffixes both land here: the full key
		// string is used as the column name in an equality predicate.
		return CompiledFilter{
			Field:    key,
			Fragment: fmt.Sprintf("`%s` = ?", key),
			Param:    value,
		}
	}
}

// ApplyFilters attaches compiled filter predicates to a builder.
func ApplyFilters(b *Builder, compiled []CompiledFilter) *Builder {
	for _, f := range compiled {
		b.Where(f.Fragment, f.Param)
	}
	return b
}

// FilterFields returns the distinct column names referenced by the compiled
// filters, preserving order.
func FilterFields(compiled []CompiledFilter) []string {
	seen := make(map[string]bool, len(compiled))
	fields := make([]string, 0, len(compiled))
	for _, f := range compiled {
		if !seen[f.Field] {
			seen[f.Field] = true
			fields = append(fields, f.Field)
		}
	}
	return fields
}
