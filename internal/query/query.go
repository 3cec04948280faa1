// Package query translates untrusted query-string parameters into the
// filter, sort, projection, and pagination pieces of a SQL SELECT. Every
// list endpoint goes through it. Field names are resolved against a
// per-resource whitelist, so only declared columns ever reach the SQL text;
// filter values are always passed as bind parameters.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/artfolio/service/internal/apperror"
)

// Pagination defaults. Limit is clamped to MaxLimit so a caller cannot
// request an unbounded page.
const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 500
)

// Reserved keys stripped from the filter set before the remainder is treated
// as field filters.
var controlKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// comparison suffix operators accepted as field[op]=value.
var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// Columns maps exposed API field names to their database columns.
type Columns map[string]string

// Filter is a single field comparison.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Sort is a single ordering term.
type Sort struct {
	Column string
	Desc   bool
}

// Spec is a parsed, not-yet-executed fetch request.
type Spec struct {
	Filters []Filter
	Sorts   []Sort
	Columns []string // projection, empty means all declared columns
	Page    int
	Limit   int
}

// Skip returns the row offset implied by Page and Limit.
func (s Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Parse builds a Spec from raw query parameters. The defaultSort field name
// must exist in allowed; it is applied when the caller supplies no sort key.
func Parse(values url.Values, allowed Columns, defaultSort string) (Spec, error) {
	spec := Spec{Page: DefaultPage, Limit: DefaultLimit}

	// Filter order determines the WHERE text and bind numbering, so it must
	// not depend on map iteration order.
	keys := make([]string, 0, len(values))
	for key := range values {
		if controlKeys[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op := splitOperator(key)
		column, ok := allowed[field]
		if !ok {
			return Spec{}, apperror.Validation(field, "unknown filter field")
		}
		spec.Filters = append(spec.Filters, Filter{
			Column: column,
			Op:     op,
			Value:  values.Get(key),
		})
	}

	sortParam := values.Get("sort")
	if sortParam == "" {
		sortParam = "-" + defaultSort
	}
	for _, term := range strings.Split(sortParam, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		column, ok := allowed[field]
		if !ok {
			return Spec{}, apperror.Validation(field, "unknown sort field")
		}
		spec.Sorts = append(spec.Sorts, Sort{Column: column, Desc: desc})
	}

	if fieldsParam := values.Get("fields"); fieldsParam != "" {
		for _, field := range strings.Split(fieldsParam, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			column, ok := allowed[field]
			if !ok {
				return Spec{}, apperror.Validation(field, "unknown projection field")
			}
			spec.Columns = append(spec.Columns, column)
		}
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		spec.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		spec.Limit = limit
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}

	return spec, nil
}

// splitOperator recognizes the field[gte] form and returns the bare field
// name with the SQL comparison operator. Anything else is an equality match.
func splitOperator(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		if sqlOp, ok := operators[key[open+1:len(key)-1]]; ok {
			return key[:open], sqlOp
		}
	}
	return key, "="
}

// Where renders the filter set as a WHERE clause with bind parameters
// numbered from 1. Returns an empty string when no filters apply.
func (s Spec) Where() (string, []any) {
	if len(s.Filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(s.Filters))
	args := make([]any, 0, len(s.Filters))
	for i, f := range s.Filters {
		conds = append(conds, fmt.Sprintf("%s %s $%d", f.Column, f.Op, i+1))
		args = append(args, f.Value)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// OrderBy renders the sort terms as an ORDER BY clause.
func (s Spec) OrderBy() string {
	if len(s.Sorts) == 0 {
		return ""
	}
	terms := make([]string, 0, len(s.Sorts))
	for _, srt := range s.Sorts {
		dir := "ASC"
		if srt.Desc {
			dir = "DESC"
		}
		terms = append(terms, srt.Column+" "+dir)
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

// Pagination renders the LIMIT/OFFSET clause. Values are validated integers,
// never caller-supplied text.
func (s Spec) Pagination() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", s.Limit, s.Skip())
}
