package sql

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/zaMmer83/recurse-delete/dialect"
)

// Builder returns a squirrel statement builder that emits the
// placeholder format of the given dialect.
//
//	b := sql.Builder(dialect.Postgres)
//	b.Select("id").From("comments").Where(sql.In(dialect.Postgres, "commentable_id", ids))
func Builder(name string) sq.StatementBuilderType {
	if name == dialect.Postgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// In returns the membership predicate "column IN (values)".
//
// On Postgres the whole set is bound as a single array parameter
// ("column = ANY($1)") which keeps large sets under the protocol's
// parameter limit. Other dialects expand one placeholder per value.
func In(name, column string, values []any) sq.Sqlizer {
	if name == dialect.Postgres {
		return sq.Expr(column+" = ANY(?)", Array(values))
	}
	return sq.Eq{column: values}
}

// EQ returns the predicate "column = value".
func EQ(column string, value any) sq.Sqlizer {
	return sq.Eq{column: value}
}

// Array wraps values as a Postgres array parameter. Homogeneous integer
// and string sets are converted to typed arrays; anything else falls back
// to pq's reflection based generic array.
func Array(values []any) any {
	if ints, ok := int64Slice(values); ok {
		return pq.Array(ints)
	}
	if strs, ok := stringSlice(values); ok {
		return pq.Array(strs)
	}
	return pq.Array(values)
}

func int64Slice(values []any) ([]int64, bool) {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case int:
			out = append(out, int64(v))
		case int32:
			out = append(out, int64(v))
		case int64:
			out = append(out, v)
		case uint32:
			out = append(out, int64(v))
		default:
			return nil, false
		}
	}
	return out, true
}

func stringSlice(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
