package pgrepo

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Filter is a declarative WHERE clause: each key is either a bare field
// name (equality) or "field__op" with op one of lt, lte, gt, gte, ne, e.
type Filter map[string]any

// Data carries column values for inserts and updates, keyed by field name.
type Data map[string]any

var (
	// ErrInvalidFilterKey flags a filter key with an unrecognized operator
	// suffix or more than one "__" separator. Programmer error, not user
	// input.
	ErrInvalidFilterKey = errors.New("invalid filter key")
	// ErrUnknownField flags a field name absent from the entity descriptor.
	ErrUnknownField = errors.New("unknown field")
)

const opSeparator = "__"

var lookups = map[string]func(column string, value any) sq.Sqlizer{
	"e":   func(c string, v any) sq.Sqlizer { return sq.Eq{c: v} },
	"lt":  func(c string, v any) sq.Sqlizer { return sq.Lt{c: v} },
	"lte": func(c string, v any) sq.Sqlizer { return sq.LtOrEq{c: v} },
	"gt":  func(c string, v any) sq.Sqlizer { return sq.Gt{c: v} },
	"gte": func(c string, v any) sq.Sqlizer { return sq.GtOrEq{c: v} },
	"ne":  func(c string, v any) sq.Sqlizer { return sq.NotEq{c: v} },
}

// parseFilterKey resolves "field" or "field__op" into a column name and an
// operator tag. Pure: no I/O, same input always resolves the same way.
func parseFilterKey(key string) (column, op string, err error) {
	parts := strings.Split(key, opSeparator)
	switch len(parts) {
	case 1:
		return key, "e", nil
	case 2:
		if _, ok := lookups[parts[1]]; !ok {
			return "", "", fmt.Errorf("%w: unsupported operator suffix in %q", ErrInvalidFilterKey, key)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFilterKey, key)
	}
}

// condition turns one filter entry into a squirrel predicate, validating
// the column against the descriptor.
func condition(desc Descriptor, key string, value any) (sq.Sqlizer, error) {
	column, op, err := parseFilterKey(key)
	if err != nil {
		return nil, err
	}
	if !desc.HasField(column) {
		return nil, fmt.Errorf("%w: %q is not a field of %q", ErrUnknownField, column, desc.Table)
	}
	return lookups[op](column, value), nil
}
