package pgrepo

import (
	"fmt"
	"strings"
)

// Descriptor is the static metadata parameterizing a Repository: the table
// name, the selectable field list and the default ordering. Field names in
// the default ordering may carry a "-" prefix for descending order.
//
// Descriptors are meant to be built once at startup so that unknown field
// names surface at registration time, not per request.
type Descriptor struct {
	Table        string
	Fields       []string
	DefaultOrder []string

	fieldSet map[string]struct{}
}

func NewDescriptor(table string, fields, defaultOrder []string) (Descriptor, error) {
	if table == "" {
		return Descriptor{}, fmt.Errorf("descriptor: table name is required")
	}
	if len(fields) == 0 {
		return Descriptor{}, fmt.Errorf("descriptor: field list for %q is empty", table)
	}

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}

	d := Descriptor{
		Table:        table,
		Fields:       fields,
		DefaultOrder: defaultOrder,
		fieldSet:     set,
	}

	for _, f := range defaultOrder {
		if !d.HasField(strings.TrimPrefix(f, "-")) {
			return Descriptor{}, fmt.Errorf("%w: default ordering field %q is not a field of %q", ErrUnknownField, f, table)
		}
	}
	return d, nil
}

// MustDescriptor is NewDescriptor for package-level descriptors whose
// metadata is fixed at compile time.
func MustDescriptor(table string, fields, defaultOrder []string) Descriptor {
	d, err := NewDescriptor(table, fields, defaultOrder)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Descriptor) HasField(name string) bool {
	_, ok := d.fieldSet[name]
	return ok
}

// orderClauses resolves ordering field names ("-name" means descending)
// into SQL ORDER BY expressions, validating each against the descriptor.
func (d Descriptor) orderClauses(orderBy []string) ([]string, error) {
	clauses := make([]string, 0, len(orderBy))
	for _, item := range orderBy {
		field := item
		direction := "ASC"
		if strings.HasPrefix(item, "-") {
			field = item[1:]
			direction = "DESC"
		}
		if !d.HasField(field) {
			return nil, fmt.Errorf("%w: ordering field %q is not a field of %q", ErrUnknownField, item, d.Table)
		}
		clauses = append(clauses, field+" "+direction)
	}
	return clauses, nil
}

// checkFields validates every key of an insert/update payload.
func (d Descriptor) checkFields(data Data) error {
	for k := range data {
		if !d.HasField(k) {
			return fmt.Errorf("%w: %q is not a field of %q", ErrUnknownField, k, d.Table)
		}
	}
	return nil
}

// checkSelect validates a partial-read field list.
func (d Descriptor) checkSelect(fields []string) error {
	for _, f := range fields {
		if !d.HasField(f) {
			return fmt.Errorf("%w: %q is not a field of %q", ErrUnknownField, f, d.Table)
		}
	}
	return nil
}
