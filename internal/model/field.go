package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownField is returned when an attribute name is not an updatable document column.
	ErrUnknownField = errors.New("unknown document field")
	// ErrInvalidFieldValue is returned when a value cannot be stored in its column.
	ErrInvalidFieldValue = errors.New("invalid document field value")
)

// Field enumerates the document columns that may be changed after creation.
// id and timestamp are immutable and have no Field.
type Field int

const (
	FieldType Field = iota + 1
	FieldTitle
	FieldAuthor
	FieldDOI
	FieldParent
)

var fieldColumns = map[Field]string{
	FieldType:   "type",
	FieldTitle:  "title",
	FieldAuthor: "author",
	FieldDOI:    "doi",
	FieldParent: "parent",
}

// Column returns the database column of the field.
func (f Field) Column() string {
	return fieldColumns[f]
}

func (f Field) String() string {
	if c, ok := fieldColumns[f]; ok {
		return c
	}

	return "Field(" + strconv.Itoa(int(f)) + ")"
}

// ParseField maps a column name to its Field.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, c := range fieldColumns {
		if c == name {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Attributes is a partial set of field assignments.
// An empty FieldParent value clears the parent.
type Attributes map[Field]string

// ParseAttributes builds Attributes from column name/value pairs.
func ParseAttributes(values map[string]string) (Attributes, error) {
	attrs := make(Attributes, len(values))
	for name, value := range values {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		attrs[f] = value
	}

	return attrs, nil
}

// ParentID returns the parent assignment, if any.
// set is false when the attributes do not touch the parent; id is nil when the parent is cleared.
func (a Attributes) ParentID() (id *uint, set bool, err error) {
	raw, ok := a[FieldParent]
	if !ok {
		return nil, false, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true, nil
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, true, fmt.Errorf("%w: parent %q", ErrInvalidFieldValue, raw)
	}
	parent := uint(v)

	return &parent, true, nil
}

// Columns converts the attributes into a column->value map suitable for gorm Updates.
func (a Attributes) Columns() (map[string]any, error) {
	columns := make(map[string]any, len(a))
	for f, value := range a {
		switch f {
		case FieldParent:
			parent, _, err := a.ParentID()
			if err != nil {
				return nil, err
			}
			if parent == nil {
				columns[f.Column()] = nil
			} else {
				columns[f.Column()] = *parent
			}
		case FieldType:
			if strings.TrimSpace(value) == "" {
				return nil, fmt.Errorf("%w: empty type", ErrInvalidFieldValue)
			}
			columns[f.Column()] = value
		case FieldTitle, FieldAuthor, FieldDOI:
			columns[f.Column()] = value
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnknownField, f)
		}
	}

	return columns, nil
}
