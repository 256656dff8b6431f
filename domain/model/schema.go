package model

import "strings"

// LogicalType represents the inferred type of a column
type LogicalType int

const (
	// LogicalTypeString represents text columns
	LogicalTypeString LogicalType = iota
	// LogicalTypeInt64 represents 64-bit integer columns
	LogicalTypeInt64
	// LogicalTypeFloat64 represents 64-bit floating point columns
	LogicalTypeFloat64
	// LogicalTypeBoolean represents boolean columns
	LogicalTypeBoolean
)

const (
	// sqlTypeText is the SQL TEXT type string
	sqlTypeText = "TEXT"
	// sqlTypeInteger is the SQL INTEGER type string
	sqlTypeInteger = "INTEGER"
	// sqlTypeReal is the SQL REAL type string
	sqlTypeReal = "REAL"
)

// String returns the type name rendered at the host boundary
func (lt LogicalType) String() string {
	switch lt {
	case LogicalTypeInt64:
		return "Int64"
	case LogicalTypeFloat64:
		return "Float64"
	case LogicalTypeBoolean:
		return "Boolean"
	default:
		return "String"
	}
}

// SQLType returns the SQLite column type used to store the logical type
func (lt LogicalType) SQLType() string {
	switch lt {
	case LogicalTypeInt64, LogicalTypeBoolean:
		return sqlTypeInteger
	case LogicalTypeFloat64:
		return sqlTypeReal
	default:
		return sqlTypeText
	}
}

// Column is a named, typed column
type Column struct {
	Name string
	Type LogicalType
}

// Schema is an ordered sequence of columns
type Schema []Column

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s)
}

// Names returns column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// TypeNames returns the rendered logical type of every column in order.
func (s Schema) TypeNames() []string {
	types := make([]string, len(s))
	for i, c := range s {
		types[i] = c.Type.String()
	}
	return types
}

// Equal compare schema.
func (s Schema) Equal(s2 Schema) bool {
	if len(s) != len(s2) {
		return false
	}
	for i, c := range s {
		if c != s2[i] {
			return false
		}
	}
	return true
}

// String renders the schema as "name:Type, ..."
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + ":" + c.Type.String()
	}
	return strings.Join(parts, ", ")
}
