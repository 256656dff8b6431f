package engine

import (
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/nao1215/csvingest/domain/model"
)

// valueKind is the classification of a single non-empty field
type valueKind int

const (
	kindText valueKind = iota
	kindInteger
	kindFloat
	kindBoolean
)

// inferColumnType infers the logical type of a column from sampled values.
// Empty values are nulls and do not take part in inference.
func inferColumnType(values []string) model.LogicalType {
	var integers, floats, booleans, nonEmpty int

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		nonEmpty++

		switch classifyValue(value) {
		case kindInteger:
			integers++
		case kindFloat:
			floats++
		case kindBoolean:
			booleans++
		default:
			// A single text value makes the whole column text
			return model.LogicalTypeString
		}
	}

	switch {
	case nonEmpty == 0:
		return model.LogicalTypeString
	case booleans > 0 && booleans == nonEmpty:
		return model.LogicalTypeBoolean
	case booleans > 0:
		// booleans mixed with numbers cannot share a column type
		return model.LogicalTypeString
	case floats > 0:
		return model.LogicalTypeFloat64
	default:
		return model.LogicalTypeInt64
	}
}

// classifyValue determines the type of a single value
func classifyValue(value string) valueKind {
	// Check for integer first to avoid redundant parsing
	if isInteger(value) {
		return kindInteger
	}
	if isFloat(value) {
		return kindFloat
	}
	if isBoolean(value) {
		return kindBoolean
	}
	return kindText
}

// isInteger checks if a value is an integer with optimized parsing
func isInteger(value string) bool {
	// Quick pre-check: must start with digit or sign
	if len(value) == 0 {
		return false
	}
	first := value[0]
	if first != '+' && first != '-' && (first < '0' || first > '9') {
		return false
	}

	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// isFloat checks if a value is a float. Values without digits such as "NaN"
// or "Inf" are text.
func isFloat(value string) bool {
	hasDigit := false
	for _, r := range value {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}

	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// isBoolean checks for a case-insensitive true or false
func isBoolean(value string) bool {
	return strings.EqualFold(value, "true") || strings.EqualFold(value, "false")
}

// inferSchema infers a schema from the header and sampled rows
func inferSchema(header []string, sample [][]string) model.Schema {
	schema := make(model.Schema, len(header))
	values := make([]string, 0, len(sample))
	for i, name := range header {
		values = values[:0]
		for _, row := range sample {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		schema[i] = model.Column{Name: name, Type: inferColumnType(values)}
	}
	return schema
}

// arrowType maps a logical type to its Arrow data type
func arrowType(lt model.LogicalType) arrow.DataType {
	switch lt {
	case model.LogicalTypeInt64:
		return arrow.PrimitiveTypes.Int64
	case model.LogicalTypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case model.LogicalTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// toArrowSchema converts a schema to a nullable Arrow schema
func toArrowSchema(schema model.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema))
	for i, col := range schema {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// LogicalTypeOf maps an Arrow data type back to a logical type.
// Types the engine never produces are reported as String.
func LogicalTypeOf(dt arrow.DataType) model.LogicalType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return model.LogicalTypeInt64
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return model.LogicalTypeFloat64
	case arrow.BOOL:
		return model.LogicalTypeBoolean
	default:
		return model.LogicalTypeString
	}
}

// SchemaFromArrow converts an Arrow schema to a model schema.
func SchemaFromArrow(schema *arrow.Schema) model.Schema {
	out := make(model.Schema, schema.NumFields())
	for i, field := range schema.Fields() {
		out[i] = model.Column{Name: field.Name, Type: LogicalTypeOf(field.Type)}
	}
	return out
}
