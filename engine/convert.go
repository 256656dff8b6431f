package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/nao1215/csvingest/domain/model"
)

// errNotBoolean is the conversion error for a non true/false value in a boolean column
var errNotBoolean = errors.New("not a boolean")

// rowChunk is a contiguous run of raw rows waiting for conversion
type rowChunk struct {
	// firstRow is the 1-based data row number of rows[0]
	firstRow int
	rows     [][]string
}

// chunkConverter turns raw row chunks into Arrow records for a fixed schema
type chunkConverter struct {
	alloc  memory.Allocator
	schema *arrow.Schema
	types  model.Schema
}

// newChunkConverter creates a converter for the given schema
func newChunkConverter(alloc memory.Allocator, types model.Schema) *chunkConverter {
	return &chunkConverter{
		alloc:  alloc,
		schema: toArrowSchema(types),
		types:  types,
	}
}

// convert builds one record from a chunk. Empty fields become nulls.
func (c *chunkConverter) convert(chunk rowChunk) (arrow.Record, error) {
	builder := array.NewRecordBuilder(c.alloc, c.schema)
	defer builder.Release()

	for i, col := range c.types {
		field := builder.Field(i)
		field.Reserve(len(chunk.rows))
		for r, row := range chunk.rows {
			var value string
			if i < len(row) {
				value = row[i]
			}
			if err := appendValue(field, col.Type, value); err != nil {
				return nil, &ParseError{
					Row:    chunk.firstRow + r,
					Column: col.Name,
					Value:  value,
					Type:   col.Type.String(),
					Err:    err,
				}
			}
		}
	}
	return builder.NewRecord(), nil
}

// appendValue parses value according to lt and appends it to the builder
func appendValue(builder array.Builder, lt model.LogicalType, value string) error {
	if lt != model.LogicalTypeString {
		value = strings.TrimSpace(value)
	}
	if value == "" {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		b.Append(v)
	case *array.Float64Builder:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		b.Append(v)
	case *array.BooleanBuilder:
		switch {
		case strings.EqualFold(value, "true"):
			b.Append(true)
		case strings.EqualFold(value, "false"):
			b.Append(false)
		default:
			return errNotBoolean
		}
	case *array.StringBuilder:
		b.Append(value)
	default:
		return fmt.Errorf("unsupported builder %T", builder)
	}
	return nil
}
