package csvingest

import (
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
)

// CoerceValue turns the text of a cell into a host value. It tries int64,
// then float64, then the exact strings "true" and "false", and otherwise
// keeps the text. The round-trip is lossy: "00501" becomes 501 and a Float64
// cell holding 2.0 becomes the integer 2.
func CoerceValue(text string) any {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v
	}
	// Values without digits such as "NaN" or "Inf" stay text
	if strings.ContainsAny(text, "0123456789") {
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return v
		}
	}
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	return text
}

// columnValues renders every cell of a column through CoerceValue. Nulls become nil.
func columnValues(col *arrow.Column) []any {
	values := make([]any, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				values = append(values, nil)
				continue
			}
			values = append(values, CoerceValue(chunk.ValueStr(i)))
		}
	}
	return values
}
