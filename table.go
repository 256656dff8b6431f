package csvingest

import (
	"path/filepath"
	"strings"

	"github.com/nao1215/csvingest/domain/model"
)

const (
	// defaultTableName is used when nothing usable survives sanitizing
	defaultTableName = "table"
	// numericTablePrefix is prepended to names starting with a digit
	numericTablePrefix = "table_"
)

// TableNameFromPath derives a table name from a file path.
// "data/sales-2024.csv.gz" becomes "sales_2024".
func TableNameFromPath(path string) string {
	fileName := model.TrimCompressionExtension(filepath.Base(path))
	fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return sanitizeIdentifier(fileName)
}

// sanitizeIdentifier removes characters that are not valid in an unquoted SQL identifier
func sanitizeIdentifier(name string) string {
	// Replace spaces and separators with underscores
	replacer := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	result := replacer.Replace(strings.TrimSpace(name))

	var sanitized strings.Builder
	for _, r := range result {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' {
			sanitized.WriteRune(r)
		}
	}

	finalResult := sanitized.String()
	if finalResult == "" {
		return defaultTableName
	}
	// Ensure it doesn't start with a number
	if finalResult[0] >= '0' && finalResult[0] <= '9' {
		finalResult = numericTablePrefix + finalResult
	}
	return finalResult
}
