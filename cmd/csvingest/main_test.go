package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "name,age,salary\nAlice,30,50000\nBob,25,45000\nCharlie,35,60000\n"

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Parse(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, stdout, stderr := runCLI(t, "parse", path)
	require.Equal(t, exitOK, code, stderr)

	var got struct {
		Columns    []string `json:"columns"`
		NumRows    int64    `json:"num_rows"`
		NumColumns int      `json:"num_columns"`
		Data       [][]any  `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []string{"name", "age", "salary"}, got.Columns)
	assert.Equal(t, int64(3), got.NumRows)
	assert.Equal(t, 3, got.NumColumns)
	assert.Equal(t, []any{"Alice", "Bob", "Charlie"}, got.Data[0])
	assert.Equal(t, []any{30.0, 25.0, 35.0}, got.Data[1])
}

func TestRun_ParseInvalidDelimiter(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, _, stderr := runCLI(t, "parse", "-delimiter", ";;", path)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, `"category": "validation"`)
}

func TestRun_Schema(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, stdout, stderr := runCLI(t, "schema", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, `"Int64"`)
	assert.Contains(t, stdout, `"String"`)
}

func TestRun_Count(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, stdout, stderr := runCLI(t, "count", path)
	require.Equal(t, exitOK, code, stderr)
	assert.JSONEq(t, `{"lines": 4}`, stdout)
}

func TestRun_Batches(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("id\n")
	for i := range 25 {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	path := writeCSV(t, "ids.csv", sb.String())

	code, stdout, stderr := runCLI(t, "batches", "-chunk", "10", path)
	require.Equal(t, exitOK, code, stderr)
	assert.JSONEq(t, `{
		"batches": 3,
		"rows": 25,
		"progress": [
			{"rows_processed": 10, "total_rows": 25},
			{"rows_processed": 20, "total_rows": 25},
			{"rows_processed": 25, "total_rows": 25}
		]
	}`, stdout)
}

func TestRun_Recommend(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, stdout, stderr := runCLI(t, "recommend", "-memory-limit", "1", path)
	require.Equal(t, exitOK, code, stderr)
	assert.JSONEq(t, `{"recommended": false, "estimated_memory_mb": 0, "memory_limit_mb": 1}`, stdout)
}

func TestRun_Export(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	outDir := t.TempDir()
	code, stdout, stderr := runCLI(t, "export", "-format", "tsv", "-compression", "gz", "-out", outDir, path)
	require.Equal(t, exitOK, code, stderr)

	want := filepath.Join(outDir, "people.tsv.gz")
	assert.Contains(t, stdout, want)
	assert.FileExists(t, want)
}

func TestRun_SQLite(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "people.csv", peopleCSV)
	code, stdout, stderr := runCLI(t, "sqlite", "-chunk", "2", path)
	require.Equal(t, exitOK, code, stderr)
	assert.JSONEq(t, `{"table": "people", "rows": 3}`, stdout)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no command", func(t *testing.T) {
		t.Parallel()
		code, _, _ := runCLI(t)
		assert.Equal(t, exitUsage, code)
	})

	t.Run("unknown command", func(t *testing.T) {
		t.Parallel()
		code, _, stderr := runCLI(t, "frobnicate")
		assert.Equal(t, exitUsage, code)
		assert.Contains(t, stderr, "unknown command")
	})

	t.Run("missing file argument", func(t *testing.T) {
		t.Parallel()
		code, _, _ := runCLI(t, "parse")
		assert.Equal(t, exitUsage, code)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		code, _, stderr := runCLI(t, "parse", filepath.Join(t.TempDir(), "nope.csv"))
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, `"category": "runtime"`)
	})

	t.Run("unknown export format", func(t *testing.T) {
		t.Parallel()
		path := writeCSV(t, "people.csv", peopleCSV)
		code, _, stderr := runCLI(t, "export", "-format", "ltsv", path)
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, `"category": "validation"`)
	})
}
