package csvingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/nao1215/csvingest/engine"
	_ "modernc.org/sqlite" // Register the pure Go SQLite driver
)

// sqliteReaderChunkRows is the record size used when reading a batch for insertion
const sqliteReaderChunkRows = 4096

// OpenSQLite opens an in-memory SQLite database. Every connection of an
// in-memory database is a separate database, so the pool keeps one.
func OpenSQLite(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	return db, nil
}

// SQLiteSink is a BatchConsumer writing batches into one SQLite table.
// The table is created from the schema of the first batch; every batch is
// inserted in its own transaction.
//
// A SQLiteSink is not safe for concurrent use.
type SQLiteSink struct {
	db        *sql.DB
	tableName string
	columns   int
	created   bool
	rows      int64
}

// NewSQLiteSink creates a sink writing into tableName. The name is sanitized
// to a valid identifier.
func NewSQLiteSink(db *sql.DB, tableName string) *SQLiteSink {
	return &SQLiteSink{
		db:        db,
		tableName: sanitizeIdentifier(tableName),
	}
}

// TableName returns the sanitized table name
func (s *SQLiteSink) TableName() string {
	return s.tableName
}

// RowsWritten returns the number of rows inserted so far
func (s *SQLiteSink) RowsWritten() int64 {
	return s.rows
}

// ConsumeBatch implements BatchConsumer.
func (s *SQLiteSink) ConsumeBatch(ctx context.Context, batch arrow.Table) error {
	if !s.created {
		if err := s.createTable(ctx, batch.Schema()); err != nil {
			return err
		}
		s.created = true
	}
	if int(batch.NumCols()) != s.columns {
		return fmt.Errorf("batch has %d columns, table %q has %d", batch.NumCols(), s.tableName, s.columns)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	inserted, err := s.insertBatch(ctx, tx, batch)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.rows += inserted
	return nil
}

// createTable creates the target table. An existing table is an error.
func (s *SQLiteSink) createTable(ctx context.Context, schema *arrow.Schema) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		s.tableName,
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check table existence: %w", err)
	}
	if tableExists > 0 {
		return fmt.Errorf("table '%s' already exists, duplicate table names are not allowed", s.tableName)
	}

	cols := engine.SchemaFromArrow(schema)
	columns := make([]string, 0, cols.Len())
	for _, col := range cols {
		columns = append(columns, fmt.Sprintf(`%s %s`, quoteIdentifier(col.Name), col.Type.SQLType()))
	}

	query := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdentifier(s.tableName), strings.Join(columns, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	s.columns = cols.Len()
	return nil
}

// insertBatch inserts every row of batch through one prepared statement
func (s *SQLiteSink) insertBatch(ctx context.Context, tx *sql.Tx, batch arrow.Table) (int64, error) {
	placeholders := make([]string, s.columns)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdentifier(s.tableName), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	reader := array.NewTableReader(batch, sqliteReaderChunkRows)
	defer reader.Release()

	var inserted int64
	values := make([]any, s.columns)
	for reader.Next() {
		record := reader.Record()
		for row := 0; row < int(record.NumRows()); row++ {
			for col := range values {
				values[col] = sqlValue(record.Column(col), row)
			}
			if _, err := stmt.ExecContext(ctx, values...); err != nil {
				return inserted, fmt.Errorf("failed to insert record: %w", err)
			}
			inserted++
		}
	}
	if err := reader.Err(); err != nil {
		return inserted, fmt.Errorf("failed to read batch: %w", err)
	}
	return inserted, nil
}

// sqlValue returns the driver value of one cell; nulls become nil
func sqlValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		if a.Value(i) {
			return int64(1)
		}
		return int64(0)
	case *array.String:
		return a.Value(i)
	default:
		return arr.ValueStr(i)
	}
}

// quoteIdentifier quotes a SQL identifier
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
