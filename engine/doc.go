// Package engine provides the columnar table engine behind csvingest.
// It tokenizes delimited files with encoding/csv, infers column types from a
// row sample and builds Apache Arrow tables, converting row chunks to Arrow
// records on a bounded worker pool.
package engine
