package model

// ProgressEvent reports how far an ingestion has advanced.
//
// For batch iteration the unit is rows. For a low-memory streaming parse the
// single completion event carries the file size in bytes in both fields.
type ProgressEvent struct {
	RowsProcessed int64 `json:"rows_processed"`
	TotalRows     int64 `json:"total_rows"`
}

// NewProgressEvent create new ProgressEvent.
func NewProgressEvent(processed, total int64) ProgressEvent {
	return ProgressEvent{RowsProcessed: processed, TotalRows: total}
}

// Fraction returns the completed share in [0, 1]. An empty total counts as done.
func (e ProgressEvent) Fraction() float64 {
	if e.TotalRows <= 0 {
		return 1
	}
	return float64(e.RowsProcessed) / float64(e.TotalRows)
}

// Done reports whether every row has been processed
func (e ProgressEvent) Done() bool {
	return e.RowsProcessed >= e.TotalRows
}
