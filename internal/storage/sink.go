package storage

import "github.com/jimezsa/upjobs/internal/export"

// Sink receives flattened rows for remote storage.
type Sink interface {
	Name() string
	SaveRows(rows []export.FlatRow) error
}
