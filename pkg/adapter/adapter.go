// Package adapter defines the contract between a host query engine and a
// virtual table backed by a remote API: the table surface (schema declaration
// and scan initiation), the pull-based row iterator, and the factory registry
// used to construct tables by name.
package adapter

import (
	"context"

	"github.com/civicdata/govtable/pkg/query"
	"github.com/civicdata/govtable/pkg/schema"
)

// Row is one result tuple, aligned to the table's declared column order.
// Each position holds the column's canonical Go type (string, int64, float64,
// bool, time.Time) or nil for a missing value.
type Row []interface{}

// ScanSummary reports what a finished (or abandoned) scan actually did.
type ScanSummary struct {
	// RowsEmitted is the number of rows handed to the host.
	RowsEmitted int64 `json:"rows_emitted"`
	// RowsSkipped is the number of records dropped because a required column
	// failed coercion.
	RowsSkipped int64 `json:"rows_skipped"`
	// PagesFetched is the number of remote pages requested.
	PagesFetched int64 `json:"pages_fetched"`
	// Complete reports whether the scan ran to natural exhaustion (or its
	// limit) rather than being closed early or failing.
	Complete bool `json:"complete"`
}

// Table is a virtual table the host engine can plan against and scan.
//
// Columns is side-effect free and must return the same declaration for the
// lifetime of the instance: the host plans against it before any scan.
type Table interface {
	// Name returns the table's registered name.
	Name() string

	// Columns returns the immutable column declaration.
	Columns() schema.Columns

	// Scan starts one scan for the given request. Capability errors (a
	// predicate or sort the table can neither push down nor satisfy locally)
	// surface here, before any remote call. The returned Scan is not safe for
	// concurrent use; separate scans of the same Table are independent.
	Scan(ctx context.Context, req query.Request) (Scan, error)

	// Close releases the table's resources. Scans already started remain
	// usable until their own Close.
	Close() error
}

// Scan is a pull-based row iterator. The usage pattern follows sql.Rows:
//
//	sc, err := table.Scan(ctx, req)
//	if err != nil { ... }
//	defer sc.Close()
//	for sc.Next(ctx) {
//	    row := sc.Row()
//	    ...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scan interface {
	// Next advances to the next row, fetching remote pages lazily as needed.
	// It returns false at exhaustion, on terminal error, or when the context
	// is done; Err disambiguates.
	Next(ctx context.Context) bool

	// Row returns the current row. Valid only after a true Next and until the
	// following Next call.
	Row() Row

	// Err returns the terminal error that stopped iteration, or nil on
	// natural exhaustion.
	Err() error

	// Summary reports scan counters. Stable once Next has returned false.
	Summary() ScanSummary

	// Close abandons the scan. No further pages are fetched. Idempotent.
	Close() error
}
