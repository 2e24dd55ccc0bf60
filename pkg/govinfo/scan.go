package govinfo

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/adapter"
	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/metrics"
	"github.com/civicdata/govtable/pkg/query"
)

// defaultStartDate is the epoch lower bound used when no last_modified lower
// bound was pushed down; the collections endpoint requires a start date.
const defaultStartDate = "1970-01-01T00:00:00Z"

// collectionsPage is the wire shape of one collections result page. Count and
// NextPage are pointers so "absent" and "null" are distinguishable from zero
// values; the pagination mode committed on the first page depends on which
// indicators the API actually sends.
type collectionsPage struct {
	Count        *int64                   `json:"count"`
	Message      string                   `json:"message"`
	NextPage     *string                  `json:"nextPage"`
	PreviousPage *string                  `json:"previousPage"`
	Packages     []map[string]interface{} `json:"packages"`
}

// paginationMode is the termination strategy for one fetch sequence, decided
// on the sequence's first page and never changed afterwards.
type paginationMode int

const (
	modeUnknown paginationMode = iota
	// modeCount terminates when consumed records reach the reported count.
	modeCount
	// modeToken terminates when the API stops sending a nextPage link.
	modeToken
	// modeShort terminates on the first page shorter than the requested size.
	modeShort
)

// scan is the lazy pull iterator over one planned request. It fetches pages
// on demand, coerces records, applies residual predicates, and concatenates
// the plan's fetch sequences in declaration order. Not safe for concurrent
// use.
type scan struct {
	table *Table
	plan  *query.Plan
	log   *zap.Logger

	// per-sequence cursor state
	seq     int
	offset  int64
	total   *int64
	mode    paginationMode
	seqDone bool

	// current page's surviving rows
	buf    []adapter.Row
	bufIdx int

	current adapter.Row
	err     error
	summary adapter.ScanSummary
	closed  bool
	done    bool
}

func newScan(t *Table, plan *query.Plan) *scan {
	return &scan{
		table: t,
		plan:  plan,
		log:   t.logger.With(zap.String("component", "scan")),
	}
}

// Next advances to the next row, fetching pages as needed. Rows already
// emitted stay emitted regardless of later failures.
func (s *scan) Next(ctx context.Context) bool {
	if s.closed || s.done || s.err != nil {
		return false
	}

	if s.plan.Limit > 0 && s.summary.RowsEmitted >= int64(s.plan.Limit) {
		s.finish()
		return false
	}

	for {
		if s.bufIdx < len(s.buf) {
			s.current = s.buf[s.bufIdx]
			s.bufIdx++
			s.summary.RowsEmitted++
			metrics.RowsEmitted.WithLabelValues(TableName).Inc()
			return true
		}

		if s.seqDone {
			s.seq++
			s.offset = 0
			s.total = nil
			s.mode = modeUnknown
			s.seqDone = false
		}
		if s.seq >= len(s.plan.Sequences) {
			s.finish()
			return false
		}

		if err := s.fetchPage(ctx); err != nil {
			s.err = err
			return false
		}
	}
}

// fetchPage requests the next page of the current sequence and refills the
// row buffer with its surviving records.
func (s *scan) fetchPage(ctx context.Context) error {
	params := s.plan.Sequences[s.seq].Clone()

	// startDate and endDate are path segments on the collections endpoint.
	startDate := defaultStartDate
	if v, ok := params["startDate"]; ok {
		startDate = v
		delete(params, "startDate")
	}
	endDate := ""
	if v, ok := params["endDate"]; ok {
		endDate = v
		delete(params, "endDate")
	}

	endpoint := s.table.cfg.BaseURL + "/collections/" +
		url.PathEscape(s.table.cfg.Collection) + "/" + url.PathEscape(startDate)
	if endDate != "" {
		endpoint += "/" + url.PathEscape(endDate)
	}

	pageSize := s.table.cfg.PageSize
	if s.plan.Limit > 0 && len(s.plan.Residual) == 0 {
		// Without residual filtering every fetched record is emitted, so the
		// last page can be clamped to exactly what the limit still needs.
		remaining := int(int64(s.plan.Limit) - s.summary.RowsEmitted)
		if remaining < pageSize {
			pageSize = remaining
		}
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("offset", strconv.FormatInt(s.offset, 10))
	values.Set("pageSize", strconv.Itoa(pageSize))

	var page collectionsPage
	if err := s.table.client.GetJSON(ctx, endpoint, values, &page); err != nil {
		return err
	}
	s.summary.PagesFetched++
	metrics.PagesFetched.WithLabelValues(TableName).Inc()

	if s.mode == modeUnknown {
		switch {
		case page.Count != nil:
			s.mode = modeCount
		case page.NextPage != nil:
			s.mode = modeToken
		default:
			s.mode = modeShort
		}
	} else if s.mode == modeCount && page.Count == nil {
		return errors.New(errors.ErrorTypePagination,
			"result count disappeared mid-scan").
			WithDetail("offset", s.offset)
	}
	if page.Count != nil {
		s.total = page.Count
	}

	records := page.Packages
	var more bool
	switch s.mode {
	case modeCount:
		more = s.offset+int64(len(records)) < *s.total
	case modeToken:
		more = page.NextPage != nil
	default:
		more = len(records) == pageSize
	}

	if len(records) == 0 {
		if more {
			return errors.New(errors.ErrorTypePagination,
				"empty page while more results claimed").
				WithDetail("offset", s.offset)
		}
		s.seqDone = true
		return nil
	}

	s.offset += int64(len(records))
	s.buf = s.buf[:0]
	s.bufIdx = 0

	for _, rec := range records {
		row, ok := coerceRecord(govinfoColumns, rec, s.log)
		if !ok {
			s.summary.RowsSkipped++
			metrics.RowsSkipped.WithLabelValues(TableName).Inc()
			continue
		}
		if !s.matchesResidual(row) {
			continue
		}
		s.buf = append(s.buf, row)
	}

	if !more {
		s.seqDone = true
	}
	return nil
}

// matchesResidual applies the plan's residual predicates to a coerced row.
func (s *scan) matchesResidual(row adapter.Row) bool {
	for _, pred := range s.plan.Residual {
		idx := govinfoColumns.Index(pred.Column)
		if idx < 0 {
			return false
		}
		if !pred.Matches(govinfoColumns[idx].Type, row[idx]) {
			return false
		}
	}
	return true
}

// finish marks the scan naturally complete.
func (s *scan) finish() {
	s.done = true
	s.summary.Complete = true
	s.log.Debug("scan complete",
		zap.Int64("rows_emitted", s.summary.RowsEmitted),
		zap.Int64("rows_skipped", s.summary.RowsSkipped),
		zap.Int64("pages_fetched", s.summary.PagesFetched))
}

// Row returns the current row; valid only after a true Next.
func (s *scan) Row() adapter.Row { return s.current }

// Err returns the terminal scan error, nil on natural exhaustion.
func (s *scan) Err() error { return s.err }

// Summary reports the scan's counters.
func (s *scan) Summary() adapter.ScanSummary { return s.summary }

// Close abandons the scan; no further pages are fetched.
func (s *scan) Close() error {
	s.closed = true
	return nil
}
