package govinfo

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/query"
	"github.com/civicdata/govtable/pkg/schema"
)

func TestTableColumnsDeclaration(t *testing.T) {
	fake := &fakeCollections{style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	cols := table.Columns()
	assert.Equal(t, []string{
		"package_id", "last_modified", "package_link",
		"doc_class", "title", "congress", "date_issued",
	}, cols.Names())

	lm, ok := cols.Lookup("last_modified")
	require.True(t, ok)
	assert.Equal(t, schema.FieldTypeDatetime, lm.Type)
	assert.True(t, lm.Filter.Range())
	assert.True(t, lm.Required)
	assert.False(t, lm.Sortable, "the collections API cannot sort")

	congress, ok := cols.Lookup("congress")
	require.True(t, ok)
	assert.Equal(t, schema.FieldTypeInt, congress.Type)
	assert.True(t, congress.Filter.Equality())

	// Declarations are stable across calls.
	assert.Equal(t, cols, table.Columns())
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.requests),
		"declaring the schema must not touch the network")
}

func TestTableCapabilityErrorBeforeAnyRequest(t *testing.T) {
	fake := &fakeCollections{style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	_, err = table.Scan(context.Background(), query.Request{
		Predicates: []query.Predicate{
			{Column: "no_such_column", Op: query.OpEq, Value: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.requests))
}

func TestTableDateWindowPushesIntoPath(t *testing.T) {
	fake := &fakeCollections{records: billRecords(3), style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	ids, _ := drain(t, table, query.Request{
		Predicates: []query.Predicate{
			{Column: "last_modified", Op: query.OpGe, Value: "2024-01-01T00:00:00Z"},
			{Column: "last_modified", Op: query.OpLe, Value: "2024-12-31T00:00:00Z"},
		},
	})

	assert.Len(t, ids, 3)
	assert.Equal(t,
		"/collections/BILLS/2024-01-01T00:00:00Z/2024-12-31T00:00:00Z",
		fake.lastPath.Load(),
		"last_modified bounds become the endpoint's date window")
}

func TestTableDefaultsToEpochStart(t *testing.T) {
	fake := &fakeCollections{records: billRecords(1), style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	drain(t, table, query.Request{})

	assert.Equal(t, "/collections/BILLS/1970-01-01T00:00:00Z", fake.lastPath.Load())
}

func TestTableResidualFiltering(t *testing.T) {
	records := billRecords(4)
	records[1]["docClass"] = "s"
	records[3]["docClass"] = "s"
	fake := &fakeCollections{records: records, style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	ids, sc := drain(t, table, query.Request{
		Predicates: []query.Predicate{
			{Column: "doc_class", Op: query.OpEq, Value: "s"},
		},
	})

	assert.Equal(t, []string{"BILLS-118hr1", "BILLS-118hr3"}, ids)

	// Filtered rows are neither emitted nor counted as skipped.
	summary := sc.Summary()
	assert.Equal(t, int64(2), summary.RowsEmitted)
	assert.Equal(t, int64(0), summary.RowsSkipped)
}

func TestTableStrictBoundStaysExact(t *testing.T) {
	records := billRecords(3) // lastModified 2024-01-01, -02, -03
	fake := &fakeCollections{records: records, style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	// The remote window is inclusive, so the boundary record comes back from
	// the API; the residual recheck must drop it.
	ids, _ := drain(t, table, query.Request{
		Predicates: []query.Predicate{
			{Column: "last_modified", Op: query.OpGt, Value: "2024-01-01T00:00:00Z"},
		},
	})

	assert.Equal(t, []string{"BILLS-118hr1", "BILLS-118hr2"}, ids)
}

func TestTableEndToEndTwoPages(t *testing.T) {
	fake := &fakeCollections{records: billRecords(3), style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	sc, err := table.Scan(context.Background(), query.Request{
		Predicates: []query.Predicate{
			{Column: "last_modified", Op: query.OpGe, Value: "2024-01-01T00:00:00Z"},
		},
	})
	require.NoError(t, err)
	defer sc.Close()

	var rows [][]interface{}
	for sc.Next(context.Background()) {
		rows = append(rows, sc.Row())
	}
	require.NoError(t, sc.Err())

	require.Len(t, rows, 3)
	idIdx := govinfoColumns.Index("package_id")
	assert.Equal(t, "BILLS-118hr0", rows[0][idIdx])
	assert.Equal(t, "BILLS-118hr1", rows[1][idIdx])
	assert.Equal(t, "BILLS-118hr2", rows[2][idIdx])
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.requests))

	summary := sc.Summary()
	assert.True(t, summary.Complete)
	assert.Equal(t, int64(2), summary.PagesFetched)
}

func TestTableEndToEndNoTerminationIndicator(t *testing.T) {
	fake := &fakeCollections{records: billRecords(3), style: "short"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	// Pages of {2, 1} with neither count nor nextPage: the short final page
	// alone terminates the scan.
	ids, sc := drain(t, table, query.Request{
		Predicates: []query.Predicate{
			{Column: "last_modified", Op: query.OpGe, Value: "2024-01-01T00:00:00Z"},
		},
	})

	assert.Equal(t, []string{"BILLS-118hr0", "BILLS-118hr1", "BILLS-118hr2"}, ids)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.requests))
	assert.True(t, sc.Summary().Complete)
}

func TestTableUnappliedSortStillScans(t *testing.T) {
	fake := &fakeCollections{records: billRecords(2), style: "count"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	table, err := NewTable(testConfig(server.URL))
	require.NoError(t, err)
	defer table.Close()

	// No column is sortable; the scan proceeds in API order rather than
	// failing or silently pretending.
	ids, _ := drain(t, table, query.Request{
		Sort: &query.Sort{Column: "last_modified", Desc: true},
	})
	assert.Equal(t, []string{"BILLS-118hr0", "BILLS-118hr1"}, ids)
}
