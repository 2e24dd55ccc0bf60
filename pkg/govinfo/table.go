// Package govinfo implements the virtual table over the GovInfo collections
// API (api.govinfo.gov). One table instance is bound to a single collection
// (BILLS, CREC, FR, ...) and exposes its package index as rows: filters on
// last_modified push down to the collections endpoint's date window, and
// everything else is satisfied by residual filtering after fetch.
package govinfo

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/adapter"
	"github.com/civicdata/govtable/pkg/clients"
	"github.com/civicdata/govtable/pkg/config"
	"github.com/civicdata/govtable/pkg/logger"
	"github.com/civicdata/govtable/pkg/query"
	"github.com/civicdata/govtable/pkg/schema"
)

// TableName is the registry name of this adapter.
const TableName = "govinfo"

// govinfoColumns is the fixed schema of the collections table. The API
// cannot sort, so no column is sortable and requested sorts are surfaced as
// unapplied. Only last_modified has a remote expression; the other declared
// capabilities are satisfied residually.
var govinfoColumns = schema.Columns{
	{Name: "package_id", Type: schema.FieldTypeString, Filter: schema.FilterEquality, Required: true, APIField: "packageId"},
	{Name: "last_modified", Type: schema.FieldTypeDatetime, Filter: schema.FilterEquality | schema.FilterRange, Required: true, APIField: "lastModified"},
	{Name: "package_link", Type: schema.FieldTypeString, Filter: schema.FilterNone, APIField: "packageLink"},
	{Name: "doc_class", Type: schema.FieldTypeString, Filter: schema.FilterEquality, APIField: "docClass"},
	{Name: "title", Type: schema.FieldTypeString, Filter: schema.FilterNone, APIField: "title"},
	{Name: "congress", Type: schema.FieldTypeInt, Filter: schema.FilterEquality, APIField: "congress"},
	{Name: "date_issued", Type: schema.FieldTypeDate, Filter: schema.FilterEquality | schema.FilterRange, APIField: "dateIssued"},
}

// remoteBindings maps columns to collections-endpoint parameters. The
// startDate and endDate values become URL path segments, not query
// parameters; the scan splices them into the request path.
var remoteBindings = map[string]query.RemoteBinding{
	"last_modified": {LowerParam: "startDate", UpperParam: "endDate"},
}

// Table is a GovInfo collections virtual table bound to one collection.
type Table struct {
	cfg        *config.AdapterConfig
	client     *clients.Client
	translator *query.Translator
	logger     *zap.Logger
}

// NewTable constructs a table for the configured collection. Configuration
// errors surface here; no network traffic happens until the first Next of a
// scan.
func NewTable(cfg *config.AdapterConfig) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get().With(
		zap.String("table", TableName),
		zap.String("collection", cfg.Collection),
	)

	clientCfg := clients.ClientConfig{
		Name:            TableName,
		APIKey:          cfg.APIKey,
		Timeout:         cfg.RequestTimeout,
		RetryAttempts:   cfg.Reliability.RetryAttempts,
		RetryDelay:      cfg.Reliability.RetryDelay,
		RetryMultiplier: cfg.Reliability.RetryMultiplier,
		MaxRetryDelay:   cfg.Reliability.MaxRetryDelay,
		RateLimitPerSec: float64(cfg.Reliability.RateLimitPerSec),
	}
	if cfg.Reliability.CacheResponses {
		clientCfg.CacheTTL = cfg.Reliability.CacheTTL
	}

	return &Table{
		cfg:        cfg,
		client:     clients.NewClient(clientCfg),
		translator: query.NewTranslator(govinfoColumns, remoteBindings, log),
		logger:     log,
	}, nil
}

// Name returns the registry name.
func (t *Table) Name() string { return TableName }

// Columns returns the fixed column declaration.
func (t *Table) Columns() schema.Columns { return govinfoColumns }

// Scan plans the request and returns a lazy row iterator. Predicates and
// sorts outside the declared capabilities fail here, before any HTTP call.
func (t *Table) Scan(ctx context.Context, req query.Request) (adapter.Scan, error) {
	plan, err := t.translator.Translate(req)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("scan planned",
		zap.Int("sequences", len(plan.Sequences)),
		zap.Int("residual_predicates", len(plan.Residual)),
		zap.Int("limit", plan.Limit),
		zap.Bool("sort_applied", plan.SortApplied))

	return newScan(t, plan), nil
}

// Close releases table resources. Idle by design: the HTTP client holds no
// persistent connections beyond the standard pool.
func (t *Table) Close() error {
	return nil
}
