// Package govtable exposes the GovInfo REST API (api.govinfo.gov) as a
// virtual table for host SQL engines.
//
// The adapter splits each scan request into a pushdown plan (the predicates
// the collections endpoint can express as its date window) and residual
// predicates re-applied locally after fetch, then pulls result pages lazily
// through a guarded HTTP client with retry, rate limiting, and caching.
//
// Key packages:
//
//   - pkg/adapter: host-facing Table/Scan contract and factory registry
//   - pkg/schema: column declarations with filter capabilities
//   - pkg/query: request model and pushdown/residual translation
//   - pkg/govinfo: the collections table, pagination, and row coercion
//   - pkg/clients: retrying, rate-limited HTTP transport
//   - pkg/config: adapter configuration and YAML loading
//   - pkg/errors: the failure taxonomy (capability, transport, remote,
//     coercion, pagination)
//
// Typical usage:
//
//	cfg := config.NewAdapterConfig("BILLS")
//	cfg.APIKey = os.Getenv("GOVINFO_API_KEY")
//
//	table, err := adapter.Open("govinfo", cfg)
//	if err != nil { ... }
//	defer table.Close()
//
//	sc, err := table.Scan(ctx, query.Request{
//	    Predicates: []query.Predicate{
//	        {Column: "last_modified", Op: query.OpGe, Value: "2024-01-01T00:00:00Z"},
//	    },
//	})
//	if err != nil { ... }
//	defer sc.Close()
//
//	for sc.Next(ctx) {
//	    row := sc.Row()
//	    ...
//	}
//	if err := sc.Err(); err != nil { ... }
package govtable
