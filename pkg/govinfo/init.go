package govinfo

import (
	"github.com/civicdata/govtable/pkg/adapter"
	"github.com/civicdata/govtable/pkg/config"
)

// Register the govinfo table with the adapter registry so hosts can open it
// by name.
func init() {
	adapter.Register(TableName, func(cfg *config.AdapterConfig) (adapter.Table, error) {
		return NewTable(cfg)
	})
}
