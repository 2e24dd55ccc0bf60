package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/govtable/pkg/config"
	"github.com/civicdata/govtable/pkg/errors"
	"github.com/civicdata/govtable/pkg/query"
	"github.com/civicdata/govtable/pkg/schema"
)

type stubTable struct {
	name string
}

func (s *stubTable) Name() string            { return s.name }
func (s *stubTable) Columns() schema.Columns { return nil }
func (s *stubTable) Scan(ctx context.Context, req query.Request) (Scan, error) {
	return nil, errors.New(errors.ErrorTypeCapability, "stub")
}
func (s *stubTable) Close() error { return nil }

func validConfig() *config.AdapterConfig {
	cfg := config.NewAdapterConfig("BILLS")
	cfg.APIKey = "key"
	return cfg
}

func TestRegisterAndOpen(t *testing.T) {
	Register("stub_open", func(cfg *config.AdapterConfig) (Table, error) {
		return &stubTable{name: "stub_open"}, nil
	})

	table, err := Open("stub_open", validConfig())
	require.NoError(t, err)
	assert.Equal(t, "stub_open", table.Name())
}

func TestOpenUnknownName(t *testing.T) {
	_, err := Open("never_registered", validConfig())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestOpenValidatesConfig(t *testing.T) {
	Register("stub_validate", func(cfg *config.AdapterConfig) (Table, error) {
		t.Fatal("factory must not run on invalid config")
		return nil, nil
	})

	cfg := validConfig()
	cfg.APIKey = ""
	_, err := Open("stub_validate", cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("stub_dup", func(cfg *config.AdapterConfig) (Table, error) {
		return &stubTable{}, nil
	})

	assert.Panics(t, func() {
		Register("stub_dup", func(cfg *config.AdapterConfig) (Table, error) {
			return &stubTable{}, nil
		})
	})
}

func TestListIsSorted(t *testing.T) {
	Register("stub_list_b", func(cfg *config.AdapterConfig) (Table, error) { return &stubTable{}, nil })
	Register("stub_list_a", func(cfg *config.AdapterConfig) (Table, error) { return &stubTable{}, nil })

	names := List()
	idxA, idxB := -1, -1
	for i, n := range names {
		switch n {
		case "stub_list_a":
			idxA = i
		case "stub_list_b":
			idxB = i
		}
	}
	require.GreaterOrEqual(t, idxA, 0)
	require.GreaterOrEqual(t, idxB, 0)
	assert.Less(t, idxA, idxB)
}
