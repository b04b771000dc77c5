package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

func backends(t *testing.T) map[Backend]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := StoreFactory(BackendFile, map[string]string{"path": filepath.Join(dir, "files")})
	require.NoError(t, err)
	bolt, err := StoreFactory(BackendBolt, map[string]string{"path": filepath.Join(dir, "pricing.db")})
	require.NoError(t, err)
	memory, err := StoreFactory(BackendMemory, nil)
	require.NoError(t, err)

	stores := map[Backend]Store{BackendMemory: memory, BackendFile: file, BackendBolt: bolt}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func eachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for backend, s := range backends(t) {
		s := s
		t.Run(string(backend), func(t *testing.T) { fn(t, s) })
	}
}

func TestCatalogs(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		err := s.SaveCatalog(ctx, &StoredCatalog{Name: "print", Nodes: []types.PricingNode{
			{Path: "/volume", Type: types.NodeNumeric, Cost: 10},
			{Path: "/material", Type: types.NodeLabel, Cost: 20, Value: types.String("pla")},
		}})
		require.NoError(t, err)
		require.NoError(t, s.SaveCatalog(ctx, &StoredCatalog{Name: "cnc"}))

		got, err := s.GetCatalog(ctx, "print")
		require.NoError(t, err)
		require.Len(t, got.Nodes, 2)
		require.True(t, got.Nodes[1].Value.Equal(types.String("pla")))
		require.False(t, got.UpdatedAt.IsZero())

		names, err := s.ListCatalogs(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"cnc", "print"}, names)

		_, err = s.GetCatalog(ctx, "laser")
		require.True(t, errors.IsType(err, errors.TypeNotFound))
		_, err = s.GetCatalog(ctx, "../print")
		require.True(t, errors.IsType(err, errors.TypeNotFound))
	})
}

func TestStrategies(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		percent := 15.0
		strategy := &types.PricingStrategy{
			Version: 1,
			Steps: []types.Step{
				types.AddStep{StepHeader: types.StepHeader{ID: 1}, Inputs: []types.Value{types.String("/volume")}},
				types.PercentageStep{StepHeader: types.StepHeader{ID: 2}, Inputs: []types.Value{types.String("step__1")}, Percent: &percent},
			},
		}

		require.NoError(t, s.SaveStrategy(ctx, &StoredStrategy{Name: "default", Strategy: strategy}))

		got, err := s.GetStrategy(ctx, "default")
		require.NoError(t, err)
		require.Len(t, got.Strategy.Steps, 2)
		pct, ok := got.Strategy.Steps[1].(types.PercentageStep)
		require.True(t, ok)
		require.Equal(t, 15.0, *pct.Percent)

		names, err := s.ListStrategies(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"default"}, names)

		err = s.SaveStrategy(ctx, &StoredStrategy{Name: "empty"})
		require.True(t, errors.IsType(err, errors.TypeInvalidDocument))
	})
}

func TestSaveCatalogRejectsInvalidNodes(t *testing.T) {
	s := NewMemoryStore()
	err := s.SaveCatalog(context.Background(), &StoredCatalog{Name: "bad", Nodes: []types.PricingNode{
		{Path: "/color", Type: types.NodeLabel, Cost: 5},
	}})
	require.True(t, errors.IsType(err, errors.TypeInvalidDocument))

	_, err = s.GetCatalog(context.Background(), "bad")
	require.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestInvalidNames(t *testing.T) {
	for _, name := range []string{"", "a/b", "../x", ".hidden", "has space"} {
		require.Error(t, ValidateName(name), name)
	}
	for _, name := range []string{"print", "print-v2", "Print_3.1"} {
		require.NoError(t, ValidateName(name), name)
	}
}

func TestResults(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, price := range []float64{100, 335, 50} {
			r := &StoredResult{
				Strategy:  "default",
				InputHash: "hash",
				Result:    &types.CalculationResult{FinalPrice: price, Breakdown: []types.BreakdownEntry{}},
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if i == 2 {
				r.Strategy = "rush"
			}
			require.NoError(t, s.SaveResult(ctx, r))
			require.NotEmpty(t, r.ID)
			require.Equal(t, price, r.FinalPrice)
		}

		all, err := s.ListResults(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, 100.0, all[0].FinalPrice)

		minPrice := 90.0
		filtered, err := s.ListResults(ctx, &ListFilter{Strategy: "default", MinPrice: &minPrice, OrderDesc: true})
		require.NoError(t, err)
		require.Len(t, filtered, 2)
		require.Equal(t, 335.0, filtered[0].FinalPrice)

		paged, err := s.ListResults(ctx, &ListFilter{Offset: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		require.Equal(t, 335.0, paged[0].FinalPrice)

		empty, err := s.ListResults(ctx, &ListFilter{Offset: 10})
		require.NoError(t, err)
		require.Empty(t, empty)

		got, err := s.GetResult(ctx, all[1].ID)
		require.NoError(t, err)
		require.Equal(t, 335.0, got.Result.FinalPrice)
		require.Equal(t, "hash", got.InputHash)

		require.NoError(t, s.DeleteResult(ctx, all[1].ID))
		_, err = s.GetResult(ctx, all[1].ID)
		require.True(t, errors.IsType(err, errors.TypeNotFound))
		require.True(t, errors.IsType(s.DeleteResult(ctx, all[1].ID), errors.TypeNotFound))
	})
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.ListCatalogs(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentSaves(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.SaveResult(ctx, &StoredResult{Result: &types.CalculationResult{FinalPrice: 1}})
			}()
		}
		wg.Wait()

		all, err := s.ListResults(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 16)
	})
}

func TestStoreFactoryUnknownBackend(t *testing.T) {
	_, err := StoreFactory("postgres", nil)
	require.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.db")
	ctx := context.Background()

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveCatalog(ctx, &StoredCatalog{Name: "print"}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	names, err := s.ListCatalogs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"print"}, names)
}
