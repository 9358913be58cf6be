package baseline

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cropsense/crop-analysis/internal/domain"
)

type countingProvider struct {
	calls int
	grid  *mat.Dense
	err   error
}

func (p *countingProvider) BaselineFor(_ context.Context, _, _ string, _, _ int) (*mat.Dense, error) {
	p.calls++
	return p.grid, p.err
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup hits the cache", func(t *testing.T) {
		inner := &countingProvider{grid: mat.NewDense(2, 2, []float64{1, 2, 3, 4})}
		cached := NewCachedProvider(inner, 10, nil)

		first, err := cached.BaselineFor(ctx, "field-1", "2025-07", 2, 2)
		require.NoError(t, err)
		second, err := cached.BaselineFor(ctx, "field-1", "2025-07", 2, 2)
		require.NoError(t, err)

		assert.Equal(t, 1, inner.calls)
		assert.Same(t, first, second)
	})

	t.Run("different shapes are distinct keys", func(t *testing.T) {
		inner := &countingProvider{grid: mat.NewDense(2, 2, nil)}
		cached := NewCachedProvider(inner, 10, nil)

		_, err := cached.BaselineFor(ctx, "field-1", "2025-07", 2, 2)
		require.NoError(t, err)
		_, err = cached.BaselineFor(ctx, "field-1", "2025-07", 4, 4)
		require.NoError(t, err)

		assert.Equal(t, 2, inner.calls)
	})

	t.Run("nil grids are not cached", func(t *testing.T) {
		inner := &countingProvider{}
		cached := NewCachedProvider(inner, 10, nil)

		_, err := cached.BaselineFor(ctx, "field-2", "2025-07", 2, 2)
		require.NoError(t, err)
		_, err = cached.BaselineFor(ctx, "field-2", "2025-07", 2, 2)
		require.NoError(t, err)

		assert.Equal(t, 2, inner.calls, "a missing baseline must be retried")
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		inner := &countingProvider{grid: mat.NewDense(1, 1, []float64{1})}
		cached := NewCachedProvider(inner, 2, nil)

		_, _ = cached.BaselineFor(ctx, "a", "p", 1, 1)
		_, _ = cached.BaselineFor(ctx, "b", "p", 1, 1)
		_, _ = cached.BaselineFor(ctx, "c", "p", 1, 1) // evicts "a"
		_, _ = cached.BaselineFor(ctx, "a", "p", 1, 1)

		assert.Equal(t, 4, inner.calls)
	})
}

func TestClientBaselineFor(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes grid response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/baselines/field-1/2025-07", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("rows"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"field_id":"field-1","period":"2025-07","grid":[[1,2],[3,4]]}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 2*time.Second, slog.Default())
		grid, err := client.BaselineFor(ctx, "field-1", "2025-07", 2, 2)

		require.NoError(t, err)
		require.NotNil(t, grid)
		assert.Equal(t, 4.0, grid.At(1, 1))
	})

	t.Run("404 means no history", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 2*time.Second, slog.Default())
		grid, err := client.BaselineFor(ctx, "field-1", "2025-07", 2, 2)

		require.NoError(t, err)
		assert.Nil(t, grid)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 2*time.Second, slog.Default())
		_, err := client.BaselineFor(ctx, "field-1", "2025-07", 2, 2)
		assert.Error(t, err)
	})

	t.Run("mismatched grid shape", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"grid":[[1,2,3]]}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 2*time.Second, slog.Default())
		_, err := client.BaselineFor(ctx, "field-1", "2025-07", 2, 2)
		assert.ErrorIs(t, err, domain.ErrShapeMismatch)
	})
}
