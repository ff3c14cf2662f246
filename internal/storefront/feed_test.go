package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listing serves n products two at a time.
func listing(t *testing.T, n int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		prefix := r.URL.Query().Get("search")
		var out []map[string]any
		for i := skip; i < n && i < skip+2; i++ {
			out = append(out, map[string]any{"id": fmt.Sprintf("%s%d", prefix, i), "name": "p", "price": "100"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"products": out, "total": n, "hasMore": skip+2 < n})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeed_PagesUntilExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := listing(t, 5, &hits)
	f := NewFeed(srv.URL, srv.Client())
	ctx := context.Background()

	for f.HasMore() {
		_, err := f.LoadMore(ctx)
		require.NoError(t, err)
	}
	got := f.Products()
	require.Len(t, got, 5)
	assert.Equal(t, "4", got[4].ID)
	assert.Equal(t, "100", got[0].Price.Decimal.String())
	assert.Equal(t, 5, f.Total())
	assert.Equal(t, int32(3), hits.Load())

	batch, err := f.LoadMore(ctx)
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Equal(t, int32(3), hits.Load(), "no request once exhausted")
}

func TestFeed_ResetStartsOver(t *testing.T) {
	var hits atomic.Int32
	srv := listing(t, 3, &hits)
	f := NewFeed(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := f.LoadMore(ctx)
	require.NoError(t, err)

	f.Reset(Filters{Search: "lamp"})
	assert.Empty(t, f.Products())
	batch, err := f.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "lamp0", batch[0].ID)
}

func TestFeed_DiscardsResponseAfterReset(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "old" {
			close(arrived)
			<-release
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{{"id": r.URL.Query().Get("search")}},
			"total":    1,
			"hasMore":  false,
		})
	}))
	t.Cleanup(srv.Close)

	f := NewFeed(srv.URL, srv.Client())
	f.Reset(Filters{Search: "old"})

	errc := make(chan error, 1)
	go func() {
		_, err := f.LoadMore(context.Background())
		errc <- err
	}()
	<-arrived
	f.Reset(Filters{Search: "new"})
	close(release)

	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Empty(t, f.Products(), "stale page must not leak into the new listing")
	assert.True(t, f.HasMore())

	batch, err := f.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "new", batch[0].ID)
}

func TestFeed_QueryParameters(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"products":[],"total":0,"hasMore":false}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFeed(srv.URL, srv.Client())
	f.Reset(Filters{Category: "c1", Sort: "price-asc"})
	_, err := f.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "category=c1&skip=0&sort=price-asc", got)
	assert.False(t, f.HasMore())
}

func TestFeed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	f := NewFeed(srv.URL, srv.Client())
	_, err := f.LoadMore(context.Background())
	require.Error(t, err)
	assert.True(t, f.HasMore(), "a failed page can be retried")
}
