// Package storefront is a client for the public product listing. Feed pages
// through results for infinite scroll and drops responses that arrive after
// the filters changed.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrStale is returned by LoadMore when Reset ran while the request was in
// flight; the response was discarded.
var ErrStale = errors.New("stale page discarded")

type Filters struct {
	Category   string
	Collection string
	Search     string
	Sort       string
}

func (f Filters) query(skip int) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", f.Category)
	set("collection", f.Collection)
	set("search", f.Search)
	set("sort", f.Sort)
	q.Set("skip", strconv.Itoa(skip))
	return q
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Card is one product as served by the listing endpoint.
type Card struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Price               decimal.NullDecimal `json:"price"`
	ComparePrice        decimal.NullDecimal `json:"comparePrice"`
	PriceMin            decimal.NullDecimal `json:"priceMin"`
	PriceMax            decimal.NullDecimal `json:"priceMax"`
	PriceLabel          string              `json:"priceLabel"`
	HasMultipleVariants bool                `json:"hasMultipleVariants"`
	FeaturedImage       string              `json:"featuredImage"`
	Stock               int                 `json:"stock"`
	Weight              decimal.NullDecimal `json:"weight"`
	Category            *Category           `json:"category"`
}

type page struct {
	Products []Card `json:"products"`
	Total    int    `json:"total"`
	HasMore  bool   `json:"hasMore"`
}

type Feed struct {
	base   string
	client *http.Client
	group  singleflight.Group

	mu       sync.Mutex
	gen      uint64
	filters  Filters
	products []Card
	total    int
	hasMore  bool
}

func NewFeed(baseURL string, client *http.Client) *Feed {
	if client == nil {
		client = http.DefaultClient
	}
	return &Feed{base: baseURL, client: client, hasMore: true}
}

// Reset starts a new listing for filters. Requests issued before the reset
// will report ErrStale.
func (f *Feed) Reset(filters Filters) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.filters = filters
	f.products = nil
	f.total = 0
	f.hasMore = true
}

// LoadMore fetches the next page and appends it. Concurrent calls for the
// same page share one request. It returns the newly appended cards, or nil
// when the listing is exhausted.
func (f *Feed) LoadMore(ctx context.Context) ([]Card, error) {
	f.mu.Lock()
	gen, filters, skip, more := f.gen, f.filters, len(f.products), f.hasMore
	f.mu.Unlock()
	if !more {
		return nil, nil
	}

	v, err, _ := f.group.Do(fmt.Sprintf("%d:%d", gen, skip), func() (any, error) {
		p, err := f.fetch(ctx, filters, skip)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return nil, ErrStale
		}
		f.products = append(f.products, p.Products...)
		f.total = p.Total
		f.hasMore = p.HasMore
		return p.Products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Card), nil
}

func (f *Feed) fetch(ctx context.Context, filters Filters, skip int) (page, error) {
	u := f.base + "/api/products?" + filters.query(skip).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return page{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("fetch products: unexpected status %d", resp.StatusCode)
	}
	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, fmt.Errorf("decode products: %w", err)
	}
	if p.Products == nil {
		p.Products = []Card{}
	}
	return p, nil
}

// Products returns a copy of everything loaded for the current filters.
func (f *Feed) Products() []Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Card(nil), f.products...)
}

func (f *Feed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}
