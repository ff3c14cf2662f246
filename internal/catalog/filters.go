package catalog

import "strings"

type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
)

// ParseSort maps a query value to a Sort; anything unknown is newest first.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortPriceAsc, SortPriceDesc:
		return Sort(s)
	default:
		return SortNewest
	}
}

const DefaultTake = 20

// Filters narrows the public product listing.
type Filters struct {
	CategoryID string
	Collection string // collection slug
	Search     string
	Sort       Sort
	Skip       int
	Take       int

	// IncludeInactive lists hidden products too; admin only.
	IncludeInactive bool
}

func (f Filters) normalized() Filters {
	f.Search = strings.TrimSpace(f.Search)
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Take <= 0 {
		f.Take = DefaultTake
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	return f
}

type Page struct {
	Products []Product
	Total    int
	HasMore  bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
