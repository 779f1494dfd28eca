package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

const (
	defaultFeaturedLimit = 8
	defaultRelatedLimit  = 4
	defaultSearchLimit   = 10
	latestReviewLimit    = 10
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	IsOrganic  *bool
	MinRating  *decimal.Decimal
	Search     string
	SortBy     enums.ProductSortField
	SortOrder  enums.SortOrder
}

// ListProductsInput captures the inputs needed to paginate and filter the catalog.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}

func (f ProductListFilters) orderClause() string {
	dir := "DESC"
	if f.SortOrder == enums.SortAsc {
		dir = "ASC"
	}
	return f.SortBy.Column() + " " + dir
}

func boundedLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > pagination.MaxLimit {
		return pagination.MaxLimit
	}
	return limit
}
