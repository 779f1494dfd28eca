package enums

import "fmt"

// ProductSortField names the columns a product listing may be ordered by.
type ProductSortField string

const (
	ProductSortName      ProductSortField = "name"
	ProductSortPrice     ProductSortField = "price"
	ProductSortRating    ProductSortField = "rating"
	ProductSortCreatedAt ProductSortField = "createdAt"
)

var productSortColumns = map[ProductSortField]string{
	ProductSortName:      "name",
	ProductSortPrice:     "price",
	ProductSortRating:    "rating",
	ProductSortCreatedAt: "created_at",
}

// Column returns the database column backing the sort field.
func (f ProductSortField) Column() string {
	if col, ok := productSortColumns[f]; ok {
		return col
	}
	return productSortColumns[ProductSortCreatedAt]
}

// IsValid reports whether the value is a known ProductSortField.
func (f ProductSortField) IsValid() bool {
	_, ok := productSortColumns[f]
	return ok
}

// ParseProductSortField converts raw input into a ProductSortField.
func ParseProductSortField(value string) (ProductSortField, error) {
	f := ProductSortField(value)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid sort field %q", value)
	}
	return f, nil
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder converts raw input into a SortOrder.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case SortAsc, SortDesc:
		return SortOrder(value), nil
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
