package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
)

// MustCreateUser inserts an active customer.
func MustCreateUser(t testing.TB, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Test Customer",
		Email:        fmt.Sprintf("customer_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateCategory inserts an active category with the given name.
func MustCreateCategory(t testing.TB, conn *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, IsActive: true}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

// ProductOption tweaks a fixture product before insert.
type ProductOption func(*models.Product)

func WithName(name string) ProductOption {
	return func(p *models.Product) { p.Name = name }
}

func WithStock(stock int) ProductOption {
	return func(p *models.Product) { p.Stock = stock }
}

func WithPrice(price string) ProductOption {
	return func(p *models.Product) { p.Price = decimal.RequireFromString(price) }
}

func WithRating(rating string, count int) ProductOption {
	return func(p *models.Product) {
		p.Rating = decimal.RequireFromString(rating)
		p.ReviewCount = count
	}
}

func Inactive() ProductOption {
	return func(p *models.Product) { p.IsActive = false }
}

// MustCreateProduct inserts an active, organic product priced at 100.00 with
// ten units of stock unless options say otherwise.
func MustCreateProduct(t testing.TB, conn *gorm.DB, categoryID uuid.UUID, opts ...ProductOption) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        "Test Product",
		Description: "A product created by a test fixture",
		Price:       decimal.RequireFromString("100.00"),
		Stock:       10,
		Images:      []string{"https://cdn.example.com/p.jpg"},
		CategoryID:  categoryID,
		SKU:         fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		IsOrganic:   true,
		IsActive:    true,
		Rating:      decimal.Zero,
	}
	for _, opt := range opts {
		opt(product)
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
