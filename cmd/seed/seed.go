package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	"github.com/vardaanagro/agrofarm-backend/pkg/security"
)

type seedSummary struct {
	Categories int
	Products   int
	Users      int
}

// seed inserts the demo catalog and accounts. Existing rows, matched on their
// unique keys, are left untouched so the command can be re-run.
func seed(ctx context.Context, conn *gorm.DB, pwCfg config.PasswordConfig) (seedSummary, error) {
	var summary seedSummary
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs := make(map[string]models.Category, len(categories))
		for _, c := range categories {
			row := models.Category{Name: c.Name, Description: strPtr(c.Description), Image: strPtr(c.Image), IsActive: true}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("category %s: %w", c.Name, res.Error)
			}
			summary.Categories += int(res.RowsAffected)
			var stored models.Category
			if err := tx.Where("name = ?", c.Name).First(&stored).Error; err != nil {
				return fmt.Errorf("load category %s: %w", c.Name, err)
			}
			categoryIDs[c.Name] = stored
		}

		for _, p := range products {
			row := models.Product{
				Name:        p.Name,
				Description: p.Description,
				Price:       decimal.NewFromInt(p.Price),
				Stock:       p.Stock,
				Images:      []string{p.Image},
				CategoryID:  categoryIDs[p.Category].ID,
				SKU:         p.SKU,
				Weight:      p.weight(),
				IsOrganic:   true,
				IsActive:    true,
				Rating:      decimal.Zero,
			}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sku"}}, DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("product %s: %w", p.SKU, res.Error)
			}
			summary.Products += int(res.RowsAffected)
		}

		for _, u := range users {
			hash, err := security.HashPassword(u.Password, pwCfg)
			if err != nil {
				return err
			}
			role := enums.UserRoleCustomer
			if u.Admin {
				role = enums.UserRoleAdmin
			}
			row := models.User{
				Name:         u.Name,
				Email:        u.Email,
				PasswordHash: hash,
				Role:         role,
				Phone:        strPtr(u.Phone),
				Address:      strPtr(u.Address),
				IsActive:     true,
			}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("user %s: %w", u.Email, res.Error)
			}
			summary.Users += int(res.RowsAffected)
		}
		return nil
	})
	return summary, err
}

func strPtr(s string) *string {
	return &s
}
