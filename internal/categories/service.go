package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
)

const (
	notFoundMessage      = "Category not found"
	duplicateNameMessage = "Category with this name already exists"
	previewProductLimit  = 10
)

// Service exposes catalog category operations.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDetailDTO, error)
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a category service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, counts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newCategoryDTO(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDetailDTO, error) {
	category, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, notFoundMessage, "", "load category")
	}
	count, err := s.repo.CountActiveProducts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
	}
	products, err := s.repo.ListActiveProducts(ctx, id, previewProductLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list category products")
	}
	detail := &CategoryDetailDTO{
		CategoryDTO: newCategoryDTO(category, count),
		Products:    make([]ProductPreview, 0, len(products)),
	}
	for _, p := range products {
		detail.Products = append(detail.Products, newProductPreview(p))
	}
	return detail, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category name is required")
	}

	var created *models.Category
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, name, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category name")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateNameMessage)
		}
		category := &models.Category{
			Name:        name,
			Description: input.Description,
			Image:       input.Image,
			IsActive:    true,
		}
		if err := repo.Create(ctx, category); err != nil {
			return db.Classify(err, "", duplicateNameMessage, "create category")
		}
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := newCategoryDTO(created, 0)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	var updated *models.Category
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindActiveByID(ctx, id)
		if err != nil {
			return db.Classify(err, notFoundMessage, "", "load category")
		}

		changes := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "Category name is required")
			}
			if name != existing.Name {
				taken, err := repo.NameTaken(ctx, name, &existing.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category name")
				}
				if taken {
					return pkgerrors.New(pkgerrors.CodeConflict, duplicateNameMessage)
				}
				changes["name"] = name
			}
		}
		if input.Description != nil {
			changes["description"] = *input.Description
		}
		if input.Image != nil {
			changes["image"] = *input.Image
		}
		if err := repo.Update(ctx, id, changes); err != nil {
			return db.Classify(err, "", duplicateNameMessage, "update category")
		}
		updated, err = repo.FindActiveByID(ctx, id)
		if err != nil {
			return db.Classify(err, notFoundMessage, "", "reload category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountActiveProducts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
	}
	dto := newCategoryDTO(updated, count)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindActiveByID(ctx, id); err != nil {
		return db.Classify(err, notFoundMessage, "", "load category")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}
