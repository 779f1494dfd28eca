package controllers

import (
	"net/http"
	"strings"

	"github.com/vardaanagro/agrofarm-backend/api/responses"
	"github.com/vardaanagro/agrofarm-backend/api/validators"
	product "github.com/vardaanagro/agrofarm-backend/internal/products"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

func ProductsList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		input, err := parseProductListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePaginated(w, "Products retrieved successfully", result.Products, pagination.Meta(input.Pagination, result.Total))
	}
}

func parseProductListQuery(r *http.Request) (product.ListProductsInput, error) {
	var input product.ListProductsInput
	params, err := validators.ParsePagination(r)
	if err != nil {
		return input, err
	}
	input.Pagination = params

	filters := &input.Filters
	if filters.CategoryID, err = validators.ParseQueryUUID(r, "categoryId"); err != nil {
		return input, err
	}
	if filters.MinPrice, err = validators.ParseQueryDecimal(r, "minPrice"); err != nil {
		return input, err
	}
	if filters.MaxPrice, err = validators.ParseQueryDecimal(r, "maxPrice"); err != nil {
		return input, err
	}
	if filters.MinRating, err = validators.ParseQueryDecimal(r, "rating"); err != nil {
		return input, err
	}
	if filters.IsOrganic, err = validators.ParseQueryBool(r, "isOrganic"); err != nil {
		return input, err
	}
	inStock, err := validators.ParseQueryBool(r, "inStock")
	if err != nil {
		return input, err
	}
	filters.InStock = inStock != nil && *inStock
	filters.Search = validators.SanitizeString(r.URL.Query().Get("search"), 100)

	if raw := strings.TrimSpace(r.URL.Query().Get("sortBy")); raw != "" {
		field, err := enums.ParseProductSortField(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Validation failed").
				WithDetails([]validators.FieldError{{Field: "sortBy", Message: "must be one of: name, price, rating, createdAt"}})
		}
		filters.SortBy = field
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("sortOrder")); raw != "" {
		order, err := enums.ParseSortOrder(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Validation failed").
				WithDetails([]validators.FieldError{{Field: "sortOrder", Message: "must be one of: asc, desc"}})
		}
		filters.SortOrder = order
	}
	return input, nil
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		id, ok := pathUUID(w, r, logg, "id")
		if !ok {
			return
		}
		detail, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product retrieved successfully", detail)
	}
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		var body product.CreateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateProduct(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Product created successfully", created)
	}
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		id, ok := pathUUID(w, r, logg, "id")
		if !ok {
			return
		}
		var body product.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateProduct(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product updated successfully", updated)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		id, ok := pathUUID(w, r, logg, "id")
		if !ok {
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product deleted successfully", nil)
	}
}

func ProductUpdateStock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		id, ok := pathUUID(w, r, logg, "id")
		if !ok {
			return
		}
		var body product.UpdateStockInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.UpdateStock(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Stock updated successfully", updated)
	}
}

func ProductsFeatured(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Featured products retrieved successfully", rows)
	}
}

func ProductsRelated(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		id, ok := pathUUID(w, r, logg, "id")
		if !ok {
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Related(r.Context(), id, categoryID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Related products retrieved successfully", rows)
	}
}

func ProductsSearch(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Search(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), 100), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Search results retrieved successfully", rows)
	}
}
