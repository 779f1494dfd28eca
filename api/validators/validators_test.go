package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
)

type shipping struct {
	Name  string `json:"name" validate:"required,min=2"`
	Phone string `json:"phone" validate:"required,min=10"`
}

type sampleInput struct {
	Price        decimal.Decimal  `json:"price" validate:"gt=0"`
	Discount     *decimal.Decimal `json:"discount,omitempty" validate:"omitempty,gt=0"`
	Status       string           `json:"status" validate:"omitempty,oneof=add subtract"`
	ShippingInfo shipping         `json:"shippingInfo" validate:"required"`
}

func decode(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest sampleInput
	return DecodeJSONBody(req, &dest)
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().([]FieldError)
	require.True(t, ok)
	out := map[string]string{}
	for _, d := range details {
		out[d.Field] = d.Message
	}
	return out
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	err := decode(t, `{"price":"12.50","discount":1,"status":"add","shippingInfo":{"name":"Asha","phone":"9876543210"}}`)
	require.NoError(t, err)
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	err := decode(t, `{"price":0,"discount":-1,"status":"set","shippingInfo":{"name":"A","phone":"123"}}`)
	details := detailsOf(t, err)
	require.Equal(t, "must be greater than 0", details["price"])
	require.Contains(t, details, "discount")
	require.Equal(t, "must be one of: add, subtract", details["status"])
	require.Equal(t, "must be at least 2 characters", details["shippingInfo.name"])
	require.Equal(t, "must be at least 10 characters", details["shippingInfo.phone"])
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	details := detailsOf(t, decode(t, `{"price":1,"bogus":true}`))
	require.Contains(t, details, "body")

	err := decode(t, ``)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	oversized := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(oversized))

	var dest sampleInput
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeBadRequest, typed.Code())
	require.Equal(t, "Request body too large", typed.Message())
	require.True(t, IsBodyTooLarge(err))
}

func TestParsePagination(t *testing.T) {
	params, err := ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=3&limit=25", nil))
	require.NoError(t, err)
	require.Equal(t, 3, params.Page)
	require.Equal(t, 25, params.Limit)

	params, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, 1, params.Page)
	require.Equal(t, 10, params.Limit)

	for _, q := range []string{"?page=0", "?limit=101", "?limit=abc"} {
		_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/"+q, nil))
		require.Error(t, err, q)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?minPrice=10.5&inStock=true&categoryId=nope", nil)

	price, err := ParseQueryDecimal(req, "minPrice")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("10.5")))

	missing, err := ParseQueryDecimal(req, "maxPrice")
	require.NoError(t, err)
	require.Nil(t, missing)

	inStock, err := ParseQueryBool(req, "inStock")
	require.NoError(t, err)
	require.True(t, *inStock)

	_, err = ParseQueryUUID(req, "categoryId")
	require.Error(t, err)

	_, err = ParseUUID("not-a-uuid", "id")
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "tomato", SanitizeString("  tomato  ", 0))
	require.Equal(t, "åäö", SanitizeString("åäöü", 3))
	require.Equal(t, "organic basmati rice", SanitizeString("organic\t\tbasmati\n rice", 0))
	require.Equal(t, "turmeric", SanitizeString("tur\x00mer\x07ic", 0))
	require.Equal(t, "red", SanitizeString("red chilli", 4))
}
