package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range OrderStatusValues() {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
		if !status.IsValid() {
			t.Fatalf("expected %q to be valid", raw)
		}
	}
	if _, err := ParseOrderStatus("pending"); err == nil {
		t.Fatal("order status parsing must be case sensitive")
	}
	if len(OrderStatusValues()) != 7 {
		t.Fatalf("expected 7 statuses, got %d", len(OrderStatusValues()))
	}
}

func TestParseUserRole(t *testing.T) {
	if role, err := ParseUserRole("ADMIN"); err != nil || role != UserRoleAdmin {
		t.Fatalf("unexpected parse result %q %v", role, err)
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestProductSortFieldColumn(t *testing.T) {
	cases := map[ProductSortField]string{
		ProductSortName:      "name",
		ProductSortPrice:     "price",
		ProductSortRating:    "rating",
		ProductSortCreatedAt: "created_at",
		"bogus":              "created_at",
	}
	for field, want := range cases {
		if got := field.Column(); got != want {
			t.Fatalf("field %q expected column %q got %q", field, want, got)
		}
	}
	if _, err := ParseProductSortField("stock"); err == nil {
		t.Fatal("stock is not a sortable field")
	}
	if _, err := ParseSortOrder("sideways"); err == nil {
		t.Fatal("expected invalid sort order to fail")
	}
}

func TestParseStockOperation(t *testing.T) {
	if op, err := ParseStockOperation("subtract"); err != nil || op != StockOperationSubtract {
		t.Fatalf("unexpected parse result %q %v", op, err)
	}
	if _, err := ParseStockOperation("set"); err == nil {
		t.Fatal("expected set to be rejected")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventOrderCreated.IsValid() || !AggregateReview.IsValid() {
		t.Fatal("expected known outbox enums to be valid")
	}
	if _, err := ParseOutboxEventType("license_expired"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
}
