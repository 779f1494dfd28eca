package migrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/dbtest"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestMigrationsCoverEveryTable(t *testing.T) {
	content := readMigrations(t)
	for _, table := range []string{
		"users", "refresh_tokens", "categories", "products", "carts",
		"cart_items", "orders", "order_items", "reviews", "outbox_events",
	} {
		if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestMigrationsCarryUniquenessConstraints(t *testing.T) {
	content := readMigrations(t)
	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_id ON carts (user_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items (cart_id, product_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_product_user ON reviews (product_id, user_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku ON products (sku)",
		"CHECK (stock >= 0)",
		"CHECK (rating BETWEEN 1 AND 5)",
	} {
		if !strings.Contains(content, stmt) {
			t.Fatalf("expected migrations to contain %q", stmt)
		}
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func TestValidateDirRequiresDownSection(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_init.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected missing down section to fail validation")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Product Weight!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_product_weight.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationStaysAfterNewestVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	existing := filepath.Join(dir, "20260301090500_create_outbox_events.sql")
	if err := os.WriteFile(existing, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := createSQLMigration(dir, "add product weight", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260301090501_add_product_weight.sql" {
		t.Fatalf("expected version after newest migration, got %s", filepath.Base(path))
	}
	if _, err := createSQLMigration(dir, "Add Product-Weight", now); err == nil {
		t.Fatal("expected duplicate migration name to be rejected")
	}
}

func TestCreateSQLMigrationScaffoldsTables(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "create wishlists")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS wishlists (", "DROP TABLE IF EXISTS wishlists;"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in scaffold:\n%s", want, data)
		}
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("scaffold should validate: %v", err)
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"bad-name.sql":                       "-- +goose Up\n-- +goose Down\n",
		"20260101000000_seed_categories.sql": "-- +goose Down\n-- +goose Up\n",
		"20260101000001_seed_products.sql":   "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		"20260101000002_seed_products.sql":   "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"invalid migration filename", "down section before the up section", "StatementBegin", "duplicate migration name"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestResolveTargetVersion(t *testing.T) {
	got, err := resolveTargetVersion("migrations", "20260301090300")
	if err != nil || got != 20260301090300 {
		t.Fatalf("expected orders migration version, got %d %v", got, err)
	}
	if got, err := resolveTargetVersion("migrations", "0"); err != nil || got != 0 {
		t.Fatalf("expected reset to 0, got %d %v", got, err)
	}
	for _, raw := range []string{"", "latest", "-1", "20260301090301"} {
		if _, err := resolveTargetVersion("migrations", raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestRunRejectsUnsupportedCommand(t *testing.T) {
	_, conn := dbtest.OpenClient(t)
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	if err := Run(context.Background(), sqlDB, "migrations", "reset"); err == nil {
		t.Fatal("expected reset to be rejected")
	}
	if err := Run(context.Background(), nil, "migrations", "up"); err == nil {
		t.Fatal("expected nil db to be rejected")
	}
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})

	if err := MaybeRunDev(context.Background(), cfg, logg, client); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if !conn.Migrator().HasTable("outbox_events") {
		t.Fatal("expected outbox_events table")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	if err := MaybeRunDev(context.Background(), cfg, nil, nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func readMigrations(t *testing.T) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no migrations found")
	}
	var b strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			t.Fatalf("read %s: %v", m, err)
		}
		b.Write(data)
	}
	return b.String()
}
