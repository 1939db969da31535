package catalog_test

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/platform/database"
)

func TestPostgresSource_NilPool(t *testing.T) {
	src := catalog.NewPostgresSource(nil)
	ctx := context.Background()

	if err := src.EnsureSchema(ctx); err == nil {
		t.Error("EnsureSchema() should fail with nil pool")
	}
	if _, err := src.Load(ctx); err == nil {
		t.Error("Load() should fail with nil pool")
	}
	if err := src.Seed(ctx, testCatalog(t)); err == nil {
		t.Error("Seed() should fail with nil pool")
	}
}

func TestPostgresSource_SeedAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("moyenne"),
		postgres.WithUsername("moyenne"),
		postgres.WithPassword("moyenne"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}
	db, err := database.New(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	src := catalog.NewPostgresSource(db.Pool)
	if err := src.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	want, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if err := src.Seed(ctx, want); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	got, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Fingerprint() != want.Fingerprint() {
		t.Error("catalog loaded from postgres differs from the seeded one")
	}

	// Seeding twice replaces rather than duplicates.
	if err := src.Seed(ctx, want); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	again, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if again.Len() != want.Len() {
		t.Errorf("Len() = %d, want %d", again.Len(), want.Len())
	}
}
