package infra

import (
	"context"
	"fmt"

	"ewarranty/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the PostgreSQL connection, migrates every table, applies
// the PostgreSQL-only patches and seeds the reference tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	if err := SeedReferenceData(context.Background(), db); err != nil {
		return nil, fmt.Errorf("seed reference data: %w", err)
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&model.MsiaState{},
		&model.CarPart{},
		&model.ProductBrand{},
		&model.ProductType{},
		&model.ProductSeries{},
		&model.ProductName{},
		&model.Product{},
		&model.Shop{},
		&model.User{},
		&model.ProductAllocation{},
		&model.Warranty{},
		&model.WarrantyPart{},
		&model.Claim{},
		&model.ClaimWarrantyPart{},
		&model.ScopeLock{},
	}
}

// Migrate creates or updates all tables. It is portable across the PostgreSQL
// and SQLite dialects so repository tests can use it directly.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// applySchemaPatches runs idempotent PostgreSQL DDL that AutoMigrate cannot
// express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one live row per car part in a warranty", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_warranty_parts_live_car_part
    ON warranty_parts (warranty_id, car_part_id)
    WHERE deleted_at IS NULL`},
		{"positive allocation quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_product_allocations_qty') THEN
    ALTER TABLE product_allocations
      ADD CONSTRAINT chk_product_allocations_qty CHECK (film_quantity > 0);
  END IF;
END $$`},
		{"approval status domain", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_warranties_approval_status') THEN
    ALTER TABLE warranties
      ADD CONSTRAINT chk_warranties_approval_status
      CHECK (approval_status IN ('PENDING', 'APPROVED', 'REJECTED'));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// SeedReferenceData inserts the Malaysian states and the standard car parts.
// Existing rows (matched by code) are left untouched.
func SeedReferenceData(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	states := append([]model.MsiaState(nil), model.ReferenceStates...)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&states).Error; err != nil {
		return fmt.Errorf("states: %w", err)
	}
	parts := append([]model.CarPart(nil), model.ReferenceCarParts...)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&parts).Error; err != nil {
		return fmt.Errorf("car parts: %w", err)
	}
	return nil
}
