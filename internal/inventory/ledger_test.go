package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Listing{}); err != nil {
		t.Fatalf("migrate listings: %v", err)
	}
	return db
}

func seedListing(t *testing.T, db *gorm.DB, qty int, active bool) models.Listing {
	t.Helper()
	listing := models.Listing{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Title:    "Brake pads",
		Price:    decimal.RequireFromString("249.99"),
		Quantity: qty,
		IsActive: active,
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing
}

func TestReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 5, true)

	var reservations []Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		reservations, terr = Reserve(ctx, tx, []Request{{ListingID: listing.ID, Qty: 3}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if len(reservations) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(reservations))
	}
	if reservations[0].SellerID != listing.SellerID {
		t.Fatalf("snapshot seller mismatch")
	}
	if !reservations[0].UnitPrice.Equal(listing.Price) {
		t.Fatalf("snapshot price mismatch: %s", reservations[0].UnitPrice)
	}

	var stored models.Listing
	if err := db.First(&stored, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if stored.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", stored.Quantity)
	}
}

func TestReserve_InsufficientStockRollsBackEarlierItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	first := seedListing(t, db, 5, true)
	second := seedListing(t, db, 1, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []Request{
			{ListingID: first.ID, Qty: 2},
			{ListingID: second.ID, Qty: 3},
		})
		return terr
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stored models.Listing
	if err := db.First(&stored, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if stored.Quantity != 5 {
		t.Fatalf("expected rollback to restore quantity 5, got %d", stored.Quantity)
	}
}

func TestReserve_Failures(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	inactive := seedListing(t, db, 5, false)

	// The seed must persist as inactive; a column default must never
	// overwrite an explicit false.
	var stored models.Listing
	if err := db.First(&stored, "id = ?", inactive.ID).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("expected seeded listing to persist inactive")
	}

	_, err := Reserve(ctx, db, []Request{{ListingID: uuid.New(), Qty: 1}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = Reserve(ctx, db, []Request{{ListingID: inactive.ID, Qty: 1}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeListingInactive) {
		t.Fatalf("expected listing inactive, got %v", err)
	}

	_, err = Reserve(ctx, db, []Request{{ListingID: inactive.ID, Qty: 0}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserve_LastUnitOnlyOnceWinner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 1, true)

	reserve := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, terr := Reserve(ctx, tx, []Request{{ListingID: listing.ID, Qty: 1}})
			return terr
		})
	}

	if err := reserve(); err != nil {
		t.Fatalf("first reserve should win: %v", err)
	}
	if err := reserve(); !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("second reserve should fail with insufficient stock, got %v", err)
	}

	var stored models.Listing
	if err := db.First(&stored, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if stored.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", stored.Quantity)
	}
}

func TestRelease(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 2, true)

	if err := Release(ctx, db, listing.ID, 3); err != nil {
		t.Fatalf("release: %v", err)
	}

	var stored models.Listing
	if err := db.First(&stored, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if stored.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", stored.Quantity)
	}

	if err := Release(ctx, db, uuid.New(), 1); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := Release(ctx, db, listing.ID, 0); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
