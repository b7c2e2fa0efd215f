package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
)

// Request asks for qty units of a listing to be taken off the shelf.
type Request struct {
	ListingID uuid.UUID
	Qty       int
}

// Reservation is the committed result of a successful reserve, carrying the
// listing snapshot captured at reservation time.
type Reservation struct {
	ListingID uuid.UUID
	SellerID  uuid.UUID
	Title     string
	UnitPrice decimal.Decimal
	Qty       int
}

// Reserve atomically decrements available quantity for every request inside
// the caller's transaction. The check and decrement run as a single
// conditional UPDATE per listing so concurrent reservations against the same
// row cannot oversell. The first failing request aborts the whole call; the
// caller's transaction rollback undoes any earlier decrements.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) ([]Reservation, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation request is required")
	}

	reservations := make([]Reservation, 0, len(requests))
	for _, req := range requests {
		if req.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be at least 1").
				WithDetails(map[string]any{"listing_id": req.ListingID})
		}

		res := tx.WithContext(ctx).
			Model(&models.Listing{}).
			Where("id = ? AND is_active = ? AND quantity >= ?", req.ListingID, true, req.Qty).
			Update("quantity", gorm.Expr("quantity - ?", req.Qty))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserving inventory")
		}
		if res.RowsAffected == 0 {
			return nil, classifyFailure(ctx, tx, req)
		}

		var listing models.Listing
		if err := tx.WithContext(ctx).First(&listing, "id = ?", req.ListingID).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reserved listing")
		}
		reservations = append(reservations, Reservation{
			ListingID: listing.ID,
			SellerID:  listing.SellerID,
			Title:     listing.Title,
			UnitPrice: listing.Price,
			Qty:       req.Qty,
		})
	}
	return reservations, nil
}

// Release returns qty units of a listing to the shelf. Callers must release
// exactly once per reserved item; the ledger does not deduplicate.
func Release(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be at least 1").
			WithDetails(map[string]any{"listing_id": listingID})
	}

	res := tx.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "releasing inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("listing %s not found", listingID))
	}
	return nil
}

func classifyFailure(ctx context.Context, tx *gorm.DB, req Request) error {
	var listing models.Listing
	err := tx.WithContext(ctx).First(&listing, "id = ?", req.ListingID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("listing %s not found", req.ListingID))
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inspecting listing after failed reserve")
	case !listing.IsActive:
		return pkgerrors.New(pkgerrors.CodeListingInactive, fmt.Sprintf("listing %s is no longer for sale", req.ListingID))
	default:
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("listing %s has %d units, %d requested", req.ListingID, listing.Quantity, req.Qty)).
			WithDetails(map[string]any{
				"listing_id": req.ListingID,
				"available":  listing.Quantity,
				"requested":  req.Qty,
			})
	}
}
