// Package store provides read access to the operational record stores the
// impact pipeline joins against. The core never writes shipment, booking,
// or purchase-order records; it only filters them.
package store

import (
	"context"
	"errors"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

// ErrMissingRequiredField is returned when a record decoded at the store
// boundary lacks a field the aggregation stage cannot proceed without
// (e.g. a shipment with no CUST_ACCT_CD). Failing here keeps a generic
// key-error from surfacing deep in the join logic.
var ErrMissingRequiredField = errors.New("missing required field")

// ShipmentStore filters shipment records. FindByDestination matches on
// destination country code OR destination customer-location code plus
// delivery-date containment; FindByShipmentNums matches the business
// shipment number the aggregator re-fetches by.
type ShipmentStore interface {
	FindByDestination(ctx context.Context, areaCodes []string, window models.DateInterval) ([]models.Shipment, error)
	FindByShipmentNums(ctx context.Context, shipmentNums []string) ([]models.Shipment, error)
}

// BookingStore filters booking records by booking number.
type BookingStore interface {
	FindByBookingNums(ctx context.Context, bookingNums []string) ([]models.Booking, error)
}

// PurchaseOrderStore filters purchase-order records by PO number.
type PurchaseOrderStore interface {
	FindByPONums(ctx context.Context, poNums []int) ([]models.PurchaseOrder, error)
}

// Store is the combined operational store handle. Created at process start,
// shared across requests, closed at shutdown.
type Store interface {
	ShipmentStore
	BookingStore
	PurchaseOrderStore

	Ping(ctx context.Context) error
	Close() error
}
