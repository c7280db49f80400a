// Package impact walks a forecast's affected-region/date-window criteria
// through the shipment -> booking -> purchase-order chain to determine which
// logistics entities and customer contacts a forecast event touches.
package impact

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/camadvisory/forecast-impact-service/internal/models"
	"github.com/camadvisory/forecast-impact-service/internal/observability"
	"github.com/camadvisory/forecast-impact-service/internal/store"
	"github.com/camadvisory/forecast-impact-service/internal/validation"
)

// Resolver runs the relational joins against the operational stores. Each
// store query is bounded by queryTimeout; the stores guarantee no bound of
// their own.
type Resolver struct {
	store        store.Store
	queryTimeout time.Duration
}

// NewResolver creates a Resolver over the given store handle.
func NewResolver(st store.Store, queryTimeout time.Duration) *Resolver {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &Resolver{store: st, queryTimeout: queryTimeout}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// FindShipments returns shipments whose destination country or customer-
// location code is in areaCodes and whose delivery date falls within the
// window, inclusive. Area codes are normalized first; garbled entries from
// the extraction step are dropped. Empty areaCodes means "no impact":
// the result is empty and the caller decides how to report it.
func (r *Resolver) FindShipments(ctx context.Context, areaCodes []string, window models.DateInterval) ([]models.Shipment, error) {
	areaCodes = validation.NormalizeAreas(areaCodes)
	if len(areaCodes) == 0 {
		return nil, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	shipments, err := r.store.FindByDestination(queryCtx, areaCodes, window)
	if err != nil {
		return nil, fmt.Errorf("find shipments: %w", err)
	}
	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("impacted shipments resolved",
			zap.Strings("area_codes", areaCodes),
			zap.String("window_start", window.Start.String()),
			zap.String("window_end", window.End.String()),
			zap.Int("matches", len(shipments)))
	}
	return shipments, nil
}

// FindBookings returns bookings referenced by the given shipments. Booking
// numbers are collected as-is (duplicates allowed); shipments without a
// booking number contribute nothing to the lookup. Empty input yields an
// empty result, not an error.
func (r *Resolver) FindBookings(ctx context.Context, shipments []models.Shipment) ([]models.Booking, error) {
	var bookingNums []string
	for _, shipment := range shipments {
		if shipment.BookingNum != "" {
			bookingNums = append(bookingNums, shipment.BookingNum)
		}
	}
	if len(bookingNums) == 0 {
		return nil, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	bookings, err := r.store.FindByBookingNums(queryCtx, bookingNums)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("impacted bookings resolved",
			zap.Int("booking_nums", len(bookingNums)),
			zap.Int("matches", len(bookings)))
	}
	return bookings, nil
}

// AggregateContacts builds one ContactInfo per input shipment by resolving
// the shipment -> booking -> purchase-order chain in bulk. Shipments are
// re-fetched by business shipment number — a distinct key from the booking
// join — mirroring the upstream record layout; booking matching then runs
// against the original input list's booking numbers. A broken chain link
// leaves the dependent fields as empty strings; only a shipment missing its
// required account code fails the whole request.
func (r *Resolver) AggregateContacts(ctx context.Context, shipments []models.Shipment) ([]models.ContactInfo, error) {
	if len(shipments) == 0 {
		return nil, nil
	}

	var shipmentNums []string
	for _, shipment := range shipments {
		if shipment.ShipmentNum != "" {
			shipmentNums = append(shipmentNums, shipment.ShipmentNum)
		}
	}

	fetched, err := r.findShipmentsByNum(ctx, shipmentNums)
	if err != nil {
		return nil, fmt.Errorf("refetch shipments: %w", err)
	}

	var bookingNums []string
	for _, shipment := range fetched {
		if shipment.BookingNum != "" {
			bookingNums = append(bookingNums, shipment.BookingNum)
		}
	}
	bookings, err := r.findBookingsByNum(ctx, bookingNums)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}

	bookingByNum := make(map[string]models.Booking, len(bookings))
	var poNums []int
	for _, booking := range bookings {
		if _, seen := bookingByNum[booking.BookingNum]; seen {
			continue // first match wins
		}
		bookingByNum[booking.BookingNum] = booking
		if n, ok := poNumFromBooking(booking); ok {
			poNums = append(poNums, n)
		}
	}

	orders, err := r.findPurchaseOrders(ctx, poNums)
	if err != nil {
		return nil, fmt.Errorf("fetch purchase orders: %w", err)
	}
	orderByNum := make(map[int]models.PurchaseOrder, len(orders))
	for _, po := range orders {
		if _, seen := orderByNum[po.PONum]; !seen {
			orderByNum[po.PONum] = po
		}
	}

	contacts := make([]models.ContactInfo, 0, len(shipments))
	for _, shipment := range shipments {
		if shipment.CustAccountCode == "" {
			return nil, fmt.Errorf("%w: shipment %s has no CUST_ACCT_CD", store.ErrMissingRequiredField, shipment.ID)
		}

		contact := models.ContactInfo{
			AccountCode:  shipment.CustAccountCode,
			CustomerName: shipment.CustomerName,
			Country:      shipment.DestCountryCode,
			Notify1Name:  shipment.Notify1Name,
			Notify2Name:  shipment.Notify2Name,
		}

		depth := "shipment_only"
		if booking, ok := bookingByNum[shipment.BookingNum]; ok && shipment.BookingNum != "" {
			contact.AccountName = booking.AccountName
			contact.ShipperName = booking.ShipperName
			contact.TradingPartnerName = booking.TradingPartnerName
			depth = "booking_only"

			if n, numOK := poNumFromBooking(booking); numOK {
				if po, poOK := orderByNum[n]; poOK {
					contact.City = po.DestCustCityName
					contact.DestinationCountry = po.DestCustCountryName
					contact.Address = formatAddress(po.DestCustCityName, po.DestCustCountryName)
					depth = "full_chain"
				}
			}
		}
		observability.ContactChainOutcomesTotal.WithLabelValues(depth).Inc()
		contacts = append(contacts, contact)
	}

	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("contacts aggregated",
			zap.Int("shipments", len(shipments)),
			zap.Int("bookings", len(bookings)),
			zap.Int("purchase_orders", len(orders)))
	}
	return contacts, nil
}

func (r *Resolver) findShipmentsByNum(ctx context.Context, shipmentNums []string) ([]models.Shipment, error) {
	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	return r.store.FindByShipmentNums(queryCtx, shipmentNums)
}

func (r *Resolver) findBookingsByNum(ctx context.Context, bookingNums []string) ([]models.Booking, error) {
	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	return r.store.FindByBookingNums(queryCtx, bookingNums)
}

func (r *Resolver) findPurchaseOrders(ctx context.Context, poNums []int) ([]models.PurchaseOrder, error) {
	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()
	return r.store.FindByPONums(queryCtx, poNums)
}

// poNumFromBooking coerces the text PO_NUM to an integer PO key.
// Bookings with an empty or non-numeric PO number simply never resolve a
// purchase order.
func poNumFromBooking(booking models.Booking) (int, bool) {
	s := strings.TrimSpace(booking.PONum)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// formatAddress renders "city, country", dropping the leading separator
// when the city is empty.
func formatAddress(city, country string) string {
	return strings.TrimPrefix(city+", "+country, ", ")
}
