package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/camadvisory/forecast-impact-service/internal/models"
	"github.com/camadvisory/forecast-impact-service/internal/observability"
)

// PostgresStore reads operational records from PostgreSQL. The connection
// pool is safe for concurrent use across requests.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and verifies a connection pool for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Ping reports whether the store is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const shipmentColumns = `id, shpmt_num, bkg_num, dest_country_cd, dest_cust_loc_cd, act_dlvy_dt, cust_acct_cd, cust_nm, notify_1_nm, notify_2_nm`

// FindByDestination returns shipments whose destination country code OR
// destination customer-location code is in areaCodes and whose actual
// delivery date falls within the window, inclusive on both ends. Order is
// store-defined; duplicates are not collapsed beyond row identity.
func (s *PostgresStore) FindByDestination(ctx context.Context, areaCodes []string, window models.DateInterval) ([]models.Shipment, error) {
	if len(areaCodes) == 0 {
		return nil, nil
	}

	query := `
        SELECT ` + shipmentColumns + `
        FROM shipments
        WHERE (dest_country_cd = ANY($1) OR dest_cust_loc_cd = ANY($1))
          AND act_dlvy_dt BETWEEN $2 AND $3`

	return s.queryShipments(ctx, query, pq.Array(areaCodes), window.Start.Time, window.End.Time)
}

// FindByShipmentNums returns shipments matching the given business shipment
// numbers. This is the aggregator's re-fetch key, distinct from the booking
// join key.
func (s *PostgresStore) FindByShipmentNums(ctx context.Context, shipmentNums []string) ([]models.Shipment, error) {
	if len(shipmentNums) == 0 {
		return nil, nil
	}

	query := `
        SELECT ` + shipmentColumns + `
        FROM shipments
        WHERE shpmt_num = ANY($1)`

	return s.queryShipments(ctx, query, pq.Array(shipmentNums))
}

func (s *PostgresStore) queryShipments(ctx context.Context, query string, args ...interface{}) ([]models.Shipment, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		observability.StoreQueriesTotal.WithLabelValues("shipment", "error").Inc()
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []models.Shipment
	for rows.Next() {
		var (
			id                                 int64
			deliveryDate                       time.Time
			custAcctCode                       sql.NullString
			custName, notify1, notify2         sql.NullString
			shpmtNum, bkgNum, countryCd, locCd sql.NullString
		)
		if err := rows.Scan(&id, &shpmtNum, &bkgNum, &countryCd, &locCd, &deliveryDate, &custAcctCode, &custName, &notify1, &notify2); err != nil {
			observability.StoreQueriesTotal.WithLabelValues("shipment", "error").Inc()
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		if !custAcctCode.Valid || custAcctCode.String == "" {
			observability.StoreQueriesTotal.WithLabelValues("shipment", "error").Inc()
			return nil, fmt.Errorf("%w: shipment %d has no CUST_ACCT_CD", ErrMissingRequiredField, id)
		}

		shipments = append(shipments, models.Shipment{
			ID:                 strconv.FormatInt(id, 10),
			ShipmentNum:        shpmtNum.String,
			BookingNum:         bkgNum.String,
			DestCountryCode:    countryCd.String,
			DestCustLocCode:    locCd.String,
			ActualDeliveryDate: models.NewDate(deliveryDate.Year(), deliveryDate.Month(), deliveryDate.Day()),
			CustAccountCode:    custAcctCode.String,
			CustomerName:       custName.String,
			Notify1Name:        notify1.String,
			Notify2Name:        notify2.String,
		})
	}
	if err := rows.Err(); err != nil {
		observability.StoreQueriesTotal.WithLabelValues("shipment", "error").Inc()
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}

	observability.StoreQueriesTotal.WithLabelValues("shipment", "success").Inc()
	observability.StoreQueryDuration.WithLabelValues("shipment").Observe(time.Since(start).Seconds())
	return shipments, nil
}

// FindByBookingNums returns bookings matching the given booking numbers.
func (s *PostgresStore) FindByBookingNums(ctx context.Context, bookingNums []string) ([]models.Booking, error) {
	if len(bookingNums) == 0 {
		return nil, nil
	}

	start := time.Now()
	query := `
        SELECT bkg_num, acct_nm, shipper_nm, trading_partner_nm, po_num
        FROM bookings
        WHERE bkg_num = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(bookingNums))
	if err != nil {
		observability.StoreQueriesTotal.WithLabelValues("booking", "error").Inc()
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var acctName, shipperName, partnerName, poNum sql.NullString
		if err := rows.Scan(&b.BookingNum, &acctName, &shipperName, &partnerName, &poNum); err != nil {
			observability.StoreQueriesTotal.WithLabelValues("booking", "error").Inc()
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.AccountName = acctName.String
		b.ShipperName = shipperName.String
		b.TradingPartnerName = partnerName.String
		b.PONum = poNum.String
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		observability.StoreQueriesTotal.WithLabelValues("booking", "error").Inc()
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	observability.StoreQueriesTotal.WithLabelValues("booking", "success").Inc()
	observability.StoreQueryDuration.WithLabelValues("booking").Observe(time.Since(start).Seconds())
	return bookings, nil
}

// FindByPONums returns purchase orders matching the given PO numbers.
func (s *PostgresStore) FindByPONums(ctx context.Context, poNums []int) ([]models.PurchaseOrder, error) {
	if len(poNums) == 0 {
		return nil, nil
	}

	nums := make([]int64, len(poNums))
	for i, n := range poNums {
		nums[i] = int64(n)
	}

	start := time.Now()
	query := `
        SELECT po_num, dest_cust_city_nm, dest_cust_country_nm
        FROM purchase_orders
        WHERE po_num = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(nums))
	if err != nil {
		observability.StoreQueriesTotal.WithLabelValues("purchase_order", "error").Inc()
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []models.PurchaseOrder
	for rows.Next() {
		var po models.PurchaseOrder
		var city, country sql.NullString
		if err := rows.Scan(&po.PONum, &city, &country); err != nil {
			observability.StoreQueriesTotal.WithLabelValues("purchase_order", "error").Inc()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		po.DestCustCityName = city.String
		po.DestCustCountryName = country.String
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		observability.StoreQueriesTotal.WithLabelValues("purchase_order", "error").Inc()
		return nil, fmt.Errorf("iterate purchase orders: %w", err)
	}

	observability.StoreQueriesTotal.WithLabelValues("purchase_order", "success").Inc()
	observability.StoreQueryDuration.WithLabelValues("purchase_order").Observe(time.Since(start).Seconds())
	return orders, nil
}
