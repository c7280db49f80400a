package impact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/camadvisory/forecast-impact-service/internal/models"
	"github.com/camadvisory/forecast-impact-service/internal/store"
)

func newFixture() (*Resolver, *store.MemoryStore) {
	ms := store.NewMemoryStore()
	return NewResolver(ms, time.Second), ms
}

func caShipment() models.Shipment {
	return models.Shipment{
		ID:                 "1",
		ShipmentNum:        "SHP-100",
		BookingNum:         "BKG-100",
		DestCountryCode:    "CA",
		DestCustLocCode:    "YVR",
		ActualDeliveryDate: models.NewDate(2025, time.May, 5),
		CustAccountCode:    "ACCT-1",
		CustomerName:       "Northern Logistics",
		Notify1Name:        "Ops Desk",
		Notify2Name:        "Night Desk",
	}
}

func mustWindow(t *testing.T, start, end string) models.DateInterval {
	t.Helper()
	s, err := models.ParseDate(start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := models.ParseDate(end)
	if err != nil {
		t.Fatal(err)
	}
	return models.DateInterval{Start: s, End: e}
}

func TestFindShipments_MatchInWindow(t *testing.T) {
	r, ms := newFixture()
	ms.AddShipment(caShipment())

	got, err := r.FindShipments(context.Background(), []string{"CA"}, mustWindow(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindShipments() error = %v", err)
	}
	if len(got) != 1 || got[0].ShipmentNum != "SHP-100" {
		t.Fatalf("FindShipments() = %v, want SHP-100", got)
	}
}

func TestFindShipments_OutsideWindow(t *testing.T) {
	r, ms := newFixture()
	ms.AddShipment(caShipment())

	got, err := r.FindShipments(context.Background(), []string{"CA"}, mustWindow(t, "05/06/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindShipments() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindShipments() = %v, want no matches", got)
	}
}

func TestFindShipments_EmptyAreas(t *testing.T) {
	r, ms := newFixture()
	ms.AddShipment(caShipment())

	got, err := r.FindShipments(context.Background(), nil, mustWindow(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindShipments() error = %v", err)
	}
	if got != nil {
		t.Fatalf("FindShipments() = %v, want nil", got)
	}
}

func TestFindShipments_NormalizesAreas(t *testing.T) {
	r, ms := newFixture()
	ms.AddShipment(caShipment())

	got, err := r.FindShipments(context.Background(), []string{" CA ", "US<script>"}, mustWindow(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindShipments() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindShipments() = %v, want trimmed CA to match", got)
	}
}

func TestFindBookings_CollectsBookingNums(t *testing.T) {
	r, ms := newFixture()
	ms.AddBooking(models.Booking{BookingNum: "BKG-100", AccountName: "Northern"})
	ms.AddBooking(models.Booking{BookingNum: "BKG-200", AccountName: "Pacific"})

	shipments := []models.Shipment{
		{ID: "1", BookingNum: "BKG-100"},
		{ID: "2", BookingNum: ""},
		{ID: "3", BookingNum: "BKG-200"},
	}
	got, err := r.FindBookings(context.Background(), shipments)
	if err != nil {
		t.Fatalf("FindBookings() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindBookings() = %v, want 2 bookings", got)
	}
}

func TestFindBookings_NoBookingNums(t *testing.T) {
	r, _ := newFixture()
	got, err := r.FindBookings(context.Background(), []models.Shipment{{ID: "1"}})
	if err != nil {
		t.Fatalf("FindBookings() error = %v", err)
	}
	if got != nil {
		t.Fatalf("FindBookings() = %v, want nil", got)
	}
}

func TestAggregateContacts_FullChain(t *testing.T) {
	r, ms := newFixture()
	shipment := caShipment()
	ms.AddShipment(shipment)
	ms.AddBooking(models.Booking{
		BookingNum:         "BKG-100",
		AccountName:        "Northern Account",
		ShipperName:        "Northern Shipper",
		TradingPartnerName: "Northern Partner",
		PONum:              "7001",
	})
	ms.AddPurchaseOrder(models.PurchaseOrder{
		PONum:               7001,
		DestCustCityName:    "Vancouver",
		DestCustCountryName: "Canada",
	})

	contacts, err := r.AggregateContacts(context.Background(), []models.Shipment{shipment})
	if err != nil {
		t.Fatalf("AggregateContacts() error = %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if c.AccountCode != "ACCT-1" || c.CustomerName != "Northern Logistics" || c.Country != "CA" {
		t.Errorf("shipment fields wrong: %+v", c)
	}
	if c.Notify1Name != "Ops Desk" || c.Notify2Name != "Night Desk" {
		t.Errorf("notify fields wrong: %+v", c)
	}
	if c.AccountName != "Northern Account" || c.ShipperName != "Northern Shipper" || c.TradingPartnerName != "Northern Partner" {
		t.Errorf("booking fields wrong: %+v", c)
	}
	if c.City != "Vancouver" || c.DestinationCountry != "Canada" || c.Address != "Vancouver, Canada" {
		t.Errorf("purchase-order fields wrong: %+v", c)
	}
}

func TestAggregateContacts_MissingBooking(t *testing.T) {
	r, ms := newFixture()
	shipment := caShipment()
	ms.AddShipment(shipment)

	contacts, err := r.AggregateContacts(context.Background(), []models.Shipment{shipment})
	if err != nil {
		t.Fatalf("AggregateContacts() error = %v", err)
	}
	c := contacts[0]
	if c.AccountCode != "ACCT-1" {
		t.Errorf("AccountCode = %q, want ACCT-1", c.AccountCode)
	}
	for name, got := range map[string]string{
		"AccountName":        c.AccountName,
		"ShipperName":        c.ShipperName,
		"TradingPartnerName": c.TradingPartnerName,
		"City":               c.City,
		"Address":            c.Address,
		"DestinationCountry": c.DestinationCountry,
	} {
		if got != "" {
			t.Errorf("%s = %q, want empty for unresolved chain", name, got)
		}
	}
}

func TestAggregateContacts_MissingPurchaseOrder(t *testing.T) {
	r, ms := newFixture()
	shipment := caShipment()
	ms.AddShipment(shipment)
	ms.AddBooking(models.Booking{BookingNum: "BKG-100", AccountName: "Northern Account", PONum: "7001"})

	contacts, err := r.AggregateContacts(context.Background(), []models.Shipment{shipment})
	if err != nil {
		t.Fatalf("AggregateContacts() error = %v", err)
	}
	c := contacts[0]
	if c.AccountName != "Northern Account" {
		t.Errorf("AccountName = %q, want booking field populated", c.AccountName)
	}
	if c.City != "" || c.Address != "" || c.DestinationCountry != "" {
		t.Errorf("purchase-order fields = %q/%q/%q, want empty", c.City, c.Address, c.DestinationCountry)
	}
}

func TestAggregateContacts_NonNumericPONum(t *testing.T) {
	r, ms := newFixture()
	shipment := caShipment()
	ms.AddShipment(shipment)
	ms.AddBooking(models.Booking{BookingNum: "BKG-100", AccountName: "Northern Account", PONum: "PO-ABC"})

	contacts, err := r.AggregateContacts(context.Background(), []models.Shipment{shipment})
	if err != nil {
		t.Fatalf("AggregateContacts() error = %v", err)
	}
	if c := contacts[0]; c.City != "" || c.DestinationCountry != "" {
		t.Errorf("purchase-order fields populated for non-numeric PO: %+v", c)
	}
}

func TestAggregateContacts_MissingAccountCode(t *testing.T) {
	r, ms := newFixture()
	shipment := caShipment()
	shipment.CustAccountCode = ""
	ms.AddShipment(shipment)

	_, err := r.AggregateContacts(context.Background(), []models.Shipment{shipment})
	if !errors.Is(err, store.ErrMissingRequiredField) {
		t.Fatalf("AggregateContacts() error = %v, want ErrMissingRequiredField", err)
	}
	if !strings.Contains(err.Error(), "CUST_ACCT_CD") {
		t.Errorf("error %q should name the missing column", err)
	}
}

func TestAggregateContacts_EmptyInput(t *testing.T) {
	r, _ := newFixture()
	contacts, err := r.AggregateContacts(context.Background(), nil)
	if err != nil {
		t.Fatalf("AggregateContacts() error = %v", err)
	}
	if contacts != nil {
		t.Fatalf("contacts = %v, want nil", contacts)
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		city, country, want string
	}{
		{"Vancouver", "Canada", "Vancouver, Canada"},
		{"", "Canada", "Canada"},
		{"Vancouver", "", "Vancouver, "},
		{"", "", ""},
	}
	for _, tc := range tests {
		if got := formatAddress(tc.city, tc.country); got != tc.want {
			t.Errorf("formatAddress(%q, %q) = %q, want %q", tc.city, tc.country, got, tc.want)
		}
	}
}
