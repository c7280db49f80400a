package store

import (
	"context"
	"testing"
	"time"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

func seedStore() *MemoryStore {
	s := NewMemoryStore()
	s.AddShipment(models.Shipment{
		ID:                 "1",
		ShipmentNum:        "SHP-100",
		BookingNum:         "BKG-100",
		DestCountryCode:    "CA",
		DestCustLocCode:    "YVR",
		ActualDeliveryDate: models.NewDate(2025, time.May, 5),
		CustAccountCode:    "ACCT-1",
		CustomerName:       "Northern Logistics",
	})
	s.AddShipment(models.Shipment{
		ID:                 "2",
		ShipmentNum:        "SHP-200",
		BookingNum:         "BKG-200",
		DestCountryCode:    "US",
		DestCustLocCode:    "LAX",
		ActualDeliveryDate: models.NewDate(2025, time.May, 2),
		CustAccountCode:    "ACCT-2",
		CustomerName:       "Pacific Freight",
	})
	s.AddBooking(models.Booking{BookingNum: "BKG-100", AccountName: "Northern", PONum: "7001"})
	s.AddPurchaseOrder(models.PurchaseOrder{PONum: 7001, DestCustCityName: "Vancouver", DestCustCountryName: "Canada"})
	return s
}

func window(t *testing.T, start, end string) models.DateInterval {
	t.Helper()
	s, err := models.ParseDate(start)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", start, err)
	}
	e, err := models.ParseDate(end)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", end, err)
	}
	return models.DateInterval{Start: s, End: e}
}

func TestFindByDestination_CountryMatch(t *testing.T) {
	s := seedStore()
	got, err := s.FindByDestination(context.Background(), []string{"CA"}, window(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindByDestination() error = %v", err)
	}
	if len(got) != 1 || got[0].ShipmentNum != "SHP-100" {
		t.Fatalf("FindByDestination() = %v, want SHP-100 only", got)
	}
}

func TestFindByDestination_LocationCodeMatch(t *testing.T) {
	s := seedStore()
	got, err := s.FindByDestination(context.Background(), []string{"LAX"}, window(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindByDestination() error = %v", err)
	}
	if len(got) != 1 || got[0].ShipmentNum != "SHP-200" {
		t.Fatalf("FindByDestination() = %v, want SHP-200 only", got)
	}
}

func TestFindByDestination_DateBoundsInclusive(t *testing.T) {
	s := seedStore()
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"delivery on start bound", "05/05/2025", "05/10/2025", 1},
		{"delivery on end bound", "05/01/2025", "05/05/2025", 1},
		{"delivery outside window", "05/06/2025", "05/10/2025", 0},
		{"single-day window on delivery", "05/05/2025", "05/05/2025", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.FindByDestination(context.Background(), []string{"CA"}, window(t, tc.start, tc.end))
			if err != nil {
				t.Fatalf("FindByDestination() error = %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("matches = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestFindByDestination_NoAreaCodes(t *testing.T) {
	s := seedStore()
	got, err := s.FindByDestination(context.Background(), nil, window(t, "05/01/2025", "05/10/2025"))
	if err != nil {
		t.Fatalf("FindByDestination() error = %v", err)
	}
	if got != nil {
		t.Fatalf("FindByDestination() = %v, want nil", got)
	}
}

func TestFindByDestination_CancelledContext(t *testing.T) {
	s := seedStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindByDestination(ctx, []string{"CA"}, window(t, "05/01/2025", "05/10/2025")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFindByShipmentNums(t *testing.T) {
	s := seedStore()
	got, err := s.FindByShipmentNums(context.Background(), []string{"SHP-100", "SHP-404"})
	if err != nil {
		t.Fatalf("FindByShipmentNums() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("FindByShipmentNums() = %v, want shipment 1 only", got)
	}
}

func TestFindByBookingNums(t *testing.T) {
	s := seedStore()
	got, err := s.FindByBookingNums(context.Background(), []string{"BKG-100", "BKG-999"})
	if err != nil {
		t.Fatalf("FindByBookingNums() error = %v", err)
	}
	if len(got) != 1 || got[0].PONum != "7001" {
		t.Fatalf("FindByBookingNums() = %v, want BKG-100 only", got)
	}
}

func TestFindByPONums(t *testing.T) {
	s := seedStore()
	got, err := s.FindByPONums(context.Background(), []int{7001, 9999})
	if err != nil {
		t.Fatalf("FindByPONums() error = %v", err)
	}
	if len(got) != 1 || got[0].DestCustCityName != "Vancouver" {
		t.Fatalf("FindByPONums() = %v, want PO 7001 only", got)
	}
}

func TestMemoryStore_PingAndClose(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
