//go:build integration
// +build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

// Requires a reachable PostgreSQL with the shipments/bookings/purchase_orders
// schema loaded. Run with:
//
//	STORE_DSN=postgres://... go test -tags=integration ./internal/store/
func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("STORE_DSN")
	if dsn == "" {
		t.Skip("STORE_DSN not set, skipping integration test")
	}
	s, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIntegration_Ping(t *testing.T) {
	s := newIntegrationStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestIntegration_FindByDestination(t *testing.T) {
	s := newIntegrationStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	window := models.DateInterval{
		Start: models.NewDate(2000, time.January, 1),
		End:   models.NewDate(2100, time.January, 1),
	}
	if _, err := s.FindByDestination(ctx, []string{"CA"}, window); err != nil {
		t.Fatalf("FindByDestination() error = %v", err)
	}
}

func TestIntegration_EmptyInputsShortCircuit(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	if got, err := s.FindByShipmentNums(ctx, nil); err != nil || got != nil {
		t.Errorf("FindByShipmentNums(nil) = %v, %v; want nil, nil", got, err)
	}
	if got, err := s.FindByBookingNums(ctx, nil); err != nil || got != nil {
		t.Errorf("FindByBookingNums(nil) = %v, %v; want nil, nil", got, err)
	}
	if got, err := s.FindByPONums(ctx, nil); err != nil || got != nil {
		t.Errorf("FindByPONums(nil) = %v, %v; want nil, nil", got, err)
	}
}
