package store

import (
	"context"
	"sync"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

// MemoryStore is an in-memory Store used by tests and the "memory" backend.
type MemoryStore struct {
	mu        sync.RWMutex
	shipments []models.Shipment
	bookings  []models.Booking
	orders    []models.PurchaseOrder
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddShipment seeds a shipment record.
func (s *MemoryStore) AddShipment(shipment models.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments = append(s.shipments, shipment)
}

// AddBooking seeds a booking record.
func (s *MemoryStore) AddBooking(booking models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, booking)
}

// AddPurchaseOrder seeds a purchase-order record.
func (s *MemoryStore) AddPurchaseOrder(po models.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, po)
}

func (s *MemoryStore) FindByDestination(ctx context.Context, areaCodes []string, window models.DateInterval) ([]models.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(areaCodes) == 0 {
		return nil, nil
	}

	codes := make(map[string]struct{}, len(areaCodes))
	for _, c := range areaCodes {
		codes[c] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Shipment
	for _, shipment := range s.shipments {
		_, countryMatch := codes[shipment.DestCountryCode]
		_, locMatch := codes[shipment.DestCustLocCode]
		if (countryMatch || locMatch) && window.Contains(shipment.ActualDeliveryDate) {
			result = append(result, shipment)
		}
	}
	return result, nil
}

func (s *MemoryStore) FindByShipmentNums(ctx context.Context, shipmentNums []string) ([]models.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums := make(map[string]struct{}, len(shipmentNums))
	for _, n := range shipmentNums {
		nums[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Shipment
	for _, shipment := range s.shipments {
		if _, ok := nums[shipment.ShipmentNum]; ok {
			result = append(result, shipment)
		}
	}
	return result, nil
}

func (s *MemoryStore) FindByBookingNums(ctx context.Context, bookingNums []string) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums := make(map[string]struct{}, len(bookingNums))
	for _, n := range bookingNums {
		nums[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Booking
	for _, booking := range s.bookings {
		if _, ok := nums[booking.BookingNum]; ok {
			result = append(result, booking)
		}
	}
	return result, nil
}

func (s *MemoryStore) FindByPONums(ctx context.Context, poNums []int) ([]models.PurchaseOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nums := make(map[int]struct{}, len(poNums))
	for _, n := range poNums {
		nums[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.PurchaseOrder
	for _, po := range s.orders {
		if _, ok := nums[po.PONum]; ok {
			result = append(result, po)
		}
	}
	return result, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
