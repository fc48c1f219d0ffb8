package marketplace

import "strings"

// OrderStatus is the internal order status. Values outside the enumeration
// are kept verbatim when a platform status has no mapping.
type OrderStatus string

const (
	StatusPending     OrderStatus = "PENDING"
	StatusReadyToShip OrderStatus = "READY_TO_SHIP"
	StatusShipped     OrderStatus = "SHIPPED"
	StatusDelivered   OrderStatus = "DELIVERED"
	StatusCompleted   OrderStatus = "COMPLETED"
	StatusCancelled   OrderStatus = "CANCELLED"
	StatusReturned    OrderStatus = "RETURNED"
)

// IsKnown reports whether the status belongs to the internal enumeration
func (s OrderStatus) IsKnown() bool {
	switch s {
	case StatusPending, StatusReadyToShip, StatusShipped, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

var statusTables = map[Platform]map[string]OrderStatus{
	PlatformShopee: {
		"Belum Bayar":    StatusPending,
		"Perlu Dikirim":  StatusReadyToShip,
		"Sedang Dikirim": StatusShipped,
		"Telah Dikirim":  StatusShipped,
		"Selesai":        StatusCompleted,
		"Batal":          StatusCancelled,
		"Pengembalian":   StatusReturned,
	},
	PlatformTikTokShop: {
		"Unpaid":              StatusPending,
		"Awaiting Shipment":   StatusReadyToShip,
		"Awaiting Collection": StatusReadyToShip,
		"Shipped":             StatusShipped,
		"In Transit":          StatusShipped,
		"Delivered":           StatusDelivered,
		"Completed":           StatusCompleted,
		"Canceled":            StatusCancelled,
		"Returned":            StatusReturned,
	},
}

// NormalizeStatus maps a platform status to the internal enumeration.
// Unmapped values pass through trimmed; blank input yields nil.
func NormalizeStatus(platform Platform, raw string) *OrderStatus {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	status, ok := statusTables[platform][raw]
	if !ok {
		status = OrderStatus(raw)
	}
	return &status
}
