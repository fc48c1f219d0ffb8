package marketplace

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is one normalized order line of an export
type Order struct {
	PlatformOrderID string
	OrderStatus     *OrderStatus
	CancelReason    *string
	Title           string
	SKU             string
	Quantity        int
	UnitPrice       decimal.Decimal
	Revenue         decimal.Decimal
	OrderDate       time.Time
	Platform        Platform
}

// Normalizer turns raw export rows into Orders
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithLocation sets the zone used for timestamps without an offset
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithClock overrides the clock used for missing order dates
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		n.now = now
	}
}

// NewNormalizer creates a Normalizer. Timestamps default to UTC.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		loc: time.UTC,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize extracts the orders of the given platform from rows, dropping
// rows the platform marks as non-orders.
func (n *Normalizer) Normalize(platform Platform, rows []Row) []Order {
	l, ok := layouts[platform]
	if !ok {
		return nil
	}

	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orderID := strings.TrimSpace(row.Cell(l.orderID).Value)
		if l.skip != nil && l.skip(orderID) {
			continue
		}
		orders = append(orders, Order{
			PlatformOrderID: orderID,
			OrderStatus:     NormalizeStatus(platform, row.Cell(l.status).Value),
			CancelReason:    NormalizeCancelReason(platform, row.Cell(l.cancelReason).Value),
			Title:           strings.TrimSpace(row.Cell(l.title).Value),
			SKU:             firstNonBlank(row, l.skus),
			Quantity:        ParseQuantity(row.Cell(l.quantity)),
			UnitPrice:       ParseAmount(row.Cell(l.unitPrice)),
			Revenue:         ParseAmount(row.Cell(l.revenue)),
			OrderDate:       n.ParseDate(row.Cell(l.orderDate)),
			Platform:        platform,
		})
	}
	return orders
}

func firstNonBlank(row Row, headers []string) string {
	for _, h := range headers {
		if v := strings.TrimSpace(row.Cell(h).Value); v != "" {
			return v
		}
	}
	return ""
}

// ParseQuantity reads an item count. Blank or unparseable cells count as 1.
func ParseQuantity(c Cell) int {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return 1
	}
	if q, err := strconv.Atoi(v); err == nil {
		return q
	}
	if d, err := decimal.NewFromString(v); err == nil {
		return int(d.IntPart())
	}
	return 1
}

var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"2006-01-02",
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// phantom 1900-02-29.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate reads an order timestamp. Numeric cells are Excel serial dates.
// Missing or unreadable values fall back to the current time.
func (n *Normalizer) ParseDate(c Cell) time.Time {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return n.now()
	}

	if c.Numeric {
		if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
			d := excelEpoch.Add(time.Duration(serial * float64(24*time.Hour))).Round(time.Second)
			return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, n.loc)
		}
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, n.loc); err == nil {
			return t
		}
	}
	return n.now()
}
