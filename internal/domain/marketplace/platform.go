// Package marketplace holds the vocabulary of the supported marketplace
// order exports: platform detection, column layouts and the normalization
// of amounts, dates, statuses and cancel reasons.
package marketplace

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Platform identifies a marketplace
type Platform string

const (
	PlatformShopee     Platform = "SHOPEE"
	PlatformTikTokShop Platform = "TIKTOK_SHOP"
	// PlatformOther is recorded on batches confirmed without a platform
	PlatformOther Platform = "OTHER"
)

// IsSupported reports whether exports of this platform can be parsed
func (p Platform) IsSupported() bool {
	_, ok := layouts[p]
	return ok
}

// String returns the platform code
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform converts an optional platform hint into a Platform.
// An empty hint returns "" with no error.
func ParsePlatform(hint string) (Platform, error) {
	hint = strings.ToUpper(strings.TrimSpace(hint))
	if hint == "" {
		return "", nil
	}
	p := Platform(hint)
	if !p.IsSupported() {
		return "", shared.ErrUnrecognizedFormat
	}
	return p, nil
}

// Header fingerprints used by DetectPlatform
const (
	shopeeOrderIDHeader = "No. Pesanan"
	tiktokOrderIDHeader = "Order ID"
	shopeeStatusHeader  = "Status Pesanan"
	tiktokStatusHeader  = "Order Status"
)

// DetectPlatform inspects the header set of an export. An order id column
// must be present; the status column then decides the platform.
func DetectPlatform(headers []string) (Platform, error) {
	hasOrderID := false
	for _, h := range headers {
		if strings.Contains(h, shopeeOrderIDHeader) || strings.Contains(h, tiktokOrderIDHeader) {
			hasOrderID = true
			break
		}
	}
	if !hasOrderID {
		return "", shared.ErrUnrecognizedFormat
	}

	// Shopee wins when both status columns are present
	switch {
	case hasHeader(headers, shopeeStatusHeader):
		return PlatformShopee, nil
	case hasHeader(headers, tiktokStatusHeader):
		return PlatformTikTokShop, nil
	}
	return "", shared.ErrUnrecognizedFormat
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) == name {
			return true
		}
	}
	return false
}
