package marketplace

// Cell is one spreadsheet value. Numeric is set when the workbook stored
// the value as a number, in which case Value holds its raw representation.
type Cell struct {
	Value   string
	Numeric bool
}

// IsBlank reports whether the cell carries no value
func (c Cell) IsBlank() bool {
	return c.Value == ""
}

// Row is a header-keyed view of one data row
type Row interface {
	Cell(header string) Cell
}

// layout lists the export columns of a platform
type layout struct {
	orderID      string
	status       string
	cancelReason string
	title        string
	skus         []string // first non-blank wins
	quantity     string
	revenue      string
	unitPrice    string
	orderDate    string
	// skip reports rows that are not orders, checked against the order id
	skip func(orderID string) bool
}

// tiktokDescriptionRow is the text TikTok Shop places under the Order ID
// header on the row that documents each column.
const tiktokDescriptionRow = "Platform unique order ID."

var layouts = map[Platform]layout{
	PlatformShopee: {
		orderID:      "No. Pesanan",
		status:       "Status Pesanan",
		cancelReason: "Alasan Pembatalan",
		title:        "Nama Produk",
		skus:         []string{"Nomor Referensi SKU", "SKU Induk"},
		quantity:     "Jumlah",
		revenue:      "Total Harga Produk",
		unitPrice:    "Harga Setelah Diskon",
		orderDate:    "Waktu Pesanan Dibuat",
	},
	PlatformTikTokShop: {
		orderID:      "Order ID",
		status:       "Order Status",
		cancelReason: "Cancel Reason",
		title:        "Product Name",
		skus:         []string{"Seller SKU"},
		quantity:     "Quantity",
		revenue:      "SKU Subtotal After Discount",
		unitPrice:    "SKU Unit Original Price",
		orderDate:    "Order Created Time",
		skip: func(orderID string) bool {
			return orderID == "" || orderID == tiktokDescriptionRow
		},
	},
}
