package marketplace

import "strings"

var cancelReasonTables = map[Platform]map[string]string{
	PlatformShopee: {
		"Dibatalkan oleh Pembeli. Alasan: Lainnya/ berubah pikiran":                                     "买家取消：其他/改变主意",
		"Dibatalkan oleh Pembeli. Alasan: Ubah Pesanan yang Ada":                                        "买家取消：修改现有订单",
		"Dibatalkan oleh Pembeli. Alasan: Proses pembayaran sulit":                                      "买家取消：支付流程困难",
		"Dibatalkan oleh Pembeli. Alasan: Need to change delivery address":                              "买家取消：需更改收货地址",
		"Dibatalkan secara otomatis oleh sistem Shopee. Alasan: Penjual tidak mengatur pengiriman tepat waktu": "系统自动取消：卖家未及时安排发货",
		"Dibatalkan secara otomatis oleh sistem Shopee. Alasan: Pesanan belum dibayar":                  "系统自动取消：订单未付款",
		"Dibatalkan oleh Pembeli. Alasan: Lainnya":                                                      "买家取消：其他原因",
		"Dibatalkan secara otomatis oleh sistem Shopee. Alasan: Pengiriman gagal":                       "系统自动取消：配送失败",
		"Dibatalkan oleh Pembeli. Alasan: Perlu mengubah pesanan":                                       "买家取消：需修改订单",
		"Dibatalkan oleh Pembeli. Alasan: Tidak ingin membeli lagi":                                     "买家取消：不想再购买",
	},
	PlatformTikTokShop: {
		"Better price available":          "其他渠道价格更优",
		"Customer overdue to pay":         "买家逾期未付款",
		"High delivery costs":             "运费过高",
		"Need to change color or size":    "需更改颜色或尺寸",
		"Need to change payment method":   "需更改支付方式",
		"Need to change shipping address": "需更改收货地址",
		"No longer needed":                "不再需要",
		"Out of stock":                    "缺货",
		"Package delivery failed":         "包裹配送失败",
		"Payment method not available":    "支付方式不可用",
		"Pricing error":                   "价格错误",
		"Buyer cancelled":                 "买家取消",
		"Seller cancelled":                "卖家取消",
		"System cancelled":                "系统取消",
	},
}

// NormalizeCancelReason translates a platform cancel reason. Unmapped text
// is returned trimmed; blank input yields nil.
func NormalizeCancelReason(platform Platform, raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if reason, ok := cancelReasonTables[platform][raw]; ok {
		return &reason
	}
	return &raw
}
