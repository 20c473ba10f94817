package fields

import "time"

// ReceiptData is the structured record produced by one extraction pass. Every
// structured field is best-effort: nil means "could not determine", never an
// error. RawText is always populated.
type ReceiptData struct {
	Title         *string    `json:"title,omitempty"`
	Store         *string    `json:"store,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	WarrantyInfo  *string    `json:"warranty_info,omitempty"`
	RawText       string     `json:"raw_text"`
}
