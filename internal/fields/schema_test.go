package fields

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidateReceiptJSON", func() {
	It("accepts a fully populated receipt", func() {
		price := 42.50
		tax := 3.50
		store := "Walmart"
		method := "Visa"
		date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
		data := ReceiptData{
			Store:         &store,
			Price:         &price,
			TaxAmount:     &tax,
			PaymentMethod: &method,
			PurchaseDate:  &date,
			RawText:       "Walmart\nTotal: $42.50",
		}
		raw, err := json.Marshal(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(ValidateReceiptJSON(raw)).To(Succeed())
	})

	It("accepts a receipt with only raw text", func() {
		raw, err := json.Marshal(ReceiptData{RawText: "gibberish"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ValidateReceiptJSON(raw)).To(Succeed())
	})

	It("rejects a receipt without raw text", func() {
		Expect(ValidateReceiptJSON([]byte(`{"store":"Walmart"}`))).NotTo(Succeed())
	})

	It("rejects negative amounts", func() {
		Expect(ValidateReceiptJSON([]byte(`{"raw_text":"x","price":-1.00}`))).NotTo(Succeed())
	})

	It("rejects malformed JSON", func() {
		Expect(ValidateReceiptJSON([]byte(`{`))).NotTo(Succeed())
	})
})
