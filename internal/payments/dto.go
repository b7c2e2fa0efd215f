package payments

import "github.com/google/uuid"

// InitiateInput identifies the order a buyer wants to pay for.
type InitiateInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
}

// Redirect is the signed gateway hand-off returned to the buyer.
type Redirect struct {
	PaymentURL string `json:"payment_url"`
	PaymentID  string `json:"payment_id"`
}

// Gateway field names used by both the outbound redirect and the inbound
// notification.
const (
	fieldMerchantID  = "merchant_id"
	fieldMerchantKey = "merchant_key"
	fieldPaymentID   = "pf_payment_id"
	fieldOrderID     = "m_payment_id"
	fieldAmountGross = "amount_gross"
	fieldStatus      = "payment_status"
	fieldSignature   = "signature"
)

// Claimed payment statuses the gateway delivers.
const (
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
)
