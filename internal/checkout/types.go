// Package checkout defines the data model shared by the checkout flow:
// the payer's request, the server-issued order descriptor, the gateway's
// completion payload, and the verification outcome.
// All of these live for a single checkout attempt and are discarded when
// the attempt is closed or reset.
package checkout

// PaymentRequest is the immutable input to a checkout attempt.
// Amount is in major currency units (e.g. rupees); conversion to the
// gateway's minor units happens only against the server-confirmed total.
type PaymentRequest struct {
	Amount       float64 `json:"amount"`
	Purpose      string  `json:"purpose"`
	Description  string  `json:"description"`
	FeePaymentID string  `json:"fee_payment_id,omitempty"`
	StudentID    string  `json:"student_id,omitempty"`
	PayerName    string  `json:"payer_name"`
	PayerEmail   string  `json:"payer_email"`
	PayerPhone   string  `json:"payer_phone"`
}

// GatewayData carries gateway-specific initialization values issued by
// the server alongside the order (e.g. the public key the widget mounts
// with).
type GatewayData struct {
	KeyID string `json:"key_id"`
}

// OrderDescriptor is the server's answer to order creation. TotalAmount
// is server-confirmed and may differ from the requested amount when the
// server applies fees; it is the only amount ever handed to the gateway.
type OrderDescriptor struct {
	OrderNumber    string      `json:"order_number"`
	GatewayOrderID string      `json:"gateway_order_id"`
	TotalAmount    float64     `json:"total_amount"`
	Currency       string      `json:"currency"`
	GatewayData    GatewayData `json:"gateway_data"`
}

// GatewayCompletionPayload is the signed completion bag the gateway
// widget produces. It is opaque to this service and is forwarded to the
// verification endpoint verbatim.
type GatewayCompletionPayload struct {
	OrderID   string `json:"gateway_order_id"`
	PaymentID string `json:"gateway_payment_id"`
	Signature string `json:"gateway_signature"`
}

// VerificationResult is the server's verdict on a gateway completion.
type VerificationResult struct {
	Success       bool   `json:"success"`
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
}
