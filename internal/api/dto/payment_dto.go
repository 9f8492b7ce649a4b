package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// PaymentOrderResponse is the checkout order view.
type PaymentOrderResponse struct {
	ID          string                    `json:"id"`
	Status      domain.PaymentOrderStatus `json:"status"`
	AmountCents int64                     `json:"amount_cents"`
	Currency    string                    `json:"currency"`
	ApprovalURL string                    `json:"approval_url,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// NewPaymentOrderResponse maps a domain order.
func NewPaymentOrderResponse(o *domain.PaymentOrder) PaymentOrderResponse {
	return PaymentOrderResponse{
		ID:          o.ID,
		Status:      o.Status,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		ApprovalURL: o.ApprovalURL,
		CreatedAt:   o.CreatedAt,
	}
}
