package domain

import "time"

// PaymentOrderStatus enumerates checkout order states.
type PaymentOrderStatus string

const (
	PaymentOrderStatusCreated   PaymentOrderStatus = "CREATED"
	PaymentOrderStatusApproved  PaymentOrderStatus = "APPROVED"
	PaymentOrderStatusCaptured  PaymentOrderStatus = "CAPTURED"
	PaymentOrderStatusFailed    PaymentOrderStatus = "FAILED"
	PaymentOrderStatusCancelled PaymentOrderStatus = "CANCELLED"
)

// Terminal reports whether the order can no longer change state.
func (s PaymentOrderStatus) Terminal() bool {
	switch s {
	case PaymentOrderStatusCaptured, PaymentOrderStatusFailed, PaymentOrderStatusCancelled:
		return true
	}
	return false
}

// PaymentOrder tracks a single flat-fee checkout with the payment provider.
type PaymentOrder struct {
	ID              string
	UserID          string
	ProviderOrderID string
	AmountCents     int64
	Currency        string
	Status          PaymentOrderStatus
	ApprovalURL     string
	CaptureID       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
