package domain

import "time"

// PaymentStatus mirrors the state reported by the external payment gateway.
// Transitions arrive via webhook; this core never invents them.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// PaymentRecord is one payer's charge within a session, produced by the
// external gateway and read-only to the settlement core.
type PaymentRecord struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Amount    int64         `json:"amount"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (p *PaymentRecord) IsSuccessful() bool {
	return p != nil && p.Status == PaymentStatusSuccess
}
