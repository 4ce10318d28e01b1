package domain

import "time"

// DisbursementStatus tracks one payout attempt toward the creator's bank account.
type DisbursementStatus string

const (
	DisbursementStatusPending    DisbursementStatus = "pending"
	DisbursementStatusProcessing DisbursementStatus = "processing"
	DisbursementStatusSuccess    DisbursementStatus = "success"
	DisbursementStatusFailed     DisbursementStatus = "failed"
)

// DisbursementRecord is an append-only snapshot of the session's finances at
// the moment a payout was requested. A failed attempt is retried by creating
// a new record, never by mutating history.
type DisbursementRecord struct {
	ID             string             `json:"id"`
	SessionID      string             `json:"session_id"`
	CreatorID      string             `json:"creator_id"`
	CollectedTotal int64              `json:"collected_total"`
	PaymentFees    int64              `json:"payment_fees"`
	Fee            int64              `json:"fee"`
	NetAmount      int64              `json:"net_amount"`
	Destination    string             `json:"destination"`
	Reference      string             `json:"reference,omitempty"`
	Status         DisbursementStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// InFlight reports whether the attempt still blocks a new one. Only a failed
// attempt frees the session for a retry; success is terminal.
func (d *DisbursementRecord) InFlight() bool {
	if d == nil {
		return false
	}
	return d.Status == DisbursementStatusPending || d.Status == DisbursementStatusProcessing
}
