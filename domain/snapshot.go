package domain

import "time"

// SessionSnapshot is the read model the settlement calculator works on: one
// session document plus its child collections, reassembled from scratch on
// every load. Callers must reload to observe new data; a snapshot is never
// patched in place, so derived figures can never mix generations.
type SessionSnapshot struct {
	Session       Session
	Orders        []Order
	Payments      []PaymentRecord
	Disbursements []DisbursementRecord
	LoadedAt      time.Time
}

// LatestPayments reduces the payment stream to one record per payer, keeping
// the most recently updated record as that payer's authoritative state.
func (s *SessionSnapshot) LatestPayments() map[string]PaymentRecord {
	if s == nil {
		return nil
	}
	latest := make(map[string]PaymentRecord, len(s.Payments))
	for _, p := range s.Payments {
		current, ok := latest[p.UserID]
		if !ok || p.UpdatedAt.After(current.UpdatedAt) {
			latest[p.UserID] = p
		}
	}
	return latest
}

// Requesters returns the distinct requester ids present in the order list,
// regardless of order status. Used for the maxTitip quota gate.
func (s *SessionSnapshot) Requesters() map[string]struct{} {
	if s == nil {
		return nil
	}
	ids := make(map[string]struct{}, len(s.Orders))
	for _, o := range s.Orders {
		ids[o.RequesterID] = struct{}{}
	}
	return ids
}

// LatestDisbursement returns the most recent payout attempt, or nil when the
// session has never requested one.
func (s *SessionSnapshot) LatestDisbursement() *DisbursementRecord {
	if s == nil || len(s.Disbursements) == 0 {
		return nil
	}
	latest := s.Disbursements[0]
	for _, d := range s.Disbursements[1:] {
		if d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	return &latest
}
