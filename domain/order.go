package domain

import "time"

// OrderStatus tracks one requested item through the creator's handling of it.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusBought   OrderStatus = "bought"
	OrderStatusRevision OrderStatus = "revision"
)

// ValidOrderStatus reports whether s is one of the known order states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected, OrderStatusBought, OrderStatusRevision:
		return true
	}
	return false
}

// Order is one requester's itemized ask within a session. Prices are in
// integer minor units of the host currency.
type Order struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"`
	RequesterID   string      `json:"requester_id"`
	RequesterName string      `json:"requester_name"`
	ItemName      string      `json:"item_name"`
	Quantity      int         `json:"quantity"`
	UnitPrice     int64       `json:"unit_price"`
	Notes         string      `json:"notes,omitempty"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsBillable reports whether the order counts toward monetary totals.
// Pending, rejected and revision orders never contribute to any bill.
func (o *Order) IsBillable() bool {
	return o != nil && (o.Status == OrderStatusAccepted || o.Status == OrderStatusBought)
}
