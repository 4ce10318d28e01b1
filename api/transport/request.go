package transport

// SessionCreateRequest opens a new shopping session.
type SessionCreateRequest struct {
	CircleID        string  `json:"circle_id"`
	CreatorName     string  `json:"creator_name"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	LocationName    string  `json:"location_name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	DurationMinutes int     `json:"duration_minutes"`
	MaxTitip        int     `json:"max_titip"`
}

// RevisionRequest toggles the creator's re-confirmation sub-state.
type RevisionRequest struct {
	Enabled bool `json:"enabled"`
}

// OrderCreateRequest places one item request in a session.
type OrderCreateRequest struct {
	RequesterName string `json:"requester_name"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"`
	Notes         string `json:"notes"`
}

// OrderStatusRequest applies a creator decision to one order.
type OrderStatusRequest struct {
	Status string `json:"status"`
}

// DisbursementRequest asks for the session's collected funds to be paid out.
type DisbursementRequest struct {
	Destination string `json:"destination"`
}

// PaymentNotification is the gateway webhook payload for charges.
type PaymentNotification struct {
	Reference string `json:"transaction_id"`
	Status    string `json:"transaction_status"`
	Signature string `json:"signature_key"`
}

// PayoutNotification is the gateway webhook payload for disbursements. The
// reference is the reference_no we sent, which is the attempt id.
type PayoutNotification struct {
	SessionID string `json:"session_id"`
	Reference string `json:"reference_no"`
	Status    string `json:"status"`
	Signature string `json:"signature_key"`
}
