package domain

// Payment fee contract: 2.9% of the payer's goods total plus a fixed charge,
// rounded up. All arithmetic is integer minor units so the ceiling is exact.
const (
	feePercentNumerator   = 29
	feePercentDenominator = 1000

	// PaymentFeeFixed is the flat component of the gateway charge.
	PaymentFeeFixed int64 = 2000

	// DefaultDisbursementFee is the flat bank-transfer cost deducted from a
	// payout when no explicit fee is configured.
	DefaultDisbursementFee int64 = 5000
)

// Calculator derives every money figure and eligibility gate from a
// SessionSnapshot. All methods are pure; identical input yields identical
// output. The disbursement fee is the one configurable parameter.
type Calculator struct {
	disbursementFee int64
}

// NewCalculator builds a Calculator with the given flat disbursement fee.
// A non-positive fee falls back to DefaultDisbursementFee.
func NewCalculator(disbursementFee int64) Calculator {
	if disbursementFee <= 0 {
		disbursementFee = DefaultDisbursementFee
	}
	return Calculator{disbursementFee: disbursementFee}
}

// DisbursementFee returns the configured flat payout cost.
func (c Calculator) DisbursementFee() int64 {
	return c.disbursementFee
}

// BillableOrders filters orders that count toward monetary totals, optionally
// restricted to one requester. Pass an empty requesterID for all requesters.
func BillableOrders(s *SessionSnapshot, requesterID string) []Order {
	if s == nil {
		return nil
	}
	var out []Order
	for _, o := range s.Orders {
		if !o.IsBillable() {
			continue
		}
		if requesterID != "" && o.RequesterID != requesterID {
			continue
		}
		out = append(out, o)
	}
	return out
}

// LineTotal is unitPrice * quantity. A quantity below one or a negative price
// is rejected outright rather than clamped.
func LineTotal(o Order) (int64, error) {
	if o.Quantity < 1 {
		return 0, WrapError(ErrCodeInvalid, "invalid order line", ErrInvalidOrder)
	}
	if o.UnitPrice < 0 {
		return 0, WrapError(ErrCodeInvalid, "invalid order line", ErrInvalidOrder)
	}
	return o.UnitPrice * int64(o.Quantity), nil
}

// UserGoodsTotal sums the billable line totals of one requester.
func UserGoodsTotal(s *SessionSnapshot, userID string) (int64, error) {
	var total int64
	for _, o := range BillableOrders(s, userID) {
		line, err := LineTotal(o)
		if err != nil {
			return 0, err
		}
		total += line
	}
	return total, nil
}

// PaymentFee is ceil(amount * 2.9%) + 2000 in minor units. It is monotonic in
// amount and never below the fixed component.
func PaymentFee(amount int64) int64 {
	if amount < 0 {
		amount = 0
	}
	percent := (amount*feePercentNumerator + feePercentDenominator - 1) / feePercentDenominator
	return percent + PaymentFeeFixed
}

// UserGrandTotal is what the payer is actually charged: goods plus payment
// fee. A zero bill carries no fee.
func UserGrandTotal(s *SessionSnapshot, userID string) (int64, error) {
	goods, err := UserGoodsTotal(s, userID)
	if err != nil {
		return 0, err
	}
	if goods == 0 {
		return 0, nil
	}
	return goods + PaymentFee(goods), nil
}

// CanUserPay reports whether the user has an outstanding, not-yet-settled
// bill in the session.
func CanUserPay(s *SessionSnapshot, userID string) (bool, error) {
	goods, err := UserGoodsTotal(s, userID)
	if err != nil {
		return false, err
	}
	if goods <= 0 {
		return false, nil
	}
	latest, ok := s.LatestPayments()[userID]
	if ok && latest.IsSuccessful() {
		return false, nil
	}
	return true, nil
}

// TotalCollectedGoodsPrice sums the goods totals of every payer whose latest
// payment succeeded. Unpaid goods never credit the creator, even when the
// orders behind them were accepted or bought.
func TotalCollectedGoodsPrice(s *SessionSnapshot) (int64, error) {
	var total int64
	for userID, payment := range s.LatestPayments() {
		if !payment.IsSuccessful() {
			continue
		}
		goods, err := UserGoodsTotal(s, userID)
		if err != nil {
			return 0, err
		}
		total += goods
	}
	return total, nil
}

// TotalPaymentFees sums the payment fees owed by every successful payer.
// Recorded on the disbursement snapshot for bookkeeping.
func TotalPaymentFees(s *SessionSnapshot) (int64, error) {
	var total int64
	for userID, payment := range s.LatestPayments() {
		if !payment.IsSuccessful() {
			continue
		}
		goods, err := UserGoodsTotal(s, userID)
		if err != nil {
			return 0, err
		}
		if goods == 0 {
			continue
		}
		total += PaymentFee(goods)
	}
	return total, nil
}

// NetDisbursementAmount is the collected goods total minus the flat
// disbursement fee, floored at zero.
func (c Calculator) NetDisbursementAmount(s *SessionSnapshot) (int64, error) {
	collected, err := TotalCollectedGoodsPrice(s)
	if err != nil {
		return 0, err
	}
	net := collected - c.disbursementFee
	if net < 0 {
		net = 0
	}
	return net, nil
}

// CanDisburse gates the payout: the caller must be the creator, the session
// must be closed, and the net amount must be positive.
func (c Calculator) CanDisburse(s *SessionSnapshot, callerID string) (bool, error) {
	if s == nil || !s.Session.IsCreator(callerID) {
		return false, nil
	}
	if !s.Session.IsClosed() {
		return false, nil
	}
	net, err := c.NetDisbursementAmount(s)
	if err != nil {
		return false, err
	}
	return net > 0, nil
}
