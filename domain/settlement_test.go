package domain

import (
	"testing"
	"time"
)

func snapshotWith(session Session, orders []Order, payments []PaymentRecord) *SessionSnapshot {
	return &SessionSnapshot{
		Session:  session,
		Orders:   orders,
		Payments: payments,
		LoadedAt: time.Now(),
	}
}

func openSession(creatorID string) Session {
	return Session{
		ID:              "sess-1",
		CircleID:        "circle-1",
		CreatorID:       creatorID,
		CreatorName:     "Jastiper",
		Title:           "Indomaret run",
		DurationMinutes: 30,
		MaxTitip:        5,
		Status:          SessionStatusOpen,
		CreatedAt:       time.Now(),
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name    string
		order   Order
		want    int64
		wantErr bool
	}{
		{name: "simple", order: Order{Quantity: 2, UnitPrice: 6000}, want: 12000},
		{name: "single unit", order: Order{Quantity: 1, UnitPrice: 1500}, want: 1500},
		{name: "free item", order: Order{Quantity: 3, UnitPrice: 0}, want: 0},
		{name: "zero quantity rejected", order: Order{Quantity: 0, UnitPrice: 6000}, wantErr: true},
		{name: "negative quantity rejected", order: Order{Quantity: -1, UnitPrice: 6000}, wantErr: true},
		{name: "negative price rejected", order: Order{Quantity: 1, UnitPrice: -100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineTotal(tt.order)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got total %d", got)
				}
				if !IsDomainError(err, ErrCodeInvalid) {
					t.Fatalf("expected INVALID domain error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("LineTotal = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPaymentFee(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{amount: 0, want: 2000},
		{amount: 1, want: 2001},
		{amount: 1000, want: 2029},
		{amount: 12000, want: 2348},
		{amount: 50000, want: 3450},
	}

	for _, tt := range tests {
		if got := PaymentFee(tt.amount); got != tt.want {
			t.Fatalf("PaymentFee(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestPaymentFeeMonotonic(t *testing.T) {
	prev := int64(-1)
	for amount := int64(0); amount <= 10_000; amount += 7 {
		fee := PaymentFee(amount)
		if fee < PaymentFeeFixed {
			t.Fatalf("PaymentFee(%d) = %d below fixed component", amount, fee)
		}
		if fee < prev {
			t.Fatalf("PaymentFee(%d) = %d decreased from %d", amount, fee, prev)
		}
		prev = fee
	}
}

func TestBillableOrdersFiltersStatuses(t *testing.T) {
	orders := []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusAccepted, Quantity: 1, UnitPrice: 1000},
		{ID: "o2", RequesterID: "u1", Status: OrderStatusBought, Quantity: 1, UnitPrice: 2000},
		{ID: "o3", RequesterID: "u1", Status: OrderStatusPending, Quantity: 9, UnitPrice: 999999},
		{ID: "o4", RequesterID: "u2", Status: OrderStatusRejected, Quantity: 9, UnitPrice: 999999},
		{ID: "o5", RequesterID: "u2", Status: OrderStatusRevision, Quantity: 9, UnitPrice: 999999},
		{ID: "o6", RequesterID: "u2", Status: OrderStatusAccepted, Quantity: 1, UnitPrice: 3000},
	}
	snap := snapshotWith(openSession("creator"), orders, nil)

	all := BillableOrders(snap, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 billable orders, got %d", len(all))
	}
	for _, o := range all {
		if o.Status != OrderStatusAccepted && o.Status != OrderStatusBought {
			t.Fatalf("non-billable status %q leaked through", o.Status)
		}
	}

	mine := BillableOrders(snap, "u1")
	if len(mine) != 2 {
		t.Fatalf("expected 2 billable orders for u1, got %d", len(mine))
	}
}

func TestUserGrandTotalScenario(t *testing.T) {
	// Spec scenario: one accepted order, qty 2 at 6000 each.
	orders := []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusAccepted, Quantity: 2, UnitPrice: 6000},
	}
	snap := snapshotWith(openSession("creator"), orders, nil)

	goods, err := UserGoodsTotal(snap, "u1")
	if err != nil {
		t.Fatalf("UserGoodsTotal: %v", err)
	}
	if goods != 12000 {
		t.Fatalf("goods total = %d, want 12000", goods)
	}
	if fee := PaymentFee(goods); fee != 2348 {
		t.Fatalf("payment fee = %d, want 2348", fee)
	}
	grand, err := UserGrandTotal(snap, "u1")
	if err != nil {
		t.Fatalf("UserGrandTotal: %v", err)
	}
	if grand != 14348 {
		t.Fatalf("grand total = %d, want 14348", grand)
	}
}

func TestZeroBillCarriesNoFee(t *testing.T) {
	snap := snapshotWith(openSession("creator"), []Order{
		{ID: "o1", RequesterID: "other", Status: OrderStatusAccepted, Quantity: 1, UnitPrice: 5000},
		{ID: "o2", RequesterID: "u1", Status: OrderStatusRejected, Quantity: 2, UnitPrice: 7000},
	}, nil)

	grand, err := UserGrandTotal(snap, "u1")
	if err != nil {
		t.Fatalf("UserGrandTotal: %v", err)
	}
	if grand != 0 {
		t.Fatalf("grand total = %d, want 0 for a zero bill", grand)
	}
}

func TestCanUserPay(t *testing.T) {
	now := time.Now()
	orders := []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusAccepted, Quantity: 1, UnitPrice: 10000},
		{ID: "o2", RequesterID: "u2", Status: OrderStatusPending, Quantity: 1, UnitPrice: 10000},
	}

	tests := []struct {
		name     string
		payments []PaymentRecord
		userID   string
		want     bool
	}{
		{name: "outstanding bill", userID: "u1", want: true},
		{
			name:   "already paid",
			userID: "u1",
			payments: []PaymentRecord{
				{UserID: "u1", Status: PaymentStatusSuccess, UpdatedAt: now},
			},
			want: false,
		},
		{
			name:   "failed payment keeps bill open",
			userID: "u1",
			payments: []PaymentRecord{
				{UserID: "u1", Status: PaymentStatusFailed, UpdatedAt: now},
			},
			want: true,
		},
		{
			name:   "latest record wins",
			userID: "u1",
			payments: []PaymentRecord{
				{UserID: "u1", Status: PaymentStatusFailed, UpdatedAt: now.Add(-time.Minute)},
				{UserID: "u1", Status: PaymentStatusSuccess, UpdatedAt: now},
			},
			want: false,
		},
		{name: "no billable orders", userID: "u2", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotWith(openSession("creator"), orders, tt.payments)
			got, err := CanUserPay(snap, tt.userID)
			if err != nil {
				t.Fatalf("CanUserPay: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanUserPay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalCollectedGoodsPrice(t *testing.T) {
	now := time.Now()
	orders := []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusBought, Quantity: 1, UnitPrice: 50000},
		{ID: "o2", RequesterID: "u2", Status: OrderStatusAccepted, Quantity: 2, UnitPrice: 10000},
	}
	payments := []PaymentRecord{
		{UserID: "u1", Status: PaymentStatusSuccess, UpdatedAt: now},
		{UserID: "u2", Status: PaymentStatusPending, UpdatedAt: now},
	}
	snap := snapshotWith(openSession("creator"), orders, payments)

	collected, err := TotalCollectedGoodsPrice(snap)
	if err != nil {
		t.Fatalf("TotalCollectedGoodsPrice: %v", err)
	}
	// u2 has billable goods but no successful payment, so only u1 counts.
	if collected != 50000 {
		t.Fatalf("collected = %d, want 50000", collected)
	}
}

func TestNetDisbursementAmountNeverNegative(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(5000)

	small := snapshotWith(openSession("creator"), []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusBought, Quantity: 1, UnitPrice: 1000},
	}, []PaymentRecord{
		{UserID: "u1", Status: PaymentStatusSuccess, UpdatedAt: now},
	})

	net, err := calc.NetDisbursementAmount(small)
	if err != nil {
		t.Fatalf("NetDisbursementAmount: %v", err)
	}
	if net != 0 {
		t.Fatalf("net = %d, want 0 when fee exceeds collected", net)
	}

	empty := snapshotWith(openSession("creator"), nil, nil)
	net, err = calc.NetDisbursementAmount(empty)
	if err != nil {
		t.Fatalf("NetDisbursementAmount: %v", err)
	}
	if net != 0 {
		t.Fatalf("net = %d, want 0 for an empty session", net)
	}
}

func TestCanDisburse(t *testing.T) {
	now := time.Now()
	calc := NewCalculator(5000)

	paidOrders := []Order{
		{ID: "o1", RequesterID: "u1", Status: OrderStatusBought, Quantity: 1, UnitPrice: 50000},
	}
	paid := []PaymentRecord{
		{UserID: "u1", Status: PaymentStatusSuccess, UpdatedAt: now},
	}

	closed := openSession("creator")
	closed.Status = SessionStatusClosed

	tests := []struct {
		name     string
		session  Session
		orders   []Order
		payments []PaymentRecord
		callerID string
		want     bool
	}{
		{name: "creator on closed paid session", session: closed, orders: paidOrders, payments: paid, callerID: "creator", want: true},
		{name: "not creator", session: closed, orders: paidOrders, payments: paid, callerID: "u1", want: false},
		{name: "still open", session: openSession("creator"), orders: paidOrders, payments: paid, callerID: "creator", want: false},
		{name: "no successful payments", session: closed, orders: paidOrders, payments: nil, callerID: "creator", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotWith(tt.session, tt.orders, tt.payments)
			got, err := calc.CanDisburse(snap, tt.callerID)
			if err != nil {
				t.Fatalf("CanDisburse: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanDisburse = %v, want %v", got, tt.want)
			}

			if tt.want {
				net, err := calc.NetDisbursementAmount(snap)
				if err != nil {
					t.Fatalf("NetDisbursementAmount: %v", err)
				}
				if net != 45000 {
					t.Fatalf("net = %d, want 45000", net)
				}
			}
		})
	}
}

func TestSessionExpiry(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session := Session{
		Status:          SessionStatusOpen,
		CreatedAt:       created,
		DurationMinutes: 5,
	}

	if session.IsExpired(created.Add(4 * time.Minute)) {
		t.Fatal("session expired before its duration elapsed")
	}
	if !session.IsExpired(created.Add(5*time.Minute + time.Second)) {
		t.Fatal("session not expired after its duration elapsed")
	}

	// Expiry is monotonic in time for a fixed stored status.
	boundary := created.Add(5 * time.Minute)
	for _, later := range []time.Duration{0, time.Second, time.Hour, 24 * time.Hour} {
		if !session.IsExpired(boundary.Add(later)) {
			t.Fatalf("expiry regressed at +%v", later)
		}
	}

	session.Status = SessionStatusClosed
	if !session.IsExpired(created) {
		t.Fatal("closed session must always read as expired")
	}
}

func TestCalculatorFeeFallback(t *testing.T) {
	if got := NewCalculator(0).DisbursementFee(); got != DefaultDisbursementFee {
		t.Fatalf("fee = %d, want default %d", got, DefaultDisbursementFee)
	}
	if got := NewCalculator(2000).DisbursementFee(); got != 2000 {
		t.Fatalf("fee = %d, want configured 2000", got)
	}
}
