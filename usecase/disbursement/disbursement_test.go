package disbursement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
	"github.com/titipin/backend/usecase"
	sessionUC "github.com/titipin/backend/usecase/session"
)

type sessionRepo struct {
	session *domain.Session
}

func (r sessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	if r.session.ID != id {
		return nil, domain.ErrSessionNotFound
	}
	copied := *r.session
	return &copied, nil
}

func (r sessionRepo) List(context.Context, repository.SessionFilter) ([]domain.Session, error) {
	return nil, nil
}

func (r sessionRepo) Create(_ context.Context, s *domain.Session) (*domain.Session, error) {
	return s, nil
}

func (r sessionRepo) SetRevisionMode(context.Context, string, bool) error { return nil }

func (r sessionRepo) Close(context.Context, string) (bool, error) { return false, nil }

func (r sessionRepo) ListOpenExpired(context.Context, time.Time, int) ([]domain.Session, error) {
	return nil, nil
}

type orderRepo struct {
	orders []domain.Order
}

func (r orderRepo) GetByID(_ context.Context, _, orderID string) (*domain.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == orderID {
			return &r.orders[i], nil
		}
	}
	return nil, domain.NewError(domain.ErrCodeNotFound, "order not found")
}

func (r orderRepo) ListBySession(context.Context, string) ([]domain.Order, error) {
	return r.orders, nil
}

func (r orderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) { return o, nil }

func (r orderRepo) UpdateStatus(context.Context, string, string, domain.OrderStatus) error {
	return nil
}

type paymentRepo struct {
	payments []domain.PaymentRecord
}

func (r paymentRepo) ListBySession(context.Context, string) ([]domain.PaymentRecord, error) {
	return r.payments, nil
}

func (r paymentRepo) GetByReference(context.Context, string) (*domain.PaymentRecord, error) {
	return nil, domain.NewError(domain.ErrCodeNotFound, "payment not found")
}

func (r paymentRepo) Create(_ context.Context, p *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	return p, nil
}

func (r paymentRepo) UpdateStatus(context.Context, string, domain.PaymentStatus) error { return nil }

type disbursementRepo struct {
	records []*domain.DisbursementRecord
}

func (r *disbursementRepo) ListBySession(_ context.Context, sessionID string) ([]domain.DisbursementRecord, error) {
	var out []domain.DisbursementRecord
	for _, d := range r.records {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *disbursementRepo) Create(_ context.Context, record *domain.DisbursementRecord) (*domain.DisbursementRecord, error) {
	record.ID = fmt.Sprintf("disb-%d", len(r.records)+1)
	record.CreatedAt = time.Now().Add(time.Duration(len(r.records)) * time.Millisecond)
	r.records = append(r.records, record)
	copied := *record
	return &copied, nil
}

func (r *disbursementRepo) UpdateStatus(_ context.Context, id string, status domain.DisbursementStatus, reference string) error {
	for _, d := range r.records {
		if d.ID == id {
			d.Status = status
			if reference != "" {
				d.Reference = reference
			}
			return nil
		}
	}
	return domain.NewError(domain.ErrCodeNotFound, "disbursement not found")
}

type fakePayout struct {
	calls []usecase.PayoutRequest
	err   error
}

func (f *fakePayout) RequestDisbursement(_ context.Context, req usecase.PayoutRequest) (*usecase.PayoutResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.PayoutResult{
		Reference: fmt.Sprintf("payout-%d", len(f.calls)),
		Status:    domain.DisbursementStatusProcessing,
	}, nil
}

type fixture struct {
	uc      *UseCase
	session *domain.Session
	records *disbursementRepo
	payout  *fakePayout
}

// newFixture builds a closed session where alice's 50000 goods order was
// paid successfully: collected 50000, payment fee 3450, flat fee 5000,
// net 45000.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	session := &domain.Session{
		ID:              "s1",
		CircleID:        "circle-1",
		CreatorID:       "creator",
		Title:           "oleh-oleh run",
		DurationMinutes: 120,
		MaxTitip:        5,
		Status:          domain.SessionStatusClosed,
		CreatedAt:       time.Now().Add(-3 * time.Hour),
	}
	orders := orderRepo{orders: []domain.Order{
		{ID: "o1", SessionID: "s1", RequesterID: "alice", ItemName: "keripik", Quantity: 5, UnitPrice: 10000, Status: domain.OrderStatusBought},
	}}
	payments := paymentRepo{payments: []domain.PaymentRecord{
		{ID: "p1", SessionID: "s1", UserID: "alice", Amount: 53450, Status: domain.PaymentStatusSuccess, Reference: "ref-1", UpdatedAt: time.Now()},
	}}
	records := &disbursementRepo{}
	payout := &fakePayout{}
	calc := domain.NewCalculator(5000)

	sessions := sessionUC.New(sessionUC.Deps{
		Sessions:      sessionRepo{session},
		Orders:        orders,
		Payments:      payments,
		Disbursements: records,
		Calculator:    calc,
	})
	uc := New(records, nil, sessions, payout, nil, nil, calc, nil)
	return &fixture{uc: uc, session: session, records: records, payout: payout}
}

func TestRequestHappyPath(t *testing.T) {
	f := newFixture(t)

	record, err := f.uc.Request(context.Background(), "creator", "s1", "bank:bca:12345")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if record.NetAmount != 45000 {
		t.Errorf("NetAmount = %d, want 45000", record.NetAmount)
	}
	if record.CollectedTotal != 50000 {
		t.Errorf("CollectedTotal = %d, want 50000", record.CollectedTotal)
	}
	if record.PaymentFees != 3450 {
		t.Errorf("PaymentFees = %d, want 3450", record.PaymentFees)
	}
	if record.Fee != 5000 {
		t.Errorf("Fee = %d, want 5000", record.Fee)
	}
	if record.Status != domain.DisbursementStatusProcessing {
		t.Errorf("Status = %q, want processing", record.Status)
	}
	if record.Reference == "" {
		t.Error("gateway reference not recorded")
	}
	if len(f.payout.calls) != 1 || f.payout.calls[0].Amount != 45000 {
		t.Errorf("payout calls = %+v, want one transfer of 45000", f.payout.calls)
	}
}

func TestRequestGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Request(ctx, "", "s1", "dest"); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("anonymous err = %v, want unauthorized", err)
	}
	if _, err := f.uc.Request(ctx, "alice", "s1", "dest"); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("non-creator err = %v, want forbidden", err)
	}

	f.session.Status = domain.SessionStatusOpen
	if _, err := f.uc.Request(ctx, "creator", "s1", "dest"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("open session err = %v, want invalid", err)
	}
	if len(f.payout.calls) != 0 {
		t.Errorf("payout was called despite failed guards")
	}
}

func TestRequestIdempotentWhileInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if err != nil {
		t.Fatalf("first Request: %v", err)
	}

	second, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if err != nil {
		t.Fatalf("second Request: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second request created a new attempt: %q vs %q", second.ID, first.ID)
	}
	if len(f.payout.calls) != 1 {
		t.Errorf("payout calls = %d, want 1", len(f.payout.calls))
	}
	if len(f.records.records) != 1 {
		t.Errorf("stored attempts = %d, want 1", len(f.records.records))
	}
}

func TestRequestAfterSuccessIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := f.uc.HandlePayoutNotification(ctx, "s1", first.ID, domain.DisbursementStatusSuccess); err != nil {
		t.Fatalf("HandlePayoutNotification: %v", err)
	}

	repeat, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if err != nil {
		t.Fatalf("repeat Request: %v", err)
	}
	if repeat.ID != first.ID || repeat.Status != domain.DisbursementStatusSuccess {
		t.Fatalf("repeat = %+v, want the settled attempt", repeat)
	}
	if len(f.payout.calls) != 1 {
		t.Errorf("payout calls = %d, want 1", len(f.payout.calls))
	}
}

func TestRequestRetryAfterFailureAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payout.err = errors.New("payout service down")

	_, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if len(f.records.records) != 1 || f.records.records[0].Status != domain.DisbursementStatusFailed {
		t.Fatalf("records = %+v, want one failed attempt", f.records.records)
	}

	// The gateway recovers; the retry appends a fresh attempt, leaving the
	// failed one in the log.
	f.payout.err = nil
	record, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if err != nil {
		t.Fatalf("retry Request: %v", err)
	}
	if record.Status != domain.DisbursementStatusProcessing {
		t.Errorf("retry status = %q, want processing", record.Status)
	}
	if len(f.records.records) != 2 {
		t.Fatalf("stored attempts = %d, want 2", len(f.records.records))
	}
	if f.records.records[0].Status != domain.DisbursementStatusFailed {
		t.Errorf("first attempt mutated: %+v", f.records.records[0])
	}
}

func TestRequestNothingToDisburse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Collected 5000 does not cover the 5000 flat fee.
	f.uc.sessions = sessionUC.New(sessionUC.Deps{
		Sessions: sessionRepo{f.session},
		Orders: orderRepo{orders: []domain.Order{
			{ID: "o1", SessionID: "s1", RequesterID: "alice", ItemName: "air", Quantity: 1, UnitPrice: 5000, Status: domain.OrderStatusBought},
		}},
		Payments: paymentRepo{payments: []domain.PaymentRecord{
			{ID: "p1", SessionID: "s1", UserID: "alice", Amount: 7145, Status: domain.PaymentStatusSuccess, Reference: "ref-1", UpdatedAt: time.Now()},
		}},
		Disbursements: f.records,
		Calculator:    domain.NewCalculator(5000),
	})

	_, err := f.uc.Request(ctx, "creator", "s1", "dest")
	if !errors.Is(err, domain.ErrNothingToDisburse) && !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("err = %v, want nothing to disburse", err)
	}
	if len(f.records.records) != 0 {
		t.Errorf("an attempt was stored with nothing to disburse")
	}
	if len(f.payout.calls) != 0 {
		t.Errorf("payout was called with nothing to disburse")
	}
}

func TestHandlePayoutNotificationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.uc.HandlePayoutNotification(ctx, "s1", "disb-1", "refunded"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("unknown status err = %v, want invalid", err)
	}
	if err := f.uc.HandlePayoutNotification(ctx, "s1", "no-such-id", domain.DisbursementStatusSuccess); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown attempt err = %v, want not found", err)
	}
}
