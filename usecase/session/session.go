package session

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/repository"
	"github.com/titipin/backend/usecase"
)

// Deps wires the controller to its collaborators. Sessions, Orders, Payments
// and Disbursements are required; the rest degrade gracefully when nil.
type Deps struct {
	Sessions      repository.SessionRepository
	Orders        repository.OrderRepository
	Payments      repository.PaymentRepository
	Disbursements repository.DisbursementRepository
	Events        repository.EventRepository
	Cache         usecase.SnapshotCache
	Chat          usecase.ChatSink
	Notifier      usecase.UpdateNotifier
	Calculator    domain.Calculator
	Logger        *zap.Logger
	Now           func() time.Time
}

// UseCase orchestrates the session lifecycle: open, revision toggling, order
// intake and response, and the monotonic close. Every operation takes the
// acting user's identity explicitly.
type UseCase struct {
	sessions      repository.SessionRepository
	orders        repository.OrderRepository
	payments      repository.PaymentRepository
	disbursements repository.DisbursementRepository
	events        repository.EventRepository
	cache         usecase.SnapshotCache
	chat          usecase.ChatSink
	notifier      usecase.UpdateNotifier
	calc          domain.Calculator
	logger        *zap.Logger
	now           func() time.Time
}

func New(deps Deps) *UseCase {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &UseCase{
		sessions:      deps.Sessions,
		orders:        deps.Orders,
		payments:      deps.Payments,
		disbursements: deps.Disbursements,
		events:        deps.Events,
		cache:         deps.Cache,
		chat:          deps.Chat,
		notifier:      deps.Notifier,
		calc:          deps.Calculator,
		logger:        deps.Logger,
		now:           deps.Now,
	}
}

// CreateInput carries the fields a creator supplies when opening a session.
type CreateInput struct {
	CircleID        string
	CreatorName     string
	Title           string
	Description     string
	LocationName    string
	Latitude        float64
	Longitude       float64
	DurationMinutes int
	MaxTitip        int
}

// Create opens a new session owned by the acting user.
func (uc *UseCase) Create(ctx context.Context, actorID string, input CreateInput) (*domain.Session, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title must not be blank")
	}
	if input.CircleID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "circle id is required")
	}
	if input.DurationMinutes <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "duration must be positive")
	}
	if input.MaxTitip <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "max titip must be positive")
	}

	session := &domain.Session{
		CircleID:        input.CircleID,
		CreatorID:       actorID,
		CreatorName:     input.CreatorName,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		LocationName:    input.LocationName,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		DurationMinutes: input.DurationMinutes,
		MaxTitip:        input.MaxTitip,
		Status:          domain.SessionStatusOpen,
	}

	created, err := uc.sessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, created.ID, actorID, domain.EventSessionCreated, nil)
	uc.notify(ctx, created.ID, "session", domain.EventSessionCreated)
	return created, nil
}

// List returns sessions matching the filter.
func (uc *UseCase) List(ctx context.Context, filter repository.SessionFilter) ([]domain.Session, error) {
	return uc.sessions.List(ctx, filter)
}

// Load assembles a fresh, internally consistent snapshot of one session from
// its three child collections. The snapshot is rebuilt wholesale on every
// call; concurrent loads each produce their own consistent view.
func (uc *UseCase) Load(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, sessionID)
		if err != nil {
			uc.logger.Warn("snapshot cache read failed", zap.String("session_id", sessionID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	orders, err := uc.orders.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	payments, err := uc.payments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	disbursements, err := uc.disbursements.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.SessionSnapshot{
		Session:       *session,
		Orders:        orders,
		Payments:      payments,
		Disbursements: disbursements,
		LoadedAt:      uc.now(),
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, snapshot); err != nil {
			uc.logger.Warn("snapshot cache write failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return snapshot, nil
}

// Summary is the per-viewer settlement readout screens bind to.
type Summary struct {
	GoodsTotal      int64 `json:"goods_total"`
	PaymentFee      int64 `json:"payment_fee"`
	GrandTotal      int64 `json:"grand_total"`
	CanPay          bool  `json:"can_pay"`
	CollectedTotal  int64 `json:"collected_total"`
	DisbursementFee int64 `json:"disbursement_fee"`
	NetAmount       int64 `json:"net_amount"`
	CanDisburse     bool  `json:"can_disburse"`
	Expired         bool  `json:"expired"`
}

// Summarize derives every money figure and gate for one viewer from a
// snapshot. Pure over the snapshot; safe to recompute after every update.
func (uc *UseCase) Summarize(snapshot *domain.SessionSnapshot, viewerID string) (*Summary, error) {
	goods, err := domain.UserGoodsTotal(snapshot, viewerID)
	if err != nil {
		return nil, err
	}
	grand, err := domain.UserGrandTotal(snapshot, viewerID)
	if err != nil {
		return nil, err
	}
	canPay, err := domain.CanUserPay(snapshot, viewerID)
	if err != nil {
		return nil, err
	}
	collected, err := domain.TotalCollectedGoodsPrice(snapshot)
	if err != nil {
		return nil, err
	}
	net, err := uc.calc.NetDisbursementAmount(snapshot)
	if err != nil {
		return nil, err
	}
	canDisburse, err := uc.calc.CanDisburse(snapshot, viewerID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		GoodsTotal:      goods,
		GrandTotal:      grand,
		CanPay:          canPay,
		CollectedTotal:  collected,
		DisbursementFee: uc.calc.DisbursementFee(),
		NetAmount:       net,
		CanDisburse:     canDisburse,
		Expired:         snapshot.Session.IsExpired(uc.now()),
	}
	if goods > 0 {
		summary.PaymentFee = domain.PaymentFee(goods)
	}
	return summary, nil
}

// Events returns the most recent lifecycle log entries.
func (uc *UseCase) Events(ctx context.Context, sessionID string, limit int) ([]domain.SessionEvent, error) {
	if uc.events == nil {
		return nil, nil
	}
	return uc.events.ListBySession(ctx, sessionID, limit)
}

func (uc *UseCase) recordEvent(ctx context.Context, sessionID, actorID, name string, payload []byte) {
	if uc.events == nil {
		return
	}
	event := &domain.SessionEvent{
		SessionID: sessionID,
		ActorID:   actorID,
		Name:      name,
		Payload:   payload,
	}
	if err := uc.events.Append(ctx, event); err != nil {
		uc.logger.Warn("event append failed",
			zap.String("session_id", sessionID),
			zap.String("event", name),
			zap.Error(err))
	}
}

func (uc *UseCase) postChat(ctx context.Context, sessionID, body string) {
	if uc.chat == nil {
		return
	}
	if err := uc.chat.PostSystemMessage(ctx, sessionID, body); err != nil {
		uc.logger.Warn("system message delivery failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (uc *UseCase) notify(ctx context.Context, sessionID, kind, event string) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.SessionUpdated(ctx, sessionID, kind, event)
}
