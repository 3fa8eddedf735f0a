package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Mousaahmad63636/POS-sub001/internal/dto"
	"github.com/Mousaahmad63636/POS-sub001/internal/events"
	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
	"github.com/Mousaahmad63636/POS-sub001/internal/ledger"
	"github.com/Mousaahmad63636/POS-sub001/internal/model"
	"github.com/Mousaahmad63636/POS-sub001/internal/repository"
)

// DrawerService governs the session lifecycle (open → closed) and every cash
// movement against the ledger. Mutations are serialized per register through
// an operation guard plus, when Redis is configured, a cross-process register
// lock. Reads never take the lock: they work on one atomically fetched
// snapshot of the transaction list.
type DrawerService interface {
	OpenDrawer(ctx context.Context, cashierID, cashierName string, req dto.OpenDrawerRequest) (*dto.DrawerSessionResponse, error)
	AddCash(ctx context.Context, req dto.CashMovementRequest) (*dto.DrawerSessionResponse, error)
	RemoveCash(ctx context.Context, req dto.CashMovementRequest) (*dto.DrawerSessionResponse, error)
	RecordTransaction(ctx context.Context, req dto.RecordTransactionRequest) (*dto.DrawerSessionResponse, error)
	CloseDrawer(ctx context.Context, req dto.CloseDrawerRequest) (*dto.CloseDrawerResponse, error)

	GetActiveSession(ctx context.Context, registerID int) (*dto.DrawerSessionResponse, error)
	GetSessionReport(ctx context.Context, sessionID uint) (*dto.SessionReportResponse, error)
	GetFinancialSummary(ctx context.Context, from, to time.Time) (*ledger.FinancialSummary, error)
	GetDriftReport(ctx context.Context, registerID int) (*ledger.DriftReport, error)
	// Reconcile overwrites the persisted balance with the replayed one.
	// Drift detection never does this automatically.
	Reconcile(ctx context.Context, registerID int) (*dto.DrawerSessionResponse, error)
	ListHistoricalSessions(ctx context.Context, from, to time.Time) ([]dto.DrawerSessionResponse, error)
}

// CloseNotifier is invoked after a successful close so supporting surfaces
// (summary email job) can react. Wired in the composition root.
type CloseNotifier func(ctx context.Context, resp *dto.CloseDrawerResponse)

type drawerService struct {
	repo     repository.DrawerRepository
	bus      events.Bus
	locker   *infra.RegisterLocker
	notify   CloseNotifier
	guardCfg infra.OpGuardConfig

	mu     sync.Mutex
	guards map[int]*infra.OpGuard // one guard per register
}

func NewDrawerService(repo repository.DrawerRepository, bus events.Bus, locker *infra.RegisterLocker, guardCfg infra.OpGuardConfig, notify CloseNotifier) DrawerService {
	return &drawerService{
		repo:     repo,
		bus:      bus,
		locker:   locker,
		notify:   notify,
		guardCfg: guardCfg,
		guards:   make(map[int]*infra.OpGuard),
	}
}

// guard returns the per-register operation guard, creating it on first use.
func (s *drawerService) guard(registerID int) *infra.OpGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guards[registerID]
	if !ok {
		g = infra.NewOpGuard(s.guardCfg)
		s.guards[registerID] = g
	}
	return g
}

// withMutationLock runs fn under the in-process guard and the cross-process
// register lock. Lock contention on either layer surfaces as infra.ErrBusy.
func (s *drawerService) withMutationLock(ctx context.Context, registerID int, fn func() error) error {
	return s.guard(registerID).WithExclusiveAccess(ctx, func() error {
		release, err := s.locker.Acquire(ctx, registerID)
		if err != nil {
			return err
		}
		defer release()
		return fn()
	})
}

// ── OpenDrawer ────────────────────────────────────────────────────────────────

func (s *drawerService) OpenDrawer(ctx context.Context, cashierID, cashierName string, req dto.OpenDrawerRequest) (*dto.DrawerSessionResponse, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, ledger.ErrInvalidAmount
	}

	var session *model.DrawerSession
	err := s.withMutationLock(ctx, req.RegisterID, func() error {
		existing, err := s.repo.FindOpenSession(ctx, req.RegisterID)
		if err != nil {
			return infra.Transient(err)
		}
		if existing != nil {
			return ledger.ErrSessionAlreadyOpen
		}

		now := time.Now()
		session = &model.DrawerSession{
			RegisterID:     req.RegisterID,
			CashierID:      cashierID,
			CashierName:    cashierName,
			OpeningBalance: req.OpeningBalance,
			CurrentBalance: req.OpeningBalance,
			Status:         model.SessionOpen,
			OpenedAt:       now,
		}
		// The opening entry seeds the ledger; every replay starts here.
		// Session and entry commit together: a transient failure rolls both
		// back, so the guard's retry re-enters with a clean register instead
		// of finding a half-created session.
		opening := &model.DrawerTransaction{
			Type:         model.TxOpen,
			Kind:         model.ActionNormal,
			Amount:       req.OpeningBalance,
			Description:  "Session opened by " + cashierName,
			BalanceAfter: req.OpeningBalance,
			OccurredAt:   now,
		}
		if err := s.repo.OpenSession(ctx, session, opening); err != nil {
			return infra.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicDrawerUpdated, SessionID: session.ID, Detail: "opened"})
	log.Info().Uint("session_id", session.ID).Int("register_id", req.RegisterID).Str("cashier", cashierName).Msg("drawer: session opened")

	resp := toSessionResponse(session, nil)
	return &resp, nil
}

// ── Cash movements ────────────────────────────────────────────────────────────

func (s *drawerService) AddCash(ctx context.Context, req dto.CashMovementRequest) (*dto.DrawerSessionResponse, error) {
	return s.append(ctx, req.RegisterID, model.TxCashIn, model.ActionNormal, req.Amount, req.Description)
}

func (s *drawerService) RemoveCash(ctx context.Context, req dto.CashMovementRequest) (*dto.DrawerSessionResponse, error) {
	return s.append(ctx, req.RegisterID, model.TxCashOut, model.ActionNormal, req.Amount, req.Description)
}

func (s *drawerService) RecordTransaction(ctx context.Context, req dto.RecordTransactionRequest) (*dto.DrawerSessionResponse, error) {
	kind := model.ActionKind(req.Kind)
	if kind == "" {
		kind = model.ActionNormal
	}
	resp, err := s.append(ctx, req.RegisterID, model.TransactionType(req.Type), kind, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	if model.TransactionType(req.Type) == model.TxSupplierPayment {
		s.bus.Publish(ctx, events.Event{Topic: events.TopicSupplierPaymentOccurred, SessionID: resp.SessionID, Detail: req.Description})
	}
	return resp, nil
}

// append validates, applies the sign rule, persists entry + balance
// atomically, and publishes the change. Nothing is mutated on a failed
// validation: checks complete before any write.
func (s *drawerService) append(ctx context.Context, registerID int, txType model.TransactionType, kind model.ActionKind, amount decimal.Decimal, description string) (*dto.DrawerSessionResponse, error) {
	if kind == model.ActionNormal && !amount.IsPositive() {
		return nil, ledger.ErrInvalidAmount
	}
	if kind == model.ActionModification && amount.IsZero() {
		return nil, ledger.ErrInvalidAmount
	}

	var session *model.DrawerSession
	err := s.withMutationLock(ctx, registerID, func() error {
		var err error
		session, err = s.repo.FindOpenSession(ctx, registerID)
		if err != nil {
			return infra.Transient(err)
		}
		if session == nil {
			return ledger.ErrNoActiveSession
		}

		entry := model.DrawerTransaction{
			SessionID:   session.ID,
			Type:        txType,
			Kind:        kind,
			Amount:      amount,
			Description: description,
			OccurredAt:  time.Now(),
		}
		newBalance := session.CurrentBalance.Add(ledger.EntryDelta(entry))
		if newBalance.IsNegative() {
			return ledger.ErrInsufficientFunds
		}

		entry.BalanceAfter = newBalance
		session.CurrentBalance = newBalance
		if err := s.repo.AppendTransaction(ctx, session, &entry); err != nil {
			return infra.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicTransactionChanged, SessionID: session.ID, Detail: string(txType)})
	s.bus.Publish(ctx, events.Event{Topic: events.TopicDrawerUpdated, SessionID: session.ID})

	drift := s.checkDrift(ctx, session)
	resp := toSessionResponse(session, drift)
	return &resp, nil
}

// ── CloseDrawer ───────────────────────────────────────────────────────────────

func (s *drawerService) CloseDrawer(ctx context.Context, req dto.CloseDrawerRequest) (*dto.CloseDrawerResponse, error) {
	if req.CountedAmount.IsNegative() {
		return nil, ledger.ErrInvalidAmount
	}

	var (
		session *model.DrawerSession
		entries []model.DrawerTransaction
	)
	err := s.withMutationLock(ctx, req.RegisterID, func() error {
		var err error
		session, err = s.repo.FindOpenSession(ctx, req.RegisterID)
		if err != nil {
			return infra.Transient(err)
		}
		if session == nil {
			return ledger.ErrNoActiveSession
		}

		// Close does not restate history: the difference between counted
		// and running balance is stored on the session, the ledger keeps
		// its recorded amounts.
		now := time.Now()
		difference := req.CountedAmount.Sub(session.CurrentBalance)
		session.Status = model.SessionClosed
		session.CountedAmount = &req.CountedAmount
		session.Difference = &difference
		session.ClosingNotes = req.Notes
		session.ClosedAt = &now
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return infra.Transient(err)
		}

		entries, err = s.repo.ListTransactions(ctx, session.ID)
		if err != nil {
			return infra.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicDrawerUpdated, SessionID: session.ID, Detail: "closed"})

	resp := &dto.CloseDrawerResponse{
		Session:       toSessionResponse(session, nil),
		CountedAmount: *session.CountedAmount,
		Difference:    *session.Difference,
		DurationMins:  int64(session.ClosedAt.Sub(session.OpenedAt).Minutes()),
		Summary:       ledger.Summarize(entries, time.Time{}, time.Time{}),
	}
	log.Info().Uint("session_id", session.ID).Str("difference", resp.Difference.String()).Msg("drawer: session closed")

	if s.notify != nil {
		s.notify(ctx, resp)
	}
	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *drawerService) GetActiveSession(ctx context.Context, registerID int) (*dto.DrawerSessionResponse, error) {
	session, err := s.repo.FindOpenSession(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ledger.ErrNoActiveSession
	}
	resp := toSessionResponse(session, s.checkDrift(ctx, session))
	return &resp, nil
}

func (s *drawerService) GetSessionReport(ctx context.Context, sessionID uint) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	computed, snapshots, err := ledger.Replay(entries)
	if err != nil {
		return nil, err
	}

	txs := make([]dto.TransactionResponse, len(entries))
	for i, e := range entries {
		txs[i] = dto.TransactionResponse{
			ID:           e.ID,
			Type:         string(e.Type),
			Kind:         string(e.Kind),
			Amount:       e.Amount,
			Description:  e.Description,
			BalanceAfter: snapshots[i],
			OccurredAt:   e.OccurredAt.Format(time.RFC3339),
		}
	}

	drift := ledger.DetectDrift(session.CurrentBalance, computed)
	return &dto.SessionReportResponse{
		Session: toSessionResponse(session, &drift),
		Summary: ledger.Summarize(entries, time.Time{}, time.Time{}),
		Drift:   drift,
		Entries: txs,
	}, nil
}

func (s *drawerService) GetFinancialSummary(ctx context.Context, from, to time.Time) (*ledger.FinancialSummary, error) {
	entries, err := s.repo.ListTransactionsByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary := ledger.Summarize(entries, from, to)
	return &summary, nil
}

func (s *drawerService) GetDriftReport(ctx context.Context, registerID int) (*ledger.DriftReport, error) {
	session, err := s.repo.FindOpenSession(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ledger.ErrNoActiveSession
	}
	entries, err := s.repo.ListTransactions(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	computed, _, err := ledger.Replay(entries)
	if err != nil {
		return nil, err
	}
	report := ledger.DetectDrift(session.CurrentBalance, computed)
	return &report, nil
}

func (s *drawerService) Reconcile(ctx context.Context, registerID int) (*dto.DrawerSessionResponse, error) {
	var session *model.DrawerSession
	err := s.withMutationLock(ctx, registerID, func() error {
		var err error
		session, err = s.repo.FindOpenSession(ctx, registerID)
		if err != nil {
			return infra.Transient(err)
		}
		if session == nil {
			return ledger.ErrNoActiveSession
		}
		entries, err := s.repo.ListTransactions(ctx, session.ID)
		if err != nil {
			return infra.Transient(err)
		}
		computed, _, err := ledger.Replay(entries)
		if err != nil {
			return err
		}
		if session.CurrentBalance.Equal(computed) {
			return nil
		}
		log.Warn().
			Uint("session_id", session.ID).
			Str("persisted", session.CurrentBalance.String()).
			Str("computed", computed.String()).
			Msg("drawer: reconciling persisted balance to ledger")
		session.CurrentBalance = computed
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return infra.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Topic: events.TopicDrawerUpdated, SessionID: session.ID, Detail: "reconciled"})
	resp := toSessionResponse(session, nil)
	return &resp, nil
}

func (s *drawerService) ListHistoricalSessions(ctx context.Context, from, to time.Time) ([]dto.DrawerSessionResponse, error) {
	sessions, err := s.repo.ListSessions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.DrawerSessionResponse, len(sessions))
	for i := range sessions {
		resp[i] = toSessionResponse(&sessions[i], nil)
	}
	return resp, nil
}

// SummaryRefresher returns a debounced handler that re-runs the aggregator
// over a fresh snapshot once a burst of drawer updates settles. The sink
// receives the recomputed totals; intermediate events of the burst carry no
// information since the refetch sees the final state anyway.
func SummaryRefresher(svc DrawerService, delay time.Duration, sink func(ctx context.Context, ev events.Event, summary ledger.FinancialSummary)) events.Handler {
	return events.Debounce(delay, func(ctx context.Context, ev events.Event) {
		summary, err := svc.GetFinancialSummary(ctx, time.Time{}, time.Time{})
		if err != nil {
			log.Warn().Err(err).Uint("session_id", ev.SessionID).Msg("drawer: summary refresh failed")
			return
		}
		sink(ctx, ev, *summary)
	})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// checkDrift replays the ledger after a mutation and reports drift as data.
// Failures here never fail the operation that triggered the check.
func (s *drawerService) checkDrift(ctx context.Context, session *model.DrawerSession) *ledger.DriftReport {
	entries, err := s.repo.ListTransactions(ctx, session.ID)
	if err != nil {
		log.Warn().Err(err).Uint("session_id", session.ID).Msg("drawer: drift check skipped")
		return nil
	}
	computed, _, err := ledger.Replay(entries)
	if err != nil {
		log.Warn().Err(err).Uint("session_id", session.ID).Msg("drawer: drift check skipped")
		return nil
	}
	report := ledger.DetectDrift(session.CurrentBalance, computed)
	if report.HasDrift {
		log.Warn().
			Uint("session_id", session.ID).
			Str("magnitude", report.Magnitude.String()).
			Str("direction", string(report.Direction)).
			Msg("drawer: drift detected")
	}
	return &report
}

func toSessionResponse(s *model.DrawerSession, drift *ledger.DriftReport) dto.DrawerSessionResponse {
	resp := dto.DrawerSessionResponse{
		SessionID:      s.ID,
		RegisterID:     s.RegisterID,
		CashierID:      s.CashierID,
		CashierName:    s.CashierName,
		OpeningBalance: s.OpeningBalance,
		CurrentBalance: s.CurrentBalance,
		Status:         string(s.Status),
		OpenedAt:       s.OpenedAt.Format(time.RFC3339),
		Drift:          drift,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
