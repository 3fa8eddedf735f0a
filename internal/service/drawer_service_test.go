package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mousaahmad63636/POS-sub001/internal/dto"
	"github.com/Mousaahmad63636/POS-sub001/internal/events"
	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
	"github.com/Mousaahmad63636/POS-sub001/internal/ledger"
	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// fakeDrawerRepo is an in-memory DrawerRepository for unit tests.
type fakeDrawerRepo struct {
	mu       sync.Mutex
	nextSess uint
	nextTx   uint
	sessions map[uint]*model.DrawerSession
	entries  []model.DrawerTransaction
	// openFailures makes the next N OpenSession calls fail without
	// persisting anything, like a rolled-back database transaction.
	openFailures int
}

func newFakeDrawerRepo() *fakeDrawerRepo {
	return &fakeDrawerRepo{sessions: make(map[uint]*model.DrawerSession)}
}

func (f *fakeDrawerRepo) OpenSession(_ context.Context, s *model.DrawerSession, opening *model.DrawerTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openFailures > 0 {
		f.openFailures--
		return assert.AnError
	}
	f.nextSess++
	s.ID = f.nextSess
	cp := *s
	f.sessions[s.ID] = &cp

	f.nextTx++
	opening.ID = f.nextTx
	opening.SessionID = s.ID
	f.entries = append(f.entries, *opening)
	return nil
}

func (f *fakeDrawerRepo) FindSessionByID(_ context.Context, id uint) (*model.DrawerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *s
	return &cp, nil
}

func (f *fakeDrawerRepo) FindOpenSession(_ context.Context, registerID int) (*model.DrawerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.RegisterID == registerID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDrawerRepo) UpdateSession(_ context.Context, s *model.DrawerSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeDrawerRepo) ListSessions(_ context.Context, from, to time.Time) ([]model.DrawerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DrawerSession
	for _, s := range f.sessions {
		if !from.IsZero() && s.OpenedAt.Before(from) {
			continue
		}
		if !to.IsZero() && s.OpenedAt.After(to) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeDrawerRepo) AppendTransaction(_ context.Context, s *model.DrawerSession, t *model.DrawerTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTx++
	t.ID = f.nextTx
	f.entries = append(f.entries, *t)
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeDrawerRepo) ListTransactions(_ context.Context, sessionID uint) ([]model.DrawerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DrawerTransaction
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDrawerRepo) ListTransactionsByDateRange(_ context.Context, from, to time.Time) ([]model.DrawerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DrawerTransaction
	for _, e := range f.entries {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// tamper overwrites the persisted running balance, simulating a crashed write.
func (f *fakeDrawerRepo) tamper(sessionID uint, balance decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID].CurrentBalance = balance
}

func newTestService(repo *fakeDrawerRepo, notify CloseNotifier) DrawerService {
	return NewDrawerService(repo, events.NewMemoryBus(), infra.NewRegisterLocker(nil), infra.OpGuardConfig{
		AcquireTimeout: 100 * time.Millisecond,
		MaxRetries:     2,
		BaseDelay:      time.Millisecond,
	}, notify)
}

func openTestDrawer(t *testing.T, svc DrawerService, registerID int, opening float64) *dto.DrawerSessionResponse {
	t.Helper()
	resp, err := svc.OpenDrawer(context.Background(), "u-1", "Maya Cashier", dto.OpenDrawerRequest{
		RegisterID:     registerID,
		OpeningBalance: decimal.NewFromFloat(opening),
	})
	require.NoError(t, err)
	return resp
}

func TestOpenDrawerCreatesSessionAndOpeningEntry(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)

	resp := openTestDrawer(t, svc, 1, 100)

	assert.Equal(t, uint(1), resp.SessionID)
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, "100", resp.CurrentBalance.String())
	assert.Equal(t, "Maya Cashier", resp.CashierName)

	entries, err := repo.ListTransactions(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxOpen, entries[0].Type)
	assert.Equal(t, "100", entries[0].Amount.String())
}

func TestOpenDrawerRejectsSecondOpenSession(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)

	openTestDrawer(t, svc, 1, 100)

	_, err := svc.OpenDrawer(context.Background(), "u-2", "Other", dto.OpenDrawerRequest{
		RegisterID:     1,
		OpeningBalance: decimal.NewFromInt(50),
	})
	assert.ErrorIs(t, err, ledger.ErrSessionAlreadyOpen)
}

func TestOpenDrawerRejectsNegativeOpeningBalance(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)

	_, err := svc.OpenDrawer(context.Background(), "u-1", "Maya", dto.OpenDrawerRequest{
		RegisterID:     1,
		OpeningBalance: decimal.NewFromInt(-10),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestOpenDrawerRetriesAtomicallyOnTransientFailure(t *testing.T) {
	repo := newFakeDrawerRepo()
	repo.openFailures = 1
	svc := newTestService(repo, nil)

	// The first attempt fails and rolls back; the retry must find a clean
	// register and succeed, never a session stranded without its opening entry.
	resp := openTestDrawer(t, svc, 1, 100)
	assert.Equal(t, "open", resp.Status)

	entries, err := repo.ListTransactions(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxOpen, entries[0].Type)

	// The replay-based report works immediately after the retried open.
	report, err := svc.GetDriftReport(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.HasDrift)
}

func TestOpenDrawerSurfacesPersistenceFailureWhenRetriesExhausted(t *testing.T) {
	repo := newFakeDrawerRepo()
	repo.openFailures = 10
	svc := newTestService(repo, nil)

	_, err := svc.OpenDrawer(context.Background(), "u-1", "Maya", dto.OpenDrawerRequest{
		RegisterID:     1,
		OpeningBalance: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, infra.ErrPersistenceFailure)
	assert.NotErrorIs(t, err, ledger.ErrSessionAlreadyOpen)

	// Nothing persisted: the register stays free.
	session, repoErr := repo.FindOpenSession(context.Background(), 1)
	require.NoError(t, repoErr)
	assert.Nil(t, session)
}

func TestAddAndRemoveCashMoveTheBalance(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	openTestDrawer(t, svc, 1, 100)

	resp, err := svc.AddCash(context.Background(), dto.CashMovementRequest{
		RegisterID: 1, Amount: decimal.NewFromInt(40), Description: "change float",
	})
	require.NoError(t, err)
	assert.Equal(t, "140", resp.CurrentBalance.String())

	resp, err = svc.RemoveCash(context.Background(), dto.CashMovementRequest{
		RegisterID: 1, Amount: decimal.NewFromInt(60), Description: "bank drop",
	})
	require.NoError(t, err)
	assert.Equal(t, "80", resp.CurrentBalance.String())
}

func TestRemoveCashRejectsOverdraw(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	openTestDrawer(t, svc, 1, 100)

	_, err := svc.RemoveCash(context.Background(), dto.CashMovementRequest{
		RegisterID: 1, Amount: decimal.NewFromInt(150), Description: "too much",
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// A rejected movement leaves no trace.
	active, err := svc.GetActiveSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "100", active.CurrentBalance.String())
	entries, _ := repo.ListTransactions(context.Background(), active.SessionID)
	assert.Len(t, entries, 1)
}

func TestRecordTransactionAppliesSignRules(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	openTestDrawer(t, svc, 1, 100)

	resp, err := svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(50), Description: "counter sale",
	})
	require.NoError(t, err)
	assert.Equal(t, "150", resp.CurrentBalance.String())

	resp, err = svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "expense", Amount: decimal.NewFromInt(20), Description: "window cleaning",
	})
	require.NoError(t, err)
	assert.Equal(t, "130", resp.CurrentBalance.String())

	resp, err = svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "return", Amount: decimal.NewFromInt(10), Description: "damaged item",
	})
	require.NoError(t, err)
	assert.Equal(t, "120", resp.CurrentBalance.String())
}

func TestRecordTransactionModificationUsesSignedAmount(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	openTestDrawer(t, svc, 1, 100)

	resp, err := svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "cash_sale", Kind: "modification",
		Amount: decimal.NewFromInt(-15), Description: "price correction",
	})
	require.NoError(t, err)
	assert.Equal(t, "85", resp.CurrentBalance.String())
}

func TestRecordTransactionRejectsNonPositiveNormalAmount(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	openTestDrawer(t, svc, 1, 100)

	_, err := svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(-5), Description: "bad",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.RecordTransaction(context.Background(), dto.RecordTransactionRequest{
		RegisterID: 1, Type: "cash_sale", Kind: "modification",
		Amount: decimal.Zero, Description: "no-op",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestMutationsRequireActiveSession(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)

	_, err := svc.AddCash(context.Background(), dto.CashMovementRequest{
		RegisterID: 1, Amount: decimal.NewFromInt(10), Description: "float",
	})
	assert.ErrorIs(t, err, ledger.ErrNoActiveSession)

	_, err = svc.GetActiveSession(context.Background(), 1)
	assert.ErrorIs(t, err, ledger.ErrNoActiveSession)
}

func TestCloseDrawerComputesDifferenceAndSummary(t *testing.T) {
	repo := newFakeDrawerRepo()
	notified := 0
	var notifiedResp *dto.CloseDrawerResponse
	svc := newTestService(repo, func(_ context.Context, resp *dto.CloseDrawerResponse) {
		notified++
		notifiedResp = resp
	})
	openTestDrawer(t, svc, 1, 100)

	ctx := context.Background()
	_, err := svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(50), Description: "sale"})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "expense", Amount: decimal.NewFromInt(20), Description: "cleaning"})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "return", Amount: decimal.NewFromInt(10), Description: "refund"})
	require.NoError(t, err)

	resp, err := svc.CloseDrawer(ctx, dto.CloseDrawerRequest{
		RegisterID:    1,
		CountedAmount: decimal.NewFromInt(115),
	})
	require.NoError(t, err)

	// Running balance was 120; the till held 115.
	assert.Equal(t, "-5", resp.Difference.String())
	assert.Equal(t, "115", resp.CountedAmount.String())
	assert.Equal(t, "closed", resp.Session.Status)
	assert.NotNil(t, resp.Session.ClosedAt)
	assert.Equal(t, "50", resp.Summary.Sales.String())
	assert.Equal(t, "20", resp.Summary.Expenses.String())
	assert.Equal(t, "10", resp.Summary.Returns.String())

	assert.Equal(t, 1, notified)
	require.NotNil(t, notifiedResp)
	assert.Equal(t, resp.Session.SessionID, notifiedResp.Session.SessionID)
}

func TestCloseThenReopenSameRegister(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	first := openTestDrawer(t, svc, 1, 100)

	_, err := svc.CloseDrawer(context.Background(), dto.CloseDrawerRequest{
		RegisterID: 1, CountedAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	second := openTestDrawer(t, svc, 1, 200)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, "200", second.CurrentBalance.String())
}

func TestGetSessionReportReplaysEntries(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	opened := openTestDrawer(t, svc, 1, 100)

	ctx := context.Background()
	_, err := svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(50), Description: "sale"})
	require.NoError(t, err)

	report, err := svc.GetSessionReport(ctx, opened.SessionID)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "100", report.Entries[0].BalanceAfter.String())
	assert.Equal(t, "150", report.Entries[1].BalanceAfter.String())
	assert.False(t, report.Drift.HasDrift)
}

func TestGetDriftReportFlagsTamperedBalance(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	opened := openTestDrawer(t, svc, 1, 100)

	repo.tamper(opened.SessionID, decimal.NewFromInt(130))

	report, err := svc.GetDriftReport(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.HasDrift)
	assert.Equal(t, ledger.DriftSurplus, report.Direction)
	assert.Equal(t, "30", report.Magnitude.String())
}

func TestReconcileRestoresLedgerBalance(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	opened := openTestDrawer(t, svc, 1, 100)

	repo.tamper(opened.SessionID, decimal.NewFromInt(999))

	resp, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "100", resp.CurrentBalance.String())

	report, err := svc.GetDriftReport(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.HasDrift)
}

func TestGetFinancialSummaryAcrossSessions(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	openTestDrawer(t, svc, 1, 100)
	_, err := svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(50), Description: "sale"})
	require.NoError(t, err)
	_, err = svc.CloseDrawer(ctx, dto.CloseDrawerRequest{RegisterID: 1, CountedAmount: decimal.NewFromInt(150)})
	require.NoError(t, err)

	openTestDrawer(t, svc, 2, 200)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 2, Type: "supplier_payment", Amount: decimal.NewFromInt(30), Description: "weekly delivery"})
	require.NoError(t, err)

	summary, err := svc.GetFinancialSummary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "50", summary.Sales.String())
	assert.Equal(t, "30", summary.Expenses.String())
	assert.Equal(t, "30", summary.SupplierPayments.String())
}

func TestSupplierPaymentPublishesEvent(t *testing.T) {
	repo := newFakeDrawerRepo()
	bus := events.NewMemoryBus()
	svc := NewDrawerService(repo, bus, infra.NewRegisterLocker(nil), infra.DefaultOpGuardConfig(), nil)

	var got []events.Event
	bus.Subscribe(events.TopicSupplierPaymentOccurred, func(_ context.Context, ev events.Event) {
		got = append(got, ev)
	})

	ctx := context.Background()
	_, err := svc.OpenDrawer(ctx, "u-1", "Maya", dto.OpenDrawerRequest{RegisterID: 1, OpeningBalance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{
		RegisterID: 1, Type: "supplier_payment", Amount: decimal.NewFromInt(40), Description: "weekly delivery",
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "weekly delivery", got[0].Detail)
}

func TestSummaryRefresherRecomputesAfterBurst(t *testing.T) {
	repo := newFakeDrawerRepo()
	bus := events.NewMemoryBus()
	svc := NewDrawerService(repo, bus, infra.NewRegisterLocker(nil), infra.DefaultOpGuardConfig(), nil)

	type refresh struct {
		ev      events.Event
		summary ledger.FinancialSummary
	}
	refreshed := make(chan refresh, 1)
	bus.Subscribe(events.TopicDrawerUpdated, SummaryRefresher(svc, 20*time.Millisecond,
		func(_ context.Context, ev events.Event, summary ledger.FinancialSummary) {
			select {
			case refreshed <- refresh{ev: ev, summary: summary}:
			default:
			}
		}))

	ctx := context.Background()
	_, err := svc.OpenDrawer(ctx, "u-1", "Maya", dto.OpenDrawerRequest{RegisterID: 1, OpeningBalance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "cash_sale", Amount: decimal.NewFromInt(50), Description: "sale"})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, dto.RecordTransactionRequest{RegisterID: 1, Type: "expense", Amount: decimal.NewFromInt(20), Description: "cleaning"})
	require.NoError(t, err)

	select {
	case got := <-refreshed:
		// The refetch sees the final state of the burst.
		assert.Equal(t, "50", got.summary.Sales.String())
		assert.Equal(t, "20", got.summary.Expenses.String())
	case <-time.After(time.Second):
		t.Fatal("summary refresher never fired")
	}
}

func TestListHistoricalSessions(t *testing.T) {
	repo := newFakeDrawerRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	openTestDrawer(t, svc, 1, 100)
	_, err := svc.CloseDrawer(ctx, dto.CloseDrawerRequest{RegisterID: 1, CountedAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	openTestDrawer(t, svc, 2, 50)

	sessions, err := svc.ListHistoricalSessions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
