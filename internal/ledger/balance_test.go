package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

func entry(id uint, at time.Time, txType model.TransactionType, kind model.ActionKind, amount float64) model.DrawerTransaction {
	return model.DrawerTransaction{
		ID:         id,
		SessionID:  1,
		Type:       txType,
		Kind:       kind,
		Amount:     decimal.NewFromFloat(amount),
		OccurredAt: at,
	}
}

func TestReplayBasicSequence(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		entry(1, base, model.TxOpen, model.ActionNormal, 100),
		entry(2, base.Add(time.Minute), model.TxCashSale, model.ActionNormal, 50),
		entry(3, base.Add(2*time.Minute), model.TxExpense, model.ActionNormal, 20),
		entry(4, base.Add(3*time.Minute), model.TxReturn, model.ActionNormal, 10),
	}

	balance, snapshots, err := Replay(entries)
	require.NoError(t, err)
	assert.Equal(t, "120", balance.String())
	require.Len(t, snapshots, 4)
	assert.Equal(t, "100", snapshots[0].String())
	assert.Equal(t, "150", snapshots[1].String())
	assert.Equal(t, "130", snapshots[2].String())
	assert.Equal(t, "120", snapshots[3].String())
}

func TestReplayEmptyLedger(t *testing.T) {
	_, _, err := Replay(nil)
	assert.ErrorIs(t, err, ErrEmptyLedger)
}

func TestReplayFirstEntryMustBeOpening(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		entry(1, base, model.TxCashSale, model.ActionNormal, 50),
		entry(2, base.Add(time.Minute), model.TxOpen, model.ActionNormal, 100),
	}
	// The sale sorts first, so the ledger is malformed.
	_, _, err := Replay(entries)
	assert.ErrorIs(t, err, ErrMalformedLedger)
}

func TestReplaySortsOutOfOrderInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		entry(3, base.Add(2*time.Minute), model.TxExpense, model.ActionNormal, 20),
		entry(1, base, model.TxOpen, model.ActionNormal, 100),
		entry(2, base.Add(time.Minute), model.TxCashSale, model.ActionNormal, 50),
	}

	balance, _, err := Replay(entries)
	require.NoError(t, err)
	assert.Equal(t, "130", balance.String())

	// Input slice must remain untouched.
	assert.Equal(t, uint(3), entries[0].ID)
}

func TestReplaySameTimestampOrdersByID(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		entry(2, at, model.TxCashSale, model.ActionNormal, 50),
		entry(1, at, model.TxOpen, model.ActionNormal, 100),
	}
	balance, snapshots, err := Replay(entries)
	require.NoError(t, err)
	assert.Equal(t, "150", balance.String())
	assert.Equal(t, "100", snapshots[0].String())
}

func TestReplayIsIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		entry(1, base, model.TxOpen, model.ActionNormal, 100),
		entry(2, base.Add(time.Minute), model.TxSupplierPayment, model.ActionNormal, 30),
		entry(3, base.Add(2*time.Minute), model.TxCashReceipt, model.ActionNormal, 25),
	}

	first, _, err := Replay(entries)
	require.NoError(t, err)
	second, _, err := Replay(entries)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestEntryDeltaSignRules(t *testing.T) {
	at := time.Now()

	// Credit types contribute |amount| even when recorded negative.
	assert.Equal(t, "50", EntryDelta(entry(1, at, model.TxCashSale, model.ActionNormal, -50)).String())
	assert.Equal(t, "30", EntryDelta(entry(2, at, model.TxCashIn, model.ActionNormal, 30)).String())
	assert.Equal(t, "25", EntryDelta(entry(3, at, model.TxCashReceipt, model.ActionNormal, 25)).String())

	// Debit types contribute -|amount| even when recorded positive.
	assert.Equal(t, "-20", EntryDelta(entry(4, at, model.TxExpense, model.ActionNormal, 20)).String())
	assert.Equal(t, "-15", EntryDelta(entry(5, at, model.TxSupplierPayment, model.ActionNormal, 15)).String())
	assert.Equal(t, "-10", EntryDelta(entry(6, at, model.TxReturn, model.ActionNormal, -10)).String())
	assert.Equal(t, "-40", EntryDelta(entry(7, at, model.TxCashOut, model.ActionNormal, 40)).String())
	assert.Equal(t, "-60", EntryDelta(entry(8, at, model.TxSalaryWithdrawal, model.ActionNormal, 60)).String())
}

func TestEntryDeltaModificationKeepsRawSign(t *testing.T) {
	at := time.Now()
	// A modification is an already-signed delta; the type plays no role.
	assert.Equal(t, "-15", EntryDelta(entry(1, at, model.TxCashSale, model.ActionModification, -15)).String())
	assert.Equal(t, "15", EntryDelta(entry(2, at, model.TxExpense, model.ActionModification, 15)).String())
}

func TestEntryDeltaUnknownTypeIsNeutral(t *testing.T) {
	e := entry(1, time.Now(), model.TransactionType("gift_card"), model.ActionNormal, 99)
	assert.True(t, EntryDelta(e).IsZero())
}

func TestEntryDeltaDuplicateOpeningIgnored(t *testing.T) {
	e := entry(2, time.Now(), model.TxOpen, model.ActionNormal, 500)
	assert.True(t, EntryDelta(e).IsZero())
}
