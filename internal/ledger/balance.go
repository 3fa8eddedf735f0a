package ledger

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// Replay recomputes a session's running balance from its full transaction
// list. It returns the final balance plus the balance-after snapshot for each
// entry, in ledger order. The input may arrive in any order; Replay sorts by
// (OccurredAt, ID) so concurrent out-of-order fetches always produce the same
// result. Calling Replay twice on the same entries yields identical output.
func Replay(entries []model.DrawerTransaction) (decimal.Decimal, []decimal.Decimal, error) {
	if len(entries) == 0 {
		return decimal.Zero, nil, ErrEmptyLedger
	}

	ordered := make([]model.DrawerTransaction, len(entries))
	copy(ordered, entries)
	sortEntries(ordered)

	if ordered[0].Type != model.TxOpen {
		return decimal.Zero, nil, ErrMalformedLedger
	}

	balance := ordered[0].Amount
	snapshots := make([]decimal.Decimal, len(ordered))
	snapshots[0] = balance

	for i, e := range ordered[1:] {
		balance = balance.Add(EntryDelta(e))
		snapshots[i+1] = balance
	}
	return balance, snapshots, nil
}

// EntryDelta maps one entry to its effect on the running balance.
// Modifications already carry a signed delta; normal entries contribute their
// absolute amount with the sign decided by the transaction type. The service
// layer applies the same rule when appending, so persisted balances and
// replayed balances agree by construction.
func EntryDelta(e model.DrawerTransaction) decimal.Decimal {
	if e.Kind == model.ActionModification {
		return e.Amount
	}
	switch e.Type {
	case model.TxCashSale, model.TxCashIn, model.TxCashReceipt:
		return e.Amount.Abs()
	case model.TxExpense, model.TxSupplierPayment, model.TxReturn, model.TxCashOut, model.TxSalaryWithdrawal:
		return e.Amount.Abs().Neg()
	case model.TxOpen:
		// A second opening entry is meaningless; ignore rather than reseed.
		log.Warn().Uint("transaction_id", e.ID).Msg("ledger: duplicate opening entry ignored")
		return decimal.Zero
	default:
		log.Warn().Uint("transaction_id", e.ID).Str("type", string(e.Type)).Msg("ledger: unknown transaction type, balance unchanged")
		return decimal.Zero
	}
}

// sortEntries orders by occurrence time with the insertion id as tie-break.
// Amount and type never participate in ordering.
func sortEntries(entries []model.DrawerTransaction) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].OccurredAt.Before(entries[j].OccurredAt)
	})
}
