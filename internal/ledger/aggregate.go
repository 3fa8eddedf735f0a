package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// FinancialSummary holds the categorized totals derived from a transaction
// set. It is never persisted; the ledger is the source of truth and the
// summary is recomputed on demand.
type FinancialSummary struct {
	Sales            decimal.Decimal `json:"sales"`
	Returns          decimal.Decimal `json:"returns"`
	Expenses         decimal.Decimal `json:"expenses"`
	SupplierPayments decimal.Decimal `json:"supplier_payments"`
	DebtPayments     decimal.Decimal `json:"debt_payments"`
	NetSales         decimal.Decimal `json:"net_sales"`
	NetCashflow      decimal.Decimal `json:"net_cashflow"`
	NetEarnings      decimal.Decimal `json:"net_earnings"`
}

// Summarize aggregates categorized totals over a transaction set, optionally
// restricted to [from, to] inclusive (zero values disable either bound).
//
// Normal entries contribute |amount| to their category; modification entries
// contribute their raw signed delta, so a −15.00 correction to a 100.00 sale
// moves total sales by exactly −15.00. This keeps the sum of per-entry deltas
// equal to finalBalance − openingBalance.
//
// The identities NetSales = Sales−Returns, NetCashflow = Sales−Expenses−Returns
// and NetEarnings = NetSales−Expenses hold for any input, including an empty
// set. Debt payments count toward sales; supplier payments count inside
// expenses and are also reported on their own.
func Summarize(entries []model.DrawerTransaction, from, to time.Time) FinancialSummary {
	s := FinancialSummary{
		Sales:            decimal.Zero,
		Returns:          decimal.Zero,
		Expenses:         decimal.Zero,
		SupplierPayments: decimal.Zero,
		DebtPayments:     decimal.Zero,
	}

	for _, e := range entries {
		if !inRange(e.OccurredAt, from, to) {
			continue
		}

		amount := e.Amount.Abs()
		if e.Kind == model.ActionModification {
			amount = e.Amount
		}

		switch Categorize(e) {
		case CategorySale:
			s.Sales = s.Sales.Add(amount)
		case CategoryDebtPayment:
			s.DebtPayments = s.DebtPayments.Add(amount)
			s.Sales = s.Sales.Add(amount)
		case CategoryReturn:
			s.Returns = s.Returns.Add(amount)
		case CategoryExpense:
			s.Expenses = s.Expenses.Add(amount)
		case CategorySupplierPayment:
			s.SupplierPayments = s.SupplierPayments.Add(amount)
			s.Expenses = s.Expenses.Add(amount)
		case CategoryOther:
			// Opening entries and unknown types stay out of the totals.
		}
	}

	s.NetSales = s.Sales.Sub(s.Returns)
	s.NetCashflow = s.Sales.Sub(s.Expenses).Sub(s.Returns)
	s.NetEarnings = s.NetSales.Sub(s.Expenses)
	return s
}

// inRange checks the inclusive date filter; zero bounds are open-ended.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
