package ledger

import "github.com/shopspring/decimal"

// DriftDirection tells which side holds more money.
type DriftDirection string

const (
	DriftNone DriftDirection = "none"
	// DriftSurplus: the persisted balance exceeds the replayed one.
	DriftSurplus DriftDirection = "surplus"
	// DriftShortage: the replayed balance exceeds the persisted one.
	DriftShortage DriftDirection = "shortage"
)

// driftEpsilon absorbs rounding noise: 0.01 currency units.
var driftEpsilon = decimal.New(1, -2)

// DriftReport describes the discrepancy between a session's persisted
// current balance and the balance replayed from its ledger. It is advisory:
// callers decide whether to trigger a reconciliation write.
type DriftReport struct {
	HasDrift  bool            `json:"has_drift"`
	Magnitude decimal.Decimal `json:"magnitude"`
	Direction DriftDirection  `json:"direction"`
	Persisted decimal.Decimal `json:"persisted"`
	Computed  decimal.Decimal `json:"computed"`
}

// DetectDrift compares the persisted balance against the replayed balance.
// Differences within the epsilon are treated as rounding, not drift.
func DetectDrift(persisted, computed decimal.Decimal) DriftReport {
	diff := persisted.Sub(computed)
	report := DriftReport{
		Magnitude: diff.Abs(),
		Direction: DriftNone,
		Persisted: persisted,
		Computed:  computed,
	}
	if diff.Abs().LessThanOrEqual(driftEpsilon) {
		return report
	}
	report.HasDrift = true
	if diff.IsPositive() {
		report.Direction = DriftSurplus
	} else {
		report.Direction = DriftShortage
	}
	return report
}
