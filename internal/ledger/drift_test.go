package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDetectDriftExactMatch(t *testing.T) {
	report := DetectDrift(decimal.NewFromInt(120), decimal.NewFromInt(120))
	assert.False(t, report.HasDrift)
	assert.Equal(t, DriftNone, report.Direction)
	assert.True(t, report.Magnitude.IsZero())
}

func TestDetectDriftWithinEpsilonIsRounding(t *testing.T) {
	// 120 vs 120.004 differs by less than one cent — not drift.
	report := DetectDrift(decimal.NewFromInt(120), decimal.NewFromFloat(120.004))
	assert.False(t, report.HasDrift)
	assert.Equal(t, DriftNone, report.Direction)
}

func TestDetectDriftSurplus(t *testing.T) {
	report := DetectDrift(decimal.NewFromFloat(125.50), decimal.NewFromInt(120))
	assert.True(t, report.HasDrift)
	assert.Equal(t, DriftSurplus, report.Direction)
	assert.Equal(t, "5.5", report.Magnitude.String())
}

func TestDetectDriftShortage(t *testing.T) {
	report := DetectDrift(decimal.NewFromInt(115), decimal.NewFromInt(120))
	assert.True(t, report.HasDrift)
	assert.Equal(t, DriftShortage, report.Direction)
	assert.Equal(t, "5", report.Magnitude.String())
}

func TestDetectDriftKeepsBothBalances(t *testing.T) {
	report := DetectDrift(decimal.NewFromInt(115), decimal.NewFromInt(120))
	assert.Equal(t, "115", report.Persisted.String())
	assert.Equal(t, "120", report.Computed.String())
}
