package status_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condopapers/internal/status"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func days(n int) time.Time { return today.AddDate(0, 0, n) }

func TestComplianceBoundaries(t *testing.T) {
	p := status.CompliancePolicy()
	require.NoError(t, p.Validate())

	cases := []struct {
		name  string
		delta int
		tier  status.Tier
		state string
		label string
	}{
		{"long expired", -400, status.TierCritical, "expired", "expired 400 days ago"},
		{"expired yesterday", -1, status.TierCritical, "expired", "expired 1 days ago"},
		{"expires today", 0, status.TierCritical, "critical", "expires in 0 days"},
		{"last critical day", 15, status.TierCritical, "critical", "expires in 15 days"},
		{"first warning day", 16, status.TierWarning, "warning", "expires in 16 days"},
		{"last warning day", 60, status.TierWarning, "warning", "expires in 60 days"},
		{"first valid day", 61, status.TierValid, "valid", "valid for 61 days"},
		{"far future", 3650, status.TierValid, "valid", "valid for 3650 days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := status.Classify(p, days(tc.delta), today)
			assert.Equal(t, tc.tier, got.Tier)
			assert.Equal(t, tc.state, got.State)
			assert.Equal(t, tc.label, got.Label)
			assert.Equal(t, tc.delta, got.Days)
		})
	}
}

func TestContractBoundaries(t *testing.T) {
	p := status.ContractPolicy()
	require.NoError(t, p.Validate())

	assert.Equal(t, "expired", status.Classify(p, days(-1), today).State)
	assert.Equal(t, "expired", status.Classify(p, days(-1), today).Label)
	assert.Equal(t, "expiring", status.Classify(p, days(0), today).State)
	got := status.Classify(p, days(30), today)
	assert.Equal(t, "expiring", got.State)
	assert.Equal(t, status.TierWarning, got.Tier)
	assert.Equal(t, "expires in 30 days", got.Label)
	got = status.Classify(p, days(31), today)
	assert.Equal(t, "active", got.State)
	assert.Equal(t, status.TierValid, got.Tier)
	assert.Equal(t, "active", got.Label)
}

func TestPoliciesAreIndependent(t *testing.T) {
	// 20 days out is a compliance warning but an expiring contract; 45 days
	// is still a compliance warning while the contract is active.
	c := status.CompliancePolicy()
	k := status.ContractPolicy()
	assert.Equal(t, "warning", status.Classify(c, days(20), today).State)
	assert.Equal(t, "expiring", status.Classify(k, days(20), today).State)
	assert.Equal(t, "warning", status.Classify(c, days(45), today).State)
	assert.Equal(t, "active", status.Classify(k, days(45), today).State)
}

func TestDaysUntilRoundsUp(t *testing.T) {
	assert.Equal(t, 1, status.DaysUntil(today.Add(time.Minute), today))
	assert.Equal(t, 1, status.DaysUntil(today.Add(24*time.Hour), today))
	assert.Equal(t, 2, status.DaysUntil(today.Add(24*time.Hour+time.Second), today))
	assert.Equal(t, 0, status.DaysUntil(today, today))
	assert.Equal(t, 0, status.DaysUntil(today.Add(-12*time.Hour), today))
	assert.Equal(t, -1, status.DaysUntil(today.Add(-24*time.Hour), today))
	assert.Equal(t, -1, status.DaysUntil(today.Add(-36*time.Hour), today))
}

func TestDaysUntilSubSecond(t *testing.T) {
	assert.Equal(t, 1, status.DaysUntil(today.Add(time.Nanosecond), today))
	assert.Equal(t, 0, status.DaysUntil(today.Add(-time.Nanosecond), today))
	assert.Equal(t, 0, status.DaysUntil(today.Add(-24*time.Hour+time.Millisecond), today))
	assert.Equal(t, 2, status.DaysUntil(today.Add(24*time.Hour+time.Nanosecond), today))
}

func TestClassifyDistantDates(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	p := status.CompliancePolicy()

	far := status.Classify(p, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), now)
	assert.Equal(t, status.TierValid, far.Tier)
	assert.Equal(t, 2912152, far.Days)
	assert.Equal(t, "valid for 2912152 days", far.Label)

	old := status.Classify(p, time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC), now)
	assert.Equal(t, status.TierCritical, old.Tier)
	assert.Equal(t, -155884, old.Days)
	assert.Equal(t, "expired 155884 days ago", old.Label)
}

func TestClassifyIgnoresTimeOfDayOfToday(t *testing.T) {
	// Mid-morning "now" against a midnight expiry 15 days later is still 15
	// days away once rounded up.
	now := today.Add(9 * time.Hour)
	got := status.Classify(status.CompliancePolicy(), days(15), now)
	assert.Equal(t, 15, got.Days)
	assert.Equal(t, status.TierCritical, got.Tier)
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	five, ten := 5, 10
	cases := map[string]status.Policy{
		"empty":           {Name: "x"},
		"bounded last":    {Name: "x", Bands: []status.Band{{State: "a", MaxDays: &five, Tier: status.TierValid}}},
		"unbounded first": {Name: "x", Bands: []status.Band{{State: "a", Tier: status.TierValid}, {State: "b", Tier: status.TierValid}}},
		"descending": {Name: "x", Bands: []status.Band{
			{State: "a", MaxDays: &ten, Tier: status.TierCritical},
			{State: "b", MaxDays: &five, Tier: status.TierWarning},
			{State: "c", Tier: status.TierValid},
		}},
		"bad tier":  {Name: "x", Bands: []status.Band{{State: "a", Tier: 7}}},
		"dup state": {Name: "x", Bands: []status.Band{{State: "a", MaxDays: &five, Tier: status.TierCritical}, {State: "a", Tier: status.TierValid}}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, p.Validate())
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range []status.Tier{status.TierValid, status.TierWarning, status.TierCritical} {
		got, err := status.ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}
	_, err := status.ParseTier("urgent")
	assert.Error(t, err)
}
