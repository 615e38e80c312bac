package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"condopapers/internal/status"
)

type item struct {
	id   string
	tier status.Tier
}

func tierOf(i item) status.Tier { return i.tier }

func TestPrioritizeStableByTier(t *testing.T) {
	in := []item{
		{"a", status.TierValid},
		{"b", status.TierCritical},
		{"c", status.TierWarning},
		{"d", status.TierCritical},
	}
	got := status.Prioritize(in, tierOf)

	var ids []string
	for _, it := range got {
		ids = append(ids, it.id)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
	assert.Equal(t, "a", in[0].id, "input must not be reordered")
}

func TestPrioritizeDoesNotSortByDaysWithinTier(t *testing.T) {
	p := status.CompliancePolicy()
	// Both critical: the one expiring later comes first because it came first.
	in := []int{10, -30}
	got := status.Prioritize(in, func(d int) status.Tier { return p.ForDays(d).Tier })
	assert.Equal(t, []int{10, -30}, got)
}

func TestPrioritizeEmpty(t *testing.T) {
	got := status.Prioritize([]item{}, tierOf)
	assert.Empty(t, got)
}

func TestCount(t *testing.T) {
	in := []item{
		{"a", status.TierValid},
		{"b", status.TierCritical},
		{"c", status.TierWarning},
		{"d", status.TierCritical},
	}
	c := status.Count(in, tierOf)
	assert.Equal(t, status.Counts{Valid: 1, Warning: 1, Critical: 2}, c)
	assert.Equal(t, 4, c.Total())
}

func TestSummarize(t *testing.T) {
	p := status.CompliancePolicy()
	results := []status.Result{p.ForDays(-3), p.ForDays(10), p.ForDays(40), p.ForDays(200), p.ForDays(61)}
	c := status.Summarize(results)
	assert.Equal(t, status.Counts{Valid: 2, Warning: 1, Critical: 2}, c)
	assert.Equal(t, 5, c.Total())
}
