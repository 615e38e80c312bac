//go:build property
// +build property

package status_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"condopapers/internal/status"
)

// TestCompliancePartition checks that the compliance tiers partition the day
// axis into (-inf,15] critical, (15,60] warning and (60,inf) valid.
func TestCompliancePartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)
	p := status.CompliancePolicy()

	properties.Property("tier follows the day delta", prop.ForAll(
		func(delta int) bool {
			got := status.Classify(p, today.AddDate(0, 0, delta), today)
			switch {
			case delta <= 15:
				return got.Tier == status.TierCritical
			case delta <= 60:
				return got.Tier == status.TierWarning
			default:
				return got.Tier == status.TierValid
			}
		},
		gen.IntRange(-5000, 5000),
	))

	properties.Property("classification is deterministic", prop.ForAll(
		func(delta int, minutes int) bool {
			now := today.Add(time.Duration(minutes) * time.Minute)
			expiry := today.AddDate(0, 0, delta)
			return status.Classify(p, expiry, now) == status.Classify(p, expiry, now)
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(0, 24*60-1),
	))

	properties.TestingRun(t)
}

// TestPrioritizeOrderProperty checks the output is non-increasing in tier and
// a permutation of the input.
func TestPrioritizeOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("descending tiers, same multiset", prop.ForAll(
		func(raw []int) bool {
			in := make([]item, len(raw))
			for i, v := range raw {
				in[i] = item{id: string(rune('a' + i%26)), tier: status.Tier(v)}
			}
			out := status.Prioritize(in, tierOf)
			if len(out) != len(in) {
				return false
			}
			for i := 1; i < len(out); i++ {
				if out[i].tier > out[i-1].tier {
					return false
				}
			}
			return status.Count(in, tierOf) == status.Count(out, tierOf)
		},
		gen.SliceOf(gen.IntRange(1, 3)),
	))

	properties.TestingRun(t)
}
