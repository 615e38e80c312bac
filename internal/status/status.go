// Package status classifies dated records into urgency tiers.
//
// A Policy is an ordered table of day bands. Classify computes the number of
// whole days until expiry (rounded up) and returns the first band whose upper
// bound covers it. The compliance and contract tables are separate policies so
// that each can be tuned without touching the other.
package status

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tier is an ordinal urgency. Higher values are more urgent.
type Tier int

const (
	TierValid    Tier = 1
	TierWarning  Tier = 2
	TierCritical Tier = 3
)

func (t Tier) String() string {
	switch t {
	case TierValid:
		return "valid"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t >= TierValid && t <= TierCritical
}

// ParseTier maps a tier name back to its value.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid":
		return TierValid, nil
	case "warning":
		return TierWarning, nil
	case "critical":
		return TierCritical, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// DaysPlaceholder is replaced with the absolute day count in band labels.
const DaysPlaceholder = "{days}"

// Band covers every day delta up to and including MaxDays. A nil MaxDays
// makes the band unbounded; only the last band of a policy may be unbounded.
type Band struct {
	State   string
	MaxDays *int
	Tier    Tier
	Label   string
}

// Policy is an ordered threshold table.
type Policy struct {
	Name  string
	Bands []Band
}

// Result is the outcome of classifying one expiry date.
type Result struct {
	Tier  Tier
	State string
	Label string
	Days  int
}

var errNoBands = errors.New("policy has no bands")

// Validate checks that bands are strictly ascending and end with exactly one
// unbounded band, so that every day delta maps to one band.
func (p Policy) Validate() error {
	if len(p.Bands) == 0 {
		return fmt.Errorf("%s: %w", p.Name, errNoBands)
	}
	seen := map[string]bool{}
	for i, b := range p.Bands {
		if b.State == "" {
			return fmt.Errorf("%s: band %d has empty state", p.Name, i)
		}
		if seen[b.State] {
			return fmt.Errorf("%s: duplicate band state %s", p.Name, b.State)
		}
		seen[b.State] = true
		if !b.Tier.Valid() {
			return fmt.Errorf("%s: band %s has invalid tier %d", p.Name, b.State, int(b.Tier))
		}
		last := i == len(p.Bands)-1
		if b.MaxDays == nil && !last {
			return fmt.Errorf("%s: band %s is unbounded but not last", p.Name, b.State)
		}
		if b.MaxDays != nil && last {
			return fmt.Errorf("%s: last band %s must be unbounded", p.Name, b.State)
		}
		if i > 0 && b.MaxDays != nil && *b.MaxDays <= *p.Bands[i-1].MaxDays {
			return fmt.Errorf("%s: band %s max_days %d not above previous %d", p.Name, b.State, *b.MaxDays, *p.Bands[i-1].MaxDays)
		}
	}
	return nil
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns ceil((expiry - today) / 24h), computed in seconds plus a
// nanosecond remainder since time.Duration saturates past about 292 years.
// Truncating division of a negative delta is already its ceiling.
func DaysUntil(expiry, today time.Time) int {
	secs := expiry.Unix() - today.Unix()
	nanos := expiry.Nanosecond() - today.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}
	days := secs / secondsPerDay
	rem := secs % secondsPerDay
	if rem > 0 || (rem == 0 && nanos > 0) {
		days++
	}
	return int(days)
}

// Classify places expiry relative to today in the policy's bands.
func Classify(p Policy, expiry, today time.Time) Result {
	return p.ForDays(DaysUntil(expiry, today))
}

// ForDays classifies a precomputed day delta. An invalid policy falls back
// to its last band; a policy without bands yields a critical result.
func (p Policy) ForDays(days int) Result {
	if len(p.Bands) == 0 {
		return Result{Tier: TierCritical, Days: days}
	}
	band := p.Bands[len(p.Bands)-1]
	for _, b := range p.Bands {
		if b.MaxDays == nil || days <= *b.MaxDays {
			band = b
			break
		}
	}
	return Result{
		Tier:  band.Tier,
		State: band.State,
		Label: label(band.Label, days),
		Days:  days,
	}
}

func label(tmpl string, days int) string {
	if days < 0 {
		days = -days
	}
	return strings.ReplaceAll(tmpl, DaysPlaceholder, strconv.Itoa(days))
}

func intPtr(v int) *int { return &v }

// CompliancePolicy is the certificate/inspection table: anything expired or
// within 15 days is critical, up to 60 days is a warning.
func CompliancePolicy() Policy {
	return Policy{
		Name: "compliance",
		Bands: []Band{
			{State: "expired", MaxDays: intPtr(-1), Tier: TierCritical, Label: "expired {days} days ago"},
			{State: "critical", MaxDays: intPtr(15), Tier: TierCritical, Label: "expires in {days} days"},
			{State: "warning", MaxDays: intPtr(60), Tier: TierWarning, Label: "expires in {days} days"},
			{State: "valid", Tier: TierValid, Label: "valid for {days} days"},
		},
	}
}

// ContractPolicy is the maintenance contract table with a single 30 day window.
func ContractPolicy() Policy {
	return Policy{
		Name: "contracts",
		Bands: []Band{
			{State: "expired", MaxDays: intPtr(-1), Tier: TierCritical, Label: "expired"},
			{State: "expiring", MaxDays: intPtr(30), Tier: TierWarning, Label: "expires in {days} days"},
			{State: "active", Tier: TierValid, Label: "active"},
		},
	}
}
