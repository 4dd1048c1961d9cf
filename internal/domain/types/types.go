// Package types contains common types used across the application.
package types

import "fmt"

// Side identifies one of the two slots in a battle. It is used uniformly
// as the vote target, the bucket key and the result selector.
type Side string

// The only two valid sides.
const (
	SideA Side = "itemA"
	SideB Side = "itemB"
)

// ParseSide validates a raw side string coming from the outside.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideA, SideB:
		return Side(s), nil
	default:
		return "", fmt.Errorf("invalid side %q", s)
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Outcome is the winner designation of a battle, live or final.
type Outcome string

// Outcome values. A tie is a first-class outcome, not an absence of one.
const (
	OutcomeA   Outcome = "itemA"
	OutcomeB   Outcome = "itemB"
	OutcomeTie Outcome = "tie"
)

// Category groups contenders; only same-category pairs battle each other.
type Category string

// Supported content categories.
const (
	CategoryMusic   Category = "music"
	CategoryFashion Category = "fashion"
	CategoryFood    Category = "food"
)

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryMusic, CategoryFashion, CategoryFood:
		return Category(s), nil
	default:
		return "", fmt.Errorf("invalid category %q", s)
	}
}

// ContenderStatus tracks a contender's availability for matching.
// Transitions only move available -> in_battle; there is no automatic
// reversal.
type ContenderStatus string

// Contender statuses.
const (
	ContenderAvailable ContenderStatus = "available"
	ContenderInBattle  ContenderStatus = "in_battle"
	ContenderWithdrawn ContenderStatus = "withdrawn"
)

// BattleStatus is the battle state machine: ongoing until finalized, then
// ended forever.
type BattleStatus string

// Battle statuses.
const (
	BattleOngoing BattleStatus = "ongoing"
	BattleEnded   BattleStatus = "ended"
)

// Reason codes for successful-but-empty matching passes. These are expected
// steady states, not faults.
type MatchReason string

// Matching pass reason codes.
const (
	ReasonNone                   MatchReason = ""
	ReasonInsufficientContenders MatchReason = "insufficient_contenders"
	ReasonNoValidMatches         MatchReason = "no_valid_matches"
	ReasonCooldown               MatchReason = "cooldown"
)

// Tally is a per-bucket vote breakdown. Invariant: ItemA + ItemB == Total.
type Tally struct {
	ItemA int `json:"itemA"`
	ItemB int `json:"itemB"`
	Total int `json:"total"`
}

// Add counts one vote for the given side.
func (t *Tally) Add(side Side) {
	if side == SideA {
		t.ItemA++
	} else {
		t.ItemB++
	}
	t.Total++
}

// Layouts for time-bucket keys in battle records.
const (
	DayKeyLayout  = "2006-01-02"
	HourKeyLayout = "2006-01-02-15"
)
