package opbuilder

import (
	"fmt"
	"sort"
)

// Rule is one entry of a rule-numbered collection.
type Rule[T any] struct {
	Number int
	Data   T
}

// Move maps a surviving rule from its current number to its new one.
type Move[T any] struct {
	OldNumber int `json:"old_number"`
	NewNumber int `json:"new_number"`
	RuleData  T   `json:"rule_data"`
}

// ReorderPlan is the renumbering sent to a reorder endpoint.
type ReorderPlan[T any] struct {
	// Moves holds every surviving rule in its new order.
	Moves []Move[T]

	// Reorder is false when a direct delete leaves the list contiguous and
	// no reorder call is needed.
	Reorder bool
}

// Changed returns only the moves whose number actually changes.
func (p ReorderPlan[T]) Changed() []Move[T] {
	var out []Move[T]
	for _, m := range p.Moves {
		if m.OldNumber != m.NewNumber {
			out = append(out, m)
		}
	}
	return out
}

// CloseGaps plans the renumbering after deleting rule number deleted.
// Survivors are sorted by number and reassigned sequential numbers from the
// lowest surviving number. The returned plan asks for a reorder only when
// some survivor actually changes number.
func CloseGaps[T any](rules []Rule[T], deleted int) (ReorderPlan[T], error) {
	survivors := make([]Rule[T], 0, len(rules))
	found := false
	for _, r := range rules {
		if r.Number == deleted {
			found = true
			continue
		}
		survivors = append(survivors, r)
	}
	if !found {
		return ReorderPlan[T]{}, fmt.Errorf("rule %d not found", deleted)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Number < survivors[j].Number
	})
	return renumber(survivors), nil
}

// MoveRule plans moving rule number to a 0-based position within the
// collection, then renumbers sequentially from the lowest existing number.
// A position past the end moves the rule last.
func MoveRule[T any](rules []Rule[T], number, position int) (ReorderPlan[T], error) {
	if position < 0 {
		return ReorderPlan[T]{}, fmt.Errorf("invalid position %d", position)
	}

	ordered := make([]Rule[T], len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	from := -1
	for i, r := range ordered {
		if r.Number == number {
			from = i
			break
		}
	}
	if from < 0 {
		return ReorderPlan[T]{}, fmt.Errorf("rule %d not found", number)
	}

	base := ordered[0].Number
	moving := ordered[from]
	ordered = append(ordered[:from], ordered[from+1:]...)
	if position > len(ordered) {
		position = len(ordered)
	}
	ordered = append(ordered[:position], append([]Rule[T]{moving}, ordered[position:]...)...)

	return renumberFrom(ordered, base), nil
}

func renumber[T any](sorted []Rule[T]) ReorderPlan[T] {
	if len(sorted) == 0 {
		return ReorderPlan[T]{}
	}
	return renumberFrom(sorted, sorted[0].Number)
}

func renumberFrom[T any](ordered []Rule[T], base int) ReorderPlan[T] {
	plan := ReorderPlan[T]{Moves: make([]Move[T], 0, len(ordered))}
	for i, r := range ordered {
		m := Move[T]{OldNumber: r.Number, NewNumber: base + i, RuleData: r.Data}
		if m.OldNumber != m.NewNumber {
			plan.Reorder = true
		}
		plan.Moves = append(plan.Moves, m)
	}
	return plan
}
