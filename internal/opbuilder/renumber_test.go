package opbuilder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rules(numbers ...int) []Rule[string] {
	out := make([]Rule[string], 0, len(numbers))
	for _, n := range numbers {
		out = append(out, Rule[string]{Number: n, Data: "permit"})
	}
	return out
}

func TestCloseGaps_MiddleDelete(t *testing.T) {
	plan, err := CloseGaps(rules(108, 105, 107, 106), 106)
	require.NoError(t, err)

	want := []Move[string]{
		{OldNumber: 105, NewNumber: 105, RuleData: "permit"},
		{OldNumber: 107, NewNumber: 106, RuleData: "permit"},
		{OldNumber: 108, NewNumber: 107, RuleData: "permit"},
	}
	if diff := cmp.Diff(want, plan.Moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, plan.Reorder)
	assert.Len(t, plan.Changed(), 2)
}

func TestCloseGaps_NoGap(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule[string]
		deleted int
	}{
		{"highest rule", rules(105, 106, 107, 108), 108},
		{"lowest rule", rules(105, 106, 107, 108), 105},
		{"only rule", rules(10), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := CloseGaps(tt.rules, tt.deleted)
			require.NoError(t, err)
			assert.False(t, plan.Reorder)
			assert.Empty(t, plan.Changed())
		})
	}
}

func TestCloseGaps_NotFound(t *testing.T) {
	_, err := CloseGaps(rules(1, 2), 3)
	assert.Error(t, err)
}

func TestMoveRule(t *testing.T) {
	plan, err := MoveRule(rules(10, 20, 30), 30, 0)
	require.NoError(t, err)

	got := make([][2]int, 0, len(plan.Moves))
	for _, m := range plan.Moves {
		got = append(got, [2]int{m.OldNumber, m.NewNumber})
	}
	assert.Equal(t, [][2]int{{30, 10}, {10, 11}, {20, 12}}, got)
	assert.True(t, plan.Reorder)

	plan, err = MoveRule(rules(1, 2, 3), 1, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Moves[2].OldNumber)
	assert.Equal(t, 3, plan.Moves[2].NewNumber)

	_, err = MoveRule(rules(1, 2), 5, 0)
	assert.Error(t, err)
	_, err = MoveRule(rules(1, 2), 1, -1)
	assert.Error(t, err)
}
