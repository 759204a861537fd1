package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		prev Counters
		curr Counters
		want ChangeStatus
	}{
		{
			name: "identical counters are unchanged",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 5, Total: 10},
			want: StatusUnchanged,
		},
		{
			name: "both zero is unchanged",
			prev: Counters{},
			curr: Counters{},
			want: StatusUnchanged,
		},
		{
			name: "new lecture attended",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 6, Total: 11},
			want: StatusPresent,
		},
		{
			name: "new lecture missed",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 5, Total: 11},
			want: StatusAbsent,
		},
		{
			name: "first seen course with lectures reads as present",
			prev: Counters{},
			curr: Counters{Present: 5, Total: 10},
			want: StatusPresent,
		},
		{
			name: "first seen course with only missed lectures reads as absent",
			prev: Counters{},
			curr: Counters{Present: 0, Total: 3},
			want: StatusAbsent,
		},
		{
			name: "present moved without a new lecture",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 6, Total: 10},
			want: StatusUnknown,
		},
		{
			name: "total rolled back",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 5, Total: 9},
			want: StatusUnknown,
		},
		{
			name: "total grew but present dropped",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 4, Total: 11},
			want: StatusUnknown,
		},
		{
			name: "multiple lectures since last run",
			prev: Counters{Present: 5, Total: 10},
			curr: Counters{Present: 8, Total: 14},
			want: StatusPresent,
		},
		{
			name: "negative rollback stays unknown",
			prev: Counters{Present: 2, Total: 2},
			curr: Counters{Present: -1, Total: -1},
			want: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.prev, tt.curr))
		})
	}
}

// Classify(c, c) must always be Unchanged, whatever c holds.
func TestClassify_IdempotenceOfUnchanged(t *testing.T) {
	for _, c := range []Counters{
		{},
		{Present: 1, Total: 1},
		{Present: 7, Total: 12},
		{Present: 12, Total: 7}, // malformed, still unchanged against itself
		{Present: -3, Total: -5},
	} {
		assert.Equal(t, StatusUnchanged, Classify(c, c), "counters %+v", c)
	}
}

// Every (prev, curr) pair must map to exactly one of the four statuses.
func TestClassify_Totality(t *testing.T) {
	for prevPresent := -2; prevPresent <= 3; prevPresent++ {
		for prevTotal := -2; prevTotal <= 3; prevTotal++ {
			for currPresent := -2; currPresent <= 3; currPresent++ {
				for currTotal := -2; currTotal <= 3; currTotal++ {
					status := Classify(
						Counters{Present: prevPresent, Total: prevTotal},
						Counters{Present: currPresent, Total: currTotal},
					)
					assert.Contains(t,
						[]ChangeStatus{StatusUnchanged, StatusPresent, StatusAbsent, StatusUnknown},
						status,
					)
				}
			}
		}
	}
}

func TestChangeStatus_String(t *testing.T) {
	assert.Equal(t, "unchanged", StatusUnchanged.String())
	assert.Equal(t, "present", StatusPresent.String())
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "unknown", ChangeStatus(99).String())
}
