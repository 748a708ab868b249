package item

import "testing"

func TestStackValid(t *testing.T) {
	testCases := []struct {
		stack    Stack
		expected bool
	}{
		{Stack{Material: "ore", Amount: 1}, true},
		{Stack{Material: "ore", Amount: 0}, false},
		{Stack{Material: "", Amount: 3}, false},
		{Stack{Material: "ore", Amount: -2}, false},
	}

	for _, tc := range testCases {
		if got := tc.stack.Valid(); got != tc.expected {
			t.Errorf("%+v.Valid(): expected %v, got %v", tc.stack, tc.expected, got)
		}
	}
}

func TestSequenceIssuesIncreasingIDs(t *testing.T) {
	var seq Sequence
	a := seq.New("ore")
	b := seq.New("ingot")
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("expected IDs 1 and 2, got %d and %d", a.ID, b.ID)
	}
	seq.Reset(10)
	if c := seq.New("ore"); c.ID != 11 {
		t.Errorf("expected ID 11 after reset, got %d", c.ID)
	}
	if !(Item{}).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}
