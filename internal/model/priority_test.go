package model

import "testing"

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"low":    PriorityLow,
		" HIGH ": PriorityHigh,
		"Urgent": PriorityUrgent,
		"MEDIUM": PriorityMedium,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		if err != nil || got != want {
			t.Fatalf("ParsePriority(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePriority("critical"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestPriorityRankOrder(t *testing.T) {
	if !(PriorityUrgent.Rank() > PriorityHigh.Rank() &&
		PriorityHigh.Rank() > PriorityMedium.Rank() &&
		PriorityMedium.Rank() > PriorityLow.Rank()) {
		t.Fatal("priority ranks are not ordered")
	}
	if Priority("nope").Rank() != 0 {
		t.Fatal("unknown priority must rank 0")
	}
}
