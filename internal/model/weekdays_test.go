package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestWeekdaysRoundTripIsOrderIndependent(t *testing.T) {
	a, err := NewWeekdays(5, 0, 3, 3)
	if err != nil {
		t.Fatalf("new weekdays: %v", err)
	}
	b, err := NewWeekdays(0, 3, 5)
	if err != nil {
		t.Fatalf("new weekdays: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal sets, got %v and %v", a, b)
	}

	stored, err := a.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if stored != "[0,3,5]" {
		t.Fatalf("unexpected stored form %v", stored)
	}

	var back Weekdays
	if err := back.Scan(stored); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if back != a {
		t.Fatalf("round trip lost data: %v != %v", back, a)
	}
	if !reflect.DeepEqual(back.Days(), []int{0, 3, 5}) {
		t.Fatalf("unexpected days %v", back.Days())
	}
}

func TestWeekdaysEmptyStoresNull(t *testing.T) {
	var w Weekdays
	v, err := w.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != nil {
		t.Fatalf("expected NULL for empty set, got %v", v)
	}
	if err := w.Scan(nil); err != nil || !w.Empty() {
		t.Fatalf("scan nil: %v %v", w, err)
	}
	if err := w.Scan([]byte("[6, 1]")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if !w.Has(time.Saturday) || !w.Has(time.Monday) || w.Has(time.Sunday) {
		t.Fatalf("unexpected set %v", w)
	}
}

func TestWeekdaysRejectsOutOfRange(t *testing.T) {
	if _, err := NewWeekdays(7); err == nil {
		t.Fatal("expected error for 7")
	}
	var w Weekdays
	if err := json.Unmarshal([]byte("[-1]"), &w); err == nil {
		t.Fatal("expected error for -1")
	}
	if err := w.Scan(42); err == nil {
		t.Fatal("expected error for unsupported column type")
	}
}

func TestWeekdaysJSON(t *testing.T) {
	sunday, _ := NewWeekdays(0)
	raw, err := json.Marshal(struct {
		Days Weekdays `json:"days"`
	}{sunday})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"days":[0]}` {
		t.Fatalf("unexpected json %s", raw)
	}

	raw, _ = json.Marshal(struct {
		Days Weekdays `json:"days"`
	}{})
	if string(raw) != `{"days":null}` {
		t.Fatalf("unexpected json for empty set %s", raw)
	}
}
