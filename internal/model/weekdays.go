package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekdays is a set of week days, 0 = Sunday through 6 = Saturday.
//
// It is stored as a sorted JSON integer list ("[0,3]") and NULL when empty.
type Weekdays uint8

const allWeekdays Weekdays = 1<<7 - 1

// NewWeekdays builds a set from day indices. Order and duplicates do not matter.
func NewWeekdays(days ...int) (Weekdays, error) {
	var w Weekdays
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0..6", d)
		}
		w |= 1 << d
	}
	return w, nil
}

func (w Weekdays) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && w&(1<<d) != 0
}

func (w Weekdays) Empty() bool {
	return w&allWeekdays == 0
}

// Days returns the set as ascending indices.
func (w Weekdays) Days() []int {
	days := make([]int, 0, 7)
	for d := 0; d < 7; d++ {
		if w&(1<<d) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func (w Weekdays) String() string {
	names := make([]string, 0, 7)
	for _, d := range w.Days() {
		names = append(names, time.Weekday(d).String()[:3])
	}
	return strings.Join(names, ",")
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w.Empty() {
		return []byte("null"), nil
	}
	return json.Marshal(w.Days())
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = 0
		return nil
	}
	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("weekdays: %w", err)
	}
	parsed, err := NewWeekdays(days...)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// GormDataType keeps the column textual.
func (Weekdays) GormDataType() string {
	return "text"
}

func (w Weekdays) Value() (driver.Value, error) {
	if w.Empty() {
		return nil, nil
	}
	raw, err := json.Marshal(w.Days())
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (w *Weekdays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*w = 0
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("weekdays: unsupported column type %T", src)
	}
	if strings.TrimSpace(string(raw)) == "" {
		*w = 0
		return nil
	}
	return w.UnmarshalJSON(raw)
}
