package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/rickb777/date"
)

func TestNextOpenDateSkipsClosedDays(t *testing.T) {
	// Monday 2026-03-02
	start := date.New(2026, time.March, 2)
	closed := map[string]bool{
		"2026-03-03": true,
		"2026-03-04": true,
	}
	isOpen := func(d date.Date) (bool, error) {
		return !closed[d.String()], nil
	}

	d, err := NextOpenDate(start, BusinessDayHorizon, isOpen)
	if err != nil {
		t.Fatalf("NextOpenDate: %s", err)
	}
	if d.String() != "2026-03-05" {
		t.Errorf("expected 2026-03-05, got %s", d)
	}
}

func TestNextOpenDateIsStrictlyAfter(t *testing.T) {
	start := date.New(2026, time.March, 2)
	isOpen := func(d date.Date) (bool, error) {
		return true, nil
	}

	d, err := NextOpenDate(start, BusinessDayHorizon, isOpen)
	if err != nil {
		t.Fatalf("NextOpenDate: %s", err)
	}
	if !d.After(start) {
		t.Errorf("expected a day after %s, got %s", start, d)
	}
	if d.Sub(start) != 1 {
		t.Errorf("expected the very next day, got %s", d)
	}
}

func TestNextOpenDateHorizonExhausted(t *testing.T) {
	start := date.New(2026, time.March, 2)
	calls := 0
	isOpen := func(d date.Date) (bool, error) {
		calls++
		return false, nil
	}

	_, err := NextOpenDate(start, 10, isOpen)
	if err != ErrNoBusinessDay {
		t.Fatalf("expected ErrNoBusinessDay, got %v", err)
	}
	if calls != 10 {
		t.Errorf("expected 10 probes, got %d", calls)
	}
}

func TestNextOpenDatePropagatesErrors(t *testing.T) {
	start := date.New(2026, time.March, 2)
	boom := errors.New("boom")
	isOpen := func(d date.Date) (bool, error) {
		return false, boom
	}

	_, err := NextOpenDate(start, BusinessDayHorizon, isOpen)
	if err != boom {
		t.Fatalf("expected the probe error, got %v", err)
	}
}
