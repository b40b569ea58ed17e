package dataobjects

import (
	"testing"
	"time"

	"github.com/rickb777/date"
)

func TestAppliesOnDefaultsToWeekdays(t *testing.T) {
	schedule := &RouteSchedule{}

	// 2026-03-02 is a Monday
	monday := date.New(2026, time.March, 2)
	for i := 0; i < 5; i++ {
		d := monday.Add(date.PeriodOfDays(i))
		if !schedule.AppliesOn(d) {
			t.Errorf("expected the default schedule to apply on %s", d)
		}
	}
	saturday := monday.Add(date.PeriodOfDays(5))
	sunday := monday.Add(date.PeriodOfDays(6))
	if schedule.AppliesOn(saturday) {
		t.Error("expected the default schedule to skip Saturday")
	}
	if schedule.AppliesOn(sunday) {
		t.Error("expected the default schedule to skip Sunday")
	}
}

func TestAppliesOnExplicitDays(t *testing.T) {
	schedule := &RouteSchedule{
		DaysOfWeek: DayList{1, 3, 6}, // Mon, Wed, Sat
	}

	monday := date.New(2026, time.March, 2)
	cases := []struct {
		offset  int
		applies bool
	}{
		{0, true},  // Mon
		{1, false}, // Tue
		{2, true},  // Wed
		{3, false}, // Thu
		{4, false}, // Fri
		{5, true},  // Sat
		{6, false}, // Sun
	}
	for _, c := range cases {
		d := monday.Add(date.PeriodOfDays(c.offset))
		if schedule.AppliesOn(d) != c.applies {
			t.Errorf("AppliesOn(%s) = %v, expected %v", d, !c.applies, c.applies)
		}
	}
}
