package scheduling

import (
	"errors"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// BusinessDayHorizon bounds how far ahead the calendar searches for an open
// day before giving up
const BusinessDayHorizon = 365

// ErrNoBusinessDay is returned when no open day exists within the horizon
var ErrNoBusinessDay = errors.New("no business day within horizon")

// BusinessCalendar answers which days the operation runs on
type BusinessCalendar struct {
	node sqalx.Node
}

// NewBusinessCalendar returns a calendar backed by the closed date table
func NewBusinessCalendar(node sqalx.Node) *BusinessCalendar {
	return &BusinessCalendar{node: node}
}

// IsDateClosed returns whether the operation is closed on the given day
func (calendar *BusinessCalendar) IsDateClosed(d date.Date) (bool, error) {
	return dataobjects.IsDateClosed(calendar.node, d)
}

// IsBusinessDay returns whether the given day is a weekday the operation is
// not closed on
func (calendar *BusinessCalendar) IsBusinessDay(d date.Date) (bool, error) {
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false, nil
	}
	closed, err := calendar.IsDateClosed(d)
	if err != nil {
		return false, err
	}
	return !closed, nil
}

// NextBusinessDay returns the first business day strictly after the given
// day, or ErrNoBusinessDay when the whole horizon is closed
func (calendar *BusinessCalendar) NextBusinessDay(after date.Date) (date.Date, error) {
	return NextOpenDate(after, BusinessDayHorizon, func(d date.Date) (bool, error) {
		open, err := calendar.IsBusinessDay(d)
		return open, err
	})
}

// NextOpenDate returns the first day strictly after the given one for which
// isOpen reports true, scanning at most horizon days ahead
func NextOpenDate(after date.Date, horizon int, isOpen func(date.Date) (bool, error)) (date.Date, error) {
	for i := 1; i <= horizon; i++ {
		d := after.Add(date.PeriodOfDays(i))
		open, err := isOpen(d)
		if err != nil {
			return d, err
		}
		if open {
			return d, nil
		}
	}
	return after, ErrNoBusinessDay
}
