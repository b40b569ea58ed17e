package scheduling

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	"github.com/rickb777/date"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// ScheduleSearchHorizonDays bounds how far ahead the scheduler looks for a
// run slot before reporting that none is available
const ScheduleSearchHorizonDays = 60

// uniqueViolation is the postgres error code raised when two nodes
// materialize the same run slot concurrently
const uniqueViolation = "23505"

// Scheduler materializes run instances from route schedules and finds the
// next run a request can ride
type Scheduler struct {
	node     sqalx.Node
	calendar *BusinessCalendar
	log      *log.Logger
}

// NewScheduler returns a new Scheduler
func NewScheduler(node sqalx.Node, calendar *BusinessCalendar, log *log.Logger) *Scheduler {
	return &Scheduler{
		node:     node,
		calendar: calendar,
		log:      log,
	}
}

// GetOrCreateRunInstance returns the run for a route, date and schedule slot,
// creating it as pending when it does not exist yet. A concurrent insert of
// the same slot resolves through the unique constraint to a re-fetch
func (scheduler *Scheduler) GetOrCreateRunInstance(route *dataobjects.Route, d date.Date, schedule *dataobjects.RouteSchedule) (*dataobjects.RunInstance, error) {
	run, err := dataobjects.GetRunInstanceForSlot(scheduler.node, route.ID, d, schedule.Time)
	if err == nil {
		return run, nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	run = &dataobjects.RunInstance{
		ID:            id.String(),
		Route:         route,
		ScheduledDate: d,
		ScheduledTime: schedule.Time,
		ScheduleID:    sql.NullString{String: schedule.ID, Valid: true},
		Status:        dataobjects.RunPending,
	}
	err = run.Insert(scheduler.node)
	if err != nil {
		if pqerr, ok := err.(*pq.Error); ok && string(pqerr.Code) == uniqueViolation {
			return dataobjects.GetRunInstanceForSlot(scheduler.node, route.ID, d, schedule.Time)
		}
		return nil, fmt.Errorf("GetOrCreateRunInstance: %s", err)
	}
	return run, nil
}

// CreateOnDemandRun creates an unscheduled pending run for a route departing
// at the given instant
func (scheduler *Scheduler) CreateOnDemandRun(route *dataobjects.Route, at time.Time) (*dataobjects.RunInstance, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	run := &dataobjects.RunInstance{
		ID:            id.String(),
		Route:         route,
		ScheduledDate: date.NewAt(at),
		ScheduledTime: dataobjects.Time(at),
		Status:        dataobjects.RunPending,
	}
	err = run.Insert(scheduler.node)
	if err != nil {
		if pqerr, ok := err.(*pq.Error); ok && string(pqerr.Code) == uniqueViolation {
			return dataobjects.GetRunInstanceForSlot(scheduler.node, route.ID, run.ScheduledDate, run.ScheduledTime)
		}
		return nil, fmt.Errorf("CreateOnDemandRun: %s", err)
	}
	return run, nil
}

// FindNextAvailableRun returns the next run of a route that can still take a
// request picking up at the given location, materializing run instances as
// needed. When forDate is set the search starts there instead of today.
// Slots earlier today whose time already passed are still considered, a
// pending run accepts assignments until it actually departs. Returns nil
// with no error when the route is inactive or deleted, or when no slot
// exists within the search horizon
func (scheduler *Scheduler) FindNextAvailableRun(route *dataobjects.Route, forDate *date.Date, pickupLocationID string) (*dataobjects.RunInstance, error) {
	if !route.Usable() {
		return nil, nil
	}
	schedules, err := route.ActiveSchedules(scheduler.node)
	if err != nil {
		return nil, fmt.Errorf("FindNextAvailableRun: %s", err)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	startDate := date.Today()
	if forDate != nil {
		startDate = *forDate
	}

	for i := 0; i <= ScheduleSearchHorizonDays; i++ {
		d := startDate.Add(date.PeriodOfDays(i))
		closed, err := scheduler.calendar.IsDateClosed(d)
		if err != nil {
			return nil, fmt.Errorf("FindNextAvailableRun: %s", err)
		}
		if closed {
			continue
		}
		for _, schedule := range schedules {
			if !schedule.AppliesOn(d) {
				continue
			}
			run, err := scheduler.GetOrCreateRunInstance(route, d, schedule)
			if err != nil {
				return nil, err
			}
			available, err := run.IsAvailableForAssignment(scheduler.node, pickupLocationID)
			if err != nil {
				return nil, fmt.Errorf("FindNextAvailableRun: %s", err)
			}
			if available {
				return run, nil
			}
		}
	}
	return nil, nil
}

// FindRunAfter returns the next available run of a route strictly after the
// given run, used to push a request onto a later departure
func (scheduler *Scheduler) FindRunAfter(current *dataobjects.RunInstance, pickupLocationID string) (*dataobjects.RunInstance, error) {
	if !current.Route.Usable() {
		return nil, nil
	}
	schedules, err := current.Route.ActiveSchedules(scheduler.node)
	if err != nil {
		return nil, fmt.Errorf("FindRunAfter: %s", err)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	for i := 0; i <= ScheduleSearchHorizonDays; i++ {
		d := current.ScheduledDate.Add(date.PeriodOfDays(i))
		closed, err := scheduler.calendar.IsDateClosed(d)
		if err != nil {
			return nil, fmt.Errorf("FindRunAfter: %s", err)
		}
		if closed {
			continue
		}
		for _, schedule := range schedules {
			if !schedule.AppliesOn(d) {
				continue
			}
			if i == 0 && schedule.Time.HourMinute() <= current.ScheduledTime.HourMinute() {
				continue
			}
			run, err := scheduler.GetOrCreateRunInstance(current.Route, d, schedule)
			if err != nil {
				return nil, err
			}
			if run.ID == current.ID {
				continue
			}
			available, err := run.IsAvailableForAssignment(scheduler.node, pickupLocationID)
			if err != nil {
				return nil, fmt.Errorf("FindRunAfter: %s", err)
			}
			if available {
				return run, nil
			}
		}
	}
	return nil, nil
}
