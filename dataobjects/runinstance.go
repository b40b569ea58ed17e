package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	"github.com/rickb777/date"
)

// RunStatus is the lifecycle state of a RunInstance
type RunStatus string

const (
	// RunPending means the run has not started yet
	RunPending RunStatus = "pending"
	// RunInProgress means a runner is currently driving the run
	RunInProgress RunStatus = "in_progress"
	// RunCompleted means the run finished
	RunCompleted RunStatus = "completed"
	// RunCanceled means the run was called off
	RunCanceled RunStatus = "canceled"
)

// RunInstance is one concrete occurrence of a route on a date and time slot.
// Materialized lazily: a row only exists once something needed the run
type RunInstance struct {
	ID            string
	Route         *Route
	ScheduledDate date.Date
	ScheduledTime Time
	ScheduleID    sql.NullString
	Status        RunStatus
	RunnerID      sql.NullString
	StartedAt     pq.NullTime
	EndedAt       pq.NullTime
	CurrentStopID sql.NullString
}

// GetRunInstances returns a slice with all registered run instances
func GetRunInstances(node sqalx.Node) ([]*RunInstance, error) {
	return getRunInstancesWithSelect(node, sdb.Select())
}

func getRunInstancesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RunInstance, error) {
	runs := []*RunInstance{}

	tx, err := node.Beginx()
	if err != nil {
		return runs, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "route_id", "scheduled_date", "scheduled_time", "schedule_id",
		"status", "runner_id", "started_at", "ended_at", "current_stop_id").
		From("run_instance").
		RunWith(tx).Query()
	if err != nil {
		return runs, fmt.Errorf("getRunInstancesWithSelect: %s", err)
	}
	defer rows.Close()

	var routeIDs []string
	for rows.Next() {
		var run RunInstance
		var routeID string
		var scheduledDate time.Time
		err := rows.Scan(
			&run.ID,
			&routeID,
			&scheduledDate,
			&run.ScheduledTime,
			&run.ScheduleID,
			&run.Status,
			&run.RunnerID,
			&run.StartedAt,
			&run.EndedAt,
			&run.CurrentStopID)
		if err != nil {
			return runs, fmt.Errorf("getRunInstancesWithSelect: %s", err)
		}
		run.ScheduledDate = date.NewAt(scheduledDate)
		runs = append(runs, &run)
		routeIDs = append(routeIDs, routeID)
	}
	if err := rows.Err(); err != nil {
		return runs, fmt.Errorf("getRunInstancesWithSelect: %s", err)
	}
	for i := range routeIDs {
		runs[i].Route, err = GetRoute(tx, routeIDs[i])
		if err != nil {
			return runs, fmt.Errorf("getRunInstancesWithSelect: %s", err)
		}
	}
	return runs, nil
}

// GetRunInstance returns the RunInstance with the given ID
func GetRunInstance(node sqalx.Node, id string) (*RunInstance, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	runs, err := getRunInstancesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("RunInstance not found")
	}
	return runs[0], nil
}

// GetRunInstanceForSlot returns the RunInstance for a route, date and time slot
func GetRunInstanceForSlot(node sqalx.Node, routeID string, d date.Date, t Time) (*RunInstance, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_id": routeID}).
		Where(sq.Eq{"scheduled_date": d.UTC()}).
		Where(sq.Eq{"scheduled_time": t})
	runs, err := getRunInstancesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("RunInstance not found")
	}
	return runs[0], nil
}

// GetRunInstancesForRouteAndDate returns the runs of a route on a date sorted by time slot
func GetRunInstancesForRouteAndDate(node sqalx.Node, routeID string, d date.Date) ([]*RunInstance, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_id": routeID}).
		Where(sq.Eq{"scheduled_date": d.UTC()}).
		OrderBy("scheduled_time ASC")
	return getRunInstancesWithSelect(node, s)
}

// StopActuals returns the per-stop execution records of this run
func (run *RunInstance) StopActuals(node sqalx.Node) ([]*RunStopActual, error) {
	s := sdb.Select().
		Where(sq.Eq{"run_instance_id": run.ID})
	return getRunStopActualsWithSelect(node, s)
}

// Requests returns the requests assigned to this run
func (run *RunInstance) Requests(node sqalx.Node) ([]*PartsRequest, error) {
	s := sdb.Select().
		Where(sq.Eq{"run_instance_id": run.ID}).
		Where("deleted_at IS NULL")
	return getPartsRequestsWithSelect(node, s)
}

// SlotTime returns the scheduled date and time of day as a single instant
func (run *RunInstance) SlotTime() time.Time {
	t := time.Time(run.ScheduledTime)
	day := run.ScheduledDate.Local()
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}

// HasPassedStop returns whether the run already departed the given stop.
// Completed runs have passed every stop, pending runs none. For in-progress
// runs the current stop and the stop actuals decide, falling back to a
// time estimate when neither is informative
func (run *RunInstance) HasPassedStop(node sqalx.Node, stop *RouteStop) (bool, error) {
	switch run.Status {
	case RunCompleted:
		return true, nil
	case RunPending, RunCanceled:
		return false, nil
	}

	tx, err := node.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Commit() // read-only tx

	if run.CurrentStopID.Valid {
		current, err := GetRouteStop(tx, run.CurrentStopID.String)
		if err != nil {
			return false, fmt.Errorf("HasPassedStop: %s", err)
		}
		if stop.Order < current.Order {
			return true, nil
		}
		if stop.Order > current.Order {
			return false, nil
		}
	}

	actual, err := GetRunStopActual(tx, run.ID, stop.ID)
	if err == nil {
		return actual.DepartedAt.Valid, nil
	}

	// no execution record yet, estimate from the slot time and the
	// expected time spent at earlier stops
	stops, err := run.Route.Stops(tx)
	if err != nil {
		return false, fmt.Errorf("HasPassedStop: %s", err)
	}
	eta := run.SlotTime()
	for _, s := range stops {
		if s.Order >= stop.Order {
			break
		}
		eta = eta.Add(time.Duration(s.EstimatedMinutes) * time.Minute)
	}
	eta = eta.Add(time.Duration(stop.EstimatedMinutes)*time.Minute + 5*time.Minute)
	return time.Now().After(eta), nil
}

// HasPassedLocation returns whether the run already departed the stop
// serving the given location
func (run *RunInstance) HasPassedLocation(node sqalx.Node, locationID string) (bool, error) {
	tx, err := node.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Commit() // read-only tx

	stops, err := run.Route.Stops(tx)
	if err != nil {
		return false, fmt.Errorf("HasPassedLocation: %s", err)
	}
	for _, stop := range stops {
		serves, err := stop.ServesLocation(tx, locationID)
		if err != nil {
			return false, fmt.Errorf("HasPassedLocation: %s", err)
		}
		if serves {
			return run.HasPassedStop(tx, stop)
		}
	}
	return false, nil
}

// IsAvailableForAssignment returns whether a request picking up at the given
// location can still be assigned to this run. Pending runs always accept,
// even when their slot time already passed
func (run *RunInstance) IsAvailableForAssignment(node sqalx.Node, pickupLocationID string) (bool, error) {
	switch run.Status {
	case RunCompleted, RunCanceled:
		return false, nil
	case RunPending:
		return true, nil
	}
	passed, err := run.HasPassedLocation(node, pickupLocationID)
	if err != nil {
		return false, err
	}
	return !passed, nil
}

// Update adds or updates the run instance
func (run *RunInstance) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("run_instance").
		Columns("id", "route_id", "scheduled_date", "scheduled_time", "schedule_id",
			"status", "runner_id", "started_at", "ended_at", "current_stop_id").
		Values(run.ID, run.Route.ID, run.ScheduledDate.UTC(), run.ScheduledTime, run.ScheduleID,
			run.Status, run.RunnerID, run.StartedAt, run.EndedAt, run.CurrentStopID).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = ?, runner_id = ?, started_at = ?, ended_at = ?, current_stop_id = ?",
			run.Status, run.RunnerID, run.StartedAt, run.EndedAt, run.CurrentStopID).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRunInstance: " + err.Error())
	}
	return tx.Commit()
}

// Insert adds the run instance, failing on a slot conflict so callers can
// detect concurrent materialization of the same slot
func (run *RunInstance) Insert(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("run_instance").
		Columns("id", "route_id", "scheduled_date", "scheduled_time", "schedule_id",
			"status", "runner_id", "started_at", "ended_at", "current_stop_id").
		Values(run.ID, run.Route.ID, run.ScheduledDate.UTC(), run.ScheduledTime, run.ScheduleID,
			run.Status, run.RunnerID, run.StartedAt, run.EndedAt, run.CurrentStopID).
		RunWith(tx).Exec()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete deletes the run instance
func (run *RunInstance) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("run_instance").
		Where(sq.Eq{"id": run.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRunInstance: %s", err)
	}
	return tx.Commit()
}
