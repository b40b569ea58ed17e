package dataobjects

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"
	"github.com/thoas/go-funk"
)

// DayList is a set of weekdays stored as a JSON array (0 = Sunday)
type DayList []int

// Value implements the driver.Valuer interface
func (d DayList) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *DayList) Scan(val interface{}) error {
	if val == nil {
		*d = nil
		return nil
	}
	b, ok := val.([]byte)
	if !ok {
		return errors.New("Scan: Invalid val type for scanning")
	}
	return json.Unmarshal(b, d)
}

// RouteSchedule is a recurring departure slot for a Route
type RouteSchedule struct {
	ID         string
	Route      *Route
	Name       string
	Time       Time
	DaysOfWeek DayList
	IsActive   bool
}

// GetRouteSchedules returns a slice with all registered route schedules
func GetRouteSchedules(node sqalx.Node) ([]*RouteSchedule, error) {
	return getRouteSchedulesWithSelect(node, sdb.Select())
}

func getRouteSchedulesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RouteSchedule, error) {
	schedules := []*RouteSchedule{}

	tx, err := node.Beginx()
	if err != nil {
		return schedules, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "route_id", "name", "scheduled_time", "days_of_week", "is_active").
		From("route_schedule").
		RunWith(tx).Query()
	if err != nil {
		return schedules, fmt.Errorf("getRouteSchedulesWithSelect: %s", err)
	}
	defer rows.Close()

	var routeIDs []string
	for rows.Next() {
		var schedule RouteSchedule
		var routeID string
		err := rows.Scan(
			&schedule.ID,
			&routeID,
			&schedule.Name,
			&schedule.Time,
			&schedule.DaysOfWeek,
			&schedule.IsActive)
		if err != nil {
			return schedules, fmt.Errorf("getRouteSchedulesWithSelect: %s", err)
		}
		schedules = append(schedules, &schedule)
		routeIDs = append(routeIDs, routeID)
	}
	if err := rows.Err(); err != nil {
		return schedules, fmt.Errorf("getRouteSchedulesWithSelect: %s", err)
	}
	for i := range routeIDs {
		schedules[i].Route, err = GetRoute(tx, routeIDs[i])
		if err != nil {
			return schedules, fmt.Errorf("getRouteSchedulesWithSelect: %s", err)
		}
	}
	return schedules, nil
}

// GetRouteSchedule returns the RouteSchedule with the given ID
func GetRouteSchedule(node sqalx.Node, id string) (*RouteSchedule, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	schedules, err := getRouteSchedulesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, errors.New("RouteSchedule not found")
	}
	return schedules[0], nil
}

// AppliesOn returns whether this schedule runs on the given date.
// Schedules without an explicit day set run on weekdays
func (schedule *RouteSchedule) AppliesOn(d date.Date) bool {
	days := []int(schedule.DaysOfWeek)
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5}
	}
	return funk.ContainsInt(days, int(d.Weekday()))
}

// Update adds or updates the route schedule
func (schedule *RouteSchedule) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("route_schedule").
		Columns("id", "route_id", "name", "scheduled_time", "days_of_week", "is_active").
		Values(schedule.ID, schedule.Route.ID, schedule.Name, schedule.Time, schedule.DaysOfWeek, schedule.IsActive).
		Suffix("ON CONFLICT (id) DO UPDATE SET route_id = ?, name = ?, scheduled_time = ?, days_of_week = ?, is_active = ?",
			schedule.Route.ID, schedule.Name, schedule.Time, schedule.DaysOfWeek, schedule.IsActive).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRouteSchedule: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the route schedule
func (schedule *RouteSchedule) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("route_schedule").
		Where(sq.Eq{"id": schedule.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRouteSchedule: %s", err)
	}
	return tx.Commit()
}
