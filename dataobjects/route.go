package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
)

// Route is an ordered sequence of stops driven on a recurring schedule
type Route struct {
	ID        string
	Name      string
	Code      string
	IsActive  bool
	DeletedAt pq.NullTime
}

// GetRoutes returns a slice with all registered routes
func GetRoutes(node sqalx.Node) ([]*Route, error) {
	return getRoutesWithSelect(node, sdb.Select())
}

// GetActiveRoutes returns a slice with all routes that are active and not deleted
func GetActiveRoutes(node sqalx.Node) ([]*Route, error) {
	s := sdb.Select().
		Where(sq.Eq{"is_active": true}).
		Where("deleted_at IS NULL")
	return getRoutesWithSelect(node, s)
}

func getRoutesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Route, error) {
	routes := []*Route{}

	tx, err := node.Beginx()
	if err != nil {
		return routes, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "code", "is_active", "deleted_at").
		From("route").
		RunWith(tx).Query()
	if err != nil {
		return routes, fmt.Errorf("getRoutesWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var route Route
		err := rows.Scan(
			&route.ID,
			&route.Name,
			&route.Code,
			&route.IsActive,
			&route.DeletedAt)
		if err != nil {
			return routes, fmt.Errorf("getRoutesWithSelect: %s", err)
		}
		routes = append(routes, &route)
	}
	if err := rows.Err(); err != nil {
		return routes, fmt.Errorf("getRoutesWithSelect: %s", err)
	}
	return routes, nil
}

// GetRoute returns the Route with the given ID
func GetRoute(node sqalx.Node, id string) (*Route, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	routes, err := getRoutesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, errors.New("Route not found")
	}
	return routes[0], nil
}

// Usable returns whether this route may take part in routing and scheduling
func (route *Route) Usable() bool {
	return route.IsActive && !route.DeletedAt.Valid
}

// Stops returns the stops of this route in stop order
func (route *Route) Stops(node sqalx.Node) ([]*RouteStop, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_id": route.ID}).
		OrderBy("stop_order ASC")
	return getRouteStopsWithSelect(node, s)
}

// Schedules returns the schedule entries of this route
func (route *Route) Schedules(node sqalx.Node) ([]*RouteSchedule, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_id": route.ID})
	return getRouteSchedulesWithSelect(node, s)
}

// ActiveSchedules returns the enabled schedule entries of this route sorted by time of day
func (route *Route) ActiveSchedules(node sqalx.Node) ([]*RouteSchedule, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_id": route.ID}).
		Where(sq.Eq{"is_active": true}).
		OrderBy("scheduled_time ASC")
	return getRouteSchedulesWithSelect(node, s)
}

// Update adds or updates the route
func (route *Route) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("route").
		Columns("id", "name", "code", "is_active", "deleted_at").
		Values(route.ID, route.Name, route.Code, route.IsActive, route.DeletedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, code = ?, is_active = ?, deleted_at = ?",
			route.Name, route.Code, route.IsActive, route.DeletedAt).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRoute: " + err.Error())
	}
	return tx.Commit()
}

// Delete soft-deletes the route
func (route *Route) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	route.DeletedAt = pq.NullTime{Time: time.Now(), Valid: true}
	_, err = sdb.Update("route").
		Set("deleted_at", route.DeletedAt).
		Where(sq.Eq{"id": route.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRoute: %s", err)
	}
	return tx.Commit()
}
