package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// StopType indicates how a RouteStop resolves to physical locations
type StopType string

const (
	// StopLocation is a stop at a single fixed location
	StopLocation StopType = "location"
	// StopVendorCluster is a stop covering a cluster of nearby vendor locations
	StopVendorCluster StopType = "vendor_cluster"
)

// RouteStop is one ordered stop on a Route. Location is nil for vendor
// cluster stops, which resolve to their member locations instead
type RouteStop struct {
	ID               string
	Route            *Route
	Type             StopType
	Location         *Location
	Order            int
	EstimatedMinutes int
}

// GetRouteStops returns a slice with all registered route stops
func GetRouteStops(node sqalx.Node) ([]*RouteStop, error) {
	return getRouteStopsWithSelect(node, sdb.Select())
}

func getRouteStopsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RouteStop, error) {
	stops := []*RouteStop{}

	tx, err := node.Beginx()
	if err != nil {
		return stops, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "route_id", "type", "location_id", "stop_order", "estimated_minutes").
		From("route_stop").
		RunWith(tx).Query()
	if err != nil {
		return stops, fmt.Errorf("getRouteStopsWithSelect: %s", err)
	}
	defer rows.Close()

	var routeIDs []string
	var locationIDs []sql.NullString
	for rows.Next() {
		var stop RouteStop
		var routeID string
		var locationID sql.NullString
		err := rows.Scan(
			&stop.ID,
			&routeID,
			&stop.Type,
			&locationID,
			&stop.Order,
			&stop.EstimatedMinutes)
		if err != nil {
			return stops, fmt.Errorf("getRouteStopsWithSelect: %s", err)
		}
		stops = append(stops, &stop)
		routeIDs = append(routeIDs, routeID)
		locationIDs = append(locationIDs, locationID)
	}
	if err := rows.Err(); err != nil {
		return stops, fmt.Errorf("getRouteStopsWithSelect: %s", err)
	}
	for i := range routeIDs {
		stops[i].Route, err = GetRoute(tx, routeIDs[i])
		if err != nil {
			return stops, fmt.Errorf("getRouteStopsWithSelect: %s", err)
		}
		if locationIDs[i].Valid {
			stops[i].Location, err = GetLocation(tx, locationIDs[i].String)
			if err != nil {
				return stops, fmt.Errorf("getRouteStopsWithSelect: %s", err)
			}
		}
	}
	return stops, nil
}

// GetRouteStop returns the RouteStop with the given ID
func GetRouteStop(node sqalx.Node, id string) (*RouteStop, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	stops, err := getRouteStopsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, errors.New("RouteStop not found")
	}
	return stops[0], nil
}

// ClusterEntries returns the vendor cluster membership of this stop in
// location order. Empty for plain location stops
func (stop *RouteStop) ClusterEntries(node sqalx.Node) ([]*VendorClusterEntry, error) {
	s := sdb.Select().
		Where(sq.Eq{"route_stop_id": stop.ID}).
		OrderBy("location_order ASC")
	return getVendorClusterEntriesWithSelect(node, s)
}

// LocationIDs returns the IDs of all physical locations this stop serves
func (stop *RouteStop) LocationIDs(node sqalx.Node) ([]string, error) {
	if stop.Type == StopLocation {
		if stop.Location == nil {
			return nil, nil
		}
		return []string{stop.Location.ID}, nil
	}
	entries, err := stop.ClusterEntries(node)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, entry := range entries {
		ids = append(ids, entry.Location.ID)
	}
	return ids, nil
}

// ServesLocation returns whether this stop serves the given location, either
// directly or through vendor cluster membership
func (stop *RouteStop) ServesLocation(node sqalx.Node, locationID string) (bool, error) {
	ids, err := stop.LocationIDs(node)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == locationID {
			return true, nil
		}
	}
	return false, nil
}

// Update adds or updates the route stop
func (stop *RouteStop) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locationID sql.NullString
	if stop.Location != nil {
		locationID = sql.NullString{String: stop.Location.ID, Valid: true}
	}

	_, err = sdb.Insert("route_stop").
		Columns("id", "route_id", "type", "location_id", "stop_order", "estimated_minutes").
		Values(stop.ID, stop.Route.ID, stop.Type, locationID, stop.Order, stop.EstimatedMinutes).
		Suffix("ON CONFLICT (id) DO UPDATE SET route_id = ?, type = ?, location_id = ?, stop_order = ?, estimated_minutes = ?",
			stop.Route.ID, stop.Type, locationID, stop.Order, stop.EstimatedMinutes).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRouteStop: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the route stop and its cluster entries
func (stop *RouteStop) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("vendor_cluster_location").
		Where(sq.Eq{"route_stop_id": stop.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRouteStop: %s", err)
	}
	_, err = sdb.Delete("route_stop").
		Where(sq.Eq{"id": stop.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRouteStop: %s", err)
	}
	return tx.Commit()
}

// VendorClusterEntry makes a vendor location a member of a cluster stop
type VendorClusterEntry struct {
	Stop     *RouteStop
	Location *Location
	Order    int
	Optional bool
}

func getVendorClusterEntriesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*VendorClusterEntry, error) {
	entries := []*VendorClusterEntry{}

	tx, err := node.Beginx()
	if err != nil {
		return entries, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("route_stop_id", "location_id", "location_order", "is_optional").
		From("vendor_cluster_location").
		RunWith(tx).Query()
	if err != nil {
		return entries, fmt.Errorf("getVendorClusterEntriesWithSelect: %s", err)
	}
	defer rows.Close()

	var stopIDs, locationIDs []string
	for rows.Next() {
		var entry VendorClusterEntry
		var stopID, locationID string
		err := rows.Scan(
			&stopID,
			&locationID,
			&entry.Order,
			&entry.Optional)
		if err != nil {
			return entries, fmt.Errorf("getVendorClusterEntriesWithSelect: %s", err)
		}
		entries = append(entries, &entry)
		stopIDs = append(stopIDs, stopID)
		locationIDs = append(locationIDs, locationID)
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("getVendorClusterEntriesWithSelect: %s", err)
	}
	for i := range stopIDs {
		entries[i].Stop, err = GetRouteStop(tx, stopIDs[i])
		if err != nil {
			return entries, fmt.Errorf("getVendorClusterEntriesWithSelect: %s", err)
		}
		entries[i].Location, err = GetLocation(tx, locationIDs[i])
		if err != nil {
			return entries, fmt.Errorf("getVendorClusterEntriesWithSelect: %s", err)
		}
	}
	return entries, nil
}

// Update adds or updates the cluster entry
func (entry *VendorClusterEntry) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("vendor_cluster_location").
		Columns("route_stop_id", "location_id", "location_order", "is_optional").
		Values(entry.Stop.ID, entry.Location.ID, entry.Order, entry.Optional).
		Suffix("ON CONFLICT (route_stop_id, location_id) DO UPDATE SET location_order = ?, is_optional = ?",
			entry.Order, entry.Optional).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddVendorClusterEntry: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the cluster entry
func (entry *VendorClusterEntry) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("vendor_cluster_location").
		Where(sq.Eq{"route_stop_id": entry.Stop.ID},
			sq.Eq{"location_id": entry.Location.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveVendorClusterEntry: %s", err)
	}
	return tx.Commit()
}
