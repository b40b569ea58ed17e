package dataobjects

import (
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

const earthRadiusMeters = 6371000

// GeoFence is a circular fence around a location used to detect runner
// arrivals and departures
type GeoFence struct {
	ID       string
	Location *Location
	Name     string
	Center   Point
	Radius   float64
}

// GetGeoFences returns a slice with all registered geofences
func GetGeoFences(node sqalx.Node) ([]*GeoFence, error) {
	return getGeoFencesWithSelect(node, sdb.Select())
}

func getGeoFencesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*GeoFence, error) {
	fences := []*GeoFence{}

	tx, err := node.Beginx()
	if err != nil {
		return fences, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "location_id", "name", "center", "radius").
		From("geo_fence").
		RunWith(tx).Query()
	if err != nil {
		return fences, fmt.Errorf("getGeoFencesWithSelect: %s", err)
	}
	defer rows.Close()

	var locationIDs []string
	for rows.Next() {
		var fence GeoFence
		var locationID string
		err := rows.Scan(
			&fence.ID,
			&locationID,
			&fence.Name,
			&fence.Center,
			&fence.Radius)
		if err != nil {
			return fences, fmt.Errorf("getGeoFencesWithSelect: %s", err)
		}
		fences = append(fences, &fence)
		locationIDs = append(locationIDs, locationID)
	}
	if err := rows.Err(); err != nil {
		return fences, fmt.Errorf("getGeoFencesWithSelect: %s", err)
	}
	for i := range locationIDs {
		fences[i].Location, err = GetLocation(tx, locationIDs[i])
		if err != nil {
			return fences, fmt.Errorf("getGeoFencesWithSelect: %s", err)
		}
	}
	return fences, nil
}

// GetGeoFence returns the GeoFence with the given ID
func GetGeoFence(node sqalx.Node, id string) (*GeoFence, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	fences, err := getGeoFencesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(fences) == 0 {
		return nil, errors.New("GeoFence not found")
	}
	return fences[0], nil
}

// GetGeoFenceForLocation returns the fence around the given location
func GetGeoFenceForLocation(node sqalx.Node, locationID string) (*GeoFence, error) {
	s := sdb.Select().
		Where(sq.Eq{"location_id": locationID})
	fences, err := getGeoFencesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(fences) == 0 {
		return nil, errors.New("GeoFence not found")
	}
	return fences[0], nil
}

// HaversineDistance returns the great-circle distance in meters between two
// coordinate pairs
func HaversineDistance(a, b Point) float64 {
	lat1 := a[0] * math.Pi / 180
	lat2 := b[0] * math.Pi / 180
	dLat := (b[0] - a[0]) * math.Pi / 180
	dLng := (b[1] - a[1]) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Contains returns whether the given point falls inside the fence
func (fence *GeoFence) Contains(p Point) bool {
	return HaversineDistance(fence.Center, p) <= fence.Radius
}

// Update adds or updates the geofence
func (fence *GeoFence) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("geo_fence").
		Columns("id", "location_id", "name", "center", "radius").
		Values(fence.ID, fence.Location.ID, fence.Name, fence.Center, fence.Radius).
		Suffix("ON CONFLICT (id) DO UPDATE SET location_id = ?, name = ?, center = ?, radius = ?",
			fence.Location.ID, fence.Name, fence.Center, fence.Radius).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddGeoFence: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the geofence
func (fence *GeoFence) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("geo_fence").
		Where(sq.Eq{"id": fence.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveGeoFence: %s", err)
	}
	return tx.Commit()
}

// GeoFenceEvent records a runner entering or exiting a fence while working
// on a request
type GeoFenceEvent struct {
	ID        string
	FenceID   string
	RequestID string
	RunnerID  string
	Type      string
	Position  Point
	Time      time.Time
}

// Update adds the geofence event
func (event *GeoFenceEvent) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("geo_fence_event").
		Columns("id", "geo_fence_id", "parts_request_id", "runner_id", "type", "position", "event_at").
		Values(event.ID, event.FenceID, event.RequestID, event.RunnerID, event.Type, event.Position, event.Time).
		Suffix("ON CONFLICT (id) DO NOTHING").
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddGeoFenceEvent: " + err.Error())
	}
	return tx.Commit()
}
