package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
)

// LocationType indicates what kind of service point a Location is
type LocationType string

const (
	// LocationFixedShop is a brick-and-mortar shop with a fixed address
	LocationFixedShop LocationType = "fixed_shop"
	// LocationMobileVan is a mobile service van
	LocationMobileVan LocationType = "mobile_van"
	// LocationVendor is a third-party vendor pickup point
	LocationVendor LocationType = "vendor"
	// LocationWarehouse is a parts warehouse
	LocationWarehouse LocationType = "warehouse"
)

// Location is a service location requests move between
type Location struct {
	ID             string
	Name           string
	Type           LocationType
	IsActive       bool
	Position       Point
	GeofenceRadius float64
	DeletedAt      pq.NullTime
}

// GetLocations returns a slice with all registered locations
func GetLocations(node sqalx.Node) ([]*Location, error) {
	return getLocationsWithSelect(node, sdb.Select())
}

// GetActiveLocations returns a slice with all locations that are active and not deleted
func GetActiveLocations(node sqalx.Node) ([]*Location, error) {
	s := sdb.Select().
		Where(sq.Eq{"is_active": true}).
		Where("deleted_at IS NULL")
	return getLocationsWithSelect(node, s)
}

func getLocationsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*Location, error) {
	locations := []*Location{}

	tx, err := node.Beginx()
	if err != nil {
		return locations, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "name", "type", "is_active", "position", "geofence_radius", "deleted_at").
		From("service_location").
		RunWith(tx).Query()
	if err != nil {
		return locations, fmt.Errorf("getLocationsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var location Location
		err := rows.Scan(
			&location.ID,
			&location.Name,
			&location.Type,
			&location.IsActive,
			&location.Position,
			&location.GeofenceRadius,
			&location.DeletedAt)
		if err != nil {
			return locations, fmt.Errorf("getLocationsWithSelect: %s", err)
		}
		locations = append(locations, &location)
	}
	if err := rows.Err(); err != nil {
		return locations, fmt.Errorf("getLocationsWithSelect: %s", err)
	}
	return locations, nil
}

// GetLocation returns the Location with the given ID
func GetLocation(node sqalx.Node, id string) (*Location, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	locations, err := getLocationsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, errors.New("Location not found")
	}
	return locations[0], nil
}

// Usable returns whether this location may take part in routing and assignment
func (location *Location) Usable() bool {
	return location.IsActive && !location.DeletedAt.Valid
}

// Update adds or updates the location
func (location *Location) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("service_location").
		Columns("id", "name", "type", "is_active", "position", "geofence_radius", "deleted_at").
		Values(location.ID, location.Name, location.Type, location.IsActive, location.Position, location.GeofenceRadius, location.DeletedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = ?, type = ?, is_active = ?, position = ?, geofence_radius = ?, deleted_at = ?",
			location.Name, location.Type, location.IsActive, location.Position, location.GeofenceRadius, location.DeletedAt).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddLocation: " + err.Error())
	}
	return tx.Commit()
}

// Delete soft-deletes the location. Routing and assignment stop considering it
// but historical requests keep their references
func (location *Location) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	location.DeletedAt = pq.NullTime{Time: time.Now(), Valid: true}
	_, err = sdb.Update("service_location").
		Set("deleted_at", location.DeletedAt).
		Where(sq.Eq{"id": location.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveLocation: %s", err)
	}
	return tx.Commit()
}
