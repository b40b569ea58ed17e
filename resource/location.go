package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// Location composites resource
type Location struct {
	resource
}

type apiLocation struct {
	ID             string                   `msgpack:"id" json:"id"`
	Name           string                   `msgpack:"name" json:"name"`
	Type           dataobjects.LocationType `msgpack:"type" json:"type"`
	IsActive       bool                     `msgpack:"isActive" json:"isActive"`
	Position       dataobjects.Point        `msgpack:"position" json:"position"`
	GeofenceRadius float64                  `msgpack:"geofenceRadius" json:"geofenceRadius"`
}

func toAPIlocation(location *dataobjects.Location) apiLocation {
	return apiLocation{
		ID:             location.ID,
		Name:           location.Name,
		Type:           location.Type,
		IsActive:       location.IsActive,
		Position:       location.Position,
		GeofenceRadius: location.GeofenceRadius,
	}
}

// WithNode associates a sqalx Node with this resource
func (r *Location) WithNode(node sqalx.Node) *Location {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Location) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		location, err := dataobjects.GetLocation(tx, c.Param("id"))
		if err != nil {
			return apiError(err)
		}
		RenderData(c, toAPIlocation(location))
	} else {
		locations, err := dataobjects.GetActiveLocations(tx)
		if err != nil {
			return apiError(err)
		}
		apilocations := make([]apiLocation, len(locations))
		for i := range locations {
			apilocations[i] = toAPIlocation(locations[i])
		}
		RenderData(c, apilocations)
	}
	return nil
}
