package dispatch

import (
	"fmt"
	"time"

	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// DefaultGeofenceRadius is the fence radius in meters used for locations
// without a configured one
const DefaultGeofenceRadius = 100.0

// ObservePosition evaluates a runner GPS ping against the fences around the
// request's endpoints. Enter and exit fire once per flip, repeated pings on
// the same side of a fence are ignored. Returns the request event types that
// were emitted
func (s *Service) ObservePosition(request *dataobjects.PartsRequest, runnerID string, p dataobjects.Point) ([]string, error) {
	emitted := []string{}

	endpoints := []struct {
		location *dataobjects.Location
		isOrigin bool
	}{
		{request.Origin, true},
		{request.Destination, false},
	}
	for _, endpoint := range endpoints {
		if endpoint.location == nil {
			continue
		}
		fence, err := s.ensureFence(s.node, endpoint.location)
		if err != nil {
			return emitted, err
		}
		entered, exited := s.fenceFlip(fence.ID, runnerID, request.ID, fence.Contains(p))
		if !entered && !exited {
			continue
		}

		tx, err := s.node.Beginx()
		if err != nil {
			return emitted, err
		}
		fenceEventType := "exit"
		if entered {
			fenceEventType = "enter"
		}
		eventID, err := uuid.NewV4()
		if err != nil {
			tx.Rollback()
			return emitted, err
		}
		fenceEvent := &dataobjects.GeoFenceEvent{
			ID:        eventID.String(),
			FenceID:   fence.ID,
			RequestID: request.ID,
			RunnerID:  runnerID,
			Type:      fenceEventType,
			Position:  p,
			Time:      time.Now(),
		}
		if err := fenceEvent.Update(tx); err != nil {
			tx.Rollback()
			return emitted, err
		}

		requestEventType := ""
		switch {
		case entered && endpoint.isOrigin:
			requestEventType = "arrived_pickup"
		case entered && !endpoint.isOrigin:
			requestEventType = "arrived_dropoff"
		case exited && endpoint.isOrigin && request.Status == dataobjects.StatusPickedUp:
			requestEventType = "departed_pickup"
		}
		if requestEventType != "" {
			if err := recordEvent(tx, request.ID, requestEventType, runnerID, ""); err != nil {
				tx.Rollback()
				return emitted, err
			}
			emitted = append(emitted, requestEventType)
		}
		if err := tx.Commit(); err != nil {
			return emitted, err
		}
	}
	return emitted, nil
}

// fenceFlip updates the remembered inside/outside state for a
// (fence, runner, request) triple and reports whether this observation
// crossed the fence boundary. Unknown state counts as outside
func (s *Service) fenceFlip(fenceID, runnerID, requestID string, inside bool) (entered, exited bool) {
	key := fmt.Sprintf("geofence_state_%s_runner_%s_request_%s", fenceID, runnerID, requestID)
	wasInside := false
	if prev, present := s.geostate.Get(key); present {
		wasInside = prev.(bool)
	}
	s.geostate.SetDefault(key, inside)
	return inside && !wasInside, !inside && wasInside
}

// ensureFence returns the fence around a location, creating one with the
// location's radius (or the default) when none exists yet
func (s *Service) ensureFence(node sqalx.Node, location *dataobjects.Location) (*dataobjects.GeoFence, error) {
	fence, err := dataobjects.GetGeoFenceForLocation(node, location.ID)
	if err == nil {
		return fence, nil
	}
	radius := location.GeofenceRadius
	if radius <= 0 {
		radius = DefaultGeofenceRadius
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	fence = &dataobjects.GeoFence{
		ID:       id.String(),
		Location: location,
		Name:     location.Name,
		Center:   location.Position,
		Radius:   radius,
	}
	if err := fence.Update(node); err != nil {
		return nil, err
	}
	return fence, nil
}
