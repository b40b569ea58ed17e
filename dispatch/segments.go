package dispatch

import (
	"fmt"

	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/routing"
)

// SegmentSpec is the plan for one leg of a multi-leg request
type SegmentSpec struct {
	Order         int
	OriginID      string
	DestinationID string
	RouteID       string
}

// PlanSegments decomposes a multi-leg path into per-route legs. Each leg
// starts where the previous one ended, orders start at 1
func PlanSegments(path *routing.PathResult) []SegmentSpec {
	if path == nil || len(path.Path) < 2 {
		return nil
	}
	specs := []SegmentSpec{}
	legOrigin := path.Path[0].LocationID
	legRoute := path.Path[1].RouteID
	for i := 2; i < len(path.Path); i++ {
		if path.Path[i].RouteID == legRoute {
			continue
		}
		specs = append(specs, SegmentSpec{
			Order:         len(specs) + 1,
			OriginID:      legOrigin,
			DestinationID: path.Path[i-1].LocationID,
			RouteID:       legRoute,
		})
		legOrigin = path.Path[i-1].LocationID
		legRoute = path.Path[i].RouteID
	}
	specs = append(specs, SegmentSpec{
		Order:         len(specs) + 1,
		OriginID:      legOrigin,
		DestinationID: path.Path[len(path.Path)-1].LocationID,
		RouteID:       legRoute,
	})
	return specs
}

// createSegments turns a multi-leg request into child segment requests, all
// in one transaction. Run and stop binding per segment happens afterwards
// and is best effort, segments that fail to bind stay queryable for manual
// dispatch. The returned funcs are notifications for the caller to fire
// after its outermost commit
func (s *Service) createSegments(node sqalx.Node, request *dataobjects.PartsRequest, path *routing.PathResult) ([]*dataobjects.PartsRequest, []func(), error) {
	specs := PlanSegments(path)
	if len(specs) < 2 {
		return nil, nil, ValidationError{Reason: "path does not need segmentation"}
	}

	tx, err := node.Beginx()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	segments := []*dataobjects.PartsRequest{}
	for _, spec := range specs {
		origin, err := dataobjects.GetLocation(tx, spec.OriginID)
		if err != nil {
			return nil, nil, fmt.Errorf("createSegments: %s", err)
		}
		destination, err := dataobjects.GetLocation(tx, spec.DestinationID)
		if err != nil {
			return nil, nil, fmt.Errorf("createSegments: %s", err)
		}
		id, err := uuid.NewV4()
		if err != nil {
			return nil, nil, err
		}
		segment := &dataobjects.PartsRequest{
			ID:           id.String(),
			Reference:    fmt.Sprintf("%s-S%d", request.Reference, spec.Order),
			Type:         request.Type,
			Urgency:      request.Urgency,
			Status:       dataobjects.StatusNew,
			Origin:       origin,
			Destination:  destination,
			Details:      request.Details,
			ItemID:       request.ItemID,
			RequestedAt:  request.RequestedAt,
			RequestedBy:  request.RequestedBy,
			ParentID:     toNullString(request.ID),
			SegmentOrder: spec.Order,
			ScheduledFor: request.ScheduledFor,
		}
		if err := segment.Update(tx); err != nil {
			return nil, nil, err
		}
		segments = append(segments, segment)
	}

	// the parent delegates its movement to the segments
	request.Status = dataobjects.StatusAssigned
	if err := request.Update(tx); err != nil {
		return nil, nil, err
	}
	if err := recordEvent(tx, request.ID, "split_into_segments", SystemUser,
		fmt.Sprintf("split into %d segments", len(segments))); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	after := []func(){}
	for i, segment := range segments {
		bindAfter, err := s.bindSegment(node, segment, specs[i].RouteID)
		if err != nil {
			s.log.Printf("createSegments: segment %s needs manual dispatch: %s", segment.Reference, err)
			continue
		}
		after = append(after, bindAfter...)
	}
	return segments, after, nil
}

func (s *Service) bindSegment(node sqalx.Node, segment *dataobjects.PartsRequest, routeID string) ([]func(), error) {
	route, err := dataobjects.GetRoute(node, routeID)
	if err != nil {
		return nil, err
	}
	run, err := s.scheduler.FindNextAvailableRun(route, segment.ScheduledFor, segment.Origin.ID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ValidationError{Reason: "no available run on route " + routeID}
	}
	pickup, dropoff, err := s.findStopsForRun(node, run, segment)
	if err != nil {
		return nil, err
	}
	return s.assignRequestToRun(node, segment, run, pickup, dropoff)
}
