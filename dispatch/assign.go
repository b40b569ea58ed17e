package dispatch

import (
	"database/sql"
	"fmt"

	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// AutoAssignRequest binds a request to the next suitable run. Returns whether
// the request ended up handled: a manual override or direct path means it was
// assigned, a multi-leg path means it was split into segments. false with no
// error means dispatch needs to handle the request manually
func (s *Service) AutoAssignRequest(request *dataobjects.PartsRequest) (bool, error) {
	handled, after, err := s.autoAssignRequest(s.node, request)
	if err != nil {
		return handled, err
	}
	for _, f := range after {
		f()
	}
	return handled, nil
}

// autoAssignRequest is the node-scoped assignment core. The returned funcs
// are notifications, the caller fires them once its outermost transaction
// has committed
func (s *Service) autoAssignRequest(node sqalx.Node, request *dataobjects.PartsRequest) (bool, []func(), error) {
	if request.HasOverride() {
		run, err := dataobjects.GetRunInstance(node, request.OverrideRunID.String)
		if err != nil {
			return false, nil, fmt.Errorf("autoAssignRequest: %s", err)
		}
		pickup, dropoff, err := s.findStopsForRun(node, run, request)
		if err != nil {
			return false, nil, err
		}
		after, err := s.assignRequestToRun(node, request, run, pickup, dropoff)
		if err != nil {
			return false, nil, err
		}
		return true, after, nil
	}

	if request.Origin == nil || request.Destination == nil {
		return false, nil, nil
	}

	path, err := s.routes.FindPath(request.Origin.ID, request.Destination.ID)
	if err != nil {
		return false, nil, err
	}
	if path == nil {
		// unreachable pair, leave for manual routing
		return false, nil, nil
	}
	if len(path.Routes) == 0 {
		// origin and destination coincide, there is nothing to ride
		return false, nil, nil
	}

	if path.Hops > 1 {
		segments, after, err := s.createSegments(node, request, path)
		if err != nil {
			return false, nil, err
		}
		after = append(after, func() { s.notifier.RequestSplit(request, segments) })
		return true, after, nil
	}

	route, err := dataobjects.GetRoute(node, path.Routes[0])
	if err != nil {
		return false, nil, fmt.Errorf("autoAssignRequest: %s", err)
	}
	run, err := s.scheduler.FindNextAvailableRun(route, request.ScheduledFor, request.Origin.ID)
	if err != nil {
		return false, nil, err
	}
	if run == nil {
		return false, nil, nil
	}
	pickup, dropoff, err := s.findStopsForRun(node, run, request)
	if err != nil {
		return false, nil, err
	}
	after, err := s.assignRequestToRun(node, request, run, pickup, dropoff)
	if err != nil {
		return false, nil, err
	}
	return true, after, nil
}

// findStopsForRun resolves which stops of the run's route serve the request
// endpoints, honoring vendor cluster membership. The dropoff stop must come
// after the pickup stop
func (s *Service) findStopsForRun(node sqalx.Node, run *dataobjects.RunInstance, request *dataobjects.PartsRequest) (*dataobjects.RouteStop, *dataobjects.RouteStop, error) {
	if request.Origin == nil || request.Destination == nil {
		return nil, nil, ValidationError{Reason: "request has no endpoints"}
	}
	stops, err := run.Route.Stops(node)
	if err != nil {
		return nil, nil, fmt.Errorf("findStopsForRun: %s", err)
	}

	var pickup, dropoff *dataobjects.RouteStop
	for _, stop := range stops {
		if pickup == nil {
			serves, err := stop.ServesLocation(node, request.Origin.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("findStopsForRun: %s", err)
			}
			if serves {
				pickup = stop
				continue
			}
		}
		if pickup != nil {
			serves, err := stop.ServesLocation(node, request.Destination.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("findStopsForRun: %s", err)
			}
			if serves {
				dropoff = stop
				break
			}
		}
	}
	if pickup == nil || dropoff == nil {
		return nil, nil, ValidationError{Reason: "route does not serve both request endpoints in order"}
	}
	return pickup, dropoff, nil
}

// AssignRequestToRun binds a request to a run at the given stops
func (s *Service) AssignRequestToRun(request *dataobjects.PartsRequest, run *dataobjects.RunInstance,
	pickup, dropoff *dataobjects.RouteStop) error {
	after, err := s.assignRequestToRun(s.node, request, run, pickup, dropoff)
	if err != nil {
		return err
	}
	for _, f := range after {
		f()
	}
	return nil
}

// assignRequestToRun persists the binding and returns the assignment
// notification for the caller to fire after its outermost commit
func (s *Service) assignRequestToRun(node sqalx.Node, request *dataobjects.PartsRequest, run *dataobjects.RunInstance,
	pickup, dropoff *dataobjects.RouteStop) ([]func(), error) {
	if pickup.Route.ID != run.Route.ID || dropoff.Route.ID != run.Route.ID {
		return nil, ValidationError{Reason: "stops do not belong to the run's route"}
	}
	if request.ScheduledFor != nil && *request.ScheduledFor != run.ScheduledDate {
		return nil, ValidationError{Reason: fmt.Sprintf("request is scheduled for %s but the run departs %s",
			request.ScheduledFor, run.ScheduledDate)}
	}

	tx, err := node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	request.RunID = sql.NullString{String: run.ID, Valid: true}
	request.PickupStopID = sql.NullString{String: pickup.ID, Valid: true}
	request.DropoffStopID = sql.NullString{String: dropoff.ID, Valid: true}
	request.RunnerID = run.RunnerID
	if request.Status == dataobjects.StatusNew {
		request.Status = dataobjects.StatusAssigned
	}
	if err := request.Update(tx); err != nil {
		return nil, err
	}
	if err := recordEvent(tx, request.ID, "assigned", SystemUser,
		fmt.Sprintf("assigned to run %s", run.ID)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return []func(){func() { s.notifier.RequestAssigned(request, run) }}, nil
}

// ReassignToNextRun moves a request to the next available run on the same
// route. Returns false when no later run exists within the search horizon
func (s *Service) ReassignToNextRun(request *dataobjects.PartsRequest) (bool, error) {
	reassigned, after, err := s.reassignToNextRun(s.node, request)
	if err != nil {
		return reassigned, err
	}
	for _, f := range after {
		f()
	}
	return reassigned, nil
}

func (s *Service) reassignToNextRun(node sqalx.Node, request *dataobjects.PartsRequest) (bool, []func(), error) {
	if !request.IsAssigned() {
		return false, nil, ValidationError{Reason: "request is not assigned to a run"}
	}
	if request.Origin == nil {
		return false, nil, ValidationError{Reason: "request has no origin"}
	}
	current, err := dataobjects.GetRunInstance(node, request.RunID.String)
	if err != nil {
		return false, nil, fmt.Errorf("reassignToNextRun: %s", err)
	}
	next, err := s.scheduler.FindRunAfter(current, request.Origin.ID)
	if err != nil {
		return false, nil, err
	}
	if next == nil {
		return false, nil, nil
	}
	pickup, err := dataobjects.GetRouteStop(node, request.PickupStopID.String)
	if err != nil {
		return false, nil, fmt.Errorf("reassignToNextRun: %s", err)
	}
	dropoff, err := dataobjects.GetRouteStop(node, request.DropoffStopID.String)
	if err != nil {
		return false, nil, fmt.Errorf("reassignToNextRun: %s", err)
	}
	// the request keeps its scheduled date only if the next run matches it
	if request.ScheduledFor != nil && *request.ScheduledFor != next.ScheduledDate {
		request.ScheduledFor = nil
	}
	after, err := s.assignRequestToRun(node, request, next, pickup, dropoff)
	if err != nil {
		return false, nil, err
	}
	return true, after, nil
}

// UnassignRequest detaches a request from its run, recording why
func (s *Service) UnassignRequest(request *dataobjects.PartsRequest, reason, byUser string) error {
	return s.unassignRequest(s.node, request, reason, byUser)
}

func (s *Service) unassignRequest(node sqalx.Node, request *dataobjects.PartsRequest, reason, byUser string) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	request.RunID = sql.NullString{}
	request.PickupStopID = sql.NullString{}
	request.DropoffStopID = sql.NullString{}
	request.RunnerID = sql.NullString{}
	if err := request.Update(tx); err != nil {
		return err
	}
	if err := recordEvent(tx, request.ID, "unassigned", byUser, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// BatchSummary summarizes one scheduled-assignment batch
type BatchSummary struct {
	Processed   int
	Assigned    int
	NeedsManual int
	Errors      int
}

// ProcessScheduledRequests auto-assigns every unassigned request scheduled
// for the given date. Individual failures are logged and counted, only
// failing to enumerate the batch returns an error
func (s *Service) ProcessScheduledRequests(d date.Date) (BatchSummary, error) {
	summary := BatchSummary{}
	requests, err := dataobjects.GetScheduledPartsRequests(s.node, d)
	if err != nil {
		return summary, fmt.Errorf("ProcessScheduledRequests: %s", err)
	}
	for _, request := range requests {
		summary.Processed++
		handled, err := s.AutoAssignRequest(request)
		if err != nil {
			summary.Errors++
			s.log.Printf("ProcessScheduledRequests: request %s: %s", request.Reference, err)
			continue
		}
		if handled {
			summary.Assigned++
		} else {
			summary.NeedsManual++
		}
	}
	s.log.Printf("ProcessScheduledRequests %s: %d processed, %d assigned, %d need manual dispatch, %d errors",
		d, summary.Processed, summary.Assigned, summary.NeedsManual, summary.Errors)
	return summary, nil
}
