package dispatch

import (
	"testing"
	"time"

	"github.com/rickb777/date"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// countingNotifier records how often each notification fires
type countingNotifier struct {
	NopNotifier
	assigned int
}

func (n *countingNotifier) RequestAssigned(request *dataobjects.PartsRequest, run *dataobjects.RunInstance) {
	n.assigned++
}

// the binding guards run before any database work, so they are testable with
// in-memory entities alone

func TestAssignRejectsForeignStops(t *testing.T) {
	notifier := &countingNotifier{}
	s := &Service{notifier: notifier}
	north := &dataobjects.Route{ID: "north"}
	south := &dataobjects.Route{ID: "south"}
	run := &dataobjects.RunInstance{ID: "run1", Route: north}
	pickup := &dataobjects.RouteStop{ID: "stop1", Route: south}
	dropoff := &dataobjects.RouteStop{ID: "stop2", Route: north}

	after, err := s.assignRequestToRun(nil, &dataobjects.PartsRequest{}, run, pickup, dropoff)
	if err == nil {
		t.Fatal("expected stops from another route to be rejected")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
	if after != nil {
		t.Error("expected no pending notifications on failure")
	}
	if notifier.assigned != 0 {
		t.Error("expected no assignment notification on failure")
	}
}

func TestAssignRejectsDateMismatch(t *testing.T) {
	s := &Service{notifier: NopNotifier{}}
	north := &dataobjects.Route{ID: "north"}
	run := &dataobjects.RunInstance{
		ID:            "run1",
		Route:         north,
		ScheduledDate: date.New(2026, time.March, 2),
	}
	pickup := &dataobjects.RouteStop{ID: "stop1", Route: north}
	dropoff := &dataobjects.RouteStop{ID: "stop2", Route: north}

	wanted := date.New(2026, time.March, 3)
	request := &dataobjects.PartsRequest{ScheduledFor: &wanted}

	_, err := s.assignRequestToRun(nil, request, run, pickup, dropoff)
	if err == nil {
		t.Fatal("expected a scheduled date mismatch to be rejected")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
}

func TestCreateRequestRejectsSameEndpoints(t *testing.T) {
	s := &Service{notifier: NopNotifier{}}

	_, err := s.CreateRequest(NewRequest{
		Type:          dataobjects.RequestPartTransfer,
		OriginID:      "loc1",
		DestinationID: "loc1",
		RequestedBy:   "user1",
	})
	if err == nil {
		t.Fatal("expected identical endpoints to be rejected")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
}
