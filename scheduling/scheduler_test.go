package scheduling

import (
	"testing"

	"github.com/lib/pq"

	"github.com/partsrunner/dispatchd/dataobjects"
)

func TestFindNextAvailableRunInactiveRoute(t *testing.T) {
	scheduler := &Scheduler{}
	route := &dataobjects.Route{ID: "north", IsActive: false}

	run, err := scheduler.FindNextAvailableRun(route, nil, "loc1")
	if err != nil {
		t.Fatalf("FindNextAvailableRun: %s", err)
	}
	if run != nil {
		t.Error("expected no run for an inactive route")
	}
}

func TestFindNextAvailableRunDeletedRoute(t *testing.T) {
	scheduler := &Scheduler{}
	route := &dataobjects.Route{ID: "north", IsActive: true, DeletedAt: pq.NullTime{Valid: true}}

	run, err := scheduler.FindNextAvailableRun(route, nil, "loc1")
	if err != nil {
		t.Fatalf("FindNextAvailableRun: %s", err)
	}
	if run != nil {
		t.Error("expected no run for a deleted route")
	}
}

func TestFindRunAfterInactiveRoute(t *testing.T) {
	scheduler := &Scheduler{}
	current := &dataobjects.RunInstance{
		ID:    "run1",
		Route: &dataobjects.Route{ID: "north", IsActive: false},
	}

	run, err := scheduler.FindRunAfter(current, "loc1")
	if err != nil {
		t.Fatalf("FindRunAfter: %s", err)
	}
	if run != nil {
		t.Error("expected no later run on an inactive route")
	}
}
