package dispatch

import (
	"testing"
	"time"

	cache "github.com/patrickmn/go-cache"
)

func newGeofenceTestService() *Service {
	return &Service{
		geostate: cache.New(GeofenceStateTTL, 1*time.Hour),
	}
}

func TestFenceFlipFiresOncePerCrossing(t *testing.T) {
	s := newGeofenceTestService()

	entered, exited := s.fenceFlip("fence1", "runner1", "req1", true)
	if !entered || exited {
		t.Fatalf("first inside ping should enter, got entered=%v exited=%v", entered, exited)
	}

	// repeated pings inside do not fire again
	for i := 0; i < 3; i++ {
		entered, exited = s.fenceFlip("fence1", "runner1", "req1", true)
		if entered || exited {
			t.Fatalf("repeated inside ping %d should not flip, got entered=%v exited=%v", i, entered, exited)
		}
	}

	entered, exited = s.fenceFlip("fence1", "runner1", "req1", false)
	if entered || !exited {
		t.Fatalf("leaving should exit, got entered=%v exited=%v", entered, exited)
	}

	entered, exited = s.fenceFlip("fence1", "runner1", "req1", false)
	if entered || exited {
		t.Fatalf("repeated outside ping should not flip, got entered=%v exited=%v", entered, exited)
	}
}

func TestFenceFlipUnknownStateIsOutside(t *testing.T) {
	s := newGeofenceTestService()

	entered, exited := s.fenceFlip("fence1", "runner1", "req1", false)
	if entered || exited {
		t.Errorf("an outside ping with no remembered state should not flip, got entered=%v exited=%v", entered, exited)
	}
}

func TestFenceFlipIsolatesTriples(t *testing.T) {
	s := newGeofenceTestService()

	s.fenceFlip("fence1", "runner1", "req1", true)

	// a different runner, request or fence keeps its own state
	if entered, _ := s.fenceFlip("fence1", "runner2", "req1", true); !entered {
		t.Error("another runner's first inside ping should enter")
	}
	if entered, _ := s.fenceFlip("fence1", "runner1", "req2", true); !entered {
		t.Error("another request's first inside ping should enter")
	}
	if entered, _ := s.fenceFlip("fence2", "runner1", "req1", true); !entered {
		t.Error("another fence's first inside ping should enter")
	}
}
