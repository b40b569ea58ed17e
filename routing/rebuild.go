package routing

import (
	"fmt"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// RebuildStats summarizes a full cache rebuild
type RebuildStats struct {
	Pairs       int
	Unreachable int
}

// RebuildCache drops the memoized graph and every persisted path result,
// then recomputes the path for every ordered pair of routable locations.
// Quadratic in location count, run it in the background
func (s *Service) RebuildCache() (RebuildStats, error) {
	stats := RebuildStats{}

	s.Invalidate()
	if err := dataobjects.ClearRouteGraphCache(s.node); err != nil {
		return stats, fmt.Errorf("RebuildCache: %s", err)
	}

	graph, names, err := s.Graph()
	if err != nil {
		return stats, fmt.Errorf("RebuildCache: %s", err)
	}

	nodes := graph.Nodes()
	for _, fromID := range nodes {
		for _, toID := range nodes {
			if fromID == toID {
				continue
			}
			result, err := s.findAndMemoize(graph, names, fromID, toID)
			if err != nil {
				return stats, fmt.Errorf("RebuildCache: %s", err)
			}
			stats.Pairs++
			if result == nil {
				stats.Unreachable++
			}
		}
	}
	s.log.Printf("RebuildCache: %d pairs cached, %d need manual routing", stats.Pairs, stats.Unreachable)
	return stats, nil
}
