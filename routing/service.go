package routing

import (
	"fmt"
	"log"
	"time"

	"github.com/gbl08ma/sqalx"
	cache "github.com/patrickmn/go-cache"
	"github.com/thoas/go-funk"

	"github.com/partsrunner/dispatchd/dataobjects"
)

const (
	// GraphCacheTTL is how long the in-memory graph is reused before being
	// rebuilt from the database
	GraphCacheTTL = 1 * time.Hour
	// PathCacheMaxAge is how long persisted path results stay authoritative
	PathCacheMaxAge = 24 * time.Hour

	graphCacheKey = "route_graph"
)

// PathResult is a resolved path between two locations. Routes holds the
// distinct routes ridden in order, Hops is how many of them there are
type PathResult struct {
	Path   dataobjects.PathHops `msgpack:"path" json:"path"`
	Routes []string             `msgpack:"routes" json:"routes"`
	Hops   int                  `msgpack:"hops" json:"hops"`
}

// Service resolves paths over the route topology, memoizing the graph in
// memory and path results in the database
type Service struct {
	node sqalx.Node
	mem  *cache.Cache
	log  *log.Logger
}

// NewService returns a new routing Service using the given database node
func NewService(node sqalx.Node, log *log.Logger) *Service {
	return &Service{
		node: node,
		mem:  cache.New(GraphCacheTTL, 10*time.Minute),
		log:  log,
	}
}

// Graph returns the current location graph, rebuilding it from the route
// topology when the memoized one expired
func (s *Service) Graph() (*Graph, map[string]string, error) {
	if cached, present := s.mem.Get(graphCacheKey); present {
		memo := cached.(*graphMemo)
		return memo.graph, memo.names, nil
	}
	stops, names, err := s.loadTopology()
	if err != nil {
		return nil, nil, err
	}
	graph := BuildGraph(stops)
	s.mem.SetDefault(graphCacheKey, &graphMemo{graph: graph, names: names})
	return graph, names, nil
}

type graphMemo struct {
	graph *Graph
	names map[string]string
}

// Invalidate drops the memoized graph. Call after mutating route topology
func (s *Service) Invalidate() {
	s.mem.Delete(graphCacheKey)
}

func (s *Service) loadTopology() ([]TopologyStop, map[string]string, error) {
	tx, err := s.node.Beginx()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Commit() // read-only tx

	routes, err := dataobjects.GetActiveRoutes(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("loadTopology: %s", err)
	}

	topology := []TopologyStop{}
	names := make(map[string]string)
	for _, route := range routes {
		stops, err := route.Stops(tx)
		if err != nil {
			return nil, nil, fmt.Errorf("loadTopology: %s", err)
		}
		for _, stop := range stops {
			tstop := TopologyStop{
				RouteID: route.ID,
				Order:   stop.Order,
			}
			locations := []*dataobjects.Location{}
			if stop.Type == dataobjects.StopLocation {
				if stop.Location != nil {
					locations = append(locations, stop.Location)
				}
			} else {
				entries, err := stop.ClusterEntries(tx)
				if err != nil {
					return nil, nil, fmt.Errorf("loadTopology: %s", err)
				}
				for _, entry := range entries {
					locations = append(locations, entry.Location)
				}
			}
			for _, location := range locations {
				if !location.Usable() {
					continue
				}
				tstop.LocationIDs = append(tstop.LocationIDs, location.ID)
				names[location.ID] = location.Name
			}
			if len(tstop.LocationIDs) > 0 {
				topology = append(topology, tstop)
			}
		}
	}
	return topology, names, nil
}

// FindPath resolves the path with the fewest stops between two locations.
// Returns nil with no error when the pair is unreachable, which also records
// the pair as needing manual routing
func (s *Service) FindPath(fromID, toID string) (*PathResult, error) {
	entry, err := dataobjects.GetRouteGraphCacheEntry(s.node, fromID, toID)
	if err == nil && entry.Fresh(PathCacheMaxAge) {
		if entry.RequiresManualRouting {
			return nil, nil
		}
		return resultFromHops(entry.Path), nil
	}

	graph, names, err := s.Graph()
	if err != nil {
		return nil, err
	}
	return s.findAndMemoize(graph, names, fromID, toID)
}

func (s *Service) findAndMemoize(graph *Graph, names map[string]string, fromID, toID string) (*PathResult, error) {
	edges := graph.ShortestPath(fromID, toID)
	entry := &dataobjects.RouteGraphCacheEntry{
		FromID:   fromID,
		ToID:     toID,
		CachedAt: time.Now(),
	}
	if edges == nil {
		entry.RequiresManualRouting = true
		if err := entry.Update(s.node); err != nil {
			// cache writes are best effort
			s.log.Println("FindPath: memoize:", err)
		}
		return nil, nil
	}

	hops := dataobjects.PathHops{}
	for _, edge := range edges {
		hops = append(hops, dataobjects.PathHop{
			LocationID:   edge.LocationID,
			LocationName: names[edge.LocationID],
			RouteID:      edge.RouteID,
		})
	}
	result := resultFromHops(hops)

	entry.Path = result.Path
	entry.HopCount = result.Hops
	if err := entry.Update(s.node); err != nil {
		s.log.Println("FindPath: memoize:", err)
	}
	return result, nil
}

// resultFromHops assembles a PathResult from its hops. Hops counts distinct
// routes ridden, a route re-entered after a transfer is not counted twice
func resultFromHops(hops dataobjects.PathHops) *PathResult {
	result := &PathResult{Path: hops}
	for _, hop := range hops {
		if hop.RouteID != "" && !funk.ContainsString(result.Routes, hop.RouteID) {
			result.Routes = append(result.Routes, hop.RouteID)
		}
	}
	result.Hops = len(result.Routes)
	return result
}
