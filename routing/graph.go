package routing

// Edge is a directed connection to a location, riding a route
type Edge struct {
	LocationID string
	RouteID    string
}

// TopologyStop is one stop of a route flattened to the physical locations it
// serves. Vendor cluster stops contribute every member location
type TopologyStop struct {
	RouteID     string
	Order       int
	LocationIDs []string
}

// Graph is the directed location graph induced by the active route
// topology. Nodes are location IDs, edges connect consecutive stops of each
// route
type Graph struct {
	adj   map[string][]Edge
	nodes []string
}

// BuildGraph builds the location graph from route topology. Stops must be
// grouped by route and ordered by stop order within each route
func BuildGraph(stops []TopologyStop) *Graph {
	g := &Graph{
		adj: make(map[string][]Edge),
	}
	addNode := func(id string) {
		if _, present := g.adj[id]; !present {
			g.adj[id] = []Edge{}
			g.nodes = append(g.nodes, id)
		}
	}
	for i, stop := range stops {
		for _, locationID := range stop.LocationIDs {
			addNode(locationID)
		}
		if i == 0 || stops[i-1].RouteID != stop.RouteID {
			continue
		}
		for _, fromID := range stops[i-1].LocationIDs {
			for _, toID := range stop.LocationIDs {
				if fromID == toID {
					continue
				}
				g.adj[fromID] = append(g.adj[fromID], Edge{LocationID: toID, RouteID: stop.RouteID})
			}
		}
	}
	return g
}

// Nodes returns the location IDs present in the graph, in insertion order
func (g *Graph) Nodes() []string {
	return g.nodes
}

// Neighbors returns the outgoing edges of a location
func (g *Graph) Neighbors(locationID string) []Edge {
	return g.adj[locationID]
}

// ShortestPath returns the path with the fewest stops from one location to
// another as a sequence of edges, the first carrying an empty RouteID. Ties
// resolve to the first path enqueued. Returns nil when no path exists
func (g *Graph) ShortestPath(fromID, toID string) []Edge {
	if _, present := g.adj[fromID]; !present {
		return nil
	}
	if _, present := g.adj[toID]; !present {
		return nil
	}
	start := []Edge{{LocationID: fromID}}
	if fromID == toID {
		return start
	}

	queue := [][]Edge{start}
	visited := map[string]bool{fromID: true}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		current := path[len(path)-1].LocationID
		for _, edge := range g.adj[current] {
			if visited[edge.LocationID] {
				continue
			}
			visited[edge.LocationID] = true
			next := make([]Edge, len(path), len(path)+1)
			copy(next, path)
			next = append(next, edge)
			if edge.LocationID == toID {
				return next
			}
			queue = append(queue, next)
		}
	}
	return nil
}
