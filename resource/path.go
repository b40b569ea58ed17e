package resource

import (
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/routing"
)

// Path composites resource and serves path lookups between locations
type Path struct {
	resource
	routes *routing.Service
}

type apiPathResponse struct {
	*routing.PathResult   `msgpack:",inline"`
	RequiresManualRouting bool `msgpack:"requiresManualRouting" json:"requiresManualRouting"`
}

// WithRouting associates a routing service with this resource
func (r *Path) WithRouting(routes *routing.Service) *Path {
	r.routes = routes
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Path) Get(c *yarf.Context) error {
	result, err := r.routes.FindPath(c.Param("from"), c.Param("to"))
	if err != nil {
		return apiError(err)
	}
	RenderData(c, apiPathResponse{
		PathResult:            result,
		RequiresManualRouting: result == nil,
	})
	return nil
}

// GraphRebuild composites resource and triggers route graph cache rebuilds
type GraphRebuild struct {
	resource
	trigger func()
}

// WithTrigger associates the rebuild trigger with this resource
func (r *GraphRebuild) WithTrigger(trigger func()) *GraphRebuild {
	r.trigger = trigger
	return r
}

// Post serves HTTP POST requests on this resource
func (r *GraphRebuild) Post(c *yarf.Context) error {
	r.trigger()
	c.Response.WriteHeader(202)
	RenderData(c, map[string]string{"status": "rebuild queued"})
	return nil
}
