package main

import (
	"github.com/partsrunner/dispatchd/resource"
	"github.com/yarf-framework/yarf"
)

// APIserver runs the public API
func APIserver() {
	resource.OnRequestServed = func() {
		select {
		case APIrequestTelemetry <- nil:
		default:
		}
	}

	y := yarf.New()

	v1 := yarf.RouteGroup("/v1")

	v1.Add("/locations", new(resource.Location).WithNode(rootSqalxNode))
	v1.Add("/locations/:id", new(resource.Location).WithNode(rootSqalxNode))

	v1.Add("/routes", new(resource.Route).WithNode(rootSqalxNode))
	v1.Add("/routes/:id", new(resource.Route).WithNode(rootSqalxNode))

	v1.Add("/paths/:from/:to", new(resource.Path).WithRouting(routingService))
	v1.Add("/routegraph/rebuild", new(resource.GraphRebuild).WithTrigger(RequestRouteGraphRebuild))

	v1.Add("/requests", new(resource.Request).WithNode(rootSqalxNode).WithDispatch(dispatchService))
	v1.Add("/requests/:id", new(resource.Request).WithNode(rootSqalxNode).WithDispatch(dispatchService))
	v1.Add("/requests/:id/actions/:action", new(resource.RequestAction).WithNode(rootSqalxNode).WithDispatch(dispatchService))

	v1.Add("/segments/unbound", new(resource.UnboundSegment).WithNode(rootSqalxNode))

	v1.Add("/runs/:id", new(resource.Run).WithNode(rootSqalxNode))
	v1.Add("/runs/:id/actions/:action", new(resource.RunAction).WithNode(rootSqalxNode).WithDispatch(dispatchService))
	v1.Add("/runs/:id/stops/:stop/:action", new(resource.RunStopAction).WithNode(rootSqalxNode).WithDispatch(dispatchService))
	v1.Add("/runs/:id/position", new(resource.RunPosition).WithNode(rootSqalxNode).WithDispatch(dispatchService))

	v1.Add("/closeddates", new(resource.ClosedDate).WithNode(rootSqalxNode))

	y.AddGroup(v1)

	y.Logger = webLog
	y.Start(APIlistenAddr)
}
