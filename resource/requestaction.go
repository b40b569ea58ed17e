package resource

import (
	"log"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
	"github.com/partsrunner/dispatchd/utils"
)

// RequestAction composites resource and executes workflow actions
type RequestAction struct {
	resource
	dispatch *dispatch.Service
}

// WithNode associates a sqalx Node with this resource
func (r *RequestAction) WithNode(node sqalx.Node) *RequestAction {
	r.node = node
	return r
}

// WithDispatch associates a dispatch service with this resource
func (r *RequestAction) WithDispatch(dispatch *dispatch.Service) *RequestAction {
	r.dispatch = dispatch
	return r
}

type actionPayload struct {
	Note     string   `msgpack:"note" json:"note"`
	PhotoRef string   `msgpack:"photoRef" json:"photoRef"`
	Lat      *float64 `msgpack:"lat" json:"lat"`
	Lng      *float64 `msgpack:"lng" json:"lng"`
	UserID   string   `msgpack:"user" json:"user"`
	Role     string   `msgpack:"role" json:"role"`
}

// Post serves HTTP POST requests on this resource
func (r *RequestAction) Post(c *yarf.Context) error {
	var payload actionPayload
	if err := r.DecodeRequest(c, &payload); err != nil {
		return err
	}

	input := dispatch.ActionInput{
		Note:     payload.Note,
		PhotoRef: payload.PhotoRef,
	}
	if payload.Lat != nil && payload.Lng != nil {
		input.Position = &dataobjects.Point{*payload.Lat, *payload.Lng}
	}
	actor := dispatch.Actor{
		UserID: payload.UserID,
		Role:   dataobjects.Role(payload.Role),
	}

	err := r.dispatch.ExecuteAction(c.Param("id"), c.Param("action"), input, actor)
	if err != nil {
		return apiError(err)
	}
	log.Println("action", c.Param("action"), "on request", c.Param("id"),
		"by", payload.UserID, "from", utils.GetClientIP(c.Request))

	request, err := dataobjects.GetPartsRequest(r.node, c.Param("id"))
	if err != nil {
		return apiError(err)
	}
	RenderData(c, map[string]string{
		"status": string(request.Status),
	})
	return nil
}

// UnboundSegment composites resource and lists segments waiting for manual
// dispatch
type UnboundSegment struct {
	resource
}

// WithNode associates a sqalx Node with this resource
func (r *UnboundSegment) WithNode(node sqalx.Node) *UnboundSegment {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *UnboundSegment) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	segments, err := dataobjects.GetSegmentsNeedingStops(tx)
	if err != nil {
		return apiError(err)
	}
	apisegments := make([]apiRequest, len(segments))
	for i := range segments {
		apisegments[i] = toAPIrequest(segments[i])
	}
	RenderData(c, apisegments)
	return nil
}
