package resource

import (
	"strconv"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/pkg/math"
	"github.com/rickb777/date"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
)

// Request composites resource
type Request struct {
	resource
	dispatch *dispatch.Service
}

type apiRequest struct {
	ID            string                    `msgpack:"id" json:"id"`
	Reference     string                    `msgpack:"reference" json:"reference"`
	Type          dataobjects.RequestType   `msgpack:"type" json:"type"`
	Urgency       dataobjects.Urgency       `msgpack:"urgency" json:"urgency"`
	Status        dataobjects.RequestStatus `msgpack:"status" json:"status"`
	OriginID      string                    `msgpack:"origin" json:"origin"`
	DestinationID string                    `msgpack:"destination" json:"destination"`
	Details       string                    `msgpack:"details" json:"details"`
	RequestedAt   time.Time                 `msgpack:"requestedAt" json:"requestedAt"`
	RunID         string                    `msgpack:"run,omitempty" json:"run,omitempty"`
	SegmentOrder  int                       `msgpack:"segmentOrder,omitempty" json:"segmentOrder,omitempty"`
	ScheduledFor  string                    `msgpack:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
}

type apiRequestEvent struct {
	Type   string    `msgpack:"type" json:"type"`
	Notes  string    `msgpack:"notes,omitempty" json:"notes,omitempty"`
	UserID string    `msgpack:"user" json:"user"`
	Time   time.Time `msgpack:"time" json:"time"`
}

type apiRequestDetail struct {
	apiRequest `msgpack:",inline"`
	Segments   []apiRequest      `msgpack:"segments,omitempty" json:"segments,omitempty"`
	Events     []apiRequestEvent `msgpack:"events" json:"events"`
}

func toAPIrequest(request *dataobjects.PartsRequest) apiRequest {
	ar := apiRequest{
		ID:           request.ID,
		Reference:    request.Reference,
		Type:         request.Type,
		Urgency:      request.Urgency,
		Status:       request.Status,
		Details:      request.Details,
		RequestedAt:  request.RequestedAt,
		SegmentOrder: request.SegmentOrder,
	}
	if request.Origin != nil {
		ar.OriginID = request.Origin.ID
	}
	if request.Destination != nil {
		ar.DestinationID = request.Destination.ID
	}
	if request.RunID.Valid {
		ar.RunID = request.RunID.String
	}
	if request.ScheduledFor != nil {
		ar.ScheduledFor = request.ScheduledFor.String()
	}
	return ar
}

// WithNode associates a sqalx Node with this resource
func (r *Request) WithNode(node sqalx.Node) *Request {
	r.node = node
	return r
}

// WithDispatch associates a dispatch service with this resource
func (r *Request) WithDispatch(dispatch *dispatch.Service) *Request {
	r.dispatch = dispatch
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Request) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		request, err := dataobjects.GetPartsRequest(tx, c.Param("id"))
		if err != nil {
			return apiError(err)
		}
		detail := apiRequestDetail{apiRequest: toAPIrequest(request)}
		segments, err := request.Segments(tx)
		if err != nil {
			return apiError(err)
		}
		for _, segment := range segments {
			detail.Segments = append(detail.Segments, toAPIrequest(segment))
		}
		events, err := request.Events(tx)
		if err != nil {
			return apiError(err)
		}
		for _, event := range events {
			detail.Events = append(detail.Events, apiRequestEvent{
				Type:   event.Type,
				Notes:  event.Notes.String,
				UserID: event.UserID,
				Time:   event.Time,
			})
		}
		RenderData(c, detail)
		return nil
	}

	limit := 50
	if l, err := strconv.Atoi(c.Request.URL.Query().Get("limit")); err == nil {
		limit = math.Min(math.Max(l, 1), 200)
	}
	requests, err := dataobjects.GetPartsRequests(tx)
	if err != nil {
		return apiError(err)
	}
	apirequests := []apiRequest{}
	for i := len(requests) - 1; i >= 0 && len(apirequests) < limit; i-- {
		if requests[i].DeletedAt.Valid {
			continue
		}
		apirequests = append(apirequests, toAPIrequest(requests[i]))
	}
	RenderData(c, apirequests)
	return nil
}

type newRequestPayload struct {
	Type          string `msgpack:"type" json:"type"`
	Urgency       string `msgpack:"urgency" json:"urgency"`
	OriginID      string `msgpack:"origin" json:"origin"`
	DestinationID string `msgpack:"destination" json:"destination"`
	Details       string `msgpack:"details" json:"details"`
	ItemID        string `msgpack:"item" json:"item"`
	ScheduledFor  string `msgpack:"scheduledFor" json:"scheduledFor"`
	RequestedBy   string `msgpack:"requestedBy" json:"requestedBy"`
	OverrideRunID string `msgpack:"overrideRun" json:"overrideRun"`
	OverrideNote  string `msgpack:"overrideNote" json:"overrideNote"`
}

// Post serves HTTP POST requests on this resource
func (r *Request) Post(c *yarf.Context) error {
	var payload newRequestPayload
	if err := r.DecodeRequest(c, &payload); err != nil {
		return err
	}

	nr := dispatch.NewRequest{
		Type:          dataobjects.RequestType(payload.Type),
		Urgency:       dataobjects.Urgency(payload.Urgency),
		OriginID:      payload.OriginID,
		DestinationID: payload.DestinationID,
		Details:       payload.Details,
		ItemID:        payload.ItemID,
		RequestedBy:   payload.RequestedBy,
		OverrideRunID: payload.OverrideRunID,
		OverrideNote:  payload.OverrideNote,
	}
	if payload.ScheduledFor != "" {
		d, err := date.Parse("2006-01-02", payload.ScheduledFor)
		if err != nil {
			return apiError(dispatch.ValidationError{Reason: "scheduledFor must be YYYY-MM-DD"})
		}
		nr.ScheduledFor = &d
	}

	request, err := r.dispatch.CreateRequest(nr)
	if err != nil {
		return apiError(err)
	}

	if c.Request.URL.Query().Get("assign") == "true" {
		if _, err := r.dispatch.AutoAssignRequest(request); err != nil {
			return apiError(err)
		}
	}
	c.Response.WriteHeader(201)
	RenderData(c, toAPIrequest(request))
	return nil
}
