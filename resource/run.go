package resource

import (
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
)

// Run composites resource
type Run struct {
	resource
}

type apiRun struct {
	ID            string                `msgpack:"id" json:"id"`
	RouteID       string                `msgpack:"route" json:"route"`
	ScheduledDate string                `msgpack:"scheduledDate" json:"scheduledDate"`
	ScheduledTime string                `msgpack:"scheduledTime" json:"scheduledTime"`
	Status        dataobjects.RunStatus `msgpack:"status" json:"status"`
	RunnerID      string                `msgpack:"runner,omitempty" json:"runner,omitempty"`
	CurrentStopID string                `msgpack:"currentStop,omitempty" json:"currentStop,omitempty"`
}

type apiStopActual struct {
	StopID         string     `msgpack:"stop" json:"stop"`
	StopOrder      int        `msgpack:"stopOrder" json:"stopOrder"`
	ArrivedAt      *time.Time `msgpack:"arrivedAt,omitempty" json:"arrivedAt,omitempty"`
	DepartedAt     *time.Time `msgpack:"departedAt,omitempty" json:"departedAt,omitempty"`
	TasksTotal     int        `msgpack:"tasksTotal" json:"tasksTotal"`
	TasksCompleted int        `msgpack:"tasksCompleted" json:"tasksCompleted"`
}

type apiRunDetail struct {
	apiRun   `msgpack:",inline"`
	Stops    []apiStopActual `msgpack:"stops" json:"stops"`
	Requests []apiRequest    `msgpack:"requests" json:"requests"`
}

func toAPIrun(run *dataobjects.RunInstance) apiRun {
	ar := apiRun{
		ID:            run.ID,
		RouteID:       run.Route.ID,
		ScheduledDate: run.ScheduledDate.String(),
		ScheduledTime: run.ScheduledTime.HourMinute(),
		Status:        run.Status,
	}
	if run.RunnerID.Valid {
		ar.RunnerID = run.RunnerID.String
	}
	if run.CurrentStopID.Valid {
		ar.CurrentStopID = run.CurrentStopID.String
	}
	return ar
}

// WithNode associates a sqalx Node with this resource
func (r *Run) WithNode(node sqalx.Node) *Run {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Run) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	run, err := dataobjects.GetRunInstance(tx, c.Param("id"))
	if err != nil {
		return apiError(err)
	}
	detail := apiRunDetail{apiRun: toAPIrun(run)}

	actuals, err := run.StopActuals(tx)
	if err != nil {
		return apiError(err)
	}
	for _, actual := range actuals {
		asa := apiStopActual{
			StopID:         actual.Stop.ID,
			StopOrder:      actual.Stop.Order,
			TasksTotal:     actual.TasksTotal,
			TasksCompleted: actual.TasksCompleted,
		}
		if actual.ArrivedAt.Valid {
			asa.ArrivedAt = &actual.ArrivedAt.Time
		}
		if actual.DepartedAt.Valid {
			asa.DepartedAt = &actual.DepartedAt.Time
		}
		detail.Stops = append(detail.Stops, asa)
	}

	requests, err := run.Requests(tx)
	if err != nil {
		return apiError(err)
	}
	for _, request := range requests {
		detail.Requests = append(detail.Requests, toAPIrequest(request))
	}
	RenderData(c, detail)
	return nil
}

// RunAction composites resource and changes run lifecycle state
type RunAction struct {
	resource
	dispatch *dispatch.Service
}

// WithNode associates a sqalx Node with this resource
func (r *RunAction) WithNode(node sqalx.Node) *RunAction {
	r.node = node
	return r
}

// WithDispatch associates a dispatch service with this resource
func (r *RunAction) WithDispatch(dispatch *dispatch.Service) *RunAction {
	r.dispatch = dispatch
	return r
}

type runActionPayload struct {
	RunnerID string `msgpack:"runner" json:"runner"`
	Reason   string `msgpack:"reason" json:"reason"`
	UserID   string `msgpack:"user" json:"user"`
}

// Post serves HTTP POST requests on this resource
func (r *RunAction) Post(c *yarf.Context) error {
	var payload runActionPayload
	if err := r.DecodeRequest(c, &payload); err != nil {
		return err
	}

	var run *dataobjects.RunInstance
	var err error
	switch c.Param("action") {
	case "start":
		run, err = r.dispatch.StartRun(c.Param("id"), payload.RunnerID)
	case "complete":
		run, err = r.dispatch.CompleteRun(c.Param("id"))
	case "cancel":
		run, err = r.dispatch.CancelRun(c.Param("id"), payload.Reason, payload.UserID)
	default:
		return apiError(dispatch.ValidationError{Reason: "unknown run action " + c.Param("action")})
	}
	if err != nil {
		return apiError(err)
	}
	RenderData(c, toAPIrun(run))
	return nil
}

// RunStopAction composites resource and records stop arrivals and departures
type RunStopAction struct {
	resource
	dispatch *dispatch.Service
}

// WithNode associates a sqalx Node with this resource
func (r *RunStopAction) WithNode(node sqalx.Node) *RunStopAction {
	r.node = node
	return r
}

// WithDispatch associates a dispatch service with this resource
func (r *RunStopAction) WithDispatch(dispatch *dispatch.Service) *RunStopAction {
	r.dispatch = dispatch
	return r
}

// Post serves HTTP POST requests on this resource
func (r *RunStopAction) Post(c *yarf.Context) error {
	var actual *dataobjects.RunStopActual
	var err error
	switch c.Param("action") {
	case "arrive":
		actual, err = r.dispatch.ArriveAtStop(c.Param("id"), c.Param("stop"))
	case "depart":
		force := c.Request.URL.Query().Get("force") == "true"
		actual, err = r.dispatch.DepartFromStop(c.Param("id"), c.Param("stop"), force)
	default:
		return apiError(dispatch.ValidationError{Reason: "unknown stop action " + c.Param("action")})
	}
	if err != nil {
		return apiError(err)
	}
	asa := apiStopActual{
		StopID:         actual.Stop.ID,
		StopOrder:      actual.Stop.Order,
		TasksTotal:     actual.TasksTotal,
		TasksCompleted: actual.TasksCompleted,
	}
	if actual.ArrivedAt.Valid {
		asa.ArrivedAt = &actual.ArrivedAt.Time
	}
	if actual.DepartedAt.Valid {
		asa.DepartedAt = &actual.DepartedAt.Time
	}
	RenderData(c, asa)
	return nil
}

// RunPosition composites resource and ingests runner GPS pings, evaluating
// them against the geofences of the run's active requests
type RunPosition struct {
	resource
	dispatch *dispatch.Service
}

// WithNode associates a sqalx Node with this resource
func (r *RunPosition) WithNode(node sqalx.Node) *RunPosition {
	r.node = node
	return r
}

// WithDispatch associates a dispatch service with this resource
func (r *RunPosition) WithDispatch(dispatch *dispatch.Service) *RunPosition {
	r.dispatch = dispatch
	return r
}

type positionPayload struct {
	Lat      float64 `msgpack:"lat" json:"lat"`
	Lng      float64 `msgpack:"lng" json:"lng"`
	RunnerID string  `msgpack:"runner" json:"runner"`
}

// Post serves HTTP POST requests on this resource
func (r *RunPosition) Post(c *yarf.Context) error {
	var payload positionPayload
	if err := r.DecodeRequest(c, &payload); err != nil {
		return err
	}

	run, err := dataobjects.GetRunInstance(r.node, c.Param("id"))
	if err != nil {
		return apiError(err)
	}
	requests, err := run.Requests(r.node)
	if err != nil {
		return apiError(err)
	}

	emitted := []string{}
	p := dataobjects.Point{payload.Lat, payload.Lng}
	for _, request := range requests {
		if request.Status.IsTerminal() {
			continue
		}
		events, err := r.dispatch.ObservePosition(request, payload.RunnerID, p)
		if err != nil {
			return apiError(err)
		}
		emitted = append(emitted, events...)
	}
	RenderData(c, map[string]interface{}{"events": emitted})
	return nil
}
