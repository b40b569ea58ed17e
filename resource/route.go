package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// Route composites resource
type Route struct {
	resource
}

type apiRoute struct {
	ID       string `msgpack:"id" json:"id"`
	Name     string `msgpack:"name" json:"name"`
	Code     string `msgpack:"code" json:"code"`
	IsActive bool   `msgpack:"isActive" json:"isActive"`
}

type apiRouteStop struct {
	ID          string           `msgpack:"id" json:"id"`
	Type        dataobjects.StopType `msgpack:"type" json:"type"`
	Order       int              `msgpack:"order" json:"order"`
	LocationIDs []string         `msgpack:"locationIDs" json:"locationIDs"`
}

type apiRouteSchedule struct {
	ID         string `msgpack:"id" json:"id"`
	Name       string `msgpack:"name" json:"name"`
	Time       string `msgpack:"time" json:"time"`
	DaysOfWeek []int  `msgpack:"daysOfWeek" json:"daysOfWeek"`
	IsActive   bool   `msgpack:"isActive" json:"isActive"`
}

type apiRouteDetail struct {
	apiRoute  `msgpack:",inline"`
	Stops     []apiRouteStop     `msgpack:"stops" json:"stops"`
	Schedules []apiRouteSchedule `msgpack:"schedules" json:"schedules"`
}

// WithNode associates a sqalx Node with this resource
func (r *Route) WithNode(node sqalx.Node) *Route {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *Route) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	if c.Param("id") != "" {
		route, err := dataobjects.GetRoute(tx, c.Param("id"))
		if err != nil {
			return apiError(err)
		}
		detail := apiRouteDetail{
			apiRoute: apiRoute{ID: route.ID, Name: route.Name, Code: route.Code, IsActive: route.IsActive},
		}
		stops, err := route.Stops(tx)
		if err != nil {
			return apiError(err)
		}
		for _, stop := range stops {
			locationIDs, err := stop.LocationIDs(tx)
			if err != nil {
				return apiError(err)
			}
			detail.Stops = append(detail.Stops, apiRouteStop{
				ID:          stop.ID,
				Type:        stop.Type,
				Order:       stop.Order,
				LocationIDs: locationIDs,
			})
		}
		schedules, err := route.Schedules(tx)
		if err != nil {
			return apiError(err)
		}
		for _, schedule := range schedules {
			detail.Schedules = append(detail.Schedules, apiRouteSchedule{
				ID:         schedule.ID,
				Name:       schedule.Name,
				Time:       schedule.Time.HourMinute(),
				DaysOfWeek: schedule.DaysOfWeek,
				IsActive:   schedule.IsActive,
			})
		}
		RenderData(c, detail)
	} else {
		routes, err := dataobjects.GetActiveRoutes(tx)
		if err != nil {
			return apiError(err)
		}
		apiroutes := make([]apiRoute, len(routes))
		for i, route := range routes {
			apiroutes[i] = apiRoute{ID: route.ID, Name: route.Name, Code: route.Code, IsActive: route.IsActive}
		}
		RenderData(c, apiroutes)
	}
	return nil
}
