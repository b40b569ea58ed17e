package resource

import (
	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
)

// ClosedDate composites resource
type ClosedDate struct {
	resource
}

type apiClosedDate struct {
	Date  string `msgpack:"date" json:"date"`
	Name  string `msgpack:"name" json:"name"`
	Notes string `msgpack:"notes,omitempty" json:"notes,omitempty"`
}

// WithNode associates a sqalx Node with this resource
func (r *ClosedDate) WithNode(node sqalx.Node) *ClosedDate {
	r.node = node
	return r
}

// Get serves HTTP GET requests on this resource
func (r *ClosedDate) Get(c *yarf.Context) error {
	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Commit() // read-only tx

	closedDates, err := dataobjects.GetClosedDates(tx)
	if err != nil {
		return apiError(err)
	}
	apidates := make([]apiClosedDate, len(closedDates))
	for i, cd := range closedDates {
		apidates[i] = apiClosedDate{
			Date:  cd.Date.String(),
			Name:  cd.Name,
			Notes: cd.Notes,
		}
	}
	RenderData(c, apidates)
	return nil
}

// Post serves HTTP POST requests on this resource
func (r *ClosedDate) Post(c *yarf.Context) error {
	var payload apiClosedDate
	if err := r.DecodeRequest(c, &payload); err != nil {
		return err
	}
	d, err := date.Parse("2006-01-02", payload.Date)
	if err != nil {
		return apiError(dispatch.ValidationError{Reason: "date must be YYYY-MM-DD"})
	}

	tx, err := r.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	closedDate := &dataobjects.ClosedDate{
		Date:  d,
		Name:  payload.Name,
		Notes: payload.Notes,
	}
	if err := closedDate.Update(tx); err != nil {
		return apiError(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.Response.WriteHeader(201)
	RenderData(c, payload)
	return nil
}
