package resource

import (
	"encoding/json"
	"net/http"
	"strings"

	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"log"

	"github.com/gbl08ma/sqalx"
	"github.com/yarf-framework/yarf"

	"github.com/partsrunner/dispatchd/dispatch"
	"github.com/partsrunner/dispatchd/utils"
)

// OnRequestServed, when set, is called every time a resource writes a
// response, so the server can count API traffic
var OnRequestServed func()

type resource struct {
	yarf.Resource
	node sqalx.Node
}

// Beginx is shorthand for resource.node.Beginx()
func (r *resource) Beginx() (sqalx.Node, error) {
	return r.node.Beginx()
}

func (r *resource) DecodeRequest(c *yarf.Context, v interface{}) error {
	contentType := c.Request.Header.Get("Content-Type")
	var err error
	switch {
	case strings.Contains(contentType, "msgpack"):
		err = msgpack.NewDecoder(c.Request.Body).Decode(v)
	default:
		err = json.NewDecoder(c.Request.Body).Decode(v)
	}

	if err != nil {
		return &yarf.CustomError{
			HTTPCode:  http.StatusBadRequest,
			ErrorMsg:  "Failed to decode request",
			ErrorBody: err.Error(),
		}
	}
	return nil
}

// apiError maps domain errors onto HTTP status codes
func apiError(err error) error {
	if err == nil {
		return nil
	}
	if dispatch.IsValidationError(err) {
		return &yarf.CustomError{
			HTTPCode:  http.StatusUnprocessableEntity,
			ErrorMsg:  err.Error(),
			ErrorBody: err.Error(),
		}
	}
	if strings.HasSuffix(err.Error(), "not found") {
		return &yarf.CustomError{
			HTTPCode:  http.StatusNotFound,
			ErrorMsg:  err.Error(),
			ErrorBody: err.Error(),
		}
	}
	return err
}

// RenderData takes a interface{} object and writes the encoded representation of it.
// Encoding used will be idented JSON, non-idented JSON or Msgpack
func RenderData(c *yarf.Context, data interface{}) {
	if OnRequestServed != nil {
		OnRequestServed()
	}
	if utils.RequestIsTLS(c.Request) {
		c.Response.Header().Set("Strict-Transport-Security", "max-age=31536000")
	}
	accept := c.Request.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "json"):
		c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.RenderJSON(data)
	case strings.Contains(accept, "msgpack"):
		RenderMsgpack(c, data)
	default:
		c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.RenderJSONIndent(data)
	}
}

// RenderMsgpack takes a interface{} object and writes the Msgpack encoded string of it.
func RenderMsgpack(c *yarf.Context, data interface{}) {
	c.Response.Header().Set("Content-Type", "application/msgpack")
	// Set content
	encoded, err := msgpack.Marshal(data)
	if err != nil {
		log.Println(err)
		c.Response.Write([]byte(err.Error()))
	} else {
		c.Response.Write(encoded)
	}
}
