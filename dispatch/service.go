package dispatch

import (
	"log"
	"time"

	"database/sql"

	"github.com/gbl08ma/sqalx"
	cache "github.com/patrickmn/go-cache"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/routing"
	"github.com/partsrunner/dispatchd/scheduling"
)

// GeofenceStateTTL is how long a runner's last known inside/outside state for
// a fence is remembered
const GeofenceStateTTL = 24 * time.Hour

// Service orchestrates request assignment, the request workflow and run
// execution on top of the routing and scheduling layers
type Service struct {
	node      sqalx.Node
	routes    *routing.Service
	scheduler *scheduling.Scheduler
	notifier  Notifier
	inventory Inventory
	geostate  *cache.Cache
	log       *log.Logger
}

// NewService returns a new dispatch Service
func NewService(node sqalx.Node, routes *routing.Service, scheduler *scheduling.Scheduler,
	notifier Notifier, inventory Inventory, log *log.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		node:      node,
		routes:    routes,
		scheduler: scheduler,
		notifier:  notifier,
		inventory: inventory,
		geostate:  cache.New(GeofenceStateTTL, 1*time.Hour),
		log:       log,
	}
}

// ValidationError indicates a request that is well-formed but not allowed in
// the current state
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// IsValidationError returns whether err is a ValidationError
func IsValidationError(err error) bool {
	_, ok := err.(ValidationError)
	return ok
}

// SystemUser is the user ID recorded on events the system generates itself
const SystemUser = "system"

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func recordEvent(node sqalx.Node, requestID, eventType, userID string, notes string) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	event := &dataobjects.PartsRequestEvent{
		ID:        id.String(),
		RequestID: requestID,
		Type:      eventType,
		UserID:    userID,
		Time:      time.Now(),
	}
	if notes != "" {
		event.Notes = sql.NullString{String: notes, Valid: true}
	}
	return event.Update(node)
}
