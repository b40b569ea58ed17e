package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/rickb777/date"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// ActionInput carries the optional payload of a workflow action
type ActionInput struct {
	Note     string
	PhotoRef string
	Position *dataobjects.Point
}

// Actor identifies who performs a workflow action
type Actor struct {
	UserID string
	Role   dataobjects.Role
}

// ValidateActionInput checks an action's role and payload requirements
// before anything is mutated
func ValidateActionInput(action *dataobjects.PartsRequestAction, input ActionInput, role dataobjects.Role) error {
	if !action.AllowedFor(role) {
		return ValidationError{Reason: fmt.Sprintf("role %s may not perform %s", role, action.Name)}
	}
	if action.RequiresNote && strings.TrimSpace(input.Note) == "" {
		return ValidationError{Reason: action.Name + " requires a note"}
	}
	if action.RequiresPhoto && input.PhotoRef == "" {
		return ValidationError{Reason: action.Name + " requires a photo"}
	}
	return nil
}

// ExecuteAction performs a workflow action on a request. The action must be
// available from the request's current status for its type, the actor's role
// must match and required inputs must be present. Side effects, the status
// change and the audit event commit in one transaction, notifications go out
// after the commit
func (s *Service) ExecuteAction(requestID, actionName string, input ActionInput, actor Actor) error {
	request, err := dataobjects.GetPartsRequest(s.node, requestID)
	if err != nil {
		return err
	}
	if request.Status.IsTerminal() {
		return ValidationError{Reason: "request is in a terminal state"}
	}
	action, err := dataobjects.GetPartsRequestAction(s.node, request.Type, request.Status, actionName)
	if err != nil {
		return ValidationError{Reason: fmt.Sprintf("action %s is not available from status %s", actionName, request.Status)}
	}
	if err := ValidateActionInput(action, input, actor.Role); err != nil {
		return err
	}

	tx, err := s.node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	after, err := s.performAction(tx, request, action, input, actor)
	if err != nil {
		return err
	}

	request.Status = action.ToStatus
	if err := request.Update(tx); err != nil {
		return err
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	event := &dataobjects.PartsRequestEvent{
		ID:        eventID.String(),
		RequestID: request.ID,
		Type:      action.Name,
		Notes:     toNullString(input.Note),
		PhotoRef:  toNullString(input.PhotoRef),
		Position:  input.Position,
		UserID:    actor.UserID,
		Time:      time.Now(),
	}
	if err := event.Update(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, f := range after {
		f()
	}
	return nil
}

// performAction runs the side effects of an action inside the workflow
// transaction and returns the notifications to send once it commits
func (s *Service) performAction(tx sqalx.Node, request *dataobjects.PartsRequest,
	action *dataobjects.PartsRequestAction, input ActionInput, actor Actor) ([]func(), error) {
	after := []func(){}

	switch action.Name {
	case "ready_to_transfer":
		if !request.IsAssigned() {
			_, assignAfter, err := s.autoAssignRequest(tx, request)
			if err != nil {
				return nil, err
			}
			after = append(after, assignAfter...)
		}

	case "not_available":
		if request.IsAssigned() {
			if err := s.unassignRequest(tx, request, "part not available at origin", actor.UserID); err != nil {
				return nil, err
			}
		}
		after = append(after, func() { s.notifier.RequestNotAvailable(request, input.Note) })

	case "pickup":
		if request.ItemID.Valid {
			if err := s.inventory.RecordPickup(tx, request, actor.UserID); err != nil {
				return nil, err
			}
		}
		if request.RunID.Valid && request.PickupStopID.Valid {
			if err := incrementStopTask(tx, request.RunID.String, request.PickupStopID.String); err != nil {
				return nil, err
			}
		}
		after = append(after, func() { s.notifier.RequestPickedUp(request) })

	case "deliver":
		if request.ItemID.Valid {
			if err := s.inventory.RecordDelivery(tx, request, actor.UserID); err != nil {
				return nil, err
			}
		}
		if request.RunID.Valid && request.DropoffStopID.Valid {
			if err := incrementStopTask(tx, request.RunID.String, request.DropoffStopID.String); err != nil {
				return nil, err
			}
		}
		after = append(after, func() { s.notifier.RequestDelivered(request) })

	case "not_ready":
		reassigned, reassignAfter, err := s.reassignToNextRun(tx, request)
		if err != nil && !IsValidationError(err) {
			return nil, err
		}
		if reassigned {
			after = append(after, reassignAfter...)
		} else if request.IsAssigned() {
			if err := s.unassignRequest(tx, request, "part not ready, no later run available", actor.UserID); err != nil {
				return nil, err
			}
		}

	case "unable_to_deliver":
		returnRequest, err := s.createReturnRequest(tx, request, actor.UserID)
		if err != nil {
			return nil, err
		}
		after = append(after, func() { s.notifier.RequestReturnCreated(request, returnRequest) })
	}

	return after, nil
}

func incrementStopTask(tx sqalx.Node, runID, stopID string) error {
	actual, err := dataobjects.GetRunStopActual(tx, runID, stopID)
	if err != nil {
		// run not started, there is no task sheet to tick
		return nil
	}
	actual.TasksCompleted++
	return actual.Update(tx)
}

// createReturnRequest builds the request sending an undeliverable part back
// to where it came from, riding the same run in the opposite direction when
// the stops allow it
func (s *Service) createReturnRequest(tx sqalx.Node, request *dataobjects.PartsRequest, byUser string) (*dataobjects.PartsRequest, error) {
	reference, err := dataobjects.NewPartsRequestReference(tx, date.Today())
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	returnRequest := &dataobjects.PartsRequest{
		ID:          id.String(),
		Reference:   reference,
		Type:        dataobjects.RequestReturn,
		Urgency:     request.Urgency,
		Status:      dataobjects.StatusAssigned,
		Origin:      request.Destination,
		Destination: request.Origin,
		Details:     "return of " + request.Reference,
		ItemID:      request.ItemID,
		RequestedAt: time.Now(),
		RequestedBy: byUser,
		ParentID:    toNullString(request.ID),
		RunnerID:    request.RunnerID,
	}
	if request.RunID.Valid {
		returnRequest.RunID = request.RunID
		returnRequest.PickupStopID = request.DropoffStopID
		returnRequest.DropoffStopID = request.PickupStopID
	} else {
		returnRequest.Status = dataobjects.StatusNew
	}
	if err := returnRequest.Update(tx); err != nil {
		return nil, err
	}
	if err := recordEvent(tx, returnRequest.ID, "created", byUser,
		"created because "+request.Reference+" could not be delivered"); err != nil {
		return nil, err
	}
	return returnRequest, nil
}
