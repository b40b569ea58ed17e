package dispatch

import (
	"errors"
	"time"

	"github.com/gbl08ma/sqalx"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// Inventory records item custody changes caused by pickups and deliveries.
// Unlike notifications these are part of the workflow transaction, a failure
// aborts the action
type Inventory interface {
	RecordPickup(node sqalx.Node, request *dataobjects.PartsRequest, runnerID string) error
	RecordDelivery(node sqalx.Node, request *dataobjects.PartsRequest, runnerID string) error
}

// MovementLedger is the Inventory implementation writing item movement rows
type MovementLedger struct{}

// RecordPickup implements Inventory
func (MovementLedger) RecordPickup(node sqalx.Node, request *dataobjects.PartsRequest, runnerID string) error {
	return recordMovement(node, request, runnerID, dataobjects.ItemMovementPickup)
}

// RecordDelivery implements Inventory
func (MovementLedger) RecordDelivery(node sqalx.Node, request *dataobjects.PartsRequest, runnerID string) error {
	return recordMovement(node, request, runnerID, dataobjects.ItemMovementDelivery)
}

func recordMovement(node sqalx.Node, request *dataobjects.PartsRequest, runnerID string, movementType string) error {
	if !request.ItemID.Valid {
		return errors.New("recordMovement: request has no item")
	}
	if request.Origin == nil || request.Destination == nil {
		return errors.New("recordMovement: request has no endpoints")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	movement := &dataobjects.ItemMovement{
		ID:             id.String(),
		ItemID:         request.ItemID.String,
		RequestID:      request.ID,
		FromLocationID: request.Origin.ID,
		ToLocationID:   request.Destination.ID,
		Type:           movementType,
		MovedBy:        runnerID,
		MovedAt:        time.Now(),
	}
	return movement.Update(node)
}
