package dataobjects

import (
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// ItemMovement records an inventory item changing hands because of a request
type ItemMovement struct {
	ID             string
	ItemID         string
	RequestID      string
	FromLocationID string
	ToLocationID   string
	Type           string
	MovedBy        string
	MovedAt        time.Time
}

// ItemMovementPickup and ItemMovementDelivery are the movement types
const (
	ItemMovementPickup   = "pickup"
	ItemMovementDelivery = "delivery"
)

// GetItemMovementsForRequest returns the movements recorded for a request in
// chronological order
func GetItemMovementsForRequest(node sqalx.Node, requestID string) ([]*ItemMovement, error) {
	s := sdb.Select().
		Where(sq.Eq{"parts_request_id": requestID}).
		OrderBy("moved_at ASC")
	return getItemMovementsWithSelect(node, s)
}

func getItemMovementsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*ItemMovement, error) {
	movements := []*ItemMovement{}

	tx, err := node.Beginx()
	if err != nil {
		return movements, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "item_id", "parts_request_id", "from_location_id", "to_location_id",
		"type", "moved_by", "moved_at").
		From("item_movement").
		RunWith(tx).Query()
	if err != nil {
		return movements, fmt.Errorf("getItemMovementsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement ItemMovement
		err := rows.Scan(
			&movement.ID,
			&movement.ItemID,
			&movement.RequestID,
			&movement.FromLocationID,
			&movement.ToLocationID,
			&movement.Type,
			&movement.MovedBy,
			&movement.MovedAt)
		if err != nil {
			return movements, fmt.Errorf("getItemMovementsWithSelect: %s", err)
		}
		movements = append(movements, &movement)
	}
	if err := rows.Err(); err != nil {
		return movements, fmt.Errorf("getItemMovementsWithSelect: %s", err)
	}
	return movements, nil
}

// Update adds the item movement
func (movement *ItemMovement) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("item_movement").
		Columns("id", "item_id", "parts_request_id", "from_location_id", "to_location_id",
			"type", "moved_by", "moved_at").
		Values(movement.ID, movement.ItemID, movement.RequestID, movement.FromLocationID, movement.ToLocationID,
			movement.Type, movement.MovedBy, movement.MovedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddItemMovement: " + err.Error())
	}
	return tx.Commit()
}
