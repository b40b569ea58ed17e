package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// Role is who may perform a workflow action
type Role string

const (
	// RoleDispatcher coordinates requests and runs
	RoleDispatcher Role = "dispatcher"
	// RoleRunner drives runs
	RoleRunner Role = "runner"
	// RoleShopStaff works at an origin or destination shop
	RoleShopStaff Role = "shop_staff"
	// RoleAny matches every role
	RoleAny Role = "any"
)

// PartsRequestAction is one row of the workflow policy: which action names
// are available from which status, who may perform them, what inputs they
// require and which status they lead to
type PartsRequestAction struct {
	ID            string
	RequestType   RequestType
	FromStatus    RequestStatus
	Name          string
	ToStatus      RequestStatus
	Role          Role
	RequiresNote  bool
	RequiresPhoto bool
	SortOrder     int
	IsActive      bool
}

// GetPartsRequestActions returns a slice with all registered workflow actions
func GetPartsRequestActions(node sqalx.Node) ([]*PartsRequestAction, error) {
	return getPartsRequestActionsWithSelect(node, sdb.Select())
}

func getPartsRequestActionsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*PartsRequestAction, error) {
	actions := []*PartsRequestAction{}

	tx, err := node.Beginx()
	if err != nil {
		return actions, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "request_type", "from_status", "name", "to_status",
		"role", "requires_note", "requires_photo", "sort_order", "is_active").
		From("parts_request_action").
		RunWith(tx).Query()
	if err != nil {
		return actions, fmt.Errorf("getPartsRequestActionsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action PartsRequestAction
		err := rows.Scan(
			&action.ID,
			&action.RequestType,
			&action.FromStatus,
			&action.Name,
			&action.ToStatus,
			&action.Role,
			&action.RequiresNote,
			&action.RequiresPhoto,
			&action.SortOrder,
			&action.IsActive)
		if err != nil {
			return actions, fmt.Errorf("getPartsRequestActionsWithSelect: %s", err)
		}
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return actions, fmt.Errorf("getPartsRequestActionsWithSelect: %s", err)
	}
	return actions, nil
}

// GetPartsRequestAction returns the active action with the given name
// available from the given status for the given request type
func GetPartsRequestAction(node sqalx.Node, requestType RequestType, from RequestStatus, name string) (*PartsRequestAction, error) {
	s := sdb.Select().
		Where(sq.Eq{"request_type": requestType}).
		Where(sq.Eq{"from_status": from}).
		Where(sq.Eq{"name": name}).
		Where(sq.Eq{"is_active": true})
	actions, err := getPartsRequestActionsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, errors.New("PartsRequestAction not found")
	}
	return actions[0], nil
}

// GetPartsRequestActionsFrom returns the active actions available from the
// given status for the given request type, in sort order
func GetPartsRequestActionsFrom(node sqalx.Node, requestType RequestType, from RequestStatus) ([]*PartsRequestAction, error) {
	s := sdb.Select().
		Where(sq.Eq{"request_type": requestType}).
		Where(sq.Eq{"from_status": from}).
		Where(sq.Eq{"is_active": true}).
		OrderBy("sort_order ASC")
	return getPartsRequestActionsWithSelect(node, s)
}

// AllowedFor returns whether the given role may perform this action
func (action *PartsRequestAction) AllowedFor(role Role) bool {
	return action.Role == RoleAny || action.Role == role
}

// Update adds or updates the workflow action
func (action *PartsRequestAction) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("parts_request_action").
		Columns("id", "request_type", "from_status", "name", "to_status",
			"role", "requires_note", "requires_photo", "sort_order", "is_active").
		Values(action.ID, action.RequestType, action.FromStatus, action.Name, action.ToStatus,
			action.Role, action.RequiresNote, action.RequiresPhoto, action.SortOrder, action.IsActive).
		Suffix("ON CONFLICT (id) DO UPDATE SET to_status = ?, role = ?, requires_note = ?, requires_photo = ?, sort_order = ?, is_active = ?",
			action.ToStatus, action.Role, action.RequiresNote, action.RequiresPhoto, action.SortOrder, action.IsActive).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddPartsRequestAction: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the workflow action
func (action *PartsRequestAction) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("parts_request_action").
		Where(sq.Eq{"id": action.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemovePartsRequestAction: %s", err)
	}
	return tx.Commit()
}
