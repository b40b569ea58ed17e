package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// PartsRequestEvent is one entry in the audit trail of a request
type PartsRequestEvent struct {
	ID        string
	RequestID string
	Type      string
	Notes     sql.NullString
	PhotoRef  sql.NullString
	Position  *Point
	UserID    string
	Time      time.Time
}

func getPartsRequestEventsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*PartsRequestEvent, error) {
	events := []*PartsRequestEvent{}

	tx, err := node.Beginx()
	if err != nil {
		return events, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "parts_request_id", "type", "notes", "photo_ref", "position", "user_id", "event_at").
		From("parts_request_event").
		RunWith(tx).Query()
	if err != nil {
		return events, fmt.Errorf("getPartsRequestEventsWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var event PartsRequestEvent
		var position Point
		var hasPosition bool
		err := rows.Scan(
			&event.ID,
			&event.RequestID,
			&event.Type,
			&event.Notes,
			&event.PhotoRef,
			&nullPoint{&position, &hasPosition},
			&event.UserID,
			&event.Time)
		if err != nil {
			return events, fmt.Errorf("getPartsRequestEventsWithSelect: %s", err)
		}
		if hasPosition {
			event.Position = &position
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return events, fmt.Errorf("getPartsRequestEventsWithSelect: %s", err)
	}
	return events, nil
}

type nullPoint struct {
	point *Point
	valid *bool
}

func (np *nullPoint) Scan(val interface{}) error {
	if val == nil {
		*np.valid = false
		return nil
	}
	*np.valid = true
	return np.point.Scan(val)
}

// GetPartsRequestEvent returns the event with the given ID
func GetPartsRequestEvent(node sqalx.Node, id string) (*PartsRequestEvent, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	events, err := getPartsRequestEventsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.New("PartsRequestEvent not found")
	}
	return events[0], nil
}

// Update adds or updates the event
func (event *PartsRequestEvent) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var position interface{}
	if event.Position != nil {
		position = *event.Position
	}

	_, err = sdb.Insert("parts_request_event").
		Columns("id", "parts_request_id", "type", "notes", "photo_ref", "position", "user_id", "event_at").
		Values(event.ID, event.RequestID, event.Type, event.Notes, event.PhotoRef, position, event.UserID, event.Time).
		Suffix("ON CONFLICT (id) DO UPDATE SET notes = ?, photo_ref = ?",
			event.Notes, event.PhotoRef).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddPartsRequestEvent: " + err.Error())
	}
	return tx.Commit()
}
