package dataobjects

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
	"github.com/rickb777/date"
)

// RequestStatus is the workflow state of a PartsRequest
type RequestStatus string

const (
	// StatusNew is the initial state of every request
	StatusNew RequestStatus = "new"
	// StatusAssigned means the request is bound to a run
	StatusAssigned RequestStatus = "assigned"
	// StatusReadyToTransfer means the origin confirmed the part is ready
	StatusReadyToTransfer RequestStatus = "ready_to_transfer"
	// StatusEnRoutePickup means the runner is heading to the origin
	StatusEnRoutePickup RequestStatus = "en_route_pickup"
	// StatusPickedUp means the part is on the vehicle
	StatusPickedUp RequestStatus = "picked_up"
	// StatusEnRouteDropoff means the part is heading to the destination
	StatusEnRouteDropoff RequestStatus = "en_route_dropoff"
	// StatusDelivered means the part reached its destination
	StatusDelivered RequestStatus = "delivered"
	// StatusNotAvailable means the origin could not hand over the part
	StatusNotAvailable RequestStatus = "not_available"
	// StatusProblem means the request needs dispatcher attention
	StatusProblem RequestStatus = "problem"
	// StatusCanceled means the request was called off
	StatusCanceled RequestStatus = "canceled"
)

// RequestStatuses enumerates every valid workflow state
var RequestStatuses = []RequestStatus{
	StatusNew, StatusAssigned, StatusReadyToTransfer, StatusEnRoutePickup,
	StatusPickedUp, StatusEnRouteDropoff, StatusDelivered,
	StatusNotAvailable, StatusProblem, StatusCanceled,
}

// IsTerminal returns whether no further transitions leave this state
func (s RequestStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Valid returns whether s names a known workflow state
func (s RequestStatus) Valid() bool {
	for _, known := range RequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RequestType categorizes what a PartsRequest moves and why
type RequestType string

const (
	// RequestPartTransfer moves a part between shops
	RequestPartTransfer RequestType = "part_transfer"
	// RequestVendorPickup collects a part from a vendor
	RequestVendorPickup RequestType = "vendor_pickup"
	// RequestReturn sends a part back where it came from
	RequestReturn RequestType = "return"
)

// Urgency is the priority class of a request
type Urgency string

const (
	// UrgencyNormal rides the next scheduled run
	UrgencyNormal Urgency = "normal"
	// UrgencyUrgent should be expedited by dispatch
	UrgencyUrgent Urgency = "urgent"
)

// PartsRequest is a request to move a part from an origin to a destination.
// Multi-leg requests are decomposed into child segment requests which carry
// ParentID and SegmentOrder
type PartsRequest struct {
	ID            string
	Reference     string
	Type          RequestType
	Urgency       Urgency
	Status        RequestStatus
	Origin        *Location
	Destination   *Location
	Details       string
	ItemID        sql.NullString
	RequestedAt   time.Time
	RequestedBy   string
	RunnerID      sql.NullString
	RunID         sql.NullString
	PickupStopID  sql.NullString
	DropoffStopID sql.NullString
	ParentID      sql.NullString
	SegmentOrder  int
	ScheduledFor  *date.Date
	OverrideRunID sql.NullString
	OverrideNote  sql.NullString
	DeletedAt     pq.NullTime
}

// GetPartsRequests returns a slice with all registered requests
func GetPartsRequests(node sqalx.Node) ([]*PartsRequest, error) {
	return getPartsRequestsWithSelect(node, sdb.Select())
}

func getPartsRequestsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*PartsRequest, error) {
	requests := []*PartsRequest{}

	tx, err := node.Beginx()
	if err != nil {
		return requests, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "reference", "type", "urgency", "status",
		"origin_location_id", "destination_location_id", "details", "item_id",
		"requested_at", "requested_by", "runner_id", "run_instance_id",
		"pickup_stop_id", "dropoff_stop_id", "parent_request_id", "segment_order",
		"scheduled_for_date", "override_run_instance_id", "override_note", "deleted_at").
		From("parts_request").
		RunWith(tx).Query()
	if err != nil {
		return requests, fmt.Errorf("getPartsRequestsWithSelect: %s", err)
	}
	defer rows.Close()

	var originIDs, destinationIDs []sql.NullString
	for rows.Next() {
		var request PartsRequest
		var originID, destinationID sql.NullString
		var scheduledFor pq.NullTime
		err := rows.Scan(
			&request.ID,
			&request.Reference,
			&request.Type,
			&request.Urgency,
			&request.Status,
			&originID,
			&destinationID,
			&request.Details,
			&request.ItemID,
			&request.RequestedAt,
			&request.RequestedBy,
			&request.RunnerID,
			&request.RunID,
			&request.PickupStopID,
			&request.DropoffStopID,
			&request.ParentID,
			&request.SegmentOrder,
			&scheduledFor,
			&request.OverrideRunID,
			&request.OverrideNote,
			&request.DeletedAt)
		if err != nil {
			return requests, fmt.Errorf("getPartsRequestsWithSelect: %s", err)
		}
		if scheduledFor.Valid {
			d := date.NewAt(scheduledFor.Time)
			request.ScheduledFor = &d
		}
		requests = append(requests, &request)
		originIDs = append(originIDs, originID)
		destinationIDs = append(destinationIDs, destinationID)
	}
	if err := rows.Err(); err != nil {
		return requests, fmt.Errorf("getPartsRequestsWithSelect: %s", err)
	}
	for i := range requests {
		if originIDs[i].Valid {
			requests[i].Origin, err = GetLocation(tx, originIDs[i].String)
			if err != nil {
				return requests, fmt.Errorf("getPartsRequestsWithSelect: %s", err)
			}
		}
		if destinationIDs[i].Valid {
			requests[i].Destination, err = GetLocation(tx, destinationIDs[i].String)
			if err != nil {
				return requests, fmt.Errorf("getPartsRequestsWithSelect: %s", err)
			}
		}
	}
	return requests, nil
}

// GetPartsRequest returns the PartsRequest with the given ID
func GetPartsRequest(node sqalx.Node, id string) (*PartsRequest, error) {
	s := sdb.Select().
		Where(sq.Eq{"id": id})
	requests, err := getPartsRequestsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, errors.New("PartsRequest not found")
	}
	return requests[0], nil
}

// GetPartsRequestByReference returns the PartsRequest with the given reference number
func GetPartsRequestByReference(node sqalx.Node, reference string) (*PartsRequest, error) {
	s := sdb.Select().
		Where(sq.Eq{"reference": reference})
	requests, err := getPartsRequestsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, errors.New("PartsRequest not found")
	}
	return requests[0], nil
}

// GetScheduledPartsRequests returns the unassigned non-segment requests
// scheduled for the given date
func GetScheduledPartsRequests(node sqalx.Node, d date.Date) ([]*PartsRequest, error) {
	s := sdb.Select().
		Where(sq.Eq{"status": StatusNew}).
		Where(sq.Eq{"scheduled_for_date": d.UTC()}).
		Where("parent_request_id IS NULL").
		Where("deleted_at IS NULL")
	return getPartsRequestsWithSelect(node, s)
}

// GetSegmentsNeedingStops returns committed segments whose run or stop
// binding failed and needs manual dispatch
func GetSegmentsNeedingStops(node sqalx.Node) ([]*PartsRequest, error) {
	s := sdb.Select().
		Where("parent_request_id IS NOT NULL").
		Where(sq.Eq{"status": StatusNew}).
		Where(sq.Or{sq.Eq{"run_instance_id": nil}, sq.Eq{"pickup_stop_id": nil}, sq.Eq{"dropoff_stop_id": nil}}).
		Where("deleted_at IS NULL")
	return getPartsRequestsWithSelect(node, s)
}

// CountRequestsForRunStop returns how many undeleted requests have a pickup
// or dropoff task at the given stop of the given run
func CountRequestsForRunStop(node sqalx.Node, runID, stopID string) (int, error) {
	tx, err := node.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Commit() // read-only tx

	var count int
	err = sdb.Select("COUNT(*)").
		From("parts_request").
		Where(sq.Eq{"run_instance_id": runID}).
		Where(sq.Or{sq.Eq{"pickup_stop_id": stopID}, sq.Eq{"dropoff_stop_id": stopID}}).
		Where("deleted_at IS NULL").
		RunWith(tx).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountRequestsForRunStop: %s", err)
	}
	return count, nil
}

// NewPartsRequestReference generates the next reference number for the given
// day, in the form PR-YYYYMMDD-NNNN
func NewPartsRequestReference(node sqalx.Node, d date.Date) (string, error) {
	tx, err := node.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Commit() // read-only tx

	prefix := fmt.Sprintf("PR-%s-", d.Local().Format("20060102"))
	var count int
	err = sdb.Select("COUNT(*)").
		From("parts_request").
		Where(sq.Like{"reference": prefix + "%"}).
		Where("parent_request_id IS NULL").
		RunWith(tx).QueryRow().Scan(&count)
	if err != nil {
		return "", fmt.Errorf("NewPartsRequestReference: %s", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// IsSegment returns whether this request is a leg of a multi-leg parent
func (request *PartsRequest) IsSegment() bool {
	return request.ParentID.Valid
}

// HasOverride returns whether dispatch manually pinned this request to a run
func (request *PartsRequest) HasOverride() bool {
	return request.OverrideRunID.Valid
}

// IsAssigned returns whether the request is bound to a run
func (request *PartsRequest) IsAssigned() bool {
	return request.RunID.Valid
}

// Segments returns the child segments of this request in segment order
func (request *PartsRequest) Segments(node sqalx.Node) ([]*PartsRequest, error) {
	s := sdb.Select().
		Where(sq.Eq{"parent_request_id": request.ID}).
		Where("deleted_at IS NULL").
		OrderBy("segment_order ASC")
	return getPartsRequestsWithSelect(node, s)
}

// Events returns the audit events of this request in chronological order
func (request *PartsRequest) Events(node sqalx.Node) ([]*PartsRequestEvent, error) {
	s := sdb.Select().
		Where(sq.Eq{"parts_request_id": request.ID}).
		OrderBy("event_at ASC")
	return getPartsRequestEventsWithSelect(node, s)
}

// Update adds or updates the request
func (request *PartsRequest) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var originID, destinationID sql.NullString
	if request.Origin != nil {
		originID = sql.NullString{String: request.Origin.ID, Valid: true}
	}
	if request.Destination != nil {
		destinationID = sql.NullString{String: request.Destination.ID, Valid: true}
	}
	var scheduledFor pq.NullTime
	if request.ScheduledFor != nil {
		scheduledFor = pq.NullTime{Time: request.ScheduledFor.UTC(), Valid: true}
	}

	_, err = sdb.Insert("parts_request").
		Columns("id", "reference", "type", "urgency", "status",
			"origin_location_id", "destination_location_id", "details", "item_id",
			"requested_at", "requested_by", "runner_id", "run_instance_id",
			"pickup_stop_id", "dropoff_stop_id", "parent_request_id", "segment_order",
			"scheduled_for_date", "override_run_instance_id", "override_note", "deleted_at").
		Values(request.ID, request.Reference, request.Type, request.Urgency, request.Status,
			originID, destinationID, request.Details, request.ItemID,
			request.RequestedAt, request.RequestedBy, request.RunnerID, request.RunID,
			request.PickupStopID, request.DropoffStopID, request.ParentID, request.SegmentOrder,
			scheduledFor, request.OverrideRunID, request.OverrideNote, request.DeletedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = ?, urgency = ?, details = ?, item_id = ?, "+
			"runner_id = ?, run_instance_id = ?, pickup_stop_id = ?, dropoff_stop_id = ?, "+
			"scheduled_for_date = ?, override_run_instance_id = ?, override_note = ?, deleted_at = ?",
			request.Status, request.Urgency, request.Details, request.ItemID,
			request.RunnerID, request.RunID, request.PickupStopID, request.DropoffStopID,
			scheduledFor, request.OverrideRunID, request.OverrideNote, request.DeletedAt).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddPartsRequest: " + err.Error())
	}
	return tx.Commit()
}

// Delete soft-deletes the request
func (request *PartsRequest) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	request.DeletedAt = pq.NullTime{Time: time.Now(), Valid: true}
	_, err = sdb.Update("parts_request").
		Set("deleted_at", request.DeletedAt).
		Where(sq.Eq{"id": request.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemovePartsRequest: %s", err)
	}
	return tx.Commit()
}
