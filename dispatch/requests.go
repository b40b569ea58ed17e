package dispatch

import (
	"time"

	"github.com/rickb777/date"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// NewRequest carries the fields accepted when opening a request
type NewRequest struct {
	Type          dataobjects.RequestType
	Urgency       dataobjects.Urgency
	OriginID      string
	DestinationID string
	Details       string
	ItemID        string
	ScheduledFor  *date.Date
	RequestedBy   string
	OverrideRunID string
	OverrideNote  string
}

// CreateRequest opens a new parts request, assigning it the next reference
// number for the day
func (s *Service) CreateRequest(nr NewRequest) (*dataobjects.PartsRequest, error) {
	if nr.OriginID != "" && nr.OriginID == nr.DestinationID {
		return nil, ValidationError{Reason: "origin and destination are the same location"}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	tx, err := s.node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	request := &dataobjects.PartsRequest{
		ID:            id.String(),
		Type:          nr.Type,
		Urgency:       nr.Urgency,
		Status:        dataobjects.StatusNew,
		Details:       nr.Details,
		ItemID:        toNullString(nr.ItemID),
		RequestedAt:   time.Now(),
		RequestedBy:   nr.RequestedBy,
		ScheduledFor:  nr.ScheduledFor,
		OverrideRunID: toNullString(nr.OverrideRunID),
		OverrideNote:  toNullString(nr.OverrideNote),
	}
	if nr.Urgency == "" {
		request.Urgency = dataobjects.UrgencyNormal
	}
	if nr.OriginID != "" {
		request.Origin, err = dataobjects.GetLocation(tx, nr.OriginID)
		if err != nil {
			return nil, err
		}
		if !request.Origin.Usable() {
			return nil, ValidationError{Reason: "origin location is inactive"}
		}
	}
	if nr.DestinationID != "" {
		request.Destination, err = dataobjects.GetLocation(tx, nr.DestinationID)
		if err != nil {
			return nil, err
		}
		if !request.Destination.Usable() {
			return nil, ValidationError{Reason: "destination location is inactive"}
		}
	}

	request.Reference, err = dataobjects.NewPartsRequestReference(tx, date.Today())
	if err != nil {
		return nil, err
	}
	if err := request.Update(tx); err != nil {
		return nil, err
	}
	if err := recordEvent(tx, request.ID, "created", nr.RequestedBy, ""); err != nil {
		return nil, err
	}
	return request, tx.Commit()
}
