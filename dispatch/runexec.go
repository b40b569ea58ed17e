package dispatch

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	uuid "github.com/satori/go.uuid"

	"github.com/partsrunner/dispatchd/dataobjects"
)

// StartRun moves a pending run to in progress and seeds the task sheet: one
// execution record per stop counting the pickups and dropoffs assigned there
func (s *Service) StartRun(runID, runnerID string) (*dataobjects.RunInstance, error) {
	run, err := dataobjects.GetRunInstance(s.node, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != dataobjects.RunPending {
		return nil, ValidationError{Reason: fmt.Sprintf("run is %s, only pending runs can start", run.Status)}
	}

	tx, err := s.node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stops, err := run.Route.Stops(tx)
	if err != nil {
		return nil, fmt.Errorf("StartRun: %s", err)
	}
	for _, stop := range stops {
		count, err := dataobjects.CountRequestsForRunStop(tx, run.ID, stop.ID)
		if err != nil {
			return nil, err
		}
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		actual := &dataobjects.RunStopActual{
			ID:         id.String(),
			RunID:      run.ID,
			Stop:       stop,
			TasksTotal: count,
		}
		if err := actual.Update(tx); err != nil {
			return nil, err
		}
	}

	run.Status = dataobjects.RunInProgress
	run.RunnerID = sql.NullString{String: runnerID, Valid: true}
	run.StartedAt = pq.NullTime{Time: time.Now(), Valid: true}
	if err := run.Update(tx); err != nil {
		return nil, err
	}
	return run, tx.Commit()
}

// CompleteRun finishes an in-progress run
func (s *Service) CompleteRun(runID string) (*dataobjects.RunInstance, error) {
	run, err := dataobjects.GetRunInstance(s.node, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != dataobjects.RunInProgress {
		return nil, ValidationError{Reason: fmt.Sprintf("run is %s, only in-progress runs can complete", run.Status)}
	}
	run.Status = dataobjects.RunCompleted
	run.EndedAt = pq.NullTime{Time: time.Now(), Valid: true}
	return run, run.Update(s.node)
}

// CancelRun calls off a run that has not completed and detaches its requests
// so they can be dispatched again
func (s *Service) CancelRun(runID, reason, byUser string) (*dataobjects.RunInstance, error) {
	run, err := dataobjects.GetRunInstance(s.node, runID)
	if err != nil {
		return nil, err
	}
	if run.Status == dataobjects.RunCompleted || run.Status == dataobjects.RunCanceled {
		return nil, ValidationError{Reason: fmt.Sprintf("run is already %s", run.Status)}
	}

	tx, err := s.node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	requests, err := run.Requests(tx)
	if err != nil {
		return nil, fmt.Errorf("CancelRun: %s", err)
	}
	for _, request := range requests {
		if request.Status.IsTerminal() {
			continue
		}
		if err := s.unassignRequest(tx, request, "run canceled: "+reason, byUser); err != nil {
			return nil, err
		}
	}
	run.Status = dataobjects.RunCanceled
	run.EndedAt = pq.NullTime{Time: time.Now(), Valid: true}
	if err := run.Update(tx); err != nil {
		return nil, err
	}
	return run, tx.Commit()
}

// ArriveAtStop records the runner arriving at a stop and makes it the run's
// current stop. Re-recording an arrival is harmless
func (s *Service) ArriveAtStop(runID, stopID string) (*dataobjects.RunStopActual, error) {
	run, err := dataobjects.GetRunInstance(s.node, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != dataobjects.RunInProgress {
		return nil, ValidationError{Reason: "run is not in progress"}
	}

	tx, err := s.node.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	actual, err := dataobjects.GetRunStopActual(tx, runID, stopID)
	if err != nil {
		return nil, err
	}
	if !actual.ArrivedAt.Valid {
		actual.ArrivedAt = pq.NullTime{Time: time.Now(), Valid: true}
		if err := actual.Update(tx); err != nil {
			return nil, err
		}
	}
	run.CurrentStopID = sql.NullString{String: stopID, Valid: true}
	if err := run.Update(tx); err != nil {
		return nil, err
	}
	return actual, tx.Commit()
}

// DepartFromStop records the runner leaving a stop. Departure is refused
// while tasks at the stop are incomplete unless force is set
func (s *Service) DepartFromStop(runID, stopID string, force bool) (*dataobjects.RunStopActual, error) {
	actual, err := dataobjects.GetRunStopActual(s.node, runID, stopID)
	if err != nil {
		return nil, err
	}
	if !actual.AllTasksCompleted() && !force {
		return nil, ValidationError{Reason: fmt.Sprintf("%d of %d tasks incomplete at this stop",
			actual.TasksTotal-actual.TasksCompleted, actual.TasksTotal)}
	}
	actual.DepartedAt = pq.NullTime{Time: time.Now(), Valid: true}
	return actual, actual.Update(s.node)
}
