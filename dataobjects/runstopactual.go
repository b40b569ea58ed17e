package dataobjects

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
	"github.com/lib/pq"
)

// RunStopActual records what actually happened at one stop of a run
type RunStopActual struct {
	ID             string
	RunID          string
	Stop           *RouteStop
	ArrivedAt      pq.NullTime
	DepartedAt     pq.NullTime
	TasksTotal     int
	TasksCompleted int
}

func getRunStopActualsWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RunStopActual, error) {
	actuals := []*RunStopActual{}

	tx, err := node.Beginx()
	if err != nil {
		return actuals, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("id", "run_instance_id", "route_stop_id", "arrived_at", "departed_at",
		"tasks_total", "tasks_completed").
		From("run_stop_actual").
		RunWith(tx).Query()
	if err != nil {
		return actuals, fmt.Errorf("getRunStopActualsWithSelect: %s", err)
	}
	defer rows.Close()

	var stopIDs []string
	for rows.Next() {
		var actual RunStopActual
		var stopID string
		err := rows.Scan(
			&actual.ID,
			&actual.RunID,
			&stopID,
			&actual.ArrivedAt,
			&actual.DepartedAt,
			&actual.TasksTotal,
			&actual.TasksCompleted)
		if err != nil {
			return actuals, fmt.Errorf("getRunStopActualsWithSelect: %s", err)
		}
		actuals = append(actuals, &actual)
		stopIDs = append(stopIDs, stopID)
	}
	if err := rows.Err(); err != nil {
		return actuals, fmt.Errorf("getRunStopActualsWithSelect: %s", err)
	}
	for i := range stopIDs {
		actuals[i].Stop, err = GetRouteStop(tx, stopIDs[i])
		if err != nil {
			return actuals, fmt.Errorf("getRunStopActualsWithSelect: %s", err)
		}
	}
	return actuals, nil
}

// GetRunStopActual returns the execution record of a run at a stop
func GetRunStopActual(node sqalx.Node, runID, stopID string) (*RunStopActual, error) {
	s := sdb.Select().
		Where(sq.Eq{"run_instance_id": runID}).
		Where(sq.Eq{"route_stop_id": stopID})
	actuals, err := getRunStopActualsWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(actuals) == 0 {
		return nil, errors.New("RunStopActual not found")
	}
	return actuals[0], nil
}

// AllTasksCompleted returns whether every task at this stop is done
func (actual *RunStopActual) AllTasksCompleted() bool {
	return actual.TasksCompleted >= actual.TasksTotal
}

// Update adds or updates the stop execution record
func (actual *RunStopActual) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("run_stop_actual").
		Columns("id", "run_instance_id", "route_stop_id", "arrived_at", "departed_at",
			"tasks_total", "tasks_completed").
		Values(actual.ID, actual.RunID, actual.Stop.ID, actual.ArrivedAt, actual.DepartedAt,
			actual.TasksTotal, actual.TasksCompleted).
		Suffix("ON CONFLICT (run_instance_id, route_stop_id) DO UPDATE SET arrived_at = ?, departed_at = ?, tasks_total = ?, tasks_completed = ?",
			actual.ArrivedAt, actual.DepartedAt, actual.TasksTotal, actual.TasksCompleted).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRunStopActual: " + err.Error())
	}
	return tx.Commit()
}

// Delete deletes the stop execution record
func (actual *RunStopActual) Delete(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("run_stop_actual").
		Where(sq.Eq{"id": actual.ID}).
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveRunStopActual: %s", err)
	}
	return tx.Commit()
}
