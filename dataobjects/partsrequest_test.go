package dataobjects

import (
	"testing"
)

func TestRequestStatusTerminal(t *testing.T) {
	for _, status := range RequestStatuses {
		terminal := status == StatusDelivered || status == StatusCanceled
		if status.IsTerminal() != terminal {
			t.Errorf("IsTerminal(%s) = %v, expected %v", status, !terminal, terminal)
		}
	}
}

func TestRequestStatusValid(t *testing.T) {
	for _, status := range RequestStatuses {
		if !status.Valid() {
			t.Errorf("expected %s to be valid", status)
		}
	}
	if RequestStatus("teleported").Valid() {
		t.Error("expected an unknown status to be invalid")
	}
}

func TestAllTasksCompleted(t *testing.T) {
	actual := &RunStopActual{TasksTotal: 3, TasksCompleted: 2}
	if actual.AllTasksCompleted() {
		t.Error("expected 2 of 3 to be incomplete")
	}
	actual.TasksCompleted = 3
	if !actual.AllTasksCompleted() {
		t.Error("expected 3 of 3 to be complete")
	}
	empty := &RunStopActual{}
	if !empty.AllTasksCompleted() {
		t.Error("expected a stop with no tasks to be complete")
	}
}
