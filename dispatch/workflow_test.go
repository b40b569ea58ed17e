package dispatch

import (
	"testing"

	"github.com/partsrunner/dispatchd/dataobjects"
)

func TestValidateActionInputRole(t *testing.T) {
	action := &dataobjects.PartsRequestAction{
		Name: "pickup",
		Role: dataobjects.RoleRunner,
	}

	if err := ValidateActionInput(action, ActionInput{}, dataobjects.RoleRunner); err != nil {
		t.Errorf("expected the matching role to pass, got %s", err)
	}
	err := ValidateActionInput(action, ActionInput{}, dataobjects.RoleShopStaff)
	if err == nil {
		t.Fatal("expected a role mismatch to fail")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
}

func TestValidateActionInputAnyRole(t *testing.T) {
	action := &dataobjects.PartsRequestAction{
		Name: "cancel",
		Role: dataobjects.RoleAny,
	}

	for _, role := range []dataobjects.Role{dataobjects.RoleDispatcher, dataobjects.RoleRunner, dataobjects.RoleShopStaff} {
		if err := ValidateActionInput(action, ActionInput{}, role); err != nil {
			t.Errorf("expected role %s to pass an any-role action, got %s", role, err)
		}
	}
}

func TestValidateActionInputRequiresNote(t *testing.T) {
	action := &dataobjects.PartsRequestAction{
		Name:         "report_problem",
		Role:         dataobjects.RoleAny,
		RequiresNote: true,
	}

	if err := ValidateActionInput(action, ActionInput{}, dataobjects.RoleRunner); err == nil {
		t.Error("expected a missing note to fail")
	}
	if err := ValidateActionInput(action, ActionInput{Note: "   "}, dataobjects.RoleRunner); err == nil {
		t.Error("expected a whitespace note to fail")
	}
	if err := ValidateActionInput(action, ActionInput{Note: "box was crushed"}, dataobjects.RoleRunner); err != nil {
		t.Errorf("expected a real note to pass, got %s", err)
	}
}

func TestValidateActionInputRequiresPhoto(t *testing.T) {
	action := &dataobjects.PartsRequestAction{
		Name:          "deliver",
		Role:          dataobjects.RoleRunner,
		RequiresPhoto: true,
	}

	if err := ValidateActionInput(action, ActionInput{}, dataobjects.RoleRunner); err == nil {
		t.Error("expected a missing photo to fail")
	}
	if err := ValidateActionInput(action, ActionInput{PhotoRef: "pod/1234.jpg"}, dataobjects.RoleRunner); err != nil {
		t.Errorf("expected a photo to pass, got %s", err)
	}
}
