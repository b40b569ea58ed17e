package dataobjects

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeJSONRoundTrip(t *testing.T) {
	original := Time(time.Date(0, 1, 1, 14, 30, 0, 0, time.UTC))

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}
	if string(b) != `"14:30:00"` {
		t.Fatalf(`expected "14:30:00", got %s`, b)
	}

	var decoded Time
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if decoded.HourMinute() != "14:30" {
		t.Errorf("expected 14:30, got %s", decoded.HourMinute())
	}
}

func TestTimeUnmarshalRejectsGarbage(t *testing.T) {
	var decoded Time
	if err := json.Unmarshal([]byte(`"2pm"`), &decoded); err == nil {
		t.Error("expected an error for a malformed time")
	}
}

func TestPointValueScanRoundTrip(t *testing.T) {
	original := Point{38.736946, -9.142685}

	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %s", err)
	}
	var decoded Point
	if err := decoded.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan: %s", err)
	}
	const eps = 1e-5
	if decoded[0]-original[0] > eps || original[0]-decoded[0] > eps ||
		decoded[1]-original[1] > eps || original[1]-decoded[1] > eps {
		t.Errorf("expected %v, got %v", original, decoded)
	}
}
