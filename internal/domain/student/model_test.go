package student

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	in := Student{Name: "Ana", DateOfBirth: NewDate(time.Date(1990, 4, 12, 15, 30, 0, 0, time.FixedZone("BRT", -3*3600)))}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["date_of_birth"] != "1990-04-12" {
		t.Errorf("expected 1990-04-12, got %v", raw["date_of_birth"])
	}

	var out Student
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.DateOfBirth.Equal(in.DateOfBirth.Time) {
		t.Errorf("expected %s back, got %s", in.DateOfBirth, out.DateOfBirth)
	}
}

func TestDate_UnmarshalRejectsTimestamp(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"1990-04-12T00:00:00Z"`), &d); err == nil {
		t.Error("expected a timestamp to be rejected")
	}
}

func TestDate_Postgres(t *testing.T) {
	var d Date
	if err := d.ScanDate(pgtype.Date{Time: time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC), Valid: true}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if d.String() != "2001-02-03" {
		t.Errorf("expected 2001-02-03, got %s", d)
	}
	if err := d.ScanDate(pgtype.Date{}); err == nil {
		t.Error("expected NULL to be rejected")
	}

	v, err := d.DateValue()
	if err != nil || !v.Valid || !v.Time.Equal(d.Time) {
		t.Errorf("unexpected date value %+v, %v", v, err)
	}
}
