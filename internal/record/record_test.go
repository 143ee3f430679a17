package record

import (
	"errors"
	"testing"
	"time"
)

func TestToCleaned(t *testing.T) {
	raw := RawRecord{
		RowID:     42,
		ID:        1011000010100,
		StateCode: "13",
		StateName: "Georgia",
		StateAb:   "GA",
		County:    "Cobb",
		City:      "Marietta",
		Place:     "Marietta city",
		Type:      "City",
		Primary:   "place",
		ZipCode:   30060,
		AreaCode:  770,
		ALand:     60763532,
		AWater:    534924,
		Lat:       33.9533,
		Lon:       -84.5422,
	}

	ts := time.Date(2024, 3, 1, 12, 30, 45, 987654321, time.UTC)
	cleaned := ToCleaned(raw, ts)

	if cleaned.RowID != 0 {
		t.Errorf("ToCleaned() RowID = %d, want 0 (store assigns it)", cleaned.RowID)
	}
	if cleaned.ID != raw.ID {
		t.Errorf("ToCleaned() ID = %d, want %d", cleaned.ID, raw.ID)
	}
	if cleaned.StateName != "Georgia" || cleaned.County != "Cobb" {
		t.Errorf("ToCleaned() altered text fields: %q / %q", cleaned.StateName, cleaned.County)
	}
	if cleaned.Lat != raw.Lat || cleaned.Lon != raw.Lon {
		t.Errorf("ToCleaned() altered coordinates: %v / %v", cleaned.Lat, cleaned.Lon)
	}

	want := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	if !cleaned.TimeStamp.Equal(want) {
		t.Errorf("ToCleaned() TimeStamp = %v, want %v (second precision)", cleaned.TimeStamp, want)
	}
}

func TestValidate(t *testing.T) {
	valid := RawRecord{
		ID: 1, StateAb: "GA", ZipCode: 30060, AreaCode: 770,
		Lat: 33.95, Lon: -84.54,
	}

	tests := []struct {
		name    string
		mutate  func(*RawRecord)
		wantErr bool
	}{
		{"valid record", func(r *RawRecord) {}, false},
		{"missing id", func(r *RawRecord) { r.ID = 0 }, true},
		{"negative id", func(r *RawRecord) { r.ID = -5 }, true},
		{"bad state abbreviation", func(r *RawRecord) { r.StateAb = "GEO" }, true},
		{"empty state abbreviation ok", func(r *RawRecord) { r.StateAb = "" }, false},
		{"zip out of range", func(r *RawRecord) { r.ZipCode = 123456 }, true},
		{"latitude out of range", func(r *RawRecord) { r.Lat = 91 }, true},
		{"longitude out of range", func(r *RawRecord) { r.Lon = -181 }, true},
		{"negative land area", func(r *RawRecord) { r.ALand = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := Validate(r)
			if tt.wantErr && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("Validate() error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}
