package normalize

import (
	"strings"
	"testing"

	"github.com/income-clean/internal/record"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   record.CleanedRecord
		want record.CleanedRecord
	}{
		{
			name: "uppercases geographic text fields",
			in:   record.CleanedRecord{County: "cobb", City: "marietta", Place: "marietta city", StateName: "Georgia"},
			want: record.CleanedRecord{County: "COBB", City: "MARIETTA", Place: "MARIETTA CITY", StateName: "GEORGIA"},
		},
		{
			name: "state name typo corrected before uppercasing",
			in:   record.CleanedRecord{StateName: "georia"},
			want: record.CleanedRecord{StateName: "GEORGIA"},
		},
		{
			name: "state name typo in source casing corrected",
			in:   record.CleanedRecord{StateName: "Georia"},
			want: record.CleanedRecord{StateName: "GEORGIA"},
		},
		{
			name: "type transposition corrected",
			in:   record.CleanedRecord{Type: "CPD"},
			want: record.CleanedRecord{Type: "CDP"},
		},
		{
			name: "type pluralisation corrected",
			in:   record.CleanedRecord{Type: "Boroughs"},
			want: record.CleanedRecord{Type: "Borough"},
		},
		{
			name: "unmapped type passes through",
			in:   record.CleanedRecord{Type: "Track"},
			want: record.CleanedRecord{Type: "Track"},
		},
		{
			name: "empty fields pass through",
			in:   record.CleanedRecord{},
			want: record.CleanedRecord{},
		},
		{
			name: "non-text fields untouched",
			in:   record.CleanedRecord{ID: 7, ZipCode: 30060, Lat: 33.95, Lon: -84.54, StateName: "georgia"},
			want: record.CleanedRecord{ID: 7, ZipCode: 30060, Lat: 33.95, Lon: -84.54, StateName: "GEORGIA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Every field Normalize uppercases must be a fixed point of a second pass.
func TestNormalizeIdempotent(t *testing.T) {
	in := record.CleanedRecord{
		County: "cobb", City: "marietta", Place: "marietta city",
		StateName: "georia", Type: "CPD",
	}

	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize() not idempotent: first %+v, second %+v", once, twice)
	}

	for _, field := range []string{once.County, once.City, once.Place, once.StateName} {
		if field != strings.ToUpper(field) {
			t.Errorf("field %q is not its own uppercase form", field)
		}
	}
}

func TestAll(t *testing.T) {
	in := []record.CleanedRecord{
		{StateName: "georia"},
		{StateName: "GEORGIA", County: "COBB"},
		{Type: "CPD"},
	}

	out, changed := All(in)
	if changed != 2 {
		t.Errorf("All() changed = %d, want 2", changed)
	}
	if out[0].StateName != "GEORGIA" || out[2].Type != "CDP" {
		t.Errorf("All() did not normalize: %+v", out)
	}
	if in[0].StateName != "georia" {
		t.Error("All() mutated its input slice")
	}
}
