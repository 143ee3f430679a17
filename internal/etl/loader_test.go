package etl

import (
	"context"
	"strings"
	"testing"

	"github.com/income-clean/internal/store"
)

func TestLoad(t *testing.T) {
	csv := strings.Join([]string{
		"id,State_Code,State_Name,State_ab,County,City,Place,Type,Primary,Zip_Code,Area_Code,ALand,AWater,Lat,Lon",
		"1011000010100,13,georia,GA,cobb,Marietta,Marietta city,CPD,place,30060,770,60763532,534924,33.9533,-84.5422",
		"1011000010200,39,Ohio,OH,Stark,Canton,Canton city,City,place,44702,330,64037543,616793,40.7989,-81.3784",
	}, "\n")

	raw := store.NewMemRawSource()
	loader := NewLoader(raw, false)

	loaded, skipped, err := loader.Load(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != 2 || skipped != 0 {
		t.Errorf("Load() = %d loaded, %d skipped, want 2, 0", loaded, skipped)
	}

	rows, _ := raw.All(context.Background())
	if len(rows) != 2 {
		t.Fatalf("raw source has %d rows, want 2", len(rows))
	}
	got := rows[0]
	if got.ID != 1011000010100 || got.StateName != "georia" || got.Type != "CPD" {
		t.Errorf("row 0 = %+v; loader must not clean, only load", got)
	}
	if got.ZipCode != 30060 || got.Lat != 33.9533 {
		t.Errorf("row 0 numerics = zip %d lat %v, want 30060, 33.9533", got.ZipCode, got.Lat)
	}
}

func TestLoadSkipsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"id,State_Name,County,Type,Zip_Code,Lat,Lon",
		"1,Georgia,Cobb,City,30060,33.9,-84.5",
		"not-a-number,Georgia,Cobb,City,30060,33.9,-84.5",
		"2,Georgia,Cobb,City,garbage,33.9,-84.5",
		"3,Georgia,Cobb,City,30060,95,-84.5",
		"4,Georgia,Cobb,City,,,",
	}, "\n")

	raw := store.NewMemRawSource()
	loader := NewLoader(raw, false)

	loaded, skipped, err := loader.Load(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != 2 || skipped != 3 {
		t.Errorf("Load() = %d loaded, %d skipped, want 2 loaded (rows 1 and 4), 3 skipped", loaded, skipped)
	}
}

func TestLoadReordersColumns(t *testing.T) {
	csv := strings.Join([]string{
		"County,id,State_Name",
		"Cobb,7,Georgia",
	}, "\n")

	raw := store.NewMemRawSource()
	loader := NewLoader(raw, false)

	loaded, _, err := loader.Load(context.Background(), strings.NewReader(csv))
	if err != nil || loaded != 1 {
		t.Fatalf("Load() = %d, %v, want 1, nil", loaded, err)
	}
	rows, _ := raw.All(context.Background())
	if rows[0].ID != 7 || rows[0].County != "Cobb" {
		t.Errorf("row = %+v, want ID 7 County Cobb from reordered columns", rows[0])
	}
}

func TestLoadMissingHeader(t *testing.T) {
	raw := store.NewMemRawSource()
	loader := NewLoader(raw, false)

	if _, _, err := loader.Load(context.Background(), strings.NewReader("")); err == nil {
		t.Error("Load() of empty input = nil, want header error")
	}
}
