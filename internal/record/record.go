package record

import (
	"time"
)

// RawRecord is one row of the household income source feed, exactly as it
// arrived. Raw rows carry no timestamp; that is stamped on when the cleaning
// pipeline copies them into the cleaned table.
type RawRecord struct {
	RowID     int64   `json:"row_id"`
	ID        int64   `json:"id" validate:"required,gt=0"`
	StateCode string  `json:"state_code"`
	StateName string  `json:"state_name"`
	StateAb   string  `json:"state_ab" validate:"omitempty,len=2"`
	County    string  `json:"county"`
	City      string  `json:"city"`
	Place     string  `json:"place"`
	Type      string  `json:"type"`
	Primary   string  `json:"primary"`
	ZipCode   int     `json:"zip_code" validate:"gte=0,lte=99999"`
	AreaCode  int     `json:"area_code" validate:"gte=0,lte=999"`
	ALand     int64   `json:"aland" validate:"gte=0"`
	AWater    int64   `json:"awater" validate:"gte=0"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon       float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// CleanedRecord is a raw row after ingestion into the cleaned table. RowID is
// the cleaned table's own surrogate key, assigned on append; it is not stable
// across cleaning runs. TimeStamp is the instant the copying run ingested the
// row, truncated to whole seconds so it survives a SQL round trip.
type CleanedRecord struct {
	RowID     int64     `json:"row_id"`
	ID        int64     `json:"id"`
	StateCode string    `json:"state_code"`
	StateName string    `json:"state_name"`
	StateAb   string    `json:"state_ab"`
	County    string    `json:"county"`
	City      string    `json:"city"`
	Place     string    `json:"place"`
	Type      string    `json:"type"`
	Primary   string    `json:"primary"`
	ZipCode   int       `json:"zip_code"`
	AreaCode  int       `json:"area_code"`
	ALand     int64     `json:"aland"`
	AWater    int64     `json:"awater"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	TimeStamp time.Time `json:"time_stamp"`
}

// ToCleaned stamps a raw row with the given ingestion time. All other fields
// are copied unchanged; the cleaned RowID is left zero for the store to
// assign on append.
func ToCleaned(raw RawRecord, ts time.Time) CleanedRecord {
	return CleanedRecord{
		ID:        raw.ID,
		StateCode: raw.StateCode,
		StateName: raw.StateName,
		StateAb:   raw.StateAb,
		County:    raw.County,
		City:      raw.City,
		Place:     raw.Place,
		Type:      raw.Type,
		Primary:   raw.Primary,
		ZipCode:   raw.ZipCode,
		AreaCode:  raw.AreaCode,
		ALand:     raw.ALand,
		AWater:    raw.AWater,
		Lat:       raw.Lat,
		Lon:       raw.Lon,
		TimeStamp: ts.UTC().Truncate(time.Second),
	}
}
