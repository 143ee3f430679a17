// Package normalize turns cleaned household income rows into their canonical
// form: uppercase geographic text and known typos corrected.
package normalize

import (
	"strings"

	"github.com/income-clean/internal/record"
)

// Normalize maps a cleaned row to its canonical form. Pure and total: empty
// fields pass through, unmapped values pass through, the input is never
// mutated.
//
// Typo substitution on StateName runs before uppercasing, against the value
// as it arrived, so the correction table is keyed by source-case spellings.
func Normalize(r record.CleanedRecord) record.CleanedRecord {
	if fix, ok := stateNameFixes[r.StateName]; ok {
		r.StateName = fix
	}

	r.County = strings.ToUpper(r.County)
	r.City = strings.ToUpper(r.City)
	r.Place = strings.ToUpper(r.Place)
	r.StateName = strings.ToUpper(r.StateName)

	if fix, ok := typeFixes[r.Type]; ok {
		r.Type = fix
	}

	return r
}

// Changed reports whether Normalize altered any field of before. Only the
// fields Normalize touches are compared.
func Changed(before, after record.CleanedRecord) bool {
	return before.County != after.County ||
		before.City != after.City ||
		before.Place != after.Place ||
		before.StateName != after.StateName ||
		before.Type != after.Type
}

// All normalizes every record in place of a copy of the slice and reports how
// many records changed.
func All(records []record.CleanedRecord) ([]record.CleanedRecord, int) {
	out := make([]record.CleanedRecord, len(records))
	changed := 0
	for i, r := range records {
		out[i] = Normalize(r)
		if Changed(r, out[i]) {
			changed++
		}
	}
	return out, changed
}
