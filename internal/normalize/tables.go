package normalize

// Correction tables for known data-entry mistakes in the source feed. These
// are data, not control flow: adding a newly discovered typo means adding a
// map entry, never touching Normalize itself.

// stateNameFixes maps misspelled state names to the canonical spelling. Keys
// match the value as it arrives, before uppercasing, so one table covers the
// source casing without needing a second uppercase variant.
var stateNameFixes = map[string]string{
	"georia": "Georgia",
	"Georia": "Georgia",
}

// typeFixes maps known bad place-type values to canonical ones. The feed has
// shown one letter transposition and one spurious pluralisation so far.
var typeFixes = map[string]string{
	"CPD":      "CDP",
	"Boroughs": "Borough",
}
