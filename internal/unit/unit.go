// =============================================================================
// GAEB LV Tools - Unit Normalizer
// =============================================================================
//
// Quantity units in GAEB exports arrive as free text ("m²", "qm", "Stück",
// "lfdm", ...). This package maps those labels onto a closed set of canonical
// units, identified by their UNECE recommendation 20 codes. Normalization is
// a pure lookup and never fails: an unknown label degrades to the supplied
// default unit.
//
// =============================================================================

package unit

import "strings"

// Unit is a canonical quantity unit, named by its UNECE code.
type Unit string

const (
	// MTR is metre (length).
	MTR Unit = "MTR"
	// MTK is square metre (area).
	MTK Unit = "MTK"
	// MTQ is cubic metre (volume).
	MTQ Unit = "MTQ"
	// HUR is hour (labour).
	HUR Unit = "HUR"
	// C62 is "one" (piece count). It is the default unit.
	C62 Unit = "C62"
)

// aliases maps cleaned-up unit labels to canonical units. Keys must be
// lower-case with "." and " " already stripped, see Normalize.
var aliases = map[string]Unit{
	"m":     MTR,
	"meter": MTR,
	"lfdm":  MTR,

	"m2":  MTK,
	"m^2": MTK,
	"m²":  MTK,
	"qm":  MTK,

	"m3":  MTQ,
	"m^3": MTQ,
	"m³":  MTQ,
	"cbm": MTQ,

	"h":       HUR,
	"std":     HUR,
	"stunden": HUR,

	"stk":   C62,
	"stück": C62,
	"st":    C62,
}

// Normalize resolves a free-text unit label to a canonical unit.
// Lookup is case-insensitive and ignores dots and spaces ("lfd. m" == "lfdm").
// Labels that are already UNECE codes resolve to themselves. Anything
// unrecognized resolves to def.
func Normalize(raw string, def Unit) Unit {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, ".", "")
	key = strings.ReplaceAll(key, " ", "")

	if u, ok := aliases[key]; ok {
		return u
	}

	// GAEB files frequently carry the UNECE code itself in the QU field.
	switch Unit(strings.ToUpper(key)) {
	case MTR, MTK, MTQ, HUR, C62:
		return Unit(strings.ToUpper(key))
	}

	return def
}

// Symbol returns the display spelling used in exports.
func (u Unit) Symbol() string {
	switch u {
	case MTR:
		return "m"
	case MTK:
		return "m^2"
	case MTQ:
		return "m^3"
	case HUR:
		return "h"
	case C62:
		return "Stk"
	}
	return string(u)
}
