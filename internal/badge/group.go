// Package badge classifies parsed advertisements against the catalog of known
// conference badges and defines the record kept for each nearby badge.
package badge

import "fmt"

// Group identifies the crew that built a badge.
type Group uint8

const (
	GroupNone Group = iota
	GroupAndnxor
	GroupCPV
	GroupDarknet
	GroupDC801
	GroupDCZia
	GroupFoB
	GroupDiana
	GroupDC503
	GroupDCFurs1
	GroupDCFurs2
	GroupBlinky
	GroupPhase4Monkey
	GroupPhase4Ham
	GroupQueercon
	GroupShotbot
	GroupPirates
	GroupHak4Kidz
	GroupDC858619
	NumGroups
)

// Valid reports whether g names a catalog entry (GroupNone does not).
func (g Group) Valid() bool {
	return g > GroupNone && g < NumGroups
}

// String returns the display name, "none" for GroupNone, or a numeric fallback.
func (g Group) String() string {
	if g == GroupNone {
		return "none"
	}
	if !g.Valid() {
		return fmt.Sprintf("group(%d)", uint8(g))
	}
	return catalog[g-1].Name
}

// Year is the badge edition, encoded the way badges put it in the appearance field.
type Year uint16

const (
	YearUnknown Year = 0
	Year25      Year = 0x19DC
	Year26      Year = 0x26DC
	Year27      Year = 0x27DC
)

// YearFromAppearance maps an appearance code to a year, or YearUnknown.
func YearFromAppearance(appearance uint16) Year {
	switch y := Year(appearance); y {
	case Year25, Year26, Year27:
		return y
	}
	return YearUnknown
}

// String returns "DC25".."DC27" or "unknown".
func (y Year) String() string {
	switch y {
	case Year25:
		return "DC25"
	case Year26:
		return "DC26"
	case Year27:
		return "DC27"
	}
	return "unknown"
}
