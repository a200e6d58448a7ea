package badge

import "github.com/sweeney/badge-sensor/internal/adv"

// Home badge identifiers. Our own badges advertise this company id together
// with the DC27 appearance code.
const (
	CompanyDCZia     = 0x5050
	AppearanceHome   = uint16(Year27)
	DefaultLocalName = "DCZia"
)

// Classify resolves a parsed advertisement to a group and year.
// The home badge pair is checked before the generic appearance lookup.
func Classify(a *adv.Advertisement) (Group, Year) {
	if a.ManufacturerID == CompanyDCZia && a.Appearance == AppearanceHome {
		return GroupDCZia, Year27
	}
	return GroupFromAppearance(a.Appearance), YearFromAppearance(a.Appearance)
}
