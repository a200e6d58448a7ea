package badge

// Info is one immutable catalog entry.
type Info struct {
	Group      Group
	Appearance uint16
	Name       string
	Contact    string
	Icon       string
}

// catalog holds one entry per group, in enumeration order; catalog[g-1] is group g.
var catalog = [NumGroups - 1]Info{
	{GroupAndnxor, 0x049E, "AND!XOR", "@ANDnXOR", "BADGES/ANDNXOR.RAW"},
	{GroupCPV, 0x0C9F, "Crypto Privacy Village", "@cryptovillage", "BADGES/CPV.RAW"},
	{GroupDarknet, 0x444E, "DC Darknet", "@dcdarknet", "BADGES/DARKNET.RAW"},
	{GroupDC801, 0x0801, "DC801", "@dc801", "BADGES/DC801.RAW"},
	{GroupDCZia, 0x26DC, "DCZia", "@dczia", "BADGES/DCZIA.RAW"},
	{GroupFoB, 0xF0B0, "Friends of Bender", "@BenderDefcon", "BADGES/FOB.RAW"},
	{GroupDiana, 0xD1A4, "Diana Initiative", "@DianaInitiative", "BADGES/DIANA.RAW"},
	{GroupDC503, 0x0503, "DC503", "@dc503", "BADGES/DC503.RAW"},
	{GroupDCFurs1, 0x71FF, "DEFCON Furs", "@dcfurs", "BADGES/DCFURS1.RAW"},
	{GroupDCFurs2, 0x72FF, "DEFCON Furs v2", "@dcfurs", "BADGES/DCFURS2.RAW"},
	{GroupBlinky, 0xB11C, "Blinky", "@blinkyparts", "BADGES/BLINKY.RAW"},
	{GroupPhase4Monkey, 0x4D4B, "Phase4 Monkey", "@phase4ground", "BADGES/P4MONKEY.RAW"},
	{GroupPhase4Ham, 0x4841, "Phase4 Ham", "@phase4ground", "BADGES/P4HAM.RAW"},
	{GroupQueercon, 0x0C0C, "Queercon", "@queercon", "BADGES/QUEERCON.RAW"},
	{GroupShotbot, 0x5B07, "Shotbot", "@shotbot", "BADGES/SHOTBOT.RAW"},
	{GroupPirates, 0xA442, "Pirates", "@defconpirates", "BADGES/PIRATES.RAW"},
	{GroupHak4Kidz, 0x4A4B, "Hak4Kidz", "@hak4kidz", "BADGES/HAK4KIDZ.RAW"},
	{GroupDC858619, 0x0858, "DC858/619", "@dc858", "BADGES/DC858.RAW"},
}

func lookup(g Group) (Info, bool) {
	if !g.Valid() {
		return Info{}, false
	}
	return catalog[g-1], true
}

// Catalog returns a copy of every catalog entry in enumeration order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog[:])
	return out
}

// GroupFromAppearance returns the first catalog group whose appearance code
// matches, scanning in enumeration order, or GroupNone.
func GroupFromAppearance(appearance uint16) Group {
	return groupFromAppearance(catalog[:], appearance)
}

func groupFromAppearance(entries []Info, appearance uint16) Group {
	for _, e := range entries {
		if e.Appearance == appearance {
			return e.Group
		}
	}
	return GroupNone
}

// Name returns the group's display name, or "" for GroupNone and unknown groups.
func Name(g Group) string {
	e, _ := lookup(g)
	return e.Name
}

// Contact returns the group's contact handle, or "".
func Contact(g Group) string {
	e, _ := lookup(g)
	return e.Contact
}

// IconFile returns the path of the group's icon on the badge filesystem, or "".
func IconFile(g Group) string {
	e, _ := lookup(g)
	return e.Icon
}

// Appearance returns the group's catalog appearance code, or 0.
func Appearance(g Group) uint16 {
	e, _ := lookup(g)
	return e.Appearance
}
