package logic

import "github.com/sweeney/badge-sensor/internal/badge"

// Status byte values carried in the first manufacturer data byte.
const (
	MarkerRabies     byte = 0x35
	CommandSendEmote byte = 0xB2
	StatusClean      byte = 0x00
)

// HasRabies reports whether the badge advertises the rabies marker.
func HasRabies(r badge.Record) bool {
	return r.DataLen > 0 && r.Data[0] == MarkerRabies
}

// IsEmote reports whether the badge is broadcasting an emote command.
func IsEmote(r badge.Record) bool {
	return r.DataLen > 0 && r.Data[0] == CommandSendEmote
}

// StatusByte returns the status byte our own badge advertises.
func StatusByte(infected bool) byte {
	if infected {
		return MarkerRabies
	}
	return StatusClean
}
