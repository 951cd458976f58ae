package aura

// LedMsgLen is the length of every command packet sent to the LED node.
const LedMsgLen = 17

// Packet header bytes.
const (
	reportID      byte = 0x5D
	cmdEffect     byte = 0xB3
	cmdApply      byte = 0xB4
	cmdSet        byte = 0xB5
	cmdPowerState byte = 0xBD
)

// Effect packet offsets.
const (
	offZone      = 2
	offMode      = 3
	offColour1   = 4
	offSpeed     = 7
	offDirection = 8
	offColour2   = 10
)

// LedSet and LedApply commit a previously written effect or power packet.
// APPLY makes the change visible.
var (
	LedSet   = [LedMsgLen]byte{reportID, cmdSet}
	LedApply = [LedMsgLen]byte{reportID, cmdApply}
)

// DefaultColour is the colour given to modes that have never been configured.
var DefaultColour = Colour{166, 0, 0}

// Effect is one configured lighting effect.
type Effect struct {
	Mode      ModeID    `json:"mode"`
	Zone      Zone      `json:"zone"`
	Colour1   Colour    `json:"colour1"`
	Colour2   Colour    `json:"colour2"`
	Speed     Speed     `json:"speed"`
	Direction Direction `json:"direction"`
}

// DefaultEffect returns the effect a mode starts with.
func DefaultEffect(mode ModeID) Effect {
	return Effect{
		Mode:      mode,
		Zone:      ZoneNone,
		Colour1:   DefaultColour,
		Speed:     SpeedMed,
		Direction: DirectionRight,
	}
}

// Packet serializes the effect.
//
//	[0]=0x5D [1]=0xB3 [2]=zone [3]=mode [4..6]=colour1
//	[7]=speed [8]=direction [9]=0 [10..12]=colour2 [13..16]=0
func (e Effect) Packet() [LedMsgLen]byte {
	var msg [LedMsgLen]byte
	msg[0] = reportID
	msg[1] = cmdEffect
	msg[offZone] = byte(e.Zone)
	msg[offMode] = byte(e.Mode)
	copy(msg[offColour1:offColour1+3], e.Colour1[:])
	msg[offSpeed] = byte(e.Speed)
	msg[offDirection] = byte(e.Direction)
	copy(msg[offColour2:offColour2+3], e.Colour2[:])
	return msg
}
