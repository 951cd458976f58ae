package aura

// PowerStates are the five LED power flags, applied to the device together.
type PowerStates struct {
	BootAnim  bool `json:"boot_anim"`
	SleepAnim bool `json:"sleep_anim"`
	AllLeds   bool `json:"all_leds"`
	KeysLeds  bool `json:"keys_leds"`
	SideLeds  bool `json:"side_leds"`
}

// DefaultPowerStates has every flag enabled.
func DefaultPowerStates() PowerStates {
	return PowerStates{BootAnim: true, SleepAnim: true, AllLeds: true, KeysLeds: true, SideLeds: true}
}

// Control bits of the 24 bit power field, little endian across the three flag bytes.
const (
	ctlBootLogo  uint32 = 1 << 0
	ctlBootKeyb  uint32 = 1 << 1
	ctlAwakeLogo uint32 = 1 << 2
	ctlAwakeKeyb uint32 = 1 << 3
	ctlSleepLogo uint32 = 1 << 4
	ctlSleepKeyb uint32 = 1 << 5
	ctlAwakeBar  uint32 = 1 << 9
	ctlBootBar   uint32 = 1 << 10
	ctlSleepBar  uint32 = 1 << 11
)

const (
	powerBootMask  = ctlBootLogo | ctlBootKeyb | ctlBootBar
	powerSleepMask = ctlSleepLogo | ctlSleepKeyb | ctlSleepBar
)

// Pack encodes the flags into the three bytes that follow the power header.
func (p PowerStates) Pack() [3]byte {
	var v uint32
	if p.BootAnim {
		v |= powerBootMask
	}
	if p.SleepAnim {
		v |= powerSleepMask
	}
	if p.AllLeds {
		v |= ctlAwakeLogo
	}
	if p.KeysLeds {
		v |= ctlAwakeKeyb
	}
	if p.SideLeds {
		v |= ctlAwakeBar
	}
	return [3]byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

// UnpackPowerStates is the inverse of PowerStates.Pack.
func UnpackPowerStates(b [3]byte) PowerStates {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	return PowerStates{
		BootAnim:  v&powerBootMask == powerBootMask,
		SleepAnim: v&powerSleepMask == powerSleepMask,
		AllLeds:   v&ctlAwakeLogo != 0,
		KeysLeds:  v&ctlAwakeKeyb != 0,
		SideLeds:  v&ctlAwakeBar != 0,
	}
}

// Packet wraps the packed flags in a power command: 5D BD 01, three flag bytes, zero padding.
func (p PowerStates) Packet() [LedMsgLen]byte {
	flags := p.Pack()
	msg := [LedMsgLen]byte{reportID, cmdPowerState, 0x01}
	copy(msg[3:6], flags[:])
	return msg
}
