package rtlsdr

import "fmt"

// TunerType identifies which RF front end is attached to a device.
type TunerType int

const (
	TunerUnknown TunerType = iota
	TunerE4000
	TunerFC0012
	TunerFC0013
	TunerFC2580
	TunerR820T
	TunerR828D
)

func (t TunerType) String() string {
	switch t {
	case TunerE4000:
		return "E4000"
	case TunerFC0012:
		return "FC0012"
	case TunerFC0013:
		return "FC0013"
	case TunerFC2580:
		return "FC2580"
	case TunerR820T:
		return "R820T"
	case TunerR828D:
		return "R828D"
	default:
		return "unknown"
	}
}

// Sideband selects which mirror image around the tuner LO is the wanted
// signal band.
type Sideband int

const (
	SidebandLower Sideband = iota
	SidebandUpper
)

// Tuner is the uniform operation set every chip-specific driver implements.
// Dispatch replaces the upstream C function-pointer struct with ordinary
// Go interface calls — see SPEC_FULL.md §4.4.
type Tuner interface {
	Type() TunerType

	Init() error
	Exit() error

	// SetFreq programs the LO for freqHz. It returns only an error; whether
	// the PLL locked is reported separately by HasPllLocked.
	SetFreq(freqHz uint32) error
	// HasPllLocked reports whether the most recent SetFreq observed PLL
	// lock. A false return is not itself an error: register programming
	// still completed and a later SetFreq may succeed.
	HasPllLocked() bool

	// SetBandwidth selects the closest realizable bandpass, optionally
	// only computing (not applying) it when apply is false. It returns
	// the bandwidth actually realized and the ifHz of the selected
	// bandwidth-table row. The Device programs the demodulator IF
	// independently of this value (see SetCenterFreq).
	SetBandwidth(bwHz uint32, apply bool) (appliedHz uint32, ifHz int32, err error)
	// SetBandCenter accepts a band-center offset. No driver in this module
	// acts on it: every implementation returns nil without changing the
	// tuning or the demodulator IF.
	SetBandCenter(hz uint32) error

	SetGainMode(manual bool) error
	SetGain(tenthDB int) error
	SetIFGain(stage int, tenthDB int) error
	SetGainIndex(lna, mixer, vga int) error
	GainList() []int // available manual gains, tenths of a dB

	SetI2CRegister(reg uint8, val uint8, mask uint8) error
	GetI2CRegister(reg uint8) (uint8, error)
	SetI2COverride(reg uint8, mask uint8, data uint16) error

	// SetSideband selects USB or LSB and reports whether sb differs from
	// the previously selected sideband.
	SetSideband(sb Sideband) (flip bool, err error)

	Standby() error
}

// Host is the narrow surface a tuner driver needs from the owning Device:
// raw I2C register access (through the repeater gate the Device already
// holds open for the duration of the call) plus GPIO and diagnostics. It
// exists to break the natural cyclic reference between tuner and demod
// (DESIGN NOTES, §9) without resorting to package-level globals.
type Host interface {
	I2CWriteReg(i2cAddr, reg, val uint8) error
	I2CReadReg(i2cAddr, reg uint8) (uint8, error)
	I2CWriteArray(i2cAddr uint8, startReg uint8, data []byte) error
	I2CReadArray(i2cAddr uint8, startReg uint8, n int) ([]byte, error)

	GPIOSetOutput(pin uint8) error
	GPIOSetBit(pin uint8, on bool) error

	Verbose() int
	Logf(format string, args ...interface{})
}

// ProbeFunc attempts to identify and construct a tuner driver against the
// given I2C host. It returns ok=false (not an error) when the expected
// chip was not found at its fixed I2C address.
type ProbeFunc func(h Host) (Tuner, bool, error)

var tunerRegistry = map[TunerType]ProbeFunc{}

// RegisterTuner is called from a tuner driver package's init() to make
// itself probeable by Open. This mirrors the registration pattern used by
// database/sql drivers and image format decoders: the core package never
// imports a concrete driver package, so driver packages are free to import
// the core package for the Host/Tuner types without an import cycle. Callers
// must blank-import the driver packages they want available, e.g.
// 	import _ "github.com/herlein/rtlsdr/pkg/tuner/r820t"
// or import pkg/tuner/all for the full set.
func RegisterTuner(t TunerType, probe ProbeFunc) {
	if probe == nil {
		panic(fmt.Sprintf("rtlsdr: RegisterTuner(%s, nil)", t))
	}
	if _, dup := tunerRegistry[t]; dup {
		panic(fmt.Sprintf("rtlsdr: RegisterTuner(%s) called twice", t))
	}
	tunerRegistry[t] = probe
}

// probeOrder mirrors §4.4: the probe that matches first wins.
var probeOrder = []TunerType{
	TunerE4000,
	TunerFC0012,
	TunerFC0013,
	TunerFC2580,
	TunerR820T, // also covers TunerR828D; the r820t driver self-identifies
}

func probeTuner(h Host) (Tuner, error) {
	for _, t := range probeOrder {
		probe, ok := tunerRegistry[t]
		if !ok {
			continue
		}
		tuner, found, err := probe(h)
		if err != nil {
			return nil, err
		}
		if found {
			return tuner, nil
		}
	}
	return nil, newErr("probeTuner", KindNoDevice, fmt.Errorf("no supported tuner responded on the I2C bus"))
}
