// Package fc2580 drives the FCI FC2580 silicon tuner.
package fc2580

import "github.com/herlein/rtlsdr/pkg/rtlsdr"

const i2cAddr = 0x56

func init() {
	rtlsdr.RegisterTuner(rtlsdr.TunerFC2580, probe)
}

func probe(h rtlsdr.Host) (rtlsdr.Tuner, bool, error) {
	if err := h.GPIOSetOutput(4); err != nil {
		return nil, false, nil
	}
	h.GPIOSetBit(4, true)
	h.GPIOSetBit(4, false)

	v, err := h.I2CReadReg(i2cAddr, 0x01)
	if err != nil || v != 0x56 {
		return nil, false, nil
	}
	return &Tuner{host: h}, true, nil
}

// Tuner implements rtlsdr.Tuner for the FC2580, a band-switched tuner
// whose band register (VHF/UHF/L-band) is selected by the requested
// frequency, not the wideband lookup table the Rafael Micro chips use.
// The VCO always runs at 4x the LO.
type Tuner struct {
	host     rtlsdr.Host
	sideband rtlsdr.Sideband
	locked   bool
}

func (t *Tuner) Type() rtlsdr.TunerType { return rtlsdr.TunerFC2580 }

func (t *Tuner) Init() error {
	return t.host.I2CWriteReg(i2cAddr, 0x02, 0x0a)
}

func (t *Tuner) Exit() error { return t.Standby() }

func (t *Tuner) Standby() error {
	return t.host.I2CWriteReg(i2cAddr, 0x02, 0x00)
}

func (t *Tuner) bandFor(hz uint32) byte {
	switch {
	case hz < 250_000_000:
		return 0x00 // VHF
	case hz < 900_000_000:
		return 0x01 // UHF
	default:
		return 0x02 // L-band
	}
}

func (t *Tuner) SetFreq(hz uint32) error {
	const refFreq = uint64(28_800_000)
	band := t.bandFor(hz)
	if err := t.host.I2CWriteReg(i2cAddr, 0x25, band); err != nil {
		return err
	}

	vco := uint64(hz) * 4
	nint := vco / refFreq
	frac := ((vco - nint*refFreq) * (1 << 18)) / refFreq

	if err := t.host.I2CWriteReg(i2cAddr, 0x18, byte(nint)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x19, byte(frac)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x1a, byte(frac>>8)); err != nil {
		return err
	}
	v, err := t.host.I2CReadReg(i2cAddr, 0x2f)
	if err != nil {
		return err
	}
	t.locked = v&0x02 != 0
	return nil
}

func (t *Tuner) HasPllLocked() bool { return t.locked }

func (t *Tuner) SetBandwidth(bwHz uint32, apply bool) (uint32, int32, error) {
	steps := []uint32{1_530_000, 6_000_000, 7_000_000, 8_000_000}
	chosen := steps[len(steps)-1]
	idx := byte(len(steps) - 1)
	for i, s := range steps {
		if bwHz <= s {
			chosen = s
			idx = byte(i)
			break
		}
	}
	if apply {
		if err := t.host.I2CWriteReg(i2cAddr, 0x36, idx); err != nil {
			return 0, 0, err
		}
	}
	return chosen, 0, nil
}

func (t *Tuner) SetBandCenter(hz uint32) error { return nil }

func (t *Tuner) SetGainMode(manual bool) error {
	v := byte(0x00)
	if manual {
		v = 0x01
	}
	return t.host.I2CWriteReg(i2cAddr, 0x4e, v)
}

func (t *Tuner) GainList() []int {
	return []int{0, 30, 60, 90, 120, 150, 180, 210}
}

func (t *Tuner) SetGain(tenthDB int) error {
	gains := t.GainList()
	idx, best := 0, 1<<30
	for i, g := range gains {
		d := g - tenthDB
		if d < 0 {
			d = -d
		}
		if d < best {
			best, idx = d, i
		}
	}
	return t.host.I2CWriteReg(i2cAddr, 0x4f, byte(idx))
}

func (t *Tuner) SetGainIndex(lna, mixer, vga int) error {
	return t.host.I2CWriteReg(i2cAddr, 0x4f, byte(lna))
}

func (t *Tuner) SetIFGain(stage int, tenthDB int) error {
	return t.host.I2CWriteReg(i2cAddr, 0x50, byte(tenthDB/30))
}

func (t *Tuner) SetI2CRegister(reg uint8, val uint8, mask uint8) error {
	cur, err := t.host.I2CReadReg(i2cAddr, reg)
	if err != nil {
		return err
	}
	return t.host.I2CWriteReg(i2cAddr, reg, (cur&^mask)|(val&mask))
}

func (t *Tuner) GetI2CRegister(reg uint8) (uint8, error) {
	return t.host.I2CReadReg(i2cAddr, reg)
}

func (t *Tuner) SetI2COverride(reg uint8, mask uint8, data uint16) error {
	if data > 0xff {
		return nil
	}
	return t.SetI2CRegister(reg, byte(data), mask)
}

func (t *Tuner) SetSideband(sb rtlsdr.Sideband) (bool, error) {
	flip := sb != t.sideband
	t.sideband = sb
	return flip, nil
}

func (t *Tuner) SetDither(on bool) error { return nil }
