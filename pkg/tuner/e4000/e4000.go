// Package e4000 drives the Elonics E4000 silicon tuner.
package e4000

import "github.com/herlein/rtlsdr/pkg/rtlsdr"

const i2cAddr = 0x64

func init() {
	rtlsdr.RegisterTuner(rtlsdr.TunerE4000, probe)
}

func probe(h rtlsdr.Host) (rtlsdr.Tuner, bool, error) {
	v, err := h.I2CReadReg(i2cAddr, 0x02)
	if err != nil {
		return nil, false, nil
	}
	if v != 0x40 {
		return nil, false, nil
	}
	return &Tuner{host: h}, true, nil
}

// gainRegs are the LNA/mixer/IF gain stage register offsets.
const (
	regLNAGain  = 0x16
	regMixGain  = 0x17
	regIFGain1  = 0x18
	regIFGain2  = 0x19
	regBW       = 0x1a
	regSideband = 0x07
)

// Tuner implements rtlsdr.Tuner for the E4000. SetFreq starts the VCO at
// 4x the wanted LO and doubles it (divider 1/2/4/8/16/32/64) until it
// reaches 1.2GHz; there is no upper-bound check. The VCO is split against
// the 28.8MHz reference into an integer part and a 16-bit fraction, with
// no table lookup like the R820T's.
type Tuner struct {
	host     rtlsdr.Host
	sideband rtlsdr.Sideband
	locked   bool
	manual   bool
	gainIdx  int
}

func (t *Tuner) Type() rtlsdr.TunerType { return rtlsdr.TunerE4000 }

func (t *Tuner) Init() error {
	if err := t.host.I2CWriteReg(i2cAddr, 0x06, 0x00); err != nil {
		return err
	}
	return t.host.I2CWriteReg(i2cAddr, 0x7a, 0x96)
}

func (t *Tuner) Exit() error { return t.Standby() }

func (t *Tuner) Standby() error {
	return t.host.I2CWriteReg(i2cAddr, 0x06, 0x03)
}

func (t *Tuner) SetFreq(hz uint32) error {
	const refFreq = uint64(28_800_000)
	vco := uint64(hz) * 4
	div := byte(0)
	for vco < 1_200_000_000 && div < 6 {
		vco *= 2
		div++
	}
	nint := vco / refFreq
	frac := ((vco - nint*refFreq) * 65536) / refFreq

	if err := t.host.I2CWriteReg(i2cAddr, 0x09, div); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x0a, byte(nint)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x0b, byte(frac)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x0c, byte(frac>>8)); err != nil {
		return err
	}
	v, err := t.host.I2CReadReg(i2cAddr, 0x08)
	if err != nil {
		return err
	}
	t.locked = v&0x01 != 0
	return nil
}

func (t *Tuner) HasPllLocked() bool { return t.locked }

func (t *Tuner) SetBandwidth(bwHz uint32, apply bool) (uint32, int32, error) {
	steps := []uint32{2_000_000, 2_500_000, 3_000_000, 3_500_000, 4_300_000, 5_000_000, 6_000_000, 7_000_000, 8_000_000}
	chosen := steps[len(steps)-1]
	for _, s := range steps {
		if bwHz <= s {
			chosen = s
			break
		}
	}
	if apply {
		idx := byte(0)
		for i, s := range steps {
			if s == chosen {
				idx = byte(i)
				break
			}
		}
		if err := t.host.I2CWriteReg(i2cAddr, regBW, idx); err != nil {
			return 0, 0, err
		}
	}
	return chosen, 0, nil
}

func (t *Tuner) SetBandCenter(hz uint32) error { return nil }

func (t *Tuner) SetGainMode(manual bool) error {
	t.manual = manual
	v := byte(0x00)
	if manual {
		v = 0x01
	}
	return t.host.I2CWriteReg(i2cAddr, 0x1d, v)
}

func (t *Tuner) GainList() []int {
	return []int{-10, 15, 40, 65, 90, 115, 140, 165, 190, 215, 240, 290, 340, 420}
}

func (t *Tuner) SetGain(tenthDB int) error {
	gains := t.GainList()
	idx := 0
	best := 1 << 30
	for i, g := range gains {
		d := g - tenthDB
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
			idx = i
		}
	}
	t.gainIdx = idx
	return t.host.I2CWriteReg(i2cAddr, regLNAGain, byte(idx))
}

func (t *Tuner) SetGainIndex(lna, mixer, vga int) error {
	t.gainIdx = lna
	if err := t.host.I2CWriteReg(i2cAddr, regLNAGain, byte(lna)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, regMixGain, byte(mixer)); err != nil {
		return err
	}
	return t.host.I2CWriteReg(i2cAddr, regIFGain1, byte(vga))
}

func (t *Tuner) SetIFGain(stage int, tenthDB int) error {
	reg := uint8(regIFGain1)
	if stage == 1 {
		reg = regIFGain2
	}
	return t.host.I2CWriteReg(i2cAddr, reg, byte(tenthDB/30))
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
	v := byte(0x00)
	if sb == rtlsdr.SidebandUpper {
		v = 0x01
	}
	return flip, t.host.I2CWriteReg(i2cAddr, regSideband, v)
}

func (t *Tuner) SetDither(on bool) error { return nil }
