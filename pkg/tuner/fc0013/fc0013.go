// Package fc0013 drives the Fitipower FC0013 silicon tuner, the FC0012's
// successor with a VCO table reaching 1.1GHz and a finer gain ladder; its
// bandwidth steps are the same 6/7/8MHz as the FC0012's.
package fc0013

import "github.com/herlein/rtlsdr/pkg/rtlsdr"

const i2cAddr = 0x63

func init() {
	rtlsdr.RegisterTuner(rtlsdr.TunerFC0013, probe)
}

func probe(h rtlsdr.Host) (rtlsdr.Tuner, bool, error) {
	v, err := h.I2CReadReg(i2cAddr, 0x00)
	if err != nil || v != 0xa3 {
		return nil, false, nil
	}
	return &Tuner{host: h}, true, nil
}

type Tuner struct {
	host     rtlsdr.Host
	sideband rtlsdr.Sideband
	locked   bool
	gain     int
}

type vcoRow struct {
	freqHz uint32
	mult   byte
	reg    byte
}

var vcoTable = []vcoRow{
	{75_000_000, 48, 0x0e},
	{90_000_000, 40, 0x0c},
	{115_000_000, 32, 0x0a},
	{140_000_000, 24, 0x08},
	{180_000_000, 20, 0x07},
	{250_000_000, 16, 0x06},
	{350_000_000, 12, 0x05},
	{430_000_000, 8, 0x04},
	{550_000_000, 6, 0x03},
	{710_000_000, 4, 0x02},
	{1_100_000_000, 3, 0x01},
}

func (t *Tuner) Type() rtlsdr.TunerType { return rtlsdr.TunerFC0013 }

func (t *Tuner) Init() error {
	regs := []byte{0x06, 0x10, 0x00, 0x00, 0x0f, 0x00, 0x00, 0x0c, 0x0e, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00}
	for i, v := range regs {
		if err := t.host.I2CWriteReg(i2cAddr, uint8(1+i), v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tuner) Exit() error { return t.Standby() }

func (t *Tuner) Standby() error {
	return t.host.I2CWriteReg(i2cAddr, 0x01, 0xa0)
}

func (t *Tuner) SetFreq(hz uint32) error {
	const refFreq = uint64(28_800_000)
	row := vcoTable[0]
	for _, r := range vcoTable {
		if hz <= r.freqHz {
			row = r
			break
		}
	}
	vco := uint64(hz) * uint64(row.mult)
	nint := vco / refFreq
	frac := ((vco - nint*refFreq) * (1 << 20)) / refFreq

	if err := t.host.I2CWriteReg(i2cAddr, 0x0e, row.reg); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x18, byte(nint)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x19, byte(frac>>12)); err != nil {
		return err
	}
	if err := t.host.I2CWriteReg(i2cAddr, 0x1a, byte(frac>>4)); err != nil {
		return err
	}
	v, err := t.host.I2CReadReg(i2cAddr, 0x01)
	if err != nil {
		return err
	}
	t.locked = v&0x40 != 0
	return nil
}

func (t *Tuner) HasPllLocked() bool { return t.locked }

func (t *Tuner) SetBandwidth(bwHz uint32, apply bool) (uint32, int32, error) {
	steps := []uint32{6_000_000, 7_000_000, 8_000_000}
	chosen := steps[len(steps)-1]
	idx := byte(2)
	for i, s := range steps {
		if bwHz <= s {
			chosen = s
			idx = byte(i)
			break
		}
	}
	if apply {
		if err := t.host.I2CWriteReg(i2cAddr, 0x06, idx); err != nil {
			return 0, 0, err
		}
	}
	return chosen, 0, nil
}

func (t *Tuner) SetBandCenter(hz uint32) error { return nil }

func (t *Tuner) SetGainMode(manual bool) error {
	v := byte(0x00)
	if manual {
		v = 0x10
	}
	return t.host.I2CWriteReg(i2cAddr, 0x13, v)
}

func (t *Tuner) GainList() []int {
	return []int{-99, -73, -65, -63, -60, -58, -54, 58, 61, 63, 65, 67, 68, 70, 71, 179, 181, 182, 184, 186, 188, 191, 197}
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
	t.gain = idx
	return t.host.I2CWriteReg(i2cAddr, 0x14, byte(idx))
}

func (t *Tuner) SetGainIndex(lna, mixer, vga int) error {
	t.gain = lna
	return t.host.I2CWriteReg(i2cAddr, 0x14, byte(lna))
}

func (t *Tuner) SetIFGain(stage int, tenthDB int) error {
	return t.host.I2CWriteReg(i2cAddr, 0x15, byte(tenthDB/30))
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

func (t *Tuner) SetDither(on bool) error {
	v := byte(0x00)
	if on {
		v = 0x08
	}
	return t.host.I2CWriteReg(i2cAddr, 0x19, v)
}
