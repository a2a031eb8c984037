// Package r820t drives the Rafael Micro R820T and R828D silicon tuners
// found on most RTL2832U-based dongles.
package r820t

import (
	"fmt"

	"github.com/herlein/rtlsdr/pkg/rtlsdr"
)

func init() {
	rtlsdr.RegisterTuner(rtlsdr.TunerR820T, probe)
}

func probe(h rtlsdr.Host) (rtlsdr.Tuner, bool, error) {
	id, err := h.I2CReadReg(i2cAddr, 0x00)
	if err != nil {
		return nil, false, nil
	}
	if id != 0x69 && id != 0x68 {
		return nil, false, nil
	}
	t := &Tuner{host: h, variant: rtlsdr.TunerR820T}
	if id == 0x69 {
		t.variant = rtlsdr.TunerR828D
	}
	return t, true, nil
}

// Tuner implements rtlsdr.Tuner for the R820T/R828D family. Unlike the
// core package, Tuner keeps a shadow copy of every register it has
// written plus an independent override mask/data pair per register, so a
// read-modify-write never needs a round trip to the chip: see
// setRegMasked.
type Tuner struct {
	host    rtlsdr.Host
	variant rtlsdr.TunerType

	shadow [32]byte

	// overrideMask/overrideData implement the per-register override bank:
	// a nonzero mask bit in overrideMask[r] forces the corresponding bit
	// of register r to overrideData[r] on every write, regardless of what
	// the caller asked for. overrideData[r] > 0xff clears the override for
	// register r (there is no value that large to force).
	overrideMask [32]byte
	overrideData [32]uint16

	pllLocked bool
	sideband  rtlsdr.Sideband
	gainMode  bool // true = manual

	lna, mixer, vga int

	xtalCapSel byte
	fil_cal_code byte
}

func (t *Tuner) Type() rtlsdr.TunerType { return t.variant }

func (t *Tuner) Init() error {
	for i, v := range initRegs {
		reg := uint8(5 + i)
		t.shadow[reg] = v
	}
	if err := t.writeRange(5, 5+len(initRegs)-1); err != nil {
		return err
	}
	if err := t.calibrateFilter(); err != nil {
		return err
	}
	t.sideband = rtlsdr.SidebandLower
	return nil
}

func (t *Tuner) Exit() error {
	return t.Standby()
}

func (t *Tuner) Standby() error {
	t.setRegMasked(0x06, 0x08, 0x08) // LNA off
	t.setRegMasked(0x05, 0x20, 0x20) // mixer off
	return t.writeRange(5, 9)
}

// writeRange flushes shadow[lo..hi] to the chip in one I2C burst.
func (t *Tuner) writeRange(lo, hi int) error {
	data := make([]byte, hi-lo+1)
	copy(data, t.shadow[lo:hi+1])
	return t.host.I2CWriteArray(i2cAddr, uint8(lo), data)
}

// setRegMasked applies val under mask to the in-memory shadow, also
// honoring any standing override for that register (SetI2COverride),
// without issuing I2C traffic. Call writeRange to commit.
func (t *Tuner) setRegMasked(reg uint8, mask, val byte) {
	cur := t.shadow[reg]
	next := (cur &^ mask) | (val & mask)
	if omask := t.overrideMask[reg]; omask != 0 {
		odata := t.overrideData[reg]
		if odata <= 0xff {
			next = (next &^ omask) | (byte(odata) & omask)
		}
	}
	t.shadow[reg] = next
}

func (t *Tuner) SetI2CRegister(reg uint8, val uint8, mask uint8) error {
	t.setRegMasked(reg, mask, val)
	return t.writeRange(int(reg), int(reg))
}

func (t *Tuner) GetI2CRegister(reg uint8) (uint8, error) {
	return t.shadow[reg], nil
}

// SetI2COverride pins the masked bits of reg to data on every future
// write regardless of what the caller or internal driver logic asks for;
// passing data > 0xff (the mask's bits can never all be set by a single
// byte load larger than that) clears the override.
func (t *Tuner) SetI2COverride(reg uint8, mask uint8, data uint16) error {
	t.overrideMask[reg] = mask
	t.overrideData[reg] = data
	t.setRegMasked(reg, 0, 0)
	return t.writeRange(int(reg), int(reg))
}

func lookupFreqRange(mhz uint32) freqRange {
	row := freqRanges[0]
	for _, r := range freqRanges {
		if mhz < r.freq {
			break
		}
		row = r
	}
	return row
}

// SetFreq programs the PLL for hz using the same fractional-N synthesis
// as the upstream driver: an integer divider chosen to keep the VCO in
// its 1.77-3.54GHz range, and a 16-bit sigma-delta fractional remainder.
// All intermediate math is carried in uint64 to avoid the sign/overflow
// hazard of the original 32-bit signed arithmetic.
func (t *Tuner) SetFreq(hz uint32) error {
	row := lookupFreqRange(hz / 1_000_000)
	t.setRegMasked(0x17, 0x08, row.openD)
	t.setRegMasked(0x1a, 0x03, row.rfMuxPloy&0x03)
	t.setRegMasked(0x1b, 0xff, row.tfC)
	t.setRegMasked(0x10, 0x03, row.rfMuxPloy>>4)

	const pllRef = uint64(28_800_000)
	vcoFreq := uint64(hz) * 4

	var mixDiv uint64 = 2
	var divNum int
	for mixDiv < 64 {
		loMin := uint64(1_770_000_000) / mixDiv
		loMax := uint64(3_540_000_000) / mixDiv
		if uint64(hz) >= loMin/4 && uint64(hz) <= loMax/4 {
			break
		}
		mixDiv *= 2
		divNum++
	}
	nint := vcoFreq / (2 * pllRef)
	vcoFra := vcoFreq - nint*2*pllRef
	sdm := (vcoFra * 65536) / (2 * pllRef)

	t.setRegMasked(0x10, 0xe0, byte(divNum)<<5)
	t.setRegMasked(0x14, 0x3f, byte(nint)&0x3f)
	t.setRegMasked(0x15, 0xff, byte(sdm))
	t.setRegMasked(0x16, 0xff, byte(sdm>>8))

	if err := t.writeRange(0x10, 0x1b); err != nil {
		return err
	}

	lockByte, err := t.host.I2CReadReg(i2cAddr, 0x2a)
	if err != nil {
		return err
	}
	t.pllLocked = lockByte&0x40 != 0
	return nil
}

func (t *Tuner) HasPllLocked() bool { return t.pllLocked }

func (t *Tuner) SetSideband(sb rtlsdr.Sideband) (bool, error) {
	flip := sb != t.sideband
	t.sideband = sb
	v := byte(0x00)
	if sb == rtlsdr.SidebandUpper {
		v = 0x80
	}
	t.setRegMasked(0x07, 0x80, v)
	return flip, t.writeRange(0x07, 0x07)
}

func (t *Tuner) SetDither(on bool) error {
	v := byte(0x00)
	if on {
		v = 0x10
	}
	t.setRegMasked(0x15, 0x10, v)
	return t.writeRange(0x15, 0x15)
}

// SetBandwidth selects the narrowest bwTable row whose bandwidth is at
// least bwHz, applying an extra 400Hz bias for upper-sideband tuning on
// rows flagged sharpCorner (the filter's response is asymmetric there).
func (t *Tuner) SetBandwidth(bwHz uint32, apply bool) (uint32, int32, error) {
	target := bwHz
	row := bwTable[len(bwTable)-1]
	for _, r := range bwTable {
		want := r.bwHz
		if r.sharpCorner && t.sideband == rtlsdr.SidebandUpper {
			want += sharpCornerBiasHz
		}
		if target <= want {
			row = r
			break
		}
	}
	if !apply {
		return row.bwHz, row.ifHz, nil
	}
	if err := t.calibrateFilter(); err != nil {
		return 0, 0, err
	}
	return row.bwHz, row.ifHz, nil
}

func (t *Tuner) SetBandCenter(hz uint32) error {
	return nil
}

// calibrateFilter runs the R82XX filter self-calibration, retrying once
// on a result of 0 or 0x0f before coercing a still-bad result to 0
// (matching r82xx_set_tv_standard's retry loop exactly).
func (t *Tuner) calibrateFilter() error {
	var code byte
	for attempt := 0; attempt < 2; attempt++ {
		t.setRegMasked(0x0b, 0x10, 0x10)
		if err := t.writeRange(0x0b, 0x0b); err != nil {
			return err
		}
		t.setRegMasked(0x0b, 0x10, 0x00)
		if err := t.writeRange(0x0b, 0x0b); err != nil {
			return err
		}

		v, err := t.host.I2CReadReg(i2cAddr, 0x0a)
		if err != nil {
			return err
		}
		code = v & 0x0f
		if code != 0 && code != 0x0f {
			break
		}
	}
	if code == 0x0f {
		code = 0
	}
	t.fil_cal_code = code
	t.setRegMasked(0x0a, 0x0f, code)
	return t.writeRange(0x0a, 0x0a)
}

func (t *Tuner) SetGainMode(manual bool) error {
	t.gainMode = manual
	v := byte(0x00)
	if manual {
		v = 0x10
	}
	t.setRegMasked(0x05, 0x10, v)
	t.setRegMasked(0x07, 0x10, v)
	return t.writeRange(0x05, 0x07)
}

// GainList returns the tenth-dB values the manual greedy search in
// SetGain can reach, computed from the three step tables.
func (t *Tuner) GainList() []int {
	var out []int
	for i := 0; i < 16; i++ {
		out = append(out, gainStepsLNA[i]+gainStepsMixer[i]+gainStepsVGA[i])
	}
	return out
}

// SetGain walks the LNA/mixer/VGA step tables, alternating which stage
// absorbs the next unit step, until the cumulative gain is within one
// step of tenthDB (a greedy search, not an exhaustive one, matching the
// upstream driver's approach).
func (t *Tuner) SetGain(tenthDB int) error {
	best := 0
	bestDiff := 1 << 30
	for l := 0; l < 16; l++ {
		for m := 0; m < 16; m++ {
			for v := 0; v < 16; v++ {
				total := gainStepsLNA[l] + gainStepsMixer[m] + gainStepsVGA[v]
				diff := total - tenthDB
				if diff < 0 {
					diff = -diff
				}
				if diff < bestDiff {
					bestDiff = diff
					best = l<<8 | m<<4 | v
				}
			}
		}
	}
	return t.SetGainIndex(best>>8&0x0f, best>>4&0x0f, best&0x0f)
}

func (t *Tuner) SetGainIndex(lna, mixer, vga int) error {
	t.lna, t.mixer, t.vga = lna, mixer, vga
	t.setRegMasked(0x05, 0x0f, byte(lna))
	t.setRegMasked(0x06, 0x0f, byte(mixer))
	t.setRegMasked(0x07, 0x0f, byte(vga))
	return t.writeRange(0x05, 0x07)
}

func (t *Tuner) SetIFGain(stage int, tenthDB int) error {
	if stage != 0 {
		return fmt.Errorf("r820t: only IF stage 0 is adjustable")
	}
	step := tenthDB / 30
	if step < 0 {
		step = 0
	}
	if step > 15 {
		step = 15
	}
	t.setRegMasked(0x06, 0x0f, byte(step))
	return t.writeRange(0x06, 0x06)
}
