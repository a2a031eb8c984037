package rtlsdr

import "fmt"

// defaultFIR are the 16 decimation low-pass coefficients the upstream
// driver installs at init. The register takes 8 eight-bit taps followed
// by 8 twelve-bit taps; the filter is symmetric so only the first half is
// stored.
var defaultFIR = [16]int16{
	-54, -36, -41, -40, -32, -14, 14, 53,
	101, 156, 215, 273, 327, 372, 404, 421,
}

// initBaseband replays the fixed register sequence the RTL2832U needs
// brought up before any tuner traffic or streaming: USB FIFO sizing,
// demod power-on, a soft reset, spectrum/ACI clearing, zeroed DDC state,
// the default FIR, SDR mode with hardware DAGC disabled, and the PID/IQ
// datapath defaults.
func (d *Device) initBaseband() error {
	d.lockI2C()
	defer d.unlockI2C()

	if err := d.writeReg(blockUSB, regUSBSyscl, 0x09, 1); err != nil {
		return newErr("initBaseband", KindIoError, err)
	}
	if err := d.writeReg(blockUSB, regUSBEpaMax, 0x0002, 2); err != nil {
		return newErr("initBaseband", KindIoError, err)
	}
	if err := d.writeReg(blockUSB, regUSBEpaCtl, 0x1002, 2); err != nil {
		return newErr("initBaseband", KindIoError, err)
	}

	if err := d.writeReg(blockSys, regDemodCtl1, 0x22, 1); err != nil {
		return newErr("initBaseband", KindIoError, err)
	}
	if err := d.writeReg(blockSys, regDemodCtl, 0xe8, 1); err != nil {
		return newErr("initBaseband", KindIoError, err)
	}

	if err := d.demodWriteRegLocked(1, 0x01, 0x14, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x01, 0x10, 1); err != nil {
		return err
	}

	if err := d.demodWriteRegLocked(1, 0x15, 0x00, 1); err != nil {
		return err
	}
	for _, reg := range []uint16{0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b} {
		if err := d.demodWriteRegLocked(1, reg, 0x00, 1); err != nil {
			return err
		}
	}

	if err := d.setFIRLocked(defaultFIR); err != nil {
		return err
	}

	if err := d.demodWriteRegLocked(0, 0x19, 0x05, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x93, 0xf0, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x94, 0x0f, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x04, 0x00, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(0, 0x61, 0x60, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(0, 0x06, 0x80, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0xb1, 0x1b, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(0, 0x0d, 0x83, 1); err != nil {
		return err
	}

	d.xtalFreq = defaultXtalFreq
	d.rate = 2_048_000
	return nil
}

// deinitBaseband powers the demod block down. Called from Close after the
// tuner has been put into standby.
func (d *Device) deinitBaseband() error {
	d.lockI2C()
	defer d.unlockI2C()
	return d.writeReg(blockSys, regDemodCtl, 0x20, 1)
}

func (d *Device) setFIRLocked(taps [16]int16) error {
	data := make([]byte, 20)
	for i := 0; i < 8; i++ {
		data[i] = byte(taps[i])
	}
	for i := 0; i < 8; i += 2 {
		a, b := taps[8+i], taps[8+i+1]
		data[8+i/2*3] = byte(a >> 4)
		data[8+i/2*3+1] = byte((a&0x0f)<<4 | (b>>8)&0x0f)
		data[8+i/2*3+2] = byte(b)
	}
	for i, b := range data {
		if err := d.demodWriteRegLocked(1, uint16(0x1c+i), uint16(b), 1); err != nil {
			return err
		}
	}
	return nil
}

// SetFIR installs a custom 16-tap (symmetric, 32-tap effective) decimation
// filter. Values outside the hardware's signed 8-bit / 12-bit ranges for
// their position are rejected.
func (d *Device) SetFIR(taps [16]int16) error {
	for i, t := range taps {
		var lo, hi int16
		if i < 8 {
			lo, hi = -128, 127
		} else {
			lo, hi = -2048, 2047
		}
		if t < lo || t > hi {
			return newErr("SetFIR", KindInvalidArgument, fmt.Errorf("tap %d=%d out of range [%d,%d]", i, t, lo, hi))
		}
	}
	d.lockI2C()
	defer d.unlockI2C()
	return d.setFIRLocked(taps)
}

// setIfFreqLocked programs the digital down-converter's NCO so that a
// tuner delivering its signal at hz above baseband is shifted to 0 Hz.
func (d *Device) setIfFreqLocked(hz int32) error {
	ifFreq := -int64(hz) * (1 << 22) / int64(d.xtalFreq)
	if ifFreq < 0 {
		ifFreq += 1 << 22
	}
	b2 := uint16(ifFreq>>16) & 0x3f
	b1 := uint16(ifFreq>>8) & 0xff
	b0 := uint16(ifFreq) & 0xff
	if err := d.demodWriteRegLocked(1, 0x19, b2, 1); err != nil {
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x1a, b1, 1); err != nil {
		return err
	}
	return d.demodWriteRegLocked(1, 0x1b, b0, 1)
}

func (d *Device) setSpectrumInversionLocked(invert bool) error {
	if invert == d.spectrumInv {
		return nil
	}
	v := uint16(0x00)
	if invert {
		v = 0x01
	}
	if err := d.demodWriteRegLocked(1, 0x15, v, 1); err != nil {
		return err
	}
	d.spectrumInv = invert
	return nil
}

// SetXtalFreq overrides the RTL-side reference crystal frequency used for
// all downstream rate and frequency math, and reprograms the current
// sample rate and center frequency against the new reference.
func (d *Device) SetXtalFreq(hz uint32) error {
	if hz != 0 && (hz < minXtalFreq || hz > maxXtalFreq) {
		return newErr("SetXtalFreq", KindInvalidArgument, fmt.Errorf("xtal %d Hz outside +/-1kHz of %d", hz, defaultXtalFreq))
	}
	if hz == 0 {
		hz = defaultXtalFreq
	}
	if hz == d.xtalFreq {
		return nil
	}
	d.xtalFreq = hz
	if d.rate != 0 {
		if err := d.SetSampleRate(d.rate); err != nil {
			return err
		}
	}
	if d.freq != 0 {
		if err := d.SetCenterFreq(d.freq); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) XtalFreq() uint32 { return d.xtalFreq }

// SetSampleRate programs the RTL2832U's resampler for the given rate in
// samples per second. Valid ranges are (225000,300000] and
// (900000,3200000]; other rates are rejected. SampleRate then reports the
// rate the programmed resampler ratio actually yields, which can differ
// slightly from the requested one.
func (d *Device) SetSampleRate(rate uint32) error {
	if (rate <= 225000 || rate > 300000) && (rate <= 900000 || rate > 3200000) {
		return newErr("SetSampleRate", KindInvalidArgument, fmt.Errorf("rate %d Hz outside supported ranges", rate))
	}

	rsampRatio := (uint64(d.xtalFreq) << 22) / uint64(rate)
	rsampRatio &^= 0x03
	realRatio := rsampRatio
	if rsampRatio&0x08000000 != 0 {
		realRatio = rsampRatio | (0x10000000)
	}

	d.lockI2C()
	if err := d.demodWriteRegLocked(1, 0x9f, uint16(realRatio>>16), 2); err != nil {
		d.unlockI2C()
		return err
	}
	if err := d.demodWriteRegLocked(1, 0xa1, uint16(realRatio), 2); err != nil {
		d.unlockI2C()
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x01, 0x14, 1); err != nil {
		d.unlockI2C()
		return err
	}
	if err := d.demodWriteRegLocked(1, 0x01, 0x10, 1); err != nil {
		d.unlockI2C()
		return err
	}
	d.unlockI2C()

	d.rate = uint32((uint64(d.xtalFreq) << 22) / realRatio)
	return nil
}

func (d *Device) SampleRate() uint32 { return d.rate }

// SetSampleFreqCorrection adjusts the resampler's fractional reference by
// ppm parts per million, matching the tolerance the crystal itself can't
// compensate for in hardware.
func (d *Device) SetSampleFreqCorrection(ppm int) error {
	offs := int32(-ppm) * (1 << 24) / 1_000_000
	d.lockI2C()
	defer d.unlockI2C()
	if err := d.demodWriteRegLocked(1, 0x3e, uint16(offs>>8)&0x3f, 1); err != nil {
		return err
	}
	return d.demodWriteRegLocked(1, 0x3f, uint16(offs)&0xff, 1)
}

// SetCenterFreq applies any automatic direct-sampling crossover set up by
// SetDSMode, tunes the RF front end to hz, and then programs the
// demodulator IF: R82XXIFFreq with spectrum inversion for Rafael Micro
// tuners outside direct sampling, 0 Hz without inversion otherwise. The
// tuner's bandwidth-table IF, band center and sideband are not folded in.
func (d *Device) SetCenterFreq(hz uint32) error {
	if d.tuner == nil {
		return newErr("SetCenterFreq", KindNotSupported, fmt.Errorf("no tuner attached"))
	}
	d.updateDS(hz)
	d.lockI2C()
	if err := d.setI2CRepeaterLocked(true); err != nil {
		d.unlockI2C()
		return err
	}
	err := d.tuner.SetFreq(hz)
	d.setI2CRepeaterLocked(false)
	d.unlockI2C()
	if err != nil {
		return newErr("SetCenterFreq", KindIoError, err)
	}

	invert := d.directSampling == 0 && (d.tunerType == TunerR820T || d.tunerType == TunerR828D)
	d.lockI2C()
	if invert {
		err = d.setIfFreqLocked(R82XXIFFreq)
	} else {
		err = d.setIfFreqLocked(0)
	}
	if err == nil {
		err = d.setSpectrumInversionLocked(invert)
	}
	d.unlockI2C()
	if err != nil {
		return newErr("SetCenterFreq", KindIoError, err)
	}

	d.freq = hz
	return nil
}

func (d *Device) CenterFreq() uint32 { return d.freq }

// setI2CRepeaterLocked assumes the I2C gate is already held by the
// caller; unlike setI2CRepeater it does not re-acquire it.
func (d *Device) setI2CRepeaterLocked(on bool) error {
	want := uint16(0x10)
	if on {
		want = 0x18
	}
	if d.i2cRepeated == on {
		return nil
	}
	if err := d.demodWriteRegLocked(1, 0x01, want, 1); err != nil {
		return err
	}
	d.i2cRepeated = on
	return nil
}

// SetDirectSampling selects the demodulator's ADC input path: 0 disables
// direct sampling (the tuner's IF output is used), 1 routes the I-branch
// ADC directly to the demod, 2 routes the Q-branch.
func (d *Device) SetDirectSampling(mode int) error {
	if mode < 0 || mode > 2 {
		return newErr("SetDirectSampling", KindInvalidArgument, fmt.Errorf("mode %d not in [0,2]", mode))
	}
	d.lockI2C()
	defer d.unlockI2C()

	switch mode {
	case 0:
		if err := d.demodWriteRegLocked(0, 0x08, 0x4d, 1); err != nil {
			return err
		}
		if err := d.setSpectrumInversionLocked(d.spectrumInv); err != nil {
			return err
		}
	case 1, 2:
		v := uint16(0x01)
		if mode == 2 {
			v = 0x02
		}
		if err := d.demodWriteRegLocked(0, 0x08, 0x4d&^0x03|v, 1); err != nil {
			return err
		}
	}
	d.directSampling = mode
	return nil
}

func (d *Device) DirectSampling() int { return d.directSampling }

// DSMode enumerates the triggers SetDSMode recognizes for automatic
// direct-sampling crossover.
type DSMode int

const (
	DSModeOff DSMode = iota
	DSModeI
	DSModeQ
	DSModeIBelowThreshold
	DSModeQBelowThreshold
)

// SetDSMode configures automatic direct-sampling crossover at freqThreshold
// Hz; a threshold of 0 uses each tuner's own default crossover point
// (24MHz for R820T/R828D, 50MHz for E4000, 28.8MHz otherwise).
func (d *Device) SetDSMode(mode DSMode, freqThreshold uint32) {
	d.dsMode = int(mode)
	if freqThreshold == 0 {
		switch d.tunerType {
		case TunerR820T, TunerR828D:
			freqThreshold = 24_000_000
		case TunerE4000:
			freqThreshold = 50_000_000
		default:
			freqThreshold = 28_800_000
		}
	}
	d.dsThreshold = freqThreshold
}

// SetOffsetTuning records whether offset tuning (tuning slightly off the
// wanted center to keep the tuner's DC spike out of the band) is wanted.
// Rafael Micro tuners synthesize their own offset internally and reject
// this; it is also rejected while direct sampling is active. The flag is
// only stored and reported by OffsetTuning: SetCenterFreq and
// SetSampleRate do not read it.
func (d *Device) SetOffsetTuning(on bool) error {
	if d.tunerType == TunerR820T || d.tunerType == TunerR828D {
		return newErr("SetOffsetTuning", KindNotSupported, fmt.Errorf("tuner applies its own offset"))
	}
	if d.directSampling != 0 {
		return newErr("SetOffsetTuning", KindNotSupported, fmt.Errorf("direct sampling active"))
	}
	d.offsetTuning = on
	return nil
}

func (d *Device) OffsetTuning() bool { return d.offsetTuning }

func (d *Device) updateDS(hz uint32) {
	if d.dsMode == int(DSModeOff) {
		return
	}
	below := hz < d.dsThreshold
	target := 0
	switch DSMode(d.dsMode) {
	case DSModeIBelowThreshold:
		if below {
			target = 1
		}
	case DSModeQBelowThreshold:
		if below {
			target = 2
		}
	case DSModeI:
		target = 1
	case DSModeQ:
		target = 2
	}
	if target != d.directSampling {
		d.SetDirectSampling(target)
	}
}
