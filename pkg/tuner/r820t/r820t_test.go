package r820t

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/herlein/rtlsdr/pkg/rtlsdr"
)

// fakeHost is an in-memory rtlsdr.Host backed by a flat register map,
// with an optional script of 0x0a read results for exercising the filter
// calibration retry path.
type fakeHost struct {
	regs        map[uint8]uint8
	readScript0a []uint8
	readCalls0a  int
	gpioOut     map[uint8]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{regs: map[uint8]uint8{0x00: 0x69, 0x2a: 0x40}, gpioOut: map[uint8]bool{}}
}

func (f *fakeHost) I2CWriteReg(i2cAddr, reg, val uint8) error {
	f.regs[reg] = val
	return nil
}

func (f *fakeHost) I2CReadReg(i2cAddr, reg uint8) (uint8, error) {
	if reg == 0x0a && len(f.readScript0a) > 0 {
		v := f.readScript0a[f.readCalls0a]
		if f.readCalls0a < len(f.readScript0a)-1 {
			f.readCalls0a++
		}
		return v, nil
	}
	return f.regs[reg], nil
}

func (f *fakeHost) I2CWriteArray(i2cAddr uint8, startReg uint8, data []byte) error {
	for i, b := range data {
		f.regs[startReg+uint8(i)] = b
	}
	return nil
}

func (f *fakeHost) I2CReadArray(i2cAddr uint8, startReg uint8, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = f.regs[startReg+uint8(i)]
	}
	return out, nil
}

func (f *fakeHost) GPIOSetOutput(pin uint8) error      { f.gpioOut[pin] = true; return nil }
func (f *fakeHost) GPIOSetBit(pin uint8, on bool) error { return nil }
func (f *fakeHost) Verbose() int                        { return 0 }
func (f *fakeHost) Logf(format string, args ...interface{}) {}

func TestProbeIdentifiesR828D(t *testing.T) {
	h := newFakeHost()
	h.regs[0x00] = 0x69

	tuner, ok, err := probe(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rtlsdr.TunerR828D, tuner.Type())
}

func TestProbeIdentifiesR820T(t *testing.T) {
	h := newFakeHost()
	h.regs[0x00] = 0x68

	tuner, ok, err := probe(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rtlsdr.TunerR820T, tuner.Type())
}

func TestProbeRejectsUnknownID(t *testing.T) {
	h := newFakeHost()
	h.regs[0x00] = 0x00

	_, ok, err := probe(h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCalibrateFilterSucceedsFirstTry(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}
	h.readScript0a = []uint8{0x05}

	require.NoError(t, tr.calibrateFilter())
	assert.Equal(t, byte(0x05), tr.fil_cal_code)
}

func TestCalibrateFilterRetriesOnZeroThenSucceeds(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}
	h.readScript0a = []uint8{0x00, 0x07}

	require.NoError(t, tr.calibrateFilter())
	assert.Equal(t, byte(0x07), tr.fil_cal_code)
	assert.Equal(t, 1, h.readCalls0a)
}

func TestCalibrateFilterCoercesPersistent0x0FToZero(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}
	h.readScript0a = []uint8{0x0f, 0x0f}

	require.NoError(t, tr.calibrateFilter())
	assert.Equal(t, byte(0x00), tr.fil_cal_code)
}

func TestSetI2COverrideForcesBitsOnSubsequentWrite(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}

	require.NoError(t, tr.SetI2COverride(0x08, 0xf0, 0x30))
	tr.setRegMasked(0x08, 0xff, 0xff)
	require.NoError(t, tr.writeRange(0x08, 0x08))

	assert.Equal(t, byte(0x3f), h.regs[0x08], "high nibble pinned to 0x3 by the override, low nibble free")
}

func TestSetI2COverrideClearedByOutOfRangeData(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}

	require.NoError(t, tr.SetI2COverride(0x08, 0xf0, 0x30))
	require.NoError(t, tr.SetI2COverride(0x08, 0xf0, 0x100)) // clears it
	tr.setRegMasked(0x08, 0xff, 0xab)
	require.NoError(t, tr.writeRange(0x08, 0x08))

	assert.Equal(t, byte(0xab), h.regs[0x08])
}

func TestLookupFreqRangeMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mhz := uint32(rapid.IntRange(0, 700).Draw(rt, "mhz"))
		row := lookupFreqRange(mhz)
		assert.LessOrEqual(rt, row.freq, mhz)
	})
}

func TestGainListLength(t *testing.T) {
	tr := &Tuner{}
	assert.Len(t, tr.GainList(), 16)
}

func TestSetGainIndexUpdatesShadow(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h}
	require.NoError(t, tr.SetGainIndex(3, 5, 9))
	assert.Equal(t, byte(3), h.regs[0x05]&0x0f)
	assert.Equal(t, byte(5), h.regs[0x06]&0x0f)
	assert.Equal(t, byte(9), h.regs[0x07]&0x0f)
}

func TestSetSidebandReportsFlipOnChange(t *testing.T) {
	h := newFakeHost()
	tr := &Tuner{host: h, sideband: rtlsdr.SidebandLower}

	flip, err := tr.SetSideband(rtlsdr.SidebandUpper)
	require.NoError(t, err)
	assert.True(t, flip)

	flip, err = tr.SetSideband(rtlsdr.SidebandUpper)
	require.NoError(t, err)
	assert.False(t, flip)
}

func TestSetBandwidthUpperSidebandBiasShiftsSelection(t *testing.T) {
	h := newFakeHost()
	h.readScript0a = []uint8{0x05}
	tr := &Tuner{host: h, sideband: rtlsdr.SidebandLower}

	lowerBw, _, err := tr.SetBandwidth(900_000, false)
	require.NoError(t, err)

	tr.sideband = rtlsdr.SidebandUpper
	upperBw, _, err := tr.SetBandwidth(900_000+sharpCornerBiasHz-1, false)
	require.NoError(t, err)

	assert.Equal(t, lowerBw, upperBw, "the bias should let the same row still be selected just above its lower-sideband edge")
}
