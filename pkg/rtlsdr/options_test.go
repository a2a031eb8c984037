package rtlsdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optsOnlyDevice exercises SetOptString keys that only touch the Options
// struct or verbosity counter, never USB transport, so it is safe to use
// against a Device with no backing USB handle.
func optsOnlyDevice() *Device {
	return &Device{}
}

func TestSetOptStringTunerlessKeys(t *testing.T) {
	d := optsOnlyDevice()

	err := d.SetOptString("v,harm=1,vcocmin=10,vcocmax=20,vcoalgo=2,softagc=1,softscantime=50,softdeadtime=25,softverbose")
	require.NoError(t, err)

	assert.Equal(t, 1, d.verbose)
	assert.True(t, d.opts.HarmonicRx)
	assert.Equal(t, 10, d.opts.VCOCurrentMin)
	assert.Equal(t, 20, d.opts.VCOCurrentMax)
	assert.Equal(t, 2, d.opts.VCOAlgo)
	assert.True(t, d.opts.SoftAGC)
	assert.Equal(t, 50, d.opts.SoftScanTime)
	assert.Equal(t, 25, d.opts.SoftDeadTime)
	assert.True(t, d.opts.SoftVerbose)
}

func TestSetOptStringUnknownKeyReportsError(t *testing.T) {
	d := optsOnlyDevice()
	err := d.SetOptString("harm=1:bogus=3:alsobogus")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidArgument))
	assert.True(t, d.opts.HarmonicRx, "recognized keys before the bad one should still apply")
}

func TestSetOptStringVcoalgoIsItsOwnField(t *testing.T) {
	// Regression guard: the upstream parser for this key once assigned
	// into the tuner's vco_curr_max field by mistake. VCOAlgo and
	// VCOCurrentMax must be independently settable.
	d := optsOnlyDevice()
	require.NoError(t, d.SetOptString("vcocmax=7:vcoalgo=3"))
	assert.Equal(t, 7, d.opts.VCOCurrentMax)
	assert.Equal(t, 3, d.opts.VCOAlgo)
}

func TestSetOptStringEmptyFieldsIgnored(t *testing.T) {
	d := optsOnlyDevice()
	require.NoError(t, d.SetOptString("harm=1,,:softverbose"))
	assert.True(t, d.opts.HarmonicRx)
	assert.True(t, d.opts.SoftVerbose)
}
