package rtlsdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTunerTypeString(t *testing.T) {
	cases := map[TunerType]string{
		TunerE4000:  "E4000",
		TunerFC0012: "FC0012",
		TunerR820T:  "R820T",
		TunerR828D:  "R828D",
		TunerUnknown: "unknown",
	}
	for typ, want := range cases {
		assert.Equal(t, want, typ.String())
	}
}

// stubTuner is the minimal Tuner implementation needed to exercise the
// probe registry without dragging in a real chip driver.
type stubTuner struct{ typ TunerType }

func (s *stubTuner) Type() TunerType                                  { return s.typ }
func (s *stubTuner) Init() error                                      { return nil }
func (s *stubTuner) Exit() error                                      { return nil }
func (s *stubTuner) SetFreq(uint32) error                             { return nil }
func (s *stubTuner) HasPllLocked() bool                               { return true }
func (s *stubTuner) SetBandwidth(bw uint32, apply bool) (uint32, int32, error) { return bw, 0, nil }
func (s *stubTuner) SetBandCenter(uint32) error                       { return nil }
func (s *stubTuner) SetGainMode(bool) error                           { return nil }
func (s *stubTuner) SetGain(int) error                                { return nil }
func (s *stubTuner) SetIFGain(int, int) error                         { return nil }
func (s *stubTuner) SetGainIndex(int, int, int) error                 { return nil }
func (s *stubTuner) GainList() []int                                  { return nil }
func (s *stubTuner) SetI2CRegister(uint8, uint8, uint8) error         { return nil }
func (s *stubTuner) GetI2CRegister(uint8) (uint8, error)              { return 0, nil }
func (s *stubTuner) SetI2COverride(uint8, uint8, uint16) error        { return nil }
func (s *stubTuner) SetSideband(sb Sideband) (bool, error)            { return false, nil }
func (s *stubTuner) Standby() error                                   { return nil }

func withStubRegistered(t *testing.T, typ TunerType, found bool) {
	t.Helper()
	prev, hadPrev := tunerRegistry[typ]
	tunerRegistry[typ] = func(h Host) (Tuner, bool, error) {
		if !found {
			return nil, false, nil
		}
		return &stubTuner{typ: typ}, true, nil
	}
	t.Cleanup(func() {
		if hadPrev {
			tunerRegistry[typ] = prev
		} else {
			delete(tunerRegistry, typ)
		}
	})
}

func TestProbeTunerPicksFirstMatch(t *testing.T) {
	withStubRegistered(t, TunerE4000, false)
	withStubRegistered(t, TunerFC0012, true)
	withStubRegistered(t, TunerFC0013, true)

	tuner, err := probeTuner(nil)
	require.NoError(t, err)
	assert.Equal(t, TunerFC0012, tuner.Type())
}

func TestProbeTunerNoneFound(t *testing.T) {
	withStubRegistered(t, TunerE4000, false)
	withStubRegistered(t, TunerFC0012, false)
	withStubRegistered(t, TunerFC0013, false)
	withStubRegistered(t, TunerFC2580, false)
	withStubRegistered(t, TunerR820T, false)

	_, err := probeTuner(nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNoDevice))
}

func TestRegisterTunerPanicsOnDuplicate(t *testing.T) {
	withStubRegistered(t, TunerFC2580, true)
	assert.Panics(t, func() {
		RegisterTuner(TunerFC2580, func(h Host) (Tuner, bool, error) { return nil, false, nil })
	})
}
