package rtlsdr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("short read")
	err := newErr("ReadSync", KindIoError, base)

	require.ErrorIs(t, err, base)
	assert.True(t, IsKind(err, KindIoError))
	assert.False(t, IsKind(err, KindNoDevice))
	assert.Contains(t, err.Error(), "ReadSync")
	assert.Contains(t, err.Error(), "io error")
}

func TestErrorWrappedChain(t *testing.T) {
	inner := newErr("SetFreq", KindPllUnlocked, nil)
	outer := fmt.Errorf("SetCenterFreq: %w", inner)

	assert.True(t, IsKind(outer, KindPllUnlocked))
	assert.False(t, IsKind(outer, KindEepromError))
}

func TestIsKindOnPlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), KindIoError))
	assert.False(t, IsKind(nil, KindIoError))
}
