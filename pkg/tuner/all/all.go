// Package all blank-imports every tuner driver so callers can get full
// hardware coverage with a single import, at the cost of pulling in
// drivers for chips they may not own.
package all

import (
	_ "github.com/herlein/rtlsdr/pkg/tuner/e4000"
	_ "github.com/herlein/rtlsdr/pkg/tuner/fc0012"
	_ "github.com/herlein/rtlsdr/pkg/tuner/fc0013"
	_ "github.com/herlein/rtlsdr/pkg/tuner/fc2580"
	_ "github.com/herlein/rtlsdr/pkg/tuner/r820t"
)
