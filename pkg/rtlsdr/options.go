package rtlsdr

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options holds the tunable knobs traditionally exposed through a single
// colon/comma-separated option string, kept here as a typed struct so
// they can also be set individually through the ordinary Device methods.
type Options struct {
	Verbose       int
	Freq          uint32
	Bandwidth     uint32
	BandCenter    uint32
	Sideband      Sideband
	AGC           bool
	Gain          int
	IFGain        int
	DigitalAGC    bool
	DSMode        DSMode
	DSThreshold   uint32
	HarmonicRx    bool
	VCOCurrentMin int
	VCOCurrentMax int
	VCOAlgo       int
	TestMode      bool
	BiasTee       bool
	SoftAGC       bool
	SoftScanTime  int
	SoftDeadTime  int
	SoftVerbose   bool
}

// envOverrides are applied on top of an option string, matching the
// upstream driver's debug hooks for nudging specific R820T register
// nibbles without a rebuild.
type envOverrides struct {
	r9R76    *int
	r10Hi    *int
	r10Lo    *int
	r11Hi    *int
	r11Lo    *int
	r13Hi    *int
	r13Lo    *int
	r14Hi    *int
	r14Lo    *int
	r30Hi    *int
	r30Lo    *int
}

func readEnvInt(name string) *int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

// ProcessEnvOpts reads LIBRTLSDR_OPT once, applying it exactly as
// SetOptString would, then layers the per-register R820T override
// environment variables (RTL_R820_R9_76, RTL_R820_R10_HI/LO, R11_HI/LO,
// R13_HI/LO, R14_HI/LO, R30_HI/LO) on top.
func (d *Device) ProcessEnvOpts() error {
	if v, ok := os.LookupEnv("LIBRTLSDR_OPT"); ok {
		if err := d.SetOptString(v); err != nil {
			return err
		}
	}

	env := envOverrides{
		r9R76: readEnvInt("RTL_R820_R9_76"),
		r10Hi: readEnvInt("RTL_R820_R10_HI"),
		r10Lo: readEnvInt("RTL_R820_R10_LO"),
		r11Hi: readEnvInt("RTL_R820_R11_HI"),
		r11Lo: readEnvInt("RTL_R820_R11_LO"),
		r13Hi: readEnvInt("RTL_R820_R13_HI"),
		r13Lo: readEnvInt("RTL_R820_R13_LO"),
		r14Hi: readEnvInt("RTL_R820_R14_HI"),
		r14Lo: readEnvInt("RTL_R820_R14_LO"),
		r30Hi: readEnvInt("RTL_R820_R30_HI"),
		r30Lo: readEnvInt("RTL_R820_R30_LO"),
	}
	d.applyR820Overrides(env)
	return nil
}

func (d *Device) applyR820Overrides(env envOverrides) {
	if d.tuner == nil || (d.tunerType != TunerR820T && d.tunerType != TunerR828D) {
		return
	}
	apply := func(reg uint8, hi, lo *int) {
		if hi == nil && lo == nil {
			return
		}
		mask := uint8(0)
		val := uint8(0)
		if hi != nil {
			mask |= 0xf0
			val |= uint8(*hi&0x0f) << 4
		}
		if lo != nil {
			mask |= 0x0f
			val |= uint8(*lo & 0x0f)
		}
		d.tuner.SetI2COverride(reg, mask, uint16(val))
	}
	if env.r9R76 != nil {
		d.tuner.SetI2COverride(9, 0xc0, uint16(*env.r9R76&0x03)<<6)
	}
	apply(10, env.r10Hi, env.r10Lo)
	apply(11, env.r11Hi, env.r11Lo)
	apply(13, env.r13Hi, env.r13Lo)
	apply(14, env.r14Hi, env.r14Lo)
	apply(30, env.r30Hi, env.r30Lo)
}

// SetOptString parses a colon-or-comma-separated key=value option string
// and applies every recognized setting in order. Unknown keys are
// reported as a single aggregate error after all recognized keys have
// been applied.
func (d *Device) SetOptString(opt string) error {
	fields := strings.FieldsFunc(opt, func(r rune) bool { return r == ':' || r == ',' })

	var unknown []string
	for _, f := range fields {
		key, val, hasVal := strings.Cut(f, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "v", "verbose":
			d.verbose++
		case "f":
			if n, err := strconv.ParseUint(val, 10, 32); err == nil {
				d.SetCenterFreq(uint32(n))
			}
		case "bw":
			if n, err := strconv.ParseUint(val, 10, 32); err == nil && d.tuner != nil {
				d.tuner.SetBandwidth(uint32(n)*1000, true)
			}
		case "bc":
			if n, err := strconv.ParseUint(val, 10, 32); err == nil && d.tuner != nil {
				d.tuner.SetBandCenter(uint32(n))
			}
		case "sb":
			n, _ := strconv.Atoi(val)
			if d.tuner != nil {
				sb := SidebandLower
				if val == "U" || n != 0 {
					sb = SidebandUpper
				}
				d.tuner.SetSideband(sb)
			}
		case "agc":
			n, _ := strconv.Atoi(val)
			if d.tuner != nil {
				d.tuner.SetGainMode(n == 0)
			}
		case "gain":
			if n, err := strconv.Atoi(val); err == nil && d.tuner != nil {
				d.tuner.SetGainMode(true)
				d.tuner.SetGain(n)
			}
		case "agcv", "ifm":
			if n, err := strconv.Atoi(val); err == nil && d.tuner != nil {
				d.tuner.SetIFGain(0, n)
			}
		case "dagc":
			n, _ := strconv.Atoi(val)
			d.setDigitalAGC(n != 0)
		case "ds":
			n, _ := strconv.Atoi(val)
			d.SetDirectSampling(n)
		case "dm":
			n, _ := strconv.Atoi(val)
			if n <= 4 {
				d.SetDSMode(DSMode(n), d.dsThreshold)
			} else {
				d.SetDSMode(DSMode(d.dsMode), uint32(n))
			}
		case "harm":
			n, _ := strconv.Atoi(val)
			d.opts.HarmonicRx = n != 0
		case "vcocmin":
			d.opts.VCOCurrentMin, _ = strconv.Atoi(val)
		case "vcocmax":
			d.opts.VCOCurrentMax, _ = strconv.Atoi(val)
		case "vcoalgo":
			d.opts.VCOAlgo, _ = strconv.Atoi(val)
			d.Logf("vcoalgo=%d stored in VCOAlgo; VCOCurrentMax left unchanged", d.opts.VCOAlgo)
		case "tp", "Tp", "TP":
			n, _ := strconv.Atoi(val)
			d.opts.TestMode = n != 0
		case "t", "T":
			n, _ := strconv.Atoi(val)
			d.SetBiasTee(n != 0)
		case "softagc":
			n, _ := strconv.Atoi(val)
			d.opts.SoftAGC = n != 0
		case "softscantime":
			d.opts.SoftScanTime, _ = strconv.Atoi(val)
		case "softdeadtime":
			d.opts.SoftDeadTime, _ = strconv.Atoi(val)
		case "softverbose":
			d.opts.SoftVerbose = true
		case "":
			// skip empty fields left by adjacent separators
		default:
			_ = hasVal
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		return newErr("SetOptString", KindInvalidArgument, fmt.Errorf("unrecognized option key(s): %s", strings.Join(unknown, ",")))
	}
	return nil
}

func (d *Device) setDigitalAGC(on bool) error {
	d.lockI2C()
	defer d.unlockI2C()
	v := uint16(0x05)
	if on {
		v = 0x25
	}
	return d.demodWriteRegLocked(0, 0x19, v, 1)
}
