package r820t

// i2cAddr is the fixed I2C address both the R820T and R828D variants
// respond on.
const i2cAddr = 0x34

// initRegs are register 0x05..0x1f's power-on values, written verbatim
// during Init before any frequency-dependent programming happens.
var initRegs = [27]byte{
	0x83, 0x32, 0x75, 0xc0, 0x40, 0xd6, 0x6c, 0xf5,
	0x63, 0x75, 0x68, 0x6c, 0x83, 0x80, 0x00, 0x0f,
	0x00, 0xc0, 0x30, 0x48, 0xcc, 0x60, 0x00, 0x54,
	0xae, 0x4a, 0xc0,
}

// freqRange is one row of the mux/band lookup table: freq is the lower
// bound in MHz above which this row's open_d/rf_mux_ploy/... settings
// apply.
type freqRange struct {
	freq      uint32 // MHz
	openD     byte
	rfMuxPloy byte
	tfC       byte
	xtalCap20p byte
	xtalCap10p byte
	xtalCap0p  byte
}

var freqRanges = []freqRange{
	{0, 0x08, 0x02, 0xdf, 0x02, 0x02, 0x02},
	{50, 0x08, 0x02, 0xbe, 0x02, 0x02, 0x02},
	{55, 0x08, 0x02, 0x8b, 0x02, 0x02, 0x02},
	{60, 0x08, 0x02, 0x7b, 0x02, 0x02, 0x02},
	{65, 0x08, 0x02, 0x69, 0x02, 0x02, 0x02},
	{70, 0x08, 0x02, 0x58, 0x02, 0x02, 0x02},
	{75, 0x00, 0x02, 0x44, 0x02, 0x02, 0x02},
	{80, 0x00, 0x02, 0x44, 0x02, 0x02, 0x02},
	{90, 0x00, 0x02, 0x34, 0x01, 0x01, 0x00},
	{100, 0x00, 0x02, 0x34, 0x01, 0x01, 0x00},
	{110, 0x00, 0x02, 0x24, 0x01, 0x01, 0x00},
	{120, 0x00, 0x02, 0x24, 0x01, 0x01, 0x00},
	{140, 0x00, 0x02, 0x14, 0x01, 0x01, 0x00},
	{180, 0x00, 0x02, 0x13, 0x00, 0x00, 0x00},
	{220, 0x00, 0x02, 0x13, 0x00, 0x00, 0x00},
	{250, 0x00, 0x02, 0x11, 0x00, 0x00, 0x00},
	{280, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{310, 0x00, 0x41, 0x00, 0x00, 0x00, 0x00},
	{450, 0x00, 0x41, 0x00, 0x00, 0x00, 0x00},
	{588, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
	{650, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
}

// bwRow is one row of the IF/bandwidth table: a realizable bandwidth, the
// intermediate frequency SetBandwidth reports for it, and whether the
// upper-sideband bias applies to its edge. calibrateFilter does not read
// this table.
type bwRow struct {
	bwHz uint32
	ifHz int32
	sharpCorner bool // upper-sideband bias on this row's edge
}

var bwTable = []bwRow{
	{200_000, 3_570_000, false},
	{300_000, 3_570_000, false},
	{450_000, 3_570_000, false},
	{600_000, 3_570_000, false},
	{900_000, 3_570_000, true},
	{1_100_000, 3_570_000, true},
	{1_400_000, 3_570_000, true},
	{1_700_000, 3_570_000, true},
	{1_900_000, 3_570_000, true},
	{2_200_000, 3_570_000, true},
	{2_400_000, 3_570_000, true},
	{2_700_000, 3_570_000, true},
	{3_000_000, 3_570_000, true},
	{3_400_000, 3_570_000, true},
	{3_800_000, 3_570_000, true},
	{4_200_000, 3_570_000, true},
	{4_600_000, 3_570_000, true},
	{5_000_000, 3_570_000, true},
	{5_400_000, 3_570_000, true},
	{5_800_000, 3_570_000, true},
	{6_200_000, 3_570_000, true},
	{6_600_000, 3_570_000, true},
	{7_000_000, 3_570_000, true},
	{7_400_000, 3_570_000, true},
	{8_000_000, 3_570_000, true},
}

// sharpCornerBiasHz is added to the selected row's bandwidth target for
// upper-sideband tuning, matching the asymmetric response the filter
// exhibits above its nominal corner.
const sharpCornerBiasHz = 400

// gainStepsLNA / gainStepsMixer / gainStepsVGA are each 16-entry tenth-dB
// step tables; SetGain walks them greedily, alternating which stage
// absorbs the next step, to land on the closest achievable total gain.
var gainStepsLNA = [16]int{0, 9, 13, 40, 38, 13, 31, 22, 26, 31, 26, 14, 19, 5, 35, 13}
var gainStepsMixer = [16]int{0, 5, 10, 10, 19, 9, 10, 25, 17, 10, 8, 16, 13, 6, 3, 8}
var gainStepsVGA = [16]int{0, 26, 26, 30, 42, 35, 24, 13, 14, 32, 36, 34, 35, 37, 35, 36}
