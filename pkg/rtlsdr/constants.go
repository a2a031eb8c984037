package rtlsdr

import "time"

// Known dongle USB identifiers. Open / ListDevices only consider
// devices whose (vendor, product) pair appears here, mirroring the upstream
// driver's built-in allowlist of RTL2832U-based tuner boards.
type usbID struct {
	Vendor  uint16
	Product uint16
	Name    string
}

var knownDevices = []usbID{
	{0x0bda, 0x2832, "Generic RTL2832U"},
	{0x0bda, 0x2838, "Generic RTL2832U OEM"},
	{0x0413, 0x6680, "DigitalNow Quad DVB-T PCI-E card"},
	{0x0458, 0x707f, "Genius TVGo DVB-T03 USB dongle (Ver. B)"},
	{0x0ccd, 0x00a9, "Terratec Cinergy T Stick Black (rev 1)"},
	{0x0ccd, 0x00b3, "Terratec NOXON DAB/DAB+ USB dongle (rev 1)"},
	{0x0ccd, 0x00d3, "Terratec NOXON DAB/DAB+ USB dongle (rev 2)"},
	{0x0ccd, 0x00e0, "Terratec NOXON DAB/DAB+ USB dongle (rev 3)"},
	{0x1554, 0x5020, "PixelView PV-DT235U(RN)"},
	{0x15f4, 0x0131, "Astrometa DVB-T/DVB-T2"},
	{0x185b, 0x0620, "Compro Videomate U620F"},
	{0x185b, 0x0650, "Compro Videomate U650F"},
	{0x1b80, 0xd393, "GIGABYTE GT-U7300"},
	{0x1b80, 0xd394, "DIKOM USB-DVBT HD"},
	{0x1b80, 0xd395, "Peak 102569AGPK"},
	{0x1b80, 0xd398, "Zaapa ZT-MINDVBZP"},
	{0x1b80, 0xd39d, "SVEON STV20 DVB-T USB & FM"},
	{0x1b80, 0xd3a4, "Twintech UT-40"},
	{0x1b80, 0xd3a8, "ASUS U3100MINI_PLUS_V2"},
	{0x1b80, 0xd3af, "SVEON STV27 DVB-T USB & FM"},
	{0x1d19, 0x1101, "Dexatek DK DVB-T Dongle (Logilink VG0002A)"},
	{0x1f4d, 0xb803, "GTek T803"},
	{0x1f4d, 0xc803, "Lifeview LV5TDeluxe"},
	{0x1f4d, 0xd286, "MyGica TD312"},
	{0x1f4d, 0xd803, "PROlectrix DV107669"},
}

// USB vendor-specific control transfers (§6). Direction and recipient are
// fixed: vendor request, device recipient.
const (
	requestTypeVendorOut = 0x40
	requestTypeVendorIn  = 0xc0

	controlTimeout = 300 * time.Millisecond
	bulkReadTick   = 1 * time.Second

	bulkInEndpoint = 0x81
)

// Register address blocks (enum blocks in the upstream register bus).
type block uint8

const (
	blockDemod block = 0
	blockUSB   block = 1
	blockSys   block = 2
	blockTun   block = 3
	blockROM   block = 4
	blockIR    block = 5
	blockI2C   block = 6
)

// USB-block SIE registers.
const (
	regUSBSyscl    = 0x2000
	regUSBCtrl     = 0x2010
	regUSBStat     = 0x2014
	regUSBEpaCfg   = 0x2144
	regUSBEpaCtl   = 0x2148
	regUSBEpaMax   = 0x2158
	regUSBEpaMax2  = 0x215a
	regUSBEpaFifo  = 0x2160
)

// SYS-block registers.
const (
	regDemodCtl  = 0x3000
	regGPO       = 0x3001
	regGPI       = 0x3002
	regGPOE      = 0x3003
	regGPD       = 0x3004
	regSysInte   = 0x3005
	regSysInts   = 0x3006
	regGPCfg0    = 0x3007
	regGPCfg1    = 0x3008
	regSysInte1  = 0x3009
	regSysInts1  = 0x300a
	regDemodCtl1 = 0x300b
)

const eepromAddr = 0xa0

// Default RTL crystal frequency, and the tolerance window rtlsdr_set_xtal_freq
// (SetXtalFreq) accepts for the RTL-side crystal.
const (
	defaultXtalFreq = 28_800_000
	minXtalFreq     = defaultXtalFreq - 1000
	maxXtalFreq     = defaultXtalFreq + 1000
)

// R82XXIFFreq is the fixed intermediate frequency Rafael Micro tuners are
// returned to when direct sampling is disabled.
const R82XXIFFreq = 3_570_000
