package rtlsdr

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/gousb"
)

// Device is an open handle to an RTL2832U-based dongle. All exported
// methods are safe to call from multiple goroutines; register access is
// serialized internally by the I2C repeater gate (see registers.go).
type Device struct {
	usbCtx    *gousb.Context
	usbDevice *gousb.Device
	usbConfig *gousb.Config
	usbIface  *gousb.Interface
	epIn      *gousb.InEndpoint

	Manufacturer string
	Product      string
	Serial       string

	tuner     Tuner
	tunerType TunerType

	opts Options

	// i2cMu is the repeater gate's mutex. It is re-entrant: a tuner
	// callback invoked while a Device method already holds the gate
	// (e.g. SetCenterFreq calling tuner.SetFreq, which calls back into
	// I2CWriteReg) must not deadlock. See registers.go for the
	// owner/depth bookkeeping that makes that safe.
	i2cMu       sync.Mutex
	i2cOwner    uint64
	i2cDepth    int
	i2cRepeated bool

	gpioState      uint8
	gpioStateKnown uint8

	xtalFreq    uint32
	freq        uint32
	bandwidth   uint32
	rate        uint32
	offsetTuning bool
	directSampling int
	dsMode       int
	dsThreshold  uint32
	spectrumInv  bool

	streamState atomic.Int32 // see stream.go
	closed      atomic.Bool

	verbose int
}

// OpenOption configures Open.
type OpenOption func(*Device)

// WithVerbose enables diagnostic logging of register traffic, mirroring
// the upstream driver's verbose build flag.
func WithVerbose(level int) OpenOption {
	return func(d *Device) { d.verbose = level }
}

// DeviceInfo describes a candidate device as reported by ListDevices,
// without opening it.
type DeviceInfo struct {
	Index        int
	Vendor       gousb.ID
	Product      gousb.ID
	Name         string
	Manufacturer string
	SerialNumber string
	Bus          int
	Address      int
}

// ListDevices enumerates attached devices whose (vendor, product) pair is
// in the known-dongle table.
func ListDevices() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var infos []DeviceInfo
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		_, ok := lookupKnown(desc.Vendor, desc.Product)
		return ok
	})
	if err != nil {
		return nil, newErr("ListDevices", KindIoError, err)
	}
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()

	for i, d := range devs {
		name, _ := lookupKnown(d.Desc.Vendor, d.Desc.Product)
		mfr, _ := d.Manufacturer()
		serial, _ := d.SerialNumber()
		infos = append(infos, DeviceInfo{
			Index:        i,
			Vendor:       d.Desc.Vendor,
			Product:      d.Desc.Product,
			Name:         name,
			Manufacturer: mfr,
			SerialNumber: serial,
			Bus:          d.Desc.Bus,
			Address:      d.Desc.Address,
		})
	}
	return infos, nil
}

func lookupKnown(vendor, product gousb.ID) (string, bool) {
	for _, k := range knownDevices {
		if uint16(vendor) == k.Vendor && uint16(product) == k.Product {
			return k.Name, true
		}
	}
	return "", false
}

// Open opens the index'th known device (0 for the first one found),
// claims its interface, initializes the baseband (USB endpoint setup,
// demod power-on, default RTL crystal), pulses the GPIO 4 reset line,
// probes for an attached tuner and initializes it. Close must be called
// to release the handle.
func Open(index int, opts ...OpenOption) (*Device, error) {
	ctx := gousb.NewContext()

	desc, err := findNth(ctx, index)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	usbDev, err := ctx.OpenDeviceWithVIDPID(desc.Vendor, desc.Product)
	if err != nil || usbDev == nil {
		ctx.Close()
		return nil, newErr("Open", KindNoDevice, err)
	}
	usbDev.SetAutoDetach(true)
	usbDev.ControlTimeout = controlTimeout

	cfg, err := usbDev.Config(1)
	if err != nil {
		usbDev.Close()
		ctx.Close()
		return nil, newErr("Open", KindAccessDenied, err)
	}
	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		usbDev.Close()
		ctx.Close()
		return nil, newErr("Open", KindAccessDenied, err)
	}
	epIn, err := iface.InEndpoint(bulkInEndpoint & 0x0f)
	if err != nil {
		iface.Close()
		cfg.Close()
		usbDev.Close()
		ctx.Close()
		return nil, newErr("Open", KindIoError, err)
	}

	d := &Device{
		usbCtx:    ctx,
		usbDevice: usbDev,
		usbConfig: cfg,
		usbIface:  iface,
		epIn:      epIn,
		xtalFreq:  defaultXtalFreq,
	}
	for _, o := range opts {
		o(d)
	}
	d.Manufacturer, _ = usbDev.Manufacturer()
	d.Product, _ = usbDev.Product()
	d.Serial, _ = usbDev.SerialNumber()

	if err := d.initBaseband(); err != nil {
		d.Close()
		return nil, err
	}

	d.gpioOutput(4)
	d.gpioBit(4, true)
	d.gpioBit(4, false)

	tuner, err := probeTuner(d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.tuner = tuner
	d.tunerType = tuner.Type()

	if err := d.setI2CRepeater(true); err != nil {
		d.Close()
		return nil, err
	}
	err = d.tuner.Init()
	d.setI2CRepeater(false)
	if err != nil {
		d.Close()
		return nil, newErr("Open", KindIoError, err)
	}

	d.setI2CRepeater(false)
	return d, nil
}

func findNth(ctx *gousb.Context, index int) (*gousb.DeviceDesc, error) {
	var found *gousb.DeviceDesc
	n := 0
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		_, ok := lookupKnown(desc.Vendor, desc.Product)
		if ok {
			if n == index {
				found = desc
			}
			n++
		}
		return false // never keep a handle open from this scan
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return nil, newErr("Open", KindIoError, err)
	}
	if found == nil {
		return nil, newErr("Open", KindNoDevice, fmt.Errorf("no known rtlsdr dongle at index %d", index))
	}
	return found, nil
}

// Close cancels any in-flight streaming, puts the tuner in standby, and
// releases the USB handle. Close is idempotent.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.CancelAsync()
	if d.tuner != nil {
		d.setI2CRepeater(true)
		d.tuner.Standby()
		d.setI2CRepeater(false)
	}
	if d.usbDevice != nil {
		d.deinitBaseband()
	}
	if d.usbIface != nil {
		d.usbIface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		d.usbDevice.Close()
	}
	if d.usbCtx != nil {
		d.usbCtx.Close()
	}
	return nil
}

// TunerType reports the chip driving this device's RF front end.
func (d *Device) TunerType() TunerType { return d.tunerType }

func (d *Device) Verbose() int { return d.verbose }

func (d *Device) Logf(format string, args ...interface{}) {
	if d.verbose > 0 {
		log.Printf("rtlsdr: "+format, args...)
	}
}

// controlOut issues a vendor OUT control transfer (host-to-device).
func (d *Device) controlOut(value, index uint16, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()
	_, err := d.usbDevice.Control(requestTypeVendorOut, 0, value, index, data)
	_ = ctx
	return err
}

// controlIn issues a vendor IN control transfer (device-to-host).
func (d *Device) controlIn(value, index uint16, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := d.usbDevice.Control(requestTypeVendorIn, 0, value, index, buf)
	if err != nil {
		return nil, err
	}
	return buf[:got], nil
}
