package rtlsdr

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's numeric id from its stack
// trace header ("goroutine 123 [running]:"). The runtime exposes no public
// accessor for this, so the repeater gate's re-entrant mutex below parses
// it directly; this is the same trick runtime/debug-adjacent diagnostic
// tools use when they need goroutine identity without a dedicated API.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// lockI2C acquires the repeater gate's mutex, or simply bumps the
// recursion depth when the calling goroutine already holds it (a tuner
// callback invoked from inside a Device method that is itself holding
// the gate).
func (d *Device) lockI2C() {
	gid := goroutineID()
	d.i2cMu.Lock()
	if d.i2cDepth > 0 && d.i2cOwner == gid {
		d.i2cDepth++
		d.i2cMu.Unlock()
		return
	}
	for d.i2cDepth > 0 {
		d.i2cMu.Unlock()
		d.i2cMu.Lock()
	}
	d.i2cOwner = gid
	d.i2cDepth = 1
	d.i2cMu.Unlock()
}

func (d *Device) unlockI2C() {
	d.i2cMu.Lock()
	d.i2cDepth--
	d.i2cMu.Unlock()
}

// setI2CRepeater toggles demod page-1 register 0x01 between the repeater
// (0x18) and direct (0x10) states, caching the current state so redundant
// writes are skipped. Callers hold the I2C gate for the duration of any
// tuner traffic they intend to issue; Open and Close bracket tuner.Init /
// tuner.Standby this way.
func (d *Device) setI2CRepeater(on bool) error {
	d.lockI2C()
	defer d.unlockI2C()

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

func regIndex(b block, write bool) uint16 {
	idx := uint16(b) << 8
	if write {
		idx |= 0x10
	}
	return idx
}

func (d *Device) readArray(b block, addr uint16, n int) ([]byte, error) {
	return d.controlIn(addr, regIndex(b, false), n)
}

func (d *Device) writeArray(b block, addr uint16, data []byte) error {
	return d.controlOut(addr, regIndex(b, true), data)
}

func (d *Device) readReg(b block, addr uint16, n int) (uint16, error) {
	data, err := d.readArray(b, addr, n)
	if err != nil {
		return 0, err
	}
	var v uint16
	for i := 0; i < len(data); i++ {
		v |= uint16(data[i]) << (8 * i)
	}
	return v, nil
}

func (d *Device) writeReg(b block, addr uint16, val uint16, n int) error {
	data := make([]byte, n)
	for i := 0; i < n; i++ {
		data[i] = byte(val >> (8 * i))
	}
	return d.writeArray(b, addr, data)
}

// demodReadReg reads a page-addressed demodulator register. page selects
// the low bits of the wIndex word; addr is shifted left 8 and ORed with
// 0x20 per the demod block's addressing convention.
func (d *Device) demodReadReg(page uint8, addr uint16) (uint16, error) {
	index := uint16(page)
	v, err := d.readArray(block(index), (addr<<8)|0x20, 1)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, newErr("demodReadReg", KindIoError, nil)
	}
	return uint16(v[0]), nil
}

func (d *Device) demodWriteRegLocked(page uint8, addr uint16, val uint16, n int) error {
	data := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		data[n-1-i] = byte(val >> (8 * i))
	}
	idx := (uint16(page) << 8) | 0x10
	if err := d.controlOut((addr<<8)|0x20, idx, data); err != nil {
		return err
	}
	// A dummy read-back forces the write to latch, matching the
	// upstream driver's demod register write sequence.
	_, err := d.readArray(block(page), (addr<<8)|0x20, 1)
	return err
}

func (d *Device) demodWriteReg(page uint8, addr uint16, val uint16, n int) error {
	d.lockI2C()
	defer d.unlockI2C()
	return d.demodWriteRegLocked(page, addr, val, n)
}

// --- Host interface: tuner-facing I2C access, always gated. ---

func (d *Device) I2CWriteReg(i2cAddr, reg, val uint8) error {
	d.lockI2C()
	defer d.unlockI2C()
	return d.writeArray(blockI2C, uint16(i2cAddr)<<8|uint16(reg), []byte{val})
}

func (d *Device) I2CReadReg(i2cAddr, reg uint8) (uint8, error) {
	d.lockI2C()
	defer d.unlockI2C()
	v, err := d.readArray(blockI2C, uint16(i2cAddr)<<8|uint16(reg), 1)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, newErr("I2CReadReg", KindIoError, nil)
	}
	return v[0], nil
}

func (d *Device) I2CWriteArray(i2cAddr uint8, startReg uint8, data []byte) error {
	d.lockI2C()
	defer d.unlockI2C()
	return d.writeArray(blockI2C, uint16(i2cAddr)<<8|uint16(startReg), data)
}

func (d *Device) I2CReadArray(i2cAddr uint8, startReg uint8, n int) ([]byte, error) {
	d.lockI2C()
	defer d.unlockI2C()
	return d.readArray(blockI2C, uint16(i2cAddr)<<8|uint16(startReg), n)
}
