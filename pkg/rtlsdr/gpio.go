package rtlsdr

// GPIO pins on RTL2832U-based dongles are most commonly wired to a bias-tee
// FET (pin 0) or an LED; pin 4 is the reset line some boards route to the
// FC0012/FC2580 tuner, toggled once during Open before tuner probing.

func (d *Device) gpioOutput(pin uint8) error {
	d.lockI2C()
	defer d.unlockI2C()

	r, err := d.readReg(blockSys, regGPD, 1)
	if err != nil {
		return err
	}
	if err := d.writeReg(blockSys, regGPOE, (uint16(byte(r))|(1<<pin)), 1); err != nil {
		return err
	}
	d.gpioStateKnown |= 1 << pin
	return nil
}

func (d *Device) gpioBit(pin uint8, on bool) error {
	d.lockI2C()
	defer d.unlockI2C()

	r, err := d.readReg(blockSys, regGPO, 1)
	if err != nil {
		return err
	}
	v := byte(r)
	if on {
		v |= 1 << pin
	} else {
		v &^= 1 << pin
	}
	if err := d.writeReg(blockSys, regGPO, uint16(v), 1); err != nil {
		return err
	}
	if on {
		d.gpioState |= 1 << pin
	} else {
		d.gpioState &^= 1 << pin
	}
	return nil
}

func (d *Device) GPIOSetOutput(pin uint8) error   { return d.gpioOutput(pin) }
func (d *Device) GPIOSetBit(pin uint8, on bool) error { return d.gpioBit(pin, on) }

// SetBiasTee enables or disables the bias-tee FET on GPIO pin 0, supplying
// DC power to an external LNA over the antenna coax. Not every board wires
// this pin; enabling it on one that doesn't is a harmless no-op write.
func (d *Device) SetBiasTee(on bool) error {
	if err := d.gpioOutput(0); err != nil {
		return newErr("SetBiasTee", KindIoError, err)
	}
	if err := d.gpioBit(0, on); err != nil {
		return newErr("SetBiasTee", KindIoError, err)
	}
	return nil
}

// SetBiasTeeGPIO is identical to SetBiasTee but targets an arbitrary pin,
// for boards that route the bias-tee FET to a non-default GPIO.
func (d *Device) SetBiasTeeGPIO(pin uint8, on bool) error {
	if err := d.gpioOutput(pin); err != nil {
		return newErr("SetBiasTeeGPIO", KindIoError, err)
	}
	if err := d.gpioBit(pin, on); err != nil {
		return newErr("SetBiasTeeGPIO", KindIoError, err)
	}
	return nil
}
