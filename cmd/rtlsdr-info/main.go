// Command rtlsdr-info lists attached dongles, or opens one and reports
// its tuner, then exits. Useful as a smoke test after wiring up udev
// rules or chasing down which of several dongles is plugged into which
// USB port.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/herlein/rtlsdr/pkg/rtlsdr"
	_ "github.com/herlein/rtlsdr/pkg/tuner/all"
)

func main() {
	var (
		index   = flag.IntP("device", "d", 0, "device index to open")
		verbose = flag.CountP("verbose", "v", "increase register-traffic log verbosity")
		freq    = flag.Uint32P("freq", "f", 0, "tune to this frequency (Hz) before reporting")
		list    = flag.BoolP("list", "l", false, "list attached devices and exit")
	)
	flag.Parse()

	if *list {
		devices, err := rtlsdr.ListDevices()
		if err != nil {
			fmt.Fprintln(os.Stderr, "rtlsdr-info:", err)
			os.Exit(1)
		}
		if len(devices) == 0 {
			fmt.Println("no rtlsdr devices found")
			return
		}
		for _, dev := range devices {
			fmt.Printf("%d: %s (serial %q, bus %d addr %d)\n", dev.Index, dev.Name, dev.SerialNumber, dev.Bus, dev.Address)
		}
		return
	}

	dev, err := rtlsdr.Open(*index, rtlsdr.WithVerbose(*verbose))
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtlsdr-info:", err)
		os.Exit(1)
	}
	defer dev.Close()

	fmt.Printf("manufacturer: %s\n", dev.Manufacturer)
	fmt.Printf("product:      %s\n", dev.Product)
	fmt.Printf("serial:       %s\n", dev.Serial)
	fmt.Printf("tuner:        %s\n", dev.TunerType())
	fmt.Printf("xtal:         %d Hz\n", dev.XtalFreq())

	if *freq != 0 {
		if err := dev.SetCenterFreq(*freq); err != nil {
			fmt.Fprintln(os.Stderr, "rtlsdr-info: set center freq:", err)
			os.Exit(1)
		}
		fmt.Printf("tuned:        %d Hz\n", dev.CenterFreq())
	}
}
