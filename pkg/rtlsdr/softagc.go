package rtlsdr

import (
	"sync"
	"time"
)

// softAGCState is the state machine driving the background gain worker.
type softAGCState int

const (
	softAGCOff softAGCState = iota
	softAGCInit
	softAGCReset
	softAGCResetCont
	softAGCOn
)

// SoftAGC replaces a tuner's own gain-word AGC with a software loop that
// histograms sample magnitudes and steps the manual gain index up or down
// to avoid both clipping and under-range use of the ADC. It is useful on
// tuners whose hardware AGC reacts too slowly, or not at all, for bursty
// signals.
type SoftAGC struct {
	dev *Device

	mu       sync.Mutex
	cond     *sync.Cond
	state       softAGCState
	wantGain    bool // command_changeGain
	pendingStep int
	running     bool
	stopCh      chan struct{}

	scanTime time.Duration
	deadTime time.Duration
	verbose  bool

	remainingDeadSps int
	hist             [16]int
	histN            int
}

// NewSoftAGC constructs a software AGC worker bound to dev, using 100ms
// scan and 1ms dead time unless dev's softscantime/softdeadtime options
// are set. It does not start running until Enable is called.
func NewSoftAGC(dev *Device) *SoftAGC {
	a := &SoftAGC{
		dev:      dev,
		scanTime: 100 * time.Millisecond,
		deadTime: 1 * time.Millisecond,
	}
	if dev.opts.SoftScanTime > 0 {
		a.scanTime = time.Duration(dev.opts.SoftScanTime) * time.Millisecond
	}
	if dev.opts.SoftDeadTime > 0 {
		a.deadTime = time.Duration(dev.opts.SoftDeadTime) * time.Millisecond
	}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// Feed accumulates one buffer of interleaved I/Q samples into the
// histogram used to decide the next gain step, skipping the dead-time
// samples that follow a requested gain step. Intended to be called from
// a ReadAsync callback.
func (a *SoftAGC) Feed(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == softAGCOff {
		return
	}
	for _, s := range buf {
		if a.remainingDeadSps > 0 {
			a.remainingDeadSps--
			continue
		}
		bin := int(abs8(int(s)-127)) >> 3
		if bin > 15 {
			bin = 15
		}
		a.hist[bin]++
		a.histN++
	}
	a.evaluateLocked()
}

func abs8(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// evaluateLocked inspects the accumulated histogram for the three
// oversteer thresholds and requests a gain step if one trips. Called with
// a.mu held.
func (a *SoftAGC) evaluateLocked() {
	n := a.histN
	if n == 0 {
		return
	}
	overLoud := 64*a.hist[15] >= n
	loud := 16*a.hist[12] >= n
	quiet := 4*a.hist[8] < n

	switch {
	case overLoud || loud:
		a.requestStepLocked(-1)
	case quiet:
		a.requestStepLocked(1)
	}
	a.hist = [16]int{}
	a.histN = 0
}

func (a *SoftAGC) requestStepLocked(dir int) {
	a.pendingStep = dir
	a.wantGain = true
	a.remainingDeadSps = int(a.deadTime.Seconds() * float64(a.dev.rate))
	a.cond.Signal()
}

// Enable starts the background worker goroutine that applies gain steps
// requested by Feed. The worker owns all writes to the tuner's gain index
// so they never race with a caller-driven SetGain.
func (a *SoftAGC) Enable() {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.state = softAGCInit
	a.stopCh = make(chan struct{})
	stop := a.stopCh
	a.mu.Unlock()

	go a.worker(stop)
}

// Disable stops the worker goroutine and returns tuner gain control to
// the caller.
func (a *SoftAGC) Disable() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.state = softAGCOff
	close(a.stopCh)
	a.cond.Broadcast()
	a.mu.Unlock()
}

func (a *SoftAGC) worker(stop chan struct{}) {
	lna, mixer, vga := 0, 0, 0
	for {
		a.mu.Lock()
		for !a.wantGain && a.running {
			a.cond.Wait()
		}
		if !a.running {
			a.mu.Unlock()
			return
		}
		step := a.pendingStep
		a.wantGain = false
		a.state = softAGCOn
		a.mu.Unlock()

		select {
		case <-stop:
			return
		default:
		}

		vga += step
		if vga < 0 {
			vga = 0
			mixer += step
		}
		if mixer < 0 {
			mixer = 0
			lna += step
		}
		if lna < 0 {
			lna = 0
		}
		if a.dev.tuner != nil {
			a.dev.tuner.SetGainIndex(lna, mixer, vga)
		}
	}
}
