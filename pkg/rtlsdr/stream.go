package rtlsdr

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// StreamState reports the lifecycle of the async read pipeline.
type StreamState int32

const (
	StreamInactive StreamState = iota
	StreamRunning
	StreamCanceling
)

// ReadCallback receives one bulk-transfer payload of interleaved 8-bit
// (I,Q) samples, biased by 128. The slice is reused between calls and
// must not be retained past the callback.
type ReadCallback func(buf []byte)

const (
	defaultBufNum = 15
	defaultBufLen = 16 * 32 * 512
)

// ReadAsync streams bulk samples from the device until ctx is canceled or
// CancelAsync is called, invoking cb for each buffer filled. bufNum and
// bufLen of 0 select the library defaults. ReadAsync blocks the calling
// goroutine until streaming stops; callers typically invoke it from its
// own goroutine.
func (d *Device) ReadAsync(ctx context.Context, cb ReadCallback, bufNum, bufLen int) error {
	if !d.streamState.CompareAndSwap(int32(StreamInactive), int32(StreamRunning)) {
		return newErr("ReadAsync", KindInvalidArgument, fmt.Errorf("stream already active"))
	}
	defer d.streamState.Store(int32(StreamInactive))

	if bufNum <= 0 {
		bufNum = defaultBufNum
	}
	if bufLen <= 0 {
		bufLen = defaultBufLen
	}

	stream, err := d.epIn.NewStream(bufLen, bufNum)
	if err != nil {
		return newErr("ReadAsync", KindIoError, err)
	}
	defer stream.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	var consecutiveErrs atomic.Int32

	g.Go(func() error {
		buf := make([]byte, bufLen)
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if StreamState(d.streamState.Load()) == StreamCanceling {
				return nil
			}
			n, err := stream.ReadContext(gctx, buf)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if consecutiveErrs.Add(1) >= int32(bufNum) {
					return newErr("ReadAsync", KindIoError, err)
				}
				continue
			}
			consecutiveErrs.Store(0)
			cb(buf[:n])
		}
	})

	go func() {
		<-gctx.Done()
		if StreamState(d.streamState.Load()) == StreamRunning {
			d.streamState.CompareAndSwap(int32(StreamRunning), int32(StreamCanceling))
		}
	}()

	if err := g.Wait(); err != nil && ctx.Err() == nil && err != context.Canceled {
		return err
	}
	return nil
}

// CancelAsync stops an in-progress ReadAsync. The read goroutine sees the
// request before it starts its next bulk read, so a read already in
// progress (and its callback) completes first; ReadAsync then returns nil.
// It is a no-op if no stream is active.
func (d *Device) CancelAsync() {
	d.streamState.CompareAndSwap(int32(StreamRunning), int32(StreamCanceling))
}

// StreamStatus reports the current state of the ReadAsync pipeline.
func (d *Device) StreamStatus() StreamState {
	return StreamState(d.streamState.Load())
}

// ReadSync performs a single blocking bulk read of len(buf) bytes,
// independent of the async streaming pipeline. It is mainly useful for
// one-shot diagnostics; sustained capture should use ReadAsync.
func (d *Device) ReadSync(ctx context.Context, buf []byte) (int, error) {
	n, err := d.epIn.ReadContext(ctx, buf)
	if err != nil {
		return n, newErr("ReadSync", KindIoError, err)
	}
	return n, nil
}

// ResetBuffer flushes the device-side USB FIFO by toggling the EPA
// control register, discarding any samples queued before a capture is
// (re)started.
func (d *Device) ResetBuffer() error {
	d.lockI2C()
	defer d.unlockI2C()
	if err := d.writeReg(blockUSB, regUSBEpaCtl, 0x1002, 2); err != nil {
		return newErr("ResetBuffer", KindIoError, err)
	}
	return d.writeReg(blockUSB, regUSBEpaCtl, 0x0000, 2)
}
