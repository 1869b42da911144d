package slcan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/notnil/canutil"
	"github.com/notnil/canutil/timing"
)

// ErrRejected is returned when the adapter answers a command with BEL.
var ErrRejected = errors.New("slcan: command rejected by adapter")

// idleWait is how long a reader sleeps after a read returned no data.
const idleWait = time.Millisecond

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the serial link; USB CDC adapters ignore it.
	Baud int

	// ReadTimeout bounds each serial read so Receive can observe context
	// cancellation. Zero selects 100ms.
	ReadTimeout time.Duration
}

// DefaultConfig returns a configuration for a USB SLCAN adapter.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Port is an SLCAN adapter. It implements canutil.Bus once the channel is
// open. Configuration commands must not run concurrently with Receive.
type Port struct {
	rw io.ReadWriteCloser

	wmu sync.Mutex

	rmu   sync.Mutex
	buf   []byte
	chunk [64]byte

	closeOnce sync.Once
	closed    chan struct{}
}

var _ canutil.Bus = (*Port)(nil)

// Open opens a serial SLCAN adapter.
func Open(cfg *Config) (*Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("slcan: config cannot be nil")
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	sp, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("slcan: open %s: %w", cfg.Device, err)
	}
	return NewPort(sp), nil
}

// NewPort speaks SLCAN over an already open stream. Reads returning no data
// (with a nil error or io.EOF, which is how tarm/serial reports a read
// timeout) are treated as idle periods.
func NewPort(rw io.ReadWriteCloser) *Port {
	return &Port{rw: rw, closed: make(chan struct{})}
}

// SetBitrate selects one of the predefined bitrates. The channel must be
// closed.
func (p *Port) SetBitrate(ctx context.Context, bitrate timing.BitsPerSecond) error {
	cmd, err := BitrateCommand(bitrate)
	if err != nil {
		return err
	}
	return p.command(ctx, cmd)
}

// SetTiming programs explicit bit timing computed for Clock. The channel
// must be closed.
func (p *Port) SetTiming(ctx context.Context, params timing.Parameters) error {
	cmd, err := TimingCommand(params)
	if err != nil {
		return err
	}
	return p.command(ctx, cmd)
}

// OpenChannel connects the adapter to the bus.
func (p *Port) OpenChannel(ctx context.Context) error { return p.command(ctx, "O\r") }

// CloseChannel disconnects the adapter from the bus.
func (p *Port) CloseChannel(ctx context.Context) error { return p.command(ctx, "C\r") }

// command writes cmd and waits for the adapter's CR (ok) or BEL (error).
func (p *Port) command(ctx context.Context, cmd string) error {
	if err := p.write(ctx, cmd); err != nil {
		return err
	}
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			return err
		}
		switch line {
		case "\r":
			return nil
		case "\a":
			return fmt.Errorf("%w: %q", ErrRejected, cmd[:len(cmd)-1])
		}
		// Anything else is traffic from a still-open channel; drop it.
	}
}

// Send transmits a frame. The adapter's z/Z acknowledgement is consumed by
// Receive.
func (p *Port) Send(ctx context.Context, frame canutil.Frame) error {
	line, err := EncodeFrame(frame)
	if err != nil {
		return err
	}
	return p.write(ctx, line)
}

// Receive returns the next frame from the adapter, skipping
// acknowledgements. A BEL from the adapter is returned as ErrRejected.
func (p *Port) Receive(ctx context.Context) (canutil.Frame, error) {
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			return canutil.Frame{}, err
		}
		switch line {
		case "\r", "z\r", "Z\r":
			continue
		case "\a":
			return canutil.Frame{}, ErrRejected
		}
		return DecodeFrame(line)
	}
}

// Close closes the serial stream.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.rw.Close()
	})
	return err
}

func (p *Port) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *Port) write(ctx context.Context, s string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	if p.isClosed() {
		return canutil.ErrClosed
	}
	_, err := io.WriteString(p.rw, s)
	return err
}

// readLine returns the next CR- or BEL-terminated response, terminator
// included.
func (p *Port) readLine(ctx context.Context) (string, error) {
	p.rmu.Lock()
	defer p.rmu.Unlock()
	for {
		if i := bytes.IndexAny(p.buf, "\r\a"); i >= 0 {
			line := string(p.buf[:i+1])
			p.buf = p.buf[i+1:]
			return line, nil
		}
		if p.isClosed() {
			return "", canutil.ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := p.rw.Read(p.chunk[:])
		p.buf = append(p.buf, p.chunk[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			if p.isClosed() {
				return "", canutil.ErrClosed
			}
			return "", err
		}
		if n == 0 {
			time.Sleep(idleWait)
		}
	}
}
