package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petems/volume-overlay/internal/meter"
	"github.com/rs/zerolog"
)

const reportBuffer = 64

type stream interface {
	Start() error
	Stop() error
	Close() error
}

type streamParams struct {
	Device     Device
	Channels   int
	SampleRate float64
	BlockSize  int
}

// callback receives interleaved samples for one block plus its status
type callback func(in []float32, flags StreamFlags)

type openFunc func(p streamParams, cb callback) (stream, error)

type options struct {
	channels   int
	sampleRate int
	blockSize  int
	log        zerolog.Logger
	reports    chan error
	open       openFunc
}

// Option configures Open
type Option func(*options)

func WithChannels(n int) Option {
	return func(o *options) { o.channels = n }
}

func WithSampleRate(rate int) Option {
	return func(o *options) { o.sampleRate = rate }
}

func WithBlockSize(frames int) Option {
	return func(o *options) { o.blockSize = frames }
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithReports sends status warnings and callback errors to ch instead of
// the session logger. Sends never block; reports are dropped when ch is full.
func WithReports(ch chan error) Option {
	return func(o *options) { o.reports = ch }
}

// Stats counts what happened on the audio thread
type Stats struct {
	Blocks   uint64
	Warnings uint64
	Failures uint64
	Dropped  uint64
}

// Session owns one open input stream. The handler runs on the audio
// thread for every captured block until Close.
type Session struct {
	device   Device
	channels int
	handler  BlockHandler
	log      zerolog.Logger
	stream   stream

	reports   chan error
	ownReport bool
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	blocks   atomic.Uint64
	warnings atomic.Uint64
	failures atomic.Uint64
	dropped  atomic.Uint64
}

// Open starts capturing from dev. Errors caused by the device are wrapped
// in ErrDeviceUnavailable.
func Open(dev Device, handler BlockHandler, opts ...Option) (*Session, error) {
	o := options{
		channels:   DefaultChannels,
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		log:        zerolog.Nop(),
		open:       openPortAudio,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if handler == nil {
		return nil, errors.New("audio: nil block handler")
	}
	if o.channels < 1 || o.channels > MaxChannels {
		return nil, fmt.Errorf("audio: channel count %d out of range 1..%d", o.channels, MaxChannels)
	}
	if o.sampleRate <= 0 || o.blockSize <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d or block size %d", o.sampleRate, o.blockSize)
	}
	if dev.MaxInputChannels < o.channels {
		return nil, fmt.Errorf("%w: %q has %d input channels, need %d",
			ErrDeviceUnavailable, dev.Name, dev.MaxInputChannels, o.channels)
	}

	s := &Session{
		device:   dev,
		channels: o.channels,
		handler:  handler,
		log:      o.log.With().Str("device", dev.Name).Logger(),
		reports:  o.reports,
		done:     make(chan struct{}),
	}
	if s.reports == nil {
		s.reports = make(chan error, reportBuffer)
		s.ownReport = true
	}

	st, err := o.open(streamParams{
		Device:     dev,
		Channels:   o.channels,
		SampleRate: float64(o.sampleRate),
		BlockSize:  o.blockSize,
	}, s.onBlock)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrDeviceUnavailable, dev.Name, err)
	}

	if err := st.Start(); err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: start %q: %v", ErrDeviceUnavailable, dev.Name, err)
	}
	s.stream = st

	if s.ownReport {
		go s.logReports()
	}

	s.log.Info().
		Int("channels", o.channels).
		Int("sample_rate", o.sampleRate).
		Int("block_size", o.blockSize).
		Msg("Audio capture started")

	return s, nil
}

// onBlock runs on the audio thread. It never waits: if Close holds or is
// waiting for the lock, the block is dropped.
func (s *Session) onBlock(in []float32, flags StreamFlags) {
	if !s.mu.TryRLock() {
		s.dropped.Add(1)
		return
	}
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	seq := s.blocks.Add(1)
	if flags != 0 {
		s.warnings.Add(1)
		s.report(StatusWarning{Seq: seq, Flags: flags})
	}
	if len(in) == 0 {
		return
	}

	if err := s.process(in); err != nil {
		s.failures.Add(1)
		s.report(&CallbackError{Seq: seq, Err: err})
	}
}

func (s *Session) process(in []float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(meter.Block{Samples: in, Channels: s.channels})
}

func (s *Session) report(err error) {
	select {
	case s.reports <- err:
	default:
	}
}

func (s *Session) logReports() {
	for {
		select {
		case <-s.done:
			return
		case err := <-s.reports:
			var warn StatusWarning
			if errors.As(err, &warn) {
				s.log.Warn().Uint64("block", warn.Seq).Str("status", warn.Flags.String()).Msg("Stream status")
				continue
			}
			s.log.Error().Err(err).Msg("Block processing failed")
		}
	}
}

// Close stops the stream and releases it. Once Close returns the handler is
// not called again. Calling Close more than once is a no-op. Close must not
// be called from the block handler.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if e := s.stream.Stop(); e != nil {
			errs = append(errs, fmt.Errorf("stop stream: %w", e))
		}
		if e := s.stream.Close(); e != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", e))
		}
		close(s.done)
		err = errors.Join(errs...)

		st := s.Stats()
		s.log.Info().
			Uint64("blocks", st.Blocks).
			Uint64("warnings", st.Warnings).
			Uint64("failures", st.Failures).
			Uint64("dropped", st.Dropped).
			Msg("Audio capture stopped")
	})
	return err
}

// Device returns the device the session captures from
func (s *Session) Device() Device {
	return s.device
}

func (s *Session) Stats() Stats {
	return Stats{
		Blocks:   s.blocks.Load(),
		Warnings: s.warnings.Load(),
		Failures: s.failures.Load(),
		Dropped:  s.dropped.Load(),
	}
}
