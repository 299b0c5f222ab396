package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/encoder"
)

var (
	ErrSessionActive = errors.New("a recording session is already active")
	ErrNoSession     = errors.New("no active recording session")
)

type TickFunc func(elapsed time.Duration)
type LevelFunc func(rms float64)

// Recorder drives the microphone lifecycle: Start acquires a capture device
// and buffers chunks, Stop finalizes them into a single Clip. At most one
// session is active at a time, and every exit path releases the device and
// cancels the elapsed ticker.
type Recorder struct {
	ctx     Context
	device  *DeviceInfo
	format  string
	onTick  TickFunc
	onLevel LevelFunc

	mu      sync.Mutex
	session *session
}

type session struct {
	capture CaptureDevice
	enc     encoder.Encoder
	format  string
	started time.Time

	bufMu      sync.Mutex
	stopped    bool
	sampleBuf  []int16
	blockChan  chan []int16
	encodeDone chan struct{}
	tickStop   chan struct{}
}

func NewRecorder(ctx Context, device *DeviceInfo, format string, onTick TickFunc, onLevel LevelFunc) *Recorder {
	return &Recorder{
		ctx:     ctx,
		device:  device,
		format:  format,
		onTick:  onTick,
		onLevel: onLevel,
	}
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// DeviceName reports the active session's capture device, or "" when no
// session is running.
func (r *Recorder) DeviceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.capture.DeviceName()
}

func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return time.Since(r.session.started)
}

// Start begins a recording session. A second Start while one is active
// returns ErrSessionActive without disturbing the live session. A device
// failure leaves no partial session behind.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return ErrSessionActive
	}

	enc, err := encoder.New(r.format)
	if err != nil {
		return err
	}

	capture, err := r.ctx.NewCapture(r.device, CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return fmt.Errorf("microphone unavailable: %w", err)
	}

	s := &session{
		capture:    capture,
		enc:        enc,
		format:     r.format,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
		tickStop:   make(chan struct{}),
	}

	go func() {
		defer close(s.encodeDone)
		for block := range s.blockChan {
			start := time.Now()
			s.enc.EncodeBlock(block)
			s.enc.AddEncodeTime(time.Since(start))
		}
	}()

	onLevel := r.onLevel
	capture.SetCallback(func(data []byte, _ uint32) {
		s.feed(data, onLevel)
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		close(s.blockChan)
		<-s.encodeDone
		return fmt.Errorf("microphone access failed: %w", err)
	}

	s.started = time.Now()
	r.session = s

	if r.onTick != nil {
		onTick := r.onTick
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-s.tickStop:
					return
				case <-ticker.C:
					onTick(time.Since(s.started))
				}
			}
		}()
	}

	return nil
}

func (s *session) feed(data []byte, onLevel LevelFunc) {
	s.bufMu.Lock()
	if s.stopped {
		s.bufMu.Unlock()
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s.sampleBuf = append(s.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	var blocks [][]int16
	for len(s.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, s.sampleBuf[:encoder.BlockSize])
		s.sampleBuf = s.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	s.bufMu.Unlock()

	for _, block := range blocks {
		s.blockChan <- block
	}

	if onLevel != nil && len(data) > 1 {
		var sumSquares float64
		for i := 0; i+1 < len(data); i += 2 {
			sample := int16(binary.LittleEndian.Uint16(data[i:]))
			normalized := float64(sample) / 32768.0
			sumSquares += normalized * normalized
		}
		onLevel(math.Sqrt(sumSquares / float64(len(data)/2)))
	}
}

// Stop finalizes the session into a Clip. The device is released and the
// ticker cancelled on every path, including a recording with zero buffered
// chunks, which still yields a valid (empty) Clip.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s == nil {
		return nil, ErrNoSession
	}
	r.session = nil

	s.capture.Stop()
	s.capture.ClearCallback()
	s.capture.Close()
	close(s.tickStop)

	s.bufMu.Lock()
	s.stopped = true
	partial := s.sampleBuf
	s.sampleBuf = nil
	s.bufMu.Unlock()

	if len(partial) > 0 {
		s.blockChan <- partial
	}
	close(s.blockChan)
	<-s.encodeDone

	if err := s.enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing recording: %w", err)
	}

	return &Clip{
		Data:     s.enc.Bytes(),
		MIMEType: mimeTypeForFormat(s.format),
		Name:     recordingName(s.format, time.Now()),
	}, nil
}

// Teardown aborts any active session, discarding its audio. Used on
// shutdown and when the user leaves record mode mid-session.
func (r *Recorder) Teardown() {
	if r.Active() {
		r.Stop()
	}
}

func mimeTypeForFormat(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	default:
		return DefaultMIMEType
	}
}
