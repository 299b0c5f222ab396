package audio

import "sync"

const (
	fakeChunkBytes    = 2048
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext is an in-memory capture backend for tests: each capture
// device replays the given PCM synchronously on Start.
type FakeContext struct {
	pcm      []byte
	startErr error

	mu   sync.Mutex
	last *FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FailStart makes every subsequent capture fail on Start, simulating a
// denied or unavailable microphone.
func (f *FakeContext) FailStart(err error) { f.startErr = err }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake mic"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	c := &FakeCapture{pcm: f.pcm, startErr: f.startErr}
	f.mu.Lock()
	f.last = c
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// LastCapture exposes the most recently created device so tests can assert
// on its release state.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type FakeCapture struct {
	pcm      []byte
	startErr error

	mu      sync.Mutex
	cb      DataCallback
	started bool
	stopped bool
	closed  bool
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) Start() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	c.started = true
	cb := c.cb
	c.mu.Unlock()

	if cb == nil {
		return nil
	}
	for pos := 0; pos < len(c.pcm); pos += fakeChunkBytes {
		end := min(pos+fakeChunkBytes, len(c.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, c.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	}
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string { return "fake" }

func (c *FakeCapture) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped && c.closed && c.cb == nil
}
