package audio

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/encoder"
)

func pcmBytes(nSamples int) []byte {
	buf := make([]byte, nSamples*2)
	for i := 0; i < nSamples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(i%1000))
	}
	return buf
}

func TestRecorderStartStop(t *testing.T) {
	nSamples := encoder.BlockSize + encoder.BlockSize/2
	ctx := NewFakeContext(pcmBytes(nSamples))
	rec := NewRecorder(ctx, nil, "wav", nil, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Active() {
		t.Fatal("recorder should be active after Start")
	}
	if rec.Elapsed() < 0 {
		t.Error("Elapsed should be non-negative while active")
	}
	if rec.DeviceName() != "fake" {
		t.Errorf("DeviceName = %q, want fake", rec.DeviceName())
	}

	clip, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.Active() {
		t.Error("recorder should be inactive after Stop")
	}
	if rec.Elapsed() != 0 {
		t.Error("Elapsed should be zero with no session")
	}
	if rec.DeviceName() != "" {
		t.Errorf("DeviceName = %q after Stop, want empty", rec.DeviceName())
	}
	if clip.MIMEType != "audio/wav" {
		t.Errorf("MIMEType = %q, want audio/wav", clip.MIMEType)
	}
	if clip.Name == "" {
		t.Error("clip should carry a generated name")
	}
	wantLen := encoder.HeaderSize + nSamples*2
	if len(clip.Data) != wantLen {
		t.Errorf("clip size = %d, want %d", len(clip.Data), wantLen)
	}
	if !ctx.LastCapture().Released() {
		t.Error("capture device should be fully released after Stop")
	}
}

func TestRecorderStopWithZeroChunks(t *testing.T) {
	ctx := NewFakeContext(nil)
	rec := NewRecorder(ctx, nil, "wav", nil, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(clip.Data) != encoder.HeaderSize {
		t.Errorf("empty session should yield a header-only clip, got %d bytes", len(clip.Data))
	}
	if !ctx.LastCapture().Released() {
		t.Error("capture device should be released even when nothing was buffered")
	}
}

func TestRecorderSecondStartRejected(t *testing.T) {
	ctx := NewFakeContext(pcmBytes(encoder.BlockSize))
	rec := NewRecorder(ctx, nil, "wav", nil, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := ctx.LastCapture()

	if err := rec.Start(); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start err = %v, want ErrSessionActive", err)
	}
	if ctx.LastCapture() != first {
		t.Error("rejected Start must not touch the live session's device")
	}

	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderStartFailureLeavesNoSession(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.FailStart(errors.New("permission denied"))
	rec := NewRecorder(ctx, nil, "wav", nil, nil)

	err := rec.Start()
	if err == nil {
		t.Fatal("Start should fail when the device refuses to start")
	}
	if rec.Active() {
		t.Error("failed Start must not leave a partial session")
	}
	cap := ctx.LastCapture()
	cap.mu.Lock()
	released := cap.closed && cap.cb == nil
	cap.mu.Unlock()
	if !released {
		t.Error("failed Start must release the device")
	}

	// The recorder stays usable: a later Start succeeds once access works.
	ctx.startErr = nil
	if err := rec.Start(); err != nil {
		t.Fatalf("Start after recovery: %v", err)
	}
	rec.Stop()
}

func TestRecorderStopWithoutSession(t *testing.T) {
	rec := NewRecorder(NewFakeContext(nil), nil, "wav", nil, nil)
	if _, err := rec.Stop(); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestRecorderFlacClip(t *testing.T) {
	ctx := NewFakeContext(pcmBytes(encoder.BlockSize * 2))
	rec := NewRecorder(ctx, nil, "flac", nil, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if clip.MIMEType != "audio/flac" {
		t.Errorf("MIMEType = %q, want audio/flac", clip.MIMEType)
	}
	if len(clip.Data) < 4 || string(clip.Data[:4]) != "fLaC" {
		t.Error("clip should be FLAC encoded")
	}
}

func TestRecorderLevelCallback(t *testing.T) {
	var levels []float64
	ctx := NewFakeContext(pcmBytes(encoder.BlockSize))
	rec := NewRecorder(ctx, nil, "wav", nil, func(rms float64) {
		levels = append(levels, rms)
	})

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()

	if len(levels) == 0 {
		t.Fatal("level callback should fire for delivered chunks")
	}
	for _, l := range levels {
		if l < 0 || l > 1 {
			t.Errorf("rms %v out of range", l)
		}
	}
}

func TestMIMETypeForPath(t *testing.T) {
	for _, tt := range []struct{ path, want string }{
		{"speech.wav", "audio/wav"},
		{"speech.FLAC", "audio/flac"},
		{"speech.mp3", "audio/mpeg"},
		{"speech.bin", DefaultMIMEType},
		{"speech", DefaultMIMEType},
	} {
		if got := MIMETypeForPath(tt.path); got != tt.want {
			t.Errorf("MIMETypeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
