package analyzer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

// FakeAnalyzer returns a canned result or error. Tests use it to drive the
// workflow without a network.
type FakeAnalyzer struct {
	result *Result
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func NewFake(result *Result, err error) *FakeAnalyzer {
	return &FakeAnalyzer{result: result, err: err}
}

// SetDelay makes Analyze block, for exercising in-flight behavior.
func (f *FakeAnalyzer) SetDelay(d time.Duration) { f.delay = d }

func (f *FakeAnalyzer) Name() string { return "fake" }

func (f *FakeAnalyzer) Calls() int { return int(f.calls.Load()) }

func (f *FakeAnalyzer) Analyze(ctx context.Context, _ *audio.Clip) (*Result, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
