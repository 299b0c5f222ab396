package main

import (
	"errors"
	"time"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

// workflowState drives the UI through the analysis lifecycle. Exactly one
// state is active at a time; transitions happen only through the workflow
// methods below, which run on the Bubble Tea update loop.
type workflowState int

const (
	stateIdle workflowState = iota
	stateAnalyzing
	stateSuccess
	stateError
)

type inputMode int

const (
	modeRecord inputMode = iota
	modeUpload
)

func (m inputMode) String() string {
	if m == modeUpload {
		return "upload"
	}
	return "record"
}

const msgNoInput = "Please select or record a file first."

// workflow owns the clip/result/error state. There is no cancellation of an
// in-flight analysis; a stale reply is detected by its sequence number and
// discarded instead.
type workflow struct {
	state     workflowState
	mode      inputMode
	clip      *audio.Clip
	seq       uint64
	result    *analyzer.Result
	errMsg    string
	startedAt time.Time
	elapsed   time.Duration
}

func newWorkflow() *workflow {
	return &workflow{state: stateIdle, mode: modeRecord}
}

// setClip accepts a new input and returns to Idle. While a request is in
// flight the capture/upload controls are disabled, so new input is refused.
func (w *workflow) setClip(clip *audio.Clip) bool {
	if w.state == stateAnalyzing {
		return false
	}
	w.clip = clip
	w.state = stateIdle
	w.result = nil
	w.errMsg = ""
	w.elapsed = 0
	return true
}

// begin starts an analysis round trip. It returns the sequence number the
// eventual reply must carry to be accepted. With no clip present it moves
// straight to Error without dispatching anything.
func (w *workflow) begin(now time.Time) (uint64, bool) {
	if w.state == stateAnalyzing {
		return 0, false
	}
	if w.clip == nil {
		w.state = stateError
		w.errMsg = msgNoInput
		w.result = nil
		return 0, false
	}
	w.seq++
	w.state = stateAnalyzing
	w.result = nil
	w.errMsg = ""
	w.elapsed = 0
	w.startedAt = now
	return w.seq, true
}

// finish applies the outcome of the round trip started with the given
// sequence number. Replies for superseded requests, or arriving after a
// reset, are discarded. The elapsed duration is recorded only on Success,
// together with the result.
func (w *workflow) finish(seq uint64, res *analyzer.Result, err error, now time.Time) bool {
	if seq != w.seq || w.state != stateAnalyzing {
		return false
	}
	if err != nil {
		w.state = stateError
		w.errMsg = userMessage(err)
		w.result = nil
		return true
	}
	w.state = stateSuccess
	w.result = res
	w.elapsed = now.Sub(w.startedAt)
	return true
}

// reset returns to Idle from any state and clears everything. Resetting
// while Analyzing bumps the sequence so the in-flight reply is dropped.
func (w *workflow) reset() {
	if w.state == stateAnalyzing {
		w.seq++
	}
	w.state = stateIdle
	w.clip = nil
	w.result = nil
	w.errMsg = ""
	w.elapsed = 0
}

// switchMode toggles record/upload. The pending clip is cleared because it
// belonged to the other input mode.
func (w *workflow) switchMode() bool {
	if w.state == stateAnalyzing {
		return false
	}
	if w.mode == modeRecord {
		w.mode = modeUpload
	} else {
		w.mode = modeRecord
	}
	w.reset()
	return true
}

func userMessage(err error) string {
	if errors.Is(err, analyzer.ErrMalformedResponse) {
		return "The analysis service returned an unreadable reply. Please try again."
	}
	return err.Error()
}
