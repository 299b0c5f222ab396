package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

func testWorkflowClip() *audio.Clip {
	return &audio.Clip{Data: []byte("RIFF"), MIMEType: "audio/wav", Name: "recording-1.wav"}
}

func testWorkflowResult() *analyzer.Result {
	return &analyzer.Result{
		Transcript:      "hello",
		Summary:         "greeting",
		GrammarAnalysis: []analyzer.GrammarIssue{},
		Sentiment:       analyzer.Sentiment{Label: analyzer.SentimentPositive, Explanation: "friendly"},
	}
}

func TestWorkflowSuccessPath(t *testing.T) {
	w := newWorkflow()
	if w.state != stateIdle {
		t.Fatalf("initial state = %d, want Idle", w.state)
	}

	if !w.setClip(testWorkflowClip()) {
		t.Fatal("setClip rejected in Idle")
	}

	t0 := time.Now()
	seq, ok := w.begin(t0)
	if !ok {
		t.Fatal("begin rejected with clip present")
	}
	if w.state != stateAnalyzing {
		t.Fatalf("state after begin = %d, want Analyzing", w.state)
	}

	if !w.finish(seq, testWorkflowResult(), nil, t0.Add(800*time.Millisecond)) {
		t.Fatal("finish discarded a current reply")
	}
	if w.state != stateSuccess {
		t.Fatalf("state after finish = %d, want Success", w.state)
	}
	if w.result == nil {
		t.Fatal("Success state without result")
	}
	if w.elapsed != 800*time.Millisecond {
		t.Errorf("elapsed = %v, want 800ms", w.elapsed)
	}
	if w.errMsg != "" {
		t.Errorf("error message set on success: %q", w.errMsg)
	}
}

func TestWorkflowAnalyzeWithoutInput(t *testing.T) {
	w := newWorkflow()

	seq, ok := w.begin(time.Now())
	if ok {
		t.Fatal("begin accepted with no clip")
	}
	if seq != 0 {
		t.Errorf("seq = %d, want 0 (no request dispatched)", seq)
	}
	if w.state != stateError {
		t.Fatalf("state = %d, want Error", w.state)
	}
	if w.errMsg != msgNoInput {
		t.Errorf("message = %q, want %q", w.errMsg, msgNoInput)
	}
}

func TestWorkflowFailurePath(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())

	t0 := time.Now()
	seq, _ := w.begin(t0)
	if !w.finish(seq, nil, errors.New("gemini API error 503: overloaded"), t0.Add(2*time.Second)) {
		t.Fatal("finish discarded a current reply")
	}
	if w.state != stateError {
		t.Fatalf("state = %d, want Error", w.state)
	}
	if w.result != nil {
		t.Error("stale result kept in Error state")
	}
	if w.errMsg == "" {
		t.Error("Error state without message")
	}
	if w.elapsed != 0 {
		t.Errorf("elapsed = %v in Error state, want 0 (recorded only on Success)", w.elapsed)
	}
}

func TestWorkflowMalformedResponseMessage(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())

	seq, _ := w.begin(time.Now())
	err := fmt.Errorf("parse reply: %w", analyzer.ErrMalformedResponse)
	w.finish(seq, nil, err, time.Now())
	if w.state != stateError {
		t.Fatalf("state = %d, want Error", w.state)
	}
	if w.errMsg == err.Error() {
		t.Error("malformed-response error shown raw instead of as a user message")
	}
}

func TestWorkflowStaleReplyDiscarded(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())

	seq1, _ := w.begin(time.Now())
	w.reset()
	w.setClip(testWorkflowClip())
	seq2, _ := w.begin(time.Now())
	if seq2 == seq1 {
		t.Fatal("sequence not bumped across requests")
	}

	// Slow first reply arrives after the second request started.
	if w.finish(seq1, nil, errors.New("timeout"), time.Now()) {
		t.Fatal("stale reply applied")
	}
	if w.state != stateAnalyzing {
		t.Fatalf("stale reply changed state to %d", w.state)
	}

	if !w.finish(seq2, testWorkflowResult(), nil, time.Now()) {
		t.Fatal("current reply discarded")
	}
	if w.state != stateSuccess {
		t.Fatalf("state = %d, want Success", w.state)
	}
}

func TestWorkflowResetFromEveryState(t *testing.T) {
	check := func(t *testing.T, w *workflow) {
		t.Helper()
		w.reset()
		if w.state != stateIdle {
			t.Errorf("state after reset = %d, want Idle", w.state)
		}
		if w.clip != nil || w.result != nil || w.errMsg != "" || w.elapsed != 0 {
			t.Error("reset left residual state")
		}
	}

	t.Run("success", func(t *testing.T) {
		w := newWorkflow()
		w.setClip(testWorkflowClip())
		seq, _ := w.begin(time.Now())
		w.finish(seq, testWorkflowResult(), nil, time.Now())
		check(t, w)
	})

	t.Run("error", func(t *testing.T) {
		w := newWorkflow()
		w.begin(time.Now())
		check(t, w)
	})

	t.Run("analyzing", func(t *testing.T) {
		w := newWorkflow()
		w.setClip(testWorkflowClip())
		seq, _ := w.begin(time.Now())
		check(t, w)
		// The interrupted request's reply must not resurrect the old state.
		if w.finish(seq, testWorkflowResult(), nil, time.Now()) {
			t.Error("reply applied after reset")
		}
		if w.state != stateIdle {
			t.Errorf("state = %d, want Idle", w.state)
		}
	})
}

func TestWorkflowNoInputWhileAnalyzing(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())
	w.begin(time.Now())

	if w.setClip(testWorkflowClip()) {
		t.Error("setClip accepted while Analyzing")
	}
	if w.switchMode() {
		t.Error("switchMode accepted while Analyzing")
	}
	if _, ok := w.begin(time.Now()); ok {
		t.Error("second begin accepted while Analyzing")
	}
	if w.state != stateAnalyzing {
		t.Errorf("state = %d, want Analyzing", w.state)
	}
}

func TestWorkflowSwitchModeClearsInput(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())

	if !w.switchMode() {
		t.Fatal("switchMode rejected in Idle")
	}
	if w.mode != modeUpload {
		t.Errorf("mode = %v, want upload", w.mode)
	}
	if w.clip != nil {
		t.Error("clip survived mode switch")
	}
	if w.state != stateIdle {
		t.Errorf("state = %d, want Idle", w.state)
	}

	w.switchMode()
	if w.mode != modeRecord {
		t.Errorf("mode = %v, want record", w.mode)
	}
}

func TestWorkflowNewInputClearsOutcome(t *testing.T) {
	w := newWorkflow()
	w.setClip(testWorkflowClip())
	seq, _ := w.begin(time.Now())
	w.finish(seq, testWorkflowResult(), nil, time.Now())

	if !w.setClip(testWorkflowClip()) {
		t.Fatal("setClip rejected in Success")
	}
	if w.state != stateIdle {
		t.Errorf("state = %d, want Idle", w.state)
	}
	if w.result != nil {
		t.Error("previous result survived new input")
	}
}
