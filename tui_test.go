package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
)

func newTestModel(t *testing.T, an analyzer.Analyzer, pcm []byte) (tuiModel, *audio.FakeContext) {
	t.Helper()
	ctx := audio.NewFakeContext(pcm)
	rec := audio.NewRecorder(ctx, nil, "wav", nil, nil)
	wf := newWorkflow()
	return tuiModel{
		wf:       wf,
		rec:      rec,
		an:       an,
		width:    100,
		height:   40,
		modeLine: "[wav | fake]",
	}, ctx
}

func pressKey(t *testing.T, m tea.Model, msg tea.KeyMsg) (tuiModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	tm, ok := next.(tuiModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return tm, cmd
}

func TestTUIRecordAnalyzeRoundTrip(t *testing.T) {
	fake := analyzer.NewFake(testWorkflowResult(), nil)
	pcm := make([]byte, 8192)
	m, ctx := newTestModel(t, fake, pcm)

	space := tea.KeyMsg{Type: tea.KeySpace}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	// space starts, space stops and produces a clip
	m, _ = pressKey(t, m, space)
	if !m.rec.Active() {
		t.Fatal("space did not start a session")
	}
	m, _ = pressKey(t, m, space)
	if m.rec.Active() {
		t.Fatal("second space did not stop the session")
	}
	if m.wf.clip == nil {
		t.Fatal("stop produced no clip")
	}
	if !ctx.LastCapture().Released() {
		t.Error("capture device not released after stop")
	}

	// enter dispatches the analysis
	m, cmd := pressKey(t, m, enter)
	if cmd == nil {
		t.Fatal("enter dispatched no analysis command")
	}
	if m.wf.state != stateAnalyzing {
		t.Fatalf("state = %d, want Analyzing", m.wf.state)
	}

	done, ok := cmd().(analysisDoneMsg)
	if !ok {
		t.Fatal("analysis command returned the wrong message type")
	}
	next, _ := m.Update(done)
	m = next.(tuiModel)

	if fake.Calls() != 1 {
		t.Errorf("analyzer called %d times, want 1", fake.Calls())
	}
	if m.wf.state != stateSuccess {
		t.Fatalf("state = %d, want Success", m.wf.state)
	}
	if m.report == "" {
		t.Error("success without a rendered report")
	}
	if !strings.Contains(m.View(), "hello") {
		t.Error("view does not show the transcript")
	}
}

func TestTUIAnalyzeWithoutInputShowsError(t *testing.T) {
	fake := analyzer.NewFake(testWorkflowResult(), nil)
	m, _ := newTestModel(t, fake, nil)

	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("analysis dispatched with no input")
	}
	if fake.Calls() != 0 {
		t.Errorf("analyzer called %d times, want 0", fake.Calls())
	}
	if m.wf.state != stateError {
		t.Fatalf("state = %d, want Error", m.wf.state)
	}
	if !strings.Contains(m.View(), msgNoInput) {
		t.Error("view does not show the no-input message")
	}
}

func TestTUIAnalysisFailure(t *testing.T) {
	fake := analyzer.NewFake(nil, errors.New("gemini API error 503: overloaded"))
	m, _ := newTestModel(t, fake, make([]byte, 4096))

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter dispatched no analysis command")
	}

	next, _ := m.Update(cmd())
	m = next.(tuiModel)
	if m.wf.state != stateError {
		t.Fatalf("state = %d, want Error", m.wf.state)
	}
	if !strings.Contains(m.View(), "503") {
		t.Error("view does not show the failure message")
	}
}

func TestTUIMicFailureLeavesWorkflowUntouched(t *testing.T) {
	fake := analyzer.NewFake(testWorkflowResult(), nil)
	m, ctx := newTestModel(t, fake, nil)
	ctx.FailStart(errors.New("permission denied"))

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.rec.Active() {
		t.Fatal("session active after failed start")
	}
	if m.wf.state != stateIdle {
		t.Fatalf("state = %d, want Idle", m.wf.state)
	}
	if m.notice == "" {
		t.Error("mic failure produced no notice")
	}

	// Recovery: the user can retry once the device comes back.
	ctx.FailStart(nil)
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.rec.Active() {
		t.Error("retry after recovery did not start a session")
	}
	m.rec.Teardown()
}

func TestTUIUploadPathEntry(t *testing.T) {
	fake := analyzer.NewFake(testWorkflowResult(), nil)
	m, _ := newTestModel(t, fake, nil)

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.wf.mode != modeUpload {
		t.Fatalf("mode = %v, want upload", m.wf.mode)
	}

	for _, r := range "a.wav" {
		m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if m.pathInput != "a.wav" {
		t.Errorf("pathInput = %q, want a.wav", m.pathInput)
	}
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.pathInput != "a.wa" {
		t.Errorf("pathInput after backspace = %q, want a.wa", m.pathInput)
	}

	// Loading a missing file surfaces a notice, not an Error state.
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.notice == "" {
		t.Error("missing file produced no notice")
	}
	if m.wf.state != stateIdle {
		t.Errorf("state = %d, want Idle", m.wf.state)
	}
}

func TestTUIEscResets(t *testing.T) {
	fake := analyzer.NewFake(testWorkflowResult(), nil)
	m, _ := newTestModel(t, fake, make([]byte, 4096))

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.wf.state != stateIdle || m.wf.clip != nil {
		t.Error("esc did not clear the workflow")
	}
	if m.report != "" || m.pathInput != "" {
		t.Error("esc left residual view state")
	}
}
