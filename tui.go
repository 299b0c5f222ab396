package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/log"
)

// TUI message types
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type analysisDoneMsg struct {
	seq    uint64
	result *analyzer.Result
	err    error
}
type tickMsg time.Time

const noticeTTL = 4 * time.Second

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// tuiSend delivers a message to the running program. Safe to call from the
// recorder's capture callbacks and before the program starts.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

type tuiModel struct {
	wf  *workflow
	rec *audio.Recorder
	an  analyzer.Analyzer

	frame             int
	width, height     int
	recordingDuration float64
	audioLevel        float64
	peakLevel         float64
	modeLine          string
	deviceLine        string
	rateLimit         string
	report            string
	pathInput         string
	notice            string
	noticeAt          time.Time
}

func NewTUIProgram(wf *workflow, rec *audio.Recorder, an analyzer.Analyzer, deviceLine, formatLabel string) *tea.Program {
	m := tuiModel{
		wf:         wf,
		rec:        rec,
		an:         an,
		deviceLine: deviceLine,
		modeLine:   fmt.Sprintf("[%s | %s]", formatLabel, an.Name()),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) setNotice(text string) tuiModel {
	m.notice = text
	m.noticeAt = time.Now()
	return m
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		if m.notice != "" && time.Since(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, tuiTick()

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case AudioLevelMsg:
		m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		if msg.Level > m.peakLevel {
			m.peakLevel = msg.Level
		}

	case analysisDoneMsg:
		if !m.wf.finish(msg.seq, msg.result, msg.err, time.Now()) {
			break
		}
		if m.wf.state == stateSuccess {
			m.report = renderReport(m.wf.result, m.wf.elapsed, m.reportWidth())
			if rl := m.wf.result.RateLimit; rl != "" && rl != "?/?" {
				m.rateLimit = "requests: " + rl + " remaining"
			}
		} else {
			m.report = ""
		}
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch key {
	case "tab":
		if m.rec.Active() {
			m.rec.Teardown()
			m.recordingDuration = 0
			m.audioLevel = 0
		}
		if m.wf.switchMode() {
			m.report = ""
			m.pathInput = ""
		}
		return m, nil

	case "esc":
		if m.rec.Active() {
			m.rec.Teardown()
			m.recordingDuration = 0
			m.audioLevel = 0
		}
		m.wf.reset()
		m.report = ""
		m.pathInput = ""
		m.notice = ""
		return m, nil
	}

	if m.wf.mode == modeRecord {
		switch key {
		case " ":
			return m.toggleRecording()
		case "enter":
			return m.startAnalysis()
		}
		return m, nil
	}

	// Upload mode: the path field owns the keyboard.
	switch key {
	case "enter":
		if m.pathInput == "" {
			return m.startAnalysis()
		}
		clip, err := audio.LoadClip(m.pathInput)
		if err != nil {
			return m.setNotice(err.Error()), nil
		}
		if m.wf.setClip(clip) {
			m.report = ""
			m.pathInput = ""
		}
	case "backspace":
		if len(m.pathInput) > 0 {
			m.pathInput = m.pathInput[:len(m.pathInput)-1]
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.pathInput += string(msg.Runes)
		case tea.KeySpace:
			m.pathInput += " "
		}
	}
	return m, nil
}

func (m tuiModel) toggleRecording() (tea.Model, tea.Cmd) {
	if m.wf.state == stateAnalyzing {
		return m, nil
	}
	if m.rec.Active() {
		clip, err := m.rec.Stop()
		m.recordingDuration = 0
		m.audioLevel = 0
		m.peakLevel = 0
		if err != nil {
			log.Errorf("recording stop error: %v", err)
			return m.setNotice(err.Error()), nil
		}
		if m.wf.setClip(clip) {
			m.report = ""
		}
		return m, nil
	}
	if err := m.rec.Start(); err != nil {
		// Permission and device failures leave the workflow untouched;
		// the user can retry or switch to upload mode.
		log.Errorf("recording start error: %v", err)
		return m.setNotice(err.Error()), nil
	}
	log.Info("recording device: " + m.rec.DeviceName())
	m.peakLevel = 0
	return m, nil
}

func (m tuiModel) startAnalysis() (tea.Model, tea.Cmd) {
	seq, ok := m.wf.begin(time.Now())
	if !ok {
		m.report = ""
		return m, nil
	}
	m.report = ""

	clip := m.wf.clip
	an := m.an
	id := uuid.NewString()
	log.AnalysisStart(id, an.Name(), clip.Name)
	analysisCount.Add(1)

	return m, func() tea.Msg {
		start := time.Now()
		res, err := an.Analyze(context.Background(), clip)
		if err != nil {
			log.Errorf("analysis error: %v", err)
			return analysisDoneMsg{seq: seq, err: err}
		}
		log.Transcript(id, res.Transcript)
		metrics := log.Metrics{
			AudioSizeKB: float64(len(clip.Data)) / 1024.0,
			AnalysisMs:  float64(time.Since(start).Milliseconds()),
		}
		connReused := false
		tlsProto := ""
		if res.Net != nil {
			metrics.PayloadKB = res.Net.PayloadKB
			metrics.DNSTimeMs = res.Net.DNSMs
			metrics.TLSTimeMs = res.Net.TLSMs
			metrics.TTFBMs = res.Net.TTFBMs
			metrics.TotalTimeMs = res.Net.TotalMs
			connReused = res.Net.ConnReused
			tlsProto = res.Net.TLSProtocol
		}
		log.AnalysisMetrics(id, an.Name(), metrics, connReused, tlsProto)
		return analysisDoneMsg{seq: seq, result: res}
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const statusWidth = 36

func (m tuiModel) reportWidth() int {
	w := m.width - statusWidth - 3
	if w < 20 {
		w = 20
	}
	return w
}

func levelBar(level float64, width int) string {
	if level > 1 {
		level = 1
	}
	filled := int(level * float64(width) * 4)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	grayStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var lines []string

	// Status line
	switch {
	case m.rec.Active():
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration)))
		lines = append(lines, grayStyle.Render(levelBar(m.audioLevel, 24)))
		if m.recordingDuration > 1.0 && m.peakLevel < 0.02 {
			lines = append(lines, warnStyle.Render("  ⚠ no voice detected"))
		}
	case m.wf.state == stateAnalyzing:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).Bold(true).
			Render(frame+" ANALYZING"))
	default:
		lines = append(lines, dimStyle.Render("○ STANDBY"))
	}
	lines = append(lines, "")

	lines = append(lines, grayStyle.Render(m.modeLine))
	lines = append(lines, dimStyle.Render("mode: "+m.wf.mode.String()+" (tab)"))
	if m.wf.mode == modeRecord && m.deviceLine != "" {
		lines = append(lines, dimStyle.Render(m.deviceLine))
	}
	if m.rateLimit != "" {
		lines = append(lines, dimStyle.Render(m.rateLimit))
	}
	lines = append(lines, "")

	// Pending input
	if m.wf.mode == modeUpload {
		lines = append(lines, grayStyle.Render("path: "+m.pathInput+"▏"))
	}
	if clip := m.wf.clip; clip != nil {
		lines = append(lines, grayStyle.Render(fmt.Sprintf("loaded: %s (%.1f KB)", clip.Name, float64(len(clip.Data))/1024.0)))
	}
	if m.notice != "" {
		lines = append(lines, warnStyle.Render(wrapText(m.notice, statusWidth-2)[0]))
	}
	lines = append(lines, "")

	// Help
	if m.wf.mode == modeRecord {
		lines = append(lines, boldHelp.Render("space")+helpStyle.Render(" record/stop"))
	} else {
		lines = append(lines, boldHelp.Render("type path, enter")+helpStyle.Render(" to load"))
	}
	lines = append(lines,
		boldHelp.Render("enter")+helpStyle.Render(" analyze"),
		boldHelp.Render("esc")+helpStyle.Render(" reset"),
		boldHelp.Render("ctrl+c")+helpStyle.Render(" quit"),
		"",
		helpStyle.Render("speech-app "+version))

	// Right panel: outcome of the last analysis.
	var content string
	switch m.wf.state {
	case stateSuccess:
		content = m.report
	case stateError:
		var b strings.Builder
		b.WriteString(errStyle.Bold(true).Render("Error") + "\n")
		for _, line := range wrapText(m.wf.errMsg, m.reportWidth()) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
		content = b.String()
	case stateAnalyzing:
		content = dimStyle.Render("Waiting for the model...")
	default:
		content = dimStyle.Render("No analysis yet")
	}

	statusPanel := lipgloss.NewStyle().
		Width(statusWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))

	reportPanel := lipgloss.NewStyle().
		Width(m.width - statusWidth - 1).
		Height(m.height).
		PaddingLeft(1).
		Render(content)

	return lipgloss.JoinHorizontal(lipgloss.Top, statusPanel, reportPanel)
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
