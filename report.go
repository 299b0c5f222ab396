package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
)

var (
	reportTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	reportTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	reportQuoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	reportFixStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	reportTipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	reportDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sentimentPositive  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	sentimentNegative  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	sentimentNeutral   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	sentimentMixed     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
)

func sentimentStyle(label analyzer.SentimentLabel) lipgloss.Style {
	switch label {
	case analyzer.SentimentPositive:
		return sentimentPositive
	case analyzer.SentimentNegative:
		return sentimentNegative
	case analyzer.SentimentMixed:
		return sentimentMixed
	default:
		return sentimentNeutral
	}
}

// renderReport formats a finished analysis for the result panel. Width is
// the wrap width for prose sections.
func renderReport(res *analyzer.Result, elapsed time.Duration, width int) string {
	if width < 20 {
		width = 20
	}

	var b strings.Builder

	writeSection := func(title, body string) {
		b.WriteString(reportTitleStyle.Render(title) + "\n")
		for _, line := range wrapText(body, width) {
			b.WriteString(reportTextStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	writeSection("Transcript", res.Transcript)
	writeSection("Summary", res.Summary)

	b.WriteString(reportTitleStyle.Render("Coaching Notes") + "\n")
	if len(res.GrammarAnalysis) == 0 {
		b.WriteString(reportFixStyle.Render("No issues found. Nice work!") + "\n")
	}
	for i, issue := range res.GrammarAnalysis {
		b.WriteString(reportDimStyle.Render(fmt.Sprintf("%d.", i+1)) + " " +
			reportQuoteStyle.Render("\""+issue.Original+"\"") + "\n")
		for _, line := range wrapText(issue.Issue, width-3) {
			b.WriteString("   " + reportTextStyle.Render(line) + "\n")
		}
		for _, line := range wrapText("Try: "+issue.Suggestion, width-3) {
			b.WriteString("   " + reportFixStyle.Render(line) + "\n")
		}
		if issue.Tip != "" {
			for _, line := range wrapText("Tip: "+issue.Tip, width-3) {
				b.WriteString("   " + reportTipStyle.Render(line) + "\n")
			}
		}
	}
	b.WriteString("\n")

	b.WriteString(reportTitleStyle.Render("Sentiment") + "\n")
	b.WriteString(sentimentStyle(res.Sentiment.Label).Render(string(res.Sentiment.Label)) + "\n")
	if res.Sentiment.Explanation != "" {
		for _, line := range wrapText(res.Sentiment.Explanation, width) {
			b.WriteString(reportTextStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(reportDimStyle.Render(fmt.Sprintf("analyzed in %.1fs", elapsed.Seconds())) + "\n")
	for _, line := range res.Metrics {
		b.WriteString(reportDimStyle.Render(line) + "\n")
	}

	return b.String()
}
