package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// 终端配色。NO_COLOR / dumb 终端时退回纯文本。
// Terminal color scheme. Falls back to plain text under NO_COLOR or a dumb
// terminal.
type theme struct {
	label    lipgloss.Style
	errLabel lipgloss.Style
	muted    lipgloss.Style
	diffAdd  lipgloss.Style
	diffDel  lipgloss.Style
	diffHunk lipgloss.Style
}

func newTheme() theme {
	return theme{
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		errLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		diffAdd:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		diffDel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		diffHunk: lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
	}
}

type renderer struct {
	theme theme
	width int
	plain bool
}

func newRenderer() *renderer {
	plain := strings.TrimSpace(os.Getenv("NO_COLOR")) != "" ||
		strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))) == "dumb"
	return &renderer{theme: newTheme(), width: 100, plain: plain}
}

// Assistant 渲染模型回复：ACTION 行之上的评述走 markdown。
// Assistant renders a model reply: commentary above the ACTION line goes
// through markdown.
func (r *renderer) Assistant(text string) {
	fmt.Println("[AGENT OUTPUT BEGIN]")
	if r.plain {
		fmt.Println(text)
	} else {
		fmt.Println(renderMarkdown(text, r.width))
	}
	fmt.Println("[AGENT OUTPUT END]")
}

// Result renders one tool result with its transcript label.
func (r *renderer) Result(label, message string) {
	styled := label
	if !r.plain {
		if strings.HasSuffix(label, "_ERROR") {
			styled = r.theme.errLabel.Render(label)
		} else {
			styled = r.theme.label.Render(label)
		}
	}
	fmt.Println("[AGENT TOOL RESULT BEGIN]")
	fmt.Println(styled)
	if !r.plain && strings.Contains(message, "```diff") {
		fmt.Println(r.colorizeDiff(message))
	} else {
		fmt.Println(message)
	}
	fmt.Println("[AGENT TOOL RESULT END]")
}

func (r *renderer) colorizeDiff(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "+++"), strings.HasPrefix(trimmed, "---"),
			strings.HasPrefix(trimmed, "diff --"), strings.HasPrefix(trimmed, "index "):
			lines[i] = r.theme.muted.Render(line)
		case strings.HasPrefix(trimmed, "@@"):
			lines[i] = r.theme.diffHunk.Render(line)
		case strings.HasPrefix(trimmed, "+"):
			lines[i] = r.theme.diffAdd.Render(line)
		case strings.HasPrefix(trimmed, "-"):
			lines[i] = r.theme.diffDel.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// renderMarkdown 使用 Glamour 渲染 markdown 文本
// renderMarkdown renders markdown text using Glamour
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	mdRenderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := mdRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
