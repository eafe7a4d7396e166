package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/stwalsh4118/prompter/internal/prompter"
)

const (
	eyeMarkerLeft  = "▶"
	eyeMarkerRight = "◀"

	controlsHelp = "space play/pause  +/- speed  [/] size  m mirror  d theme  j/k scroll  q quit"
)

// ANSI sequences
const (
	ansiHome       = "\x1b[H"
	ansiClear      = "\x1b[2J"
	ansiReset      = "\x1b[0m"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
	ansiDark       = "\x1b[97;40m"
	ansiLight      = "\x1b[30;107m"
	ansiEye        = "\x1b[31m"
	ansiHUD        = "\x1b[2m"
)

// Frame returns the screen for snap as plain rows, each exactly as wide as
// the terminal. The first row is the HUD; the eye line sits in the middle
// of the text area; the controls bar covers the last row while visible.
func Frame(s *Surface, snap prompter.Snapshot) []string {
	cols, rows := s.Size()
	if rows == 0 || cols == 0 {
		return nil
	}

	frame := make([]string, 0, rows)
	frame = append(frame, hudLine(snap, cols))

	top, _ := s.padding()
	first := s.FirstRow()
	textCols := min(s.TextCols(), cols)
	side := (cols - textCols) / 2

	for row := 0; row < s.textRows(); row++ {
		text := ""
		if idx := first + row - top; idx >= 0 && idx < len(s.lines) {
			text = s.lines[idx]
		}
		if snap.IsMirrored {
			text = reverse(text)
		}
		body := fit(center(text, textCols), textCols)

		left, right := strings.Repeat(" ", side), strings.Repeat(" ", cols-side-textCols)
		if row == s.EyeRow() && side >= gutterCols {
			left = eyeMarkerLeft + left[1:]
			right = right[:len(right)-1] + eyeMarkerRight
		}
		frame = append(frame, fit(left+body+right, cols))
	}

	if snap.ControlsVisible && len(frame) > 1 {
		frame[len(frame)-1] = fit(center(controlsHelp, cols), cols)
	}
	return frame
}

func hudLine(snap prompter.Snapshot, cols int) string {
	status := "❚❚ PAUSED"
	if snap.State == prompter.StatePlaying {
		status = "▶ PLAYING"
	}
	left := fmt.Sprintf(" %s  SPD %d  SIZE %d", status, snap.ScrollSpeed, snap.FontSize)
	right := fmt.Sprintf("Total %s  Left %s ", snap.Stats.TotalTime, snap.Stats.RemainingTime)

	gap := cols - cellWidth(left) - cellWidth(right)
	if gap < 1 {
		return fit(right, cols)
	}
	return left + strings.Repeat(" ", gap) + right
}

// Renderer draws frames to a terminal, skipping frames identical to the
// last one drawn.
type Renderer struct {
	out       io.Writer
	last      string
	lastCols  int
	lastRows  int
	lastTheme bool
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Draw renders the surface for snap.
func (r *Renderer) Draw(s *Surface, snap prompter.Snapshot) error {
	frame := Frame(s, snap)
	joined := strings.Join(frame, "\n")

	cols, rows := s.Size()
	resized := cols != r.lastCols || rows != r.lastRows
	if !resized && joined == r.last && snap.IsDarkMode == r.lastTheme {
		return nil
	}

	theme := ansiLight
	if snap.IsDarkMode {
		theme = ansiDark
	}

	var b strings.Builder
	if resized {
		b.WriteString(ansiClear)
	}
	b.WriteString(ansiHome)
	for i, line := range frame {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(theme)
		switch {
		case i == 0:
			b.WriteString(ansiHUD + line + ansiReset)
		case i == hudRows+s.EyeRow() && strings.HasPrefix(line, eyeMarkerLeft) && strings.HasSuffix(line, eyeMarkerRight):
			inner := strings.TrimSuffix(strings.TrimPrefix(line, eyeMarkerLeft), eyeMarkerRight)
			b.WriteString(ansiEye + eyeMarkerLeft + ansiReset + theme + inner + ansiEye + eyeMarkerRight + ansiReset)
		default:
			b.WriteString(line + ansiReset)
		}
	}

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}

	r.last = joined
	r.lastCols, r.lastRows = cols, rows
	r.lastTheme = snap.IsDarkMode
	return nil
}

// Enter prepares the terminal for drawing
func (r *Renderer) Enter() error {
	_, err := io.WriteString(r.out, ansiHideCursor+ansiClear+ansiHome)
	return err
}

// Exit restores the cursor and clears the screen
func (r *Renderer) Exit() error {
	_, err := io.WriteString(r.out, ansiReset+ansiClear+ansiHome+ansiShowCursor)
	return err
}

// center pads text on both sides to cols cells
func center(text string, cols int) string {
	w := cellWidth(text)
	if w >= cols {
		return text
	}
	left := (cols - w) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", cols-w-left)
}

// fit pads or truncates s to exactly cols cells
func fit(s string, cols int) string {
	w := cellWidth(s)
	if w == cols {
		return s
	}
	if w < cols {
		return s + strings.Repeat(" ", cols-w)
	}

	var b strings.Builder
	used := 0
	for _, r := range s {
		rw := runeWidth(r)
		if used+rw > cols {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	b.WriteString(strings.Repeat(" ", cols-used))
	return b.String()
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
