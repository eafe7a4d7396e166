// Package terminal presents a prompter session in a text terminal.
package terminal

import (
	"math"
	"strings"

	"golang.org/x/text/width"
)

const (
	lineHeightEm      = 1.6
	gutterCols        = 2
	minTextCols       = 8
	maxPaddingPercent = 45
	hudRows           = 1
)

// Surface lays script text out in terminal rows and implements
// prompter.Layout. Offsets stay in pixels so the engine's speed means the
// same thing as in a browser: one row is one line of text at the configured
// font size. Lines are padded by half a screen of blank rows so the first
// and last lines can reach the eye line.
type Surface struct {
	cols     int
	rows     int
	fontSize int
	paddingX int
	content  string

	lines     []string
	scrollTop float64
}

// NewSurface creates a surface for a terminal of cols by rows cells.
func NewSurface(cols, rows, fontSize, paddingX int) *Surface {
	s := &Surface{
		cols:     max(cols, 0),
		rows:     max(rows, 0),
		fontSize: fontSize,
		paddingX: paddingX,
	}
	s.relayout()
	return s
}

// ScrollTop returns the current offset in pixels.
func (s *Surface) ScrollTop() float64 {
	return s.scrollTop
}

// SetScrollTop moves the surface immediately.
func (s *Surface) SetScrollTop(offset float64) {
	s.scrollTop = s.clamp(offset)
}

// ScrollHeight returns the height of the padded text in pixels.
func (s *Surface) ScrollHeight() float64 {
	top, bottom := s.padding()
	return float64(top+len(s.lines)+bottom) * s.RowHeight()
}

// ClientHeight returns the height of the text area in pixels.
func (s *Surface) ClientHeight() float64 {
	return float64(s.textRows()) * s.RowHeight()
}

// SetContent replaces the script text.
func (s *Surface) SetContent(text string) {
	s.content = text
	s.relayout()
}

// SetTypography changes the row height and the side padding (percent of width).
func (s *Surface) SetTypography(fontSize, paddingX int) {
	s.fontSize = fontSize
	s.paddingX = paddingX
	s.relayout()
}

// Resize takes the terminal size in cells.
func (s *Surface) Resize(cols, rows float64) {
	s.cols = max(int(cols), 0)
	s.rows = max(int(rows), 0)
	s.relayout()
}

// Size returns the terminal size in cells.
func (s *Surface) Size() (cols, rows int) {
	return s.cols, s.rows
}

// RowHeight returns the pixel height of one row.
func (s *Surface) RowHeight() float64 {
	return math.Max(1, float64(s.fontSize)*lineHeightEm)
}

// Lines returns the wrapped script lines.
func (s *Surface) Lines() []string {
	return s.lines
}

// FirstRow returns the index into the padded line list shown at the top of
// the text area.
func (s *Surface) FirstRow() int {
	return int(s.scrollTop / s.RowHeight())
}

// EyeRow returns the text-area row of the eye line.
func (s *Surface) EyeRow() int {
	top, _ := s.padding()
	return top
}

// TextCols returns the width available to script text.
func (s *Surface) TextCols() int {
	padding := min(max(s.paddingX, 0), maxPaddingPercent)
	side := gutterCols + s.cols*padding/100
	return max(s.cols-2*side, minTextCols)
}

// textRows is the height of the text area; the top row holds the HUD.
func (s *Surface) textRows() int {
	return max(s.rows-hudRows, 0)
}

// padding returns the blank rows above and below the text. The bottom
// padding is one row shorter so the last line stops on the eye line.
func (s *Surface) padding() (top, bottom int) {
	rows := s.textRows()
	top = rows / 2
	bottom = max(rows-top-1, 0)
	return top, bottom
}

func (s *Surface) relayout() {
	s.lines = wrapText(s.content, s.TextCols())
	s.scrollTop = s.clamp(s.scrollTop)
}

func (s *Surface) clamp(offset float64) float64 {
	maxScroll := math.Max(0, s.ScrollHeight()-s.ClientHeight())
	rounded := math.Round(math.Min(math.Max(offset, 0), maxScroll))
	if rounded > maxScroll {
		return math.Floor(maxScroll)
	}
	return rounded
}

// wrapText splits text into paragraphs on newlines and word-wraps each to
// cols cells. A blank paragraph keeps one empty line.
func wrapText(text string, cols int) []string {
	if text == "" {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, cols)...)
	}
	return lines
}

func wrapParagraph(paragraph string, cols int) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		line  strings.Builder
		used  int
	)
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		used = 0
	}

	for _, word := range words {
		for _, piece := range splitWord(word, cols) {
			w := cellWidth(piece)
			if used > 0 && used+1+w > cols {
				flush()
			}
			if used > 0 {
				line.WriteByte(' ')
				used++
			}
			line.WriteString(piece)
			used += w
		}
	}
	flush()
	return lines
}

// splitWord breaks a word wider than cols into pieces that fit.
func splitWord(word string, cols int) []string {
	if cellWidth(word) <= cols {
		return []string{word}
	}

	var (
		pieces []string
		piece  strings.Builder
		used   int
	)
	for _, r := range word {
		w := runeWidth(r)
		if used+w > cols && used > 0 {
			pieces = append(pieces, piece.String())
			piece.Reset()
			used = 0
		}
		piece.WriteRune(r)
		used += w
	}
	if piece.Len() > 0 {
		pieces = append(pieces, piece.String())
	}
	return pieces
}

// cellWidth returns the number of terminal cells s occupies.
func cellWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
