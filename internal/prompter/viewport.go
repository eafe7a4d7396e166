package prompter

import (
	"math"
	"strings"

	"golang.org/x/text/width"
)

const (
	lineHeightEm       = 1.6
	paragraphMarginEm  = 0.5
	narrowRuneEm       = 0.55
	wideRuneEm         = 1.0
	containerPaddingPx = 16.0
	maxPaddingPercent  = 45
)

// Layout is a surface that also lays out script text. Sessions push
// content, typography and size changes through it.
type Layout interface {
	Surface
	SetContent(text string)
	SetTypography(fontSize, paddingX int)
	Resize(width, height float64)
}

// Viewport is a headless model of the prompter's scroll container. Text
// sits between half a viewport of blank space above and below so the first
// and last lines can reach the eye line. Content height and offsets are
// whole pixels, as a browser reports them.
type Viewport struct {
	width    float64
	height   float64
	fontSize int
	paddingX int
	content  string

	contentHeight float64
	scrollTop     float64
}

// NewViewport creates a viewport of the given size in pixels.
func NewViewport(width, height float64, fontSize, paddingX int) *Viewport {
	v := &Viewport{
		width:    math.Max(0, width),
		height:   math.Max(0, height),
		fontSize: fontSize,
		paddingX: paddingX,
	}
	v.relayout()
	return v
}

// ScrollTop returns the current offset.
func (v *Viewport) ScrollTop() float64 {
	return v.scrollTop
}

// SetScrollTop moves the viewport immediately.
func (v *Viewport) SetScrollTop(offset float64) {
	v.scrollTop = v.clamp(offset)
}

// ScrollHeight returns the full height of the scrollable content.
func (v *Viewport) ScrollHeight() float64 {
	return v.contentHeight + v.height
}

// ClientHeight returns the visible height.
func (v *Viewport) ClientHeight() float64 {
	return v.height
}

// Width returns the visible width.
func (v *Viewport) Width() float64 {
	return v.width
}

// ContentHeight returns the height of the laid out text alone.
func (v *Viewport) ContentHeight() float64 {
	return v.contentHeight
}

// SetContent replaces the script text.
func (v *Viewport) SetContent(text string) {
	v.content = text
	v.relayout()
}

// SetTypography changes font size and side padding (percent of width).
func (v *Viewport) SetTypography(fontSize, paddingX int) {
	v.fontSize = fontSize
	v.paddingX = paddingX
	v.relayout()
}

// Resize changes the visible dimensions.
func (v *Viewport) Resize(width, height float64) {
	v.width = math.Max(0, width)
	v.height = math.Max(0, height)
	v.relayout()
}

func (v *Viewport) relayout() {
	v.contentHeight = math.Ceil(measureText(v.content, v.textWidth(), float64(v.fontSize)))
	v.scrollTop = v.clamp(v.scrollTop)
}

func (v *Viewport) textWidth() float64 {
	padding := min(max(v.paddingX, 0), maxPaddingPercent)
	inner := v.width - 2*containerPaddingPx
	return inner * (1 - 2*float64(padding)/100)
}

func (v *Viewport) clamp(offset float64) float64 {
	maxScroll := v.ScrollHeight() - v.ClientHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}
	rounded := math.Round(math.Min(math.Max(offset, 0), maxScroll))
	if rounded > maxScroll {
		return math.Floor(maxScroll)
	}
	return rounded
}

// measureText estimates the rendered height of script text. Each source
// line is a paragraph; blank lines keep one line of height.
func measureText(text string, textWidth, fontSize float64) float64 {
	if text == "" || fontSize <= 0 {
		return 0
	}
	lineHeight := fontSize * lineHeightEm
	margin := fontSize * paragraphMarginEm

	var height float64
	for _, paragraph := range strings.Split(text, "\n") {
		lines := wrappedLineCount(paragraph, textWidth, fontSize)
		height += float64(lines)*lineHeight + margin
	}
	return height
}

func wrappedLineCount(paragraph string, textWidth, fontSize float64) int {
	runWidth := textRunWidth(paragraph) * fontSize
	if runWidth == 0 {
		return 1
	}
	if textWidth < fontSize {
		textWidth = fontSize
	}
	return int(math.Ceil(runWidth / textWidth))
}

// textRunWidth returns the width of a string in em.
func textRunWidth(s string) float64 {
	var em float64
	for _, r := range s {
		em += runeEm(r)
	}
	return em
}

func runeEm(r rune) float64 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return wideRuneEm
	default:
		return narrowRuneEm
	}
}
