package surface

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/emberarc/emberarc/internal/geom"
	"golang.org/x/term"
)

// Terminal presents a Canvas as 256-color half-block cells: each character
// cell shows two vertical pixels using the background for the top one and a
// lower-half-block glyph for the bottom one.
type Terminal struct {
	out     io.Writer
	fd      int
	cols    int
	rows    int
	builder strings.Builder
}

var (
	fgCodes [256]string
	bgCodes [256]string
)

func init() {
	for i := range fgCodes {
		fgCodes[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
		bgCodes[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

func NewTerminal(out io.Writer) *Terminal {
	t := &Terminal{out: out, fd: -1, cols: 80, rows: 24}
	if f, ok := out.(*os.File); ok {
		t.fd = int(f.Fd())
	}
	t.refreshSize()
	return t
}

// CellSize returns the current terminal grid, leaving one row for status.
func (t *Terminal) CellSize() (cols, rows int) {
	t.refreshSize()
	rows = t.rows - 1
	if rows < 1 {
		rows = 1
	}
	return t.cols, rows
}

func (t *Terminal) refreshSize() {
	if t.fd < 0 {
		return
	}
	if w, h, err := term.GetSize(t.fd); err == nil && w > 0 && h > 0 {
		t.cols = w
		t.rows = h
	}
}

// Present downsamples the canvas into the terminal grid. Each cell averages
// its pixel footprint separately for the upper and lower halves.
func (t *Terminal) Present(c *Canvas, status string) error {
	cols, rows := t.CellSize()
	cw, ch := c.Size()
	if cw == 0 || ch == 0 {
		return nil
	}

	b := &t.builder
	b.Reset()
	b.Grow(cols * rows * 16)
	b.WriteString("\x1b[H")

	for row := 0; row < rows; row++ {
		lastFg, lastBg := -1, -1
		for col := 0; col < cols; col++ {
			x := col * cw / cols
			yTop := (row * 2) * ch / (rows * 2)
			yBot := (row*2 + 1) * ch / (rows * 2)
			top := ansi256(c.At(x, yTop))
			bot := ansi256(c.At(x, yBot))
			if top != lastBg {
				b.WriteString(bgCodes[top])
				lastBg = top
			}
			if bot != lastFg {
				b.WriteString(fgCodes[bot])
				lastFg = bot
			}
			b.WriteRune('▄')
		}
		b.WriteString("\x1b[0m\n")
	}
	if status != "" {
		// Truncate by runes; device names in the status line are not
		// guaranteed ASCII.
		if runes := []rune(status); len(runes) > cols {
			status = string(runes[:cols])
		}
		b.WriteString(status)
		b.WriteString("\x1b[K")
	}

	_, err := io.WriteString(t.out, b.String())
	return err
}

// EnterAltScreen and ExitAltScreen bracket a terminal session.
func (t *Terminal) EnterAltScreen() {
	io.WriteString(t.out, "\x1b[?1049h\x1b[2J\x1b[?25l")
}

func (t *Terminal) ExitAltScreen() {
	io.WriteString(t.out, "\x1b[?25h\x1b[?1049l\x1b[0m")
}

// ansi256 maps an RGB color onto the xterm 256-color cube, preferring the
// grayscale ramp for near-gray input.
func ansi256(c geom.RGB) int {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(math.Round(r * 23))
		if gray < 0 {
			gray = 0
		}
		if gray > 23 {
			gray = 23
		}
		return 232 + gray
	}

	ri := int(r*5 + 0.5)
	gi := int(g*5 + 0.5)
	bi := int(b*5 + 0.5)
	return 16 + 36*ri + 6*gi + bi
}
