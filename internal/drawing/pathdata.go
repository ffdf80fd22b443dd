package drawing

import (
	"fmt"
	"strconv"
	"strings"

	"floorplan-georef/pkg/geometry"
)

// parsePathData interprets an SVG path "d" attribute and returns its
// subpaths as flattened vertex lists in raw drawing coordinates.
// Closed subpaths end with a copy of their first vertex.
func parsePathData(d string, tol float64) ([][]geometry.Point2D, error) {
	sc := &pathScanner{s: d}
	b := &pathBuilder{tol: tol}

	var cmd byte
	for {
		sc.skipSeparators()
		if sc.done() {
			break
		}

		c := sc.peek()
		switch {
		case isCommand(c):
			cmd = c
			sc.pos++
		case cmd == 0:
			return nil, fmt.Errorf("%w: expected command at offset %d", ErrPathSyntax, sc.pos)
		case cmd == 'Z' || cmd == 'z':
			return nil, fmt.Errorf("%w: unexpected number after closepath at offset %d", ErrPathSyntax, sc.pos)
		}

		if err := b.apply(cmd, sc); err != nil {
			return nil, err
		}

		// implicit repeats of moveto are lineto
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	b.flush()
	return b.subpaths, nil
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

// pathBuilder accumulates vertices while walking path commands.
type pathBuilder struct {
	tol      float64
	subpaths [][]geometry.Point2D
	cur      []geometry.Point2D
	pos      geometry.Point2D
	start    geometry.Point2D
	// control point of the previous curve, for S and T reflection
	lastCtrl geometry.Point2D
	lastCmd  byte
}

func (b *pathBuilder) apply(cmd byte, sc *pathScanner) error {
	rel := cmd >= 'a' && cmd <= 'z'
	upper := cmd &^ 0x20

	var origin geometry.Point2D
	if rel {
		origin = b.pos
	}
	point := func() (geometry.Point2D, error) {
		x, err := sc.number()
		if err != nil {
			return geometry.Point2D{}, err
		}
		y, err := sc.number()
		if err != nil {
			return geometry.Point2D{}, err
		}
		return origin.Add(geometry.Point2D{X: x, Y: y}), nil
	}

	switch upper {
	case 'M':
		p, err := point()
		if err != nil {
			return err
		}
		b.flush()
		b.pos, b.start = p, p
		b.cur = []geometry.Point2D{p}

	case 'L':
		p, err := point()
		if err != nil {
			return err
		}
		b.lineTo(p)

	case 'H':
		x, err := sc.number()
		if err != nil {
			return err
		}
		if rel {
			x += b.pos.X
		}
		b.lineTo(geometry.Point2D{X: x, Y: b.pos.Y})

	case 'V':
		y, err := sc.number()
		if err != nil {
			return err
		}
		if rel {
			y += b.pos.Y
		}
		b.lineTo(geometry.Point2D{X: b.pos.X, Y: y})

	case 'C':
		c1, err := point()
		if err != nil {
			return err
		}
		c2, err := point()
		if err != nil {
			return err
		}
		p, err := point()
		if err != nil {
			return err
		}
		b.cubicTo(c1, c2, p)

	case 'S':
		c2, err := point()
		if err != nil {
			return err
		}
		p, err := point()
		if err != nil {
			return err
		}
		c1 := b.pos
		if l := b.lastCmd &^ 0x20; l == 'C' || l == 'S' {
			c1 = b.pos.Scale(2).Sub(b.lastCtrl)
		}
		b.cubicTo(c1, c2, p)

	case 'Q':
		q, err := point()
		if err != nil {
			return err
		}
		p, err := point()
		if err != nil {
			return err
		}
		b.quadTo(q, p)

	case 'T':
		p, err := point()
		if err != nil {
			return err
		}
		q := b.pos
		if l := b.lastCmd &^ 0x20; l == 'Q' || l == 'T' {
			q = b.pos.Scale(2).Sub(b.lastCtrl)
		}
		b.quadTo(q, p)

	case 'A':
		rx, err := sc.number()
		if err != nil {
			return err
		}
		ry, err := sc.number()
		if err != nil {
			return err
		}
		phi, err := sc.number()
		if err != nil {
			return err
		}
		large, err := sc.flag()
		if err != nil {
			return err
		}
		sweep, err := sc.flag()
		if err != nil {
			return err
		}
		p, err := point()
		if err != nil {
			return err
		}
		b.begin()
		b.cur = append(b.cur, flattenArc(b.pos, rx, ry, phi, large, sweep, p, b.tol)...)
		b.pos = p

	case 'Z':
		if len(b.cur) > 0 && b.cur[len(b.cur)-1] != b.start {
			b.cur = append(b.cur, b.start)
		}
		b.flush()
		b.pos = b.start
	}

	b.lastCmd = cmd
	return nil
}

// begin starts a subpath at the current point when drawing resumes after a
// closepath without a moveto.
func (b *pathBuilder) begin() {
	if len(b.cur) == 0 {
		b.cur = []geometry.Point2D{b.pos}
		b.start = b.pos
	}
}

func (b *pathBuilder) lineTo(p geometry.Point2D) {
	b.begin()
	b.cur = append(b.cur, p)
	b.pos = p
}

func (b *pathBuilder) cubicTo(c1, c2, p geometry.Point2D) {
	b.begin()
	b.cur = append(b.cur, flattenCubic(b.pos, c1, c2, p, b.tol)...)
	b.lastCtrl = c2
	b.pos = p
}

func (b *pathBuilder) quadTo(q, p geometry.Point2D) {
	b.begin()
	b.cur = append(b.cur, flattenQuad(b.pos, q, p, b.tol)...)
	b.lastCtrl = q
	b.pos = p
}

func (b *pathBuilder) flush() {
	if len(b.cur) > 1 {
		b.subpaths = append(b.subpaths, b.cur)
	}
	b.cur = nil
}

// pathScanner tokenises path data numbers and flags.
type pathScanner struct {
	s   string
	pos int
}

func (sc *pathScanner) done() bool {
	return sc.pos >= len(sc.s)
}

func (sc *pathScanner) peek() byte {
	return sc.s[sc.pos]
}

func (sc *pathScanner) skipSeparators() {
	for !sc.done() {
		switch sc.peek() {
		case ' ', '\t', '\n', '\r', '\f', ',':
			sc.pos++
		default:
			return
		}
	}
}

// number reads one number. The SVG grammar lets numbers run together, so
// "1.5.5" is 1.5 then .5 and "1-2" is 1 then -2.
func (sc *pathScanner) number() (float64, error) {
	sc.skipSeparators()
	start := sc.pos
	if !sc.done() && (sc.peek() == '+' || sc.peek() == '-') {
		sc.pos++
	}
	digits := sc.digits()
	if !sc.done() && sc.peek() == '.' {
		sc.pos++
		digits += sc.digits()
	}
	if digits == 0 {
		sc.pos = start
		return 0, fmt.Errorf("%w: expected number at offset %d", ErrPathSyntax, start)
	}
	if !sc.done() && (sc.peek() == 'e' || sc.peek() == 'E') {
		mark := sc.pos
		sc.pos++
		if !sc.done() && (sc.peek() == '+' || sc.peek() == '-') {
			sc.pos++
		}
		if sc.digits() == 0 {
			sc.pos = mark
		}
	}
	v, err := strconv.ParseFloat(sc.s[start:sc.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPathSyntax, err)
	}
	return v, nil
}

func (sc *pathScanner) digits() int {
	n := 0
	for !sc.done() && sc.peek() >= '0' && sc.peek() <= '9' {
		sc.pos++
		n++
	}
	return n
}

// flag reads a single-character arc flag, which may be unseparated.
func (sc *pathScanner) flag() (bool, error) {
	sc.skipSeparators()
	if sc.done() {
		return false, fmt.Errorf("%w: expected arc flag at end of data", ErrPathSyntax)
	}
	switch sc.peek() {
	case '0':
		sc.pos++
		return false, nil
	case '1':
		sc.pos++
		return true, nil
	}
	return false, fmt.Errorf("%w: expected arc flag at offset %d", ErrPathSyntax, sc.pos)
}
