package document

import (
	"fmt"
	"math"
	"strings"
)

// Save pushes the graphics state.
func (d *Document) Save() *Document {
	d.addContent("q")
	return d
}

// Restore pops the graphics state.
func (d *Document) Restore() *Document {
	d.addContent("Q")
	return d
}

// MoveTo starts a new subpath at (x, y).
func (d *Document) MoveTo(x, y float64) *Document {
	d.addContent(fmt.Sprintf("%s %s m", num(x), num(y)))
	return d
}

// LineTo appends a straight segment to (x, y).
func (d *Document) LineTo(x, y float64) *Document {
	d.addContent(fmt.Sprintf("%s %s l", num(x), num(y)))
	return d
}

// BezierCurveTo appends a cubic segment with control points (c1x, c1y) and
// (c2x, c2y) ending at (x, y).
func (d *Document) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s %s %s c",
		num(c1x), num(c1y), num(c2x), num(c2y), num(x), num(y)))
	return d
}

// QuadraticCurveTo appends a quadratic segment with control point (cx, cy)
// ending at (x, y).
func (d *Document) QuadraticCurveTo(cx, cy, x, y float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s v", num(cx), num(cy), num(x), num(y)))
	return d
}

// ClosePath closes the current subpath.
func (d *Document) ClosePath() *Document {
	d.addContent("h")
	return d
}

// Rect appends a rectangle subpath with top-left corner (x, y).
func (d *Document) Rect(x, y, w, h float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s re", num(x), num(y), num(w), num(h)))
	return d
}

// circleKappa is the control point distance approximating a quarter arc
// with a cubic curve.
const circleKappa = 0.5522847498307936

// Circle appends a circle subpath centered at (x, y).
func (d *Document) Circle(x, y, radius float64) *Document {
	return d.Ellipse(x, y, radius, radius)
}

// Ellipse appends an ellipse subpath centered at (x, y).
func (d *Document) Ellipse(x, y, rx, ry float64) *Document {
	ox := rx * circleKappa
	oy := ry * circleKappa
	d.MoveTo(x-rx, y)
	d.BezierCurveTo(x-rx, y-oy, x-ox, y-ry, x, y-ry)
	d.BezierCurveTo(x+ox, y-ry, x+rx, y-oy, x+rx, y)
	d.BezierCurveTo(x+rx, y+oy, x+ox, y+ry, x, y+ry)
	d.BezierCurveTo(x-ox, y+ry, x-rx, y+oy, x-rx, y)
	return d.ClosePath()
}

// Polygon appends a closed polygon through the given points, supplied as
// x, y pairs.
func (d *Document) Polygon(points ...float64) *Document {
	if len(points) < 4 || len(points)%2 != 0 {
		d.fail(fmt.Errorf("document: polygon needs at least two x,y pairs"))
		return d
	}
	d.MoveTo(points[0], points[1])
	for i := 2; i < len(points); i += 2 {
		d.LineTo(points[i], points[i+1])
	}
	return d.ClosePath()
}

// LineWidth sets the stroke width in points.
func (d *Document) LineWidth(w float64) *Document {
	d.addContent(fmt.Sprintf("%s w", num(w)))
	return d
}

// LineCap sets the stroke cap style: 0 butt, 1 round, 2 square.
func (d *Document) LineCap(style int) *Document {
	d.addContent(fmt.Sprintf("%d J", style))
	return d
}

// LineJoin sets the stroke join style: 0 miter, 1 round, 2 bevel.
func (d *Document) LineJoin(style int) *Document {
	d.addContent(fmt.Sprintf("%d j", style))
	return d
}

// MiterLimit sets the miter limit for joined strokes.
func (d *Document) MiterLimit(limit float64) *Document {
	d.addContent(fmt.Sprintf("%s M", num(limit)))
	return d
}

// Dash sets the stroke dash pattern. phase is the offset into the pattern.
func (d *Document) Dash(phase float64, lengths ...float64) *Document {
	if len(lengths) == 0 {
		return d.Undash()
	}
	parts := make([]string, len(lengths))
	for i, l := range lengths {
		parts[i] = num(l)
	}
	d.addContent(fmt.Sprintf("[%s] %s d", strings.Join(parts, " "), num(phase)))
	return d
}

// Undash restores solid strokes.
func (d *Document) Undash() *Document {
	d.addContent("[] 0 d")
	return d
}

// Fill paints the current path with the nonzero winding rule.
func (d *Document) Fill() *Document {
	d.addContent("f")
	return d
}

// FillEvenOdd paints the current path with the even-odd rule.
func (d *Document) FillEvenOdd() *Document {
	d.addContent("f*")
	return d
}

// Stroke strokes the current path.
func (d *Document) Stroke() *Document {
	d.addContent("S")
	return d
}

// FillAndStroke fills then strokes the current path.
func (d *Document) FillAndStroke() *Document {
	d.addContent("B")
	return d
}

// Clip intersects the clipping region with the current path.
func (d *Document) Clip() *Document {
	d.addContent("W n")
	return d
}

// ClipEvenOdd intersects the clipping region using the even-odd rule.
func (d *Document) ClipEvenOdd() *Document {
	d.addContent("W* n")
	return d
}

// Transform concatenates the matrix [a b c d e f] onto the current
// transformation matrix.
func (d *Document) Transform(a, b, c, dd, e, f float64) *Document {
	d.addContent(fmt.Sprintf("%s %s %s %s %s %s cm",
		num(a), num(b), num(c), num(dd), num(e), num(f)))
	return d
}

// Translate moves the origin to (x, y).
func (d *Document) Translate(x, y float64) *Document {
	return d.Transform(1, 0, 0, 1, x, y)
}

// Scale scales the coordinate system.
func (d *Document) Scale(sx, sy float64) *Document {
	return d.Transform(sx, 0, 0, sy, 0, 0)
}

// Rotate rotates the coordinate system by angle degrees around (x, y).
func (d *Document) Rotate(angle, x, y float64) *Document {
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	e := x - x*cos + y*sin
	f := y - x*sin - y*cos
	return d.Transform(cos, sin, -sin, cos, e, f)
}
