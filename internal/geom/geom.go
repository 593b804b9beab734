// Package geom provides the rectangle math shared by the layout stages.
// All coordinates are page points with the origin at the top-left corner,
// y increasing downward.
package geom

// Rect is an axis-aligned rectangle (x0,y0 top-left, x1,y1 bottom-right).
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// CenterX returns the horizontal centroid.
func (r Rect) CenterX() float64 { return (r.X0 + r.X1) / 2 }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Intersects reports whether r and other share any area.
func (r Rect) Intersects(other Rect) bool {
	return r.X0 < other.X1 && other.X0 < r.X1 && r.Y0 < other.Y1 && other.Y0 < r.Y1
}

// Contains reports whether other lies fully inside r.
func (r Rect) Contains(other Rect) bool {
	return other.X0 >= r.X0 && other.Y0 >= r.Y0 && other.X1 <= r.X1 && other.Y1 <= r.Y1
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		X0: min(r.X0, other.X0),
		Y0: min(r.Y0, other.Y0),
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
	}
}

// Pad grows the rectangle by m points on every side, clamped to bounds.
func (r Rect) Pad(m float64, bounds Rect) Rect {
	out := Rect{r.X0 - m, r.Y0 - m, r.X1 + m, r.Y1 + m}
	out.X0 = max(out.X0, bounds.X0)
	out.Y0 = max(out.Y0, bounds.Y0)
	out.X1 = min(out.X1, bounds.X1)
	out.Y1 = min(out.Y1, bounds.Y1)
	return out
}
