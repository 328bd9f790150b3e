package crop

import "math"

// AspectTolerance is the allowed floating-point drift between a region's
// width/height ratio and its configured aspect ratio.
const AspectTolerance = 1e-6

const (
	minSquareSide = 50
	minWideWidth  = 150
)

// Rect is an axis-aligned rectangle in display coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Corner names a resize handle.
type Corner int

const (
	CornerNW Corner = iota
	CornerNE
	CornerSW
	CornerSE
)

type gestureState int

const (
	stateIdle gestureState = iota
	stateDragging
	stateResizing
)

// Region is an aspect-ratio-constrained selection rectangle over a displayed
// image. Gestures follow an explicit state machine: BeginDrag or BeginResize
// opens a gesture, Apply accumulates the pointer delta and recomputes the
// rectangle from the gesture's start state, End closes it. Outside of an
// open gesture the rectangle always satisfies the aspect and bounds
// invariants.
type Region struct {
	rect   Rect
	aspect float64
	boundW float64
	boundH float64

	state  gestureState
	corner Corner
	start  Rect
	accDX  float64
	accDY  float64
}

// NewRegion creates a region over a boundW x boundH display area,
// initialized to the largest centered rectangle of the given aspect ratio
// that fits the bounds.
func NewRegion(boundW, boundH, aspect float64) *Region {
	w := boundW
	if h := w / aspect; h > boundH {
		w = boundH * aspect
	}
	h := w / aspect

	return &Region{
		rect: Rect{
			X: (boundW - w) / 2,
			Y: (boundH - h) / 2,
			W: w,
			H: h,
		},
		aspect: aspect,
		boundW: boundW,
		boundH: boundH,
	}
}

// Rect returns the current rectangle.
func (r *Region) Rect() Rect { return r.rect }

// AspectRatio returns the configured width:height ratio.
func (r *Region) AspectRatio() float64 { return r.aspect }

// Valid reports whether the rectangle satisfies the aspect and bounds
// invariants. It holds whenever no gesture is in progress.
func (r *Region) Valid() bool {
	rc := r.rect
	if rc.X < -AspectTolerance || rc.Y < -AspectTolerance {
		return false
	}
	if rc.X+rc.W > r.boundW+AspectTolerance || rc.Y+rc.H > r.boundH+AspectTolerance {
		return false
	}
	return math.Abs(rc.W/rc.H-r.aspect) <= AspectTolerance
}

// BeginDrag opens a translation gesture anchored at the current rectangle.
func (r *Region) BeginDrag() {
	r.state = stateDragging
	r.start = r.rect
	r.accDX, r.accDY = 0, 0
}

// BeginResize opens a resize gesture on the given corner handle.
func (r *Region) BeginResize(corner Corner) {
	r.state = stateResizing
	r.corner = corner
	r.start = r.rect
	r.accDX, r.accDY = 0, 0
}

// End closes the gesture in progress.
func (r *Region) End() {
	r.state = stateIdle
}

// Apply feeds a pointer movement into the open gesture and returns the
// resulting rectangle. Deltas accumulate, so a sequence of small movements
// is equivalent to one combined movement from the gesture's start. Apply is
// a no-op while idle.
func (r *Region) Apply(dx, dy float64) Rect {
	r.accDX += dx
	r.accDY += dy

	switch r.state {
	case stateDragging:
		r.applyDrag()
	case stateResizing:
		r.applyResize()
	}
	return r.rect
}

func (r *Region) applyDrag() {
	r.rect.X = clamp(r.start.X+r.accDX, 0, r.boundW-r.rect.W)
	r.rect.Y = clamp(r.start.Y+r.accDY, 0, r.boundH-r.rect.H)
}

func (r *Region) applyResize() {
	candW, candH := r.candidateSize()

	var w, h float64
	if math.Abs(r.aspect-1) <= AspectTolerance {
		// Square: the axis with the smaller pointer delta wins.
		side := candW
		if math.Abs(candH-r.start.H) < math.Abs(candW-r.start.W) {
			side = candH
		}
		w, h = side, side
	} else {
		// Width is primary; height only takes over when the derived
		// height cannot fit the display bounds.
		w = candW
		h = w / r.aspect
		if h > r.boundH {
			h = math.Min(candH, r.boundH)
			w = h * r.aspect
		}
	}

	w, h = r.applyFloor(w, h)
	w, h = r.capToBounds(w, h)

	// Keep the opposite corner anchored, then clamp position before size
	// so the aspect ratio is never distorted by the bounds.
	x, y := r.anchorPosition(w, h)
	r.rect = Rect{
		X: clamp(x, 0, r.boundW-w),
		Y: clamp(y, 0, r.boundH-h),
		W: w,
		H: h,
	}
}

// candidateSize applies the accumulated delta to the active corner and
// returns the raw candidate dimensions before aspect correction.
func (r *Region) candidateSize() (float64, float64) {
	switch r.corner {
	case CornerNW:
		return r.start.W - r.accDX, r.start.H - r.accDY
	case CornerNE:
		return r.start.W + r.accDX, r.start.H - r.accDY
	case CornerSW:
		return r.start.W - r.accDX, r.start.H + r.accDY
	default: // CornerSE
		return r.start.W + r.accDX, r.start.H + r.accDY
	}
}

func (r *Region) applyFloor(w, h float64) (float64, float64) {
	if math.Abs(r.aspect-1) <= AspectTolerance {
		if w < minSquareSide {
			w, h = minSquareSide, minSquareSide
		}
		return w, h
	}
	if w < minWideWidth {
		w = minWideWidth
		h = w / r.aspect
	}
	return w, h
}

func (r *Region) capToBounds(w, h float64) (float64, float64) {
	maxW := math.Min(r.boundW, r.boundH*r.aspect)
	if w > maxW {
		w = maxW
		h = w / r.aspect
	}
	return w, h
}

// anchorPosition positions a w x h rectangle so the corner opposite the
// active handle stays where the gesture started.
func (r *Region) anchorPosition(w, h float64) (float64, float64) {
	right := r.start.X + r.start.W
	bottom := r.start.Y + r.start.H

	switch r.corner {
	case CornerNW:
		return right - w, bottom - h
	case CornerNE:
		return r.start.X, bottom - h
	case CornerSW:
		return right - w, r.start.Y
	default: // CornerSE
		return r.start.X, r.start.Y
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
