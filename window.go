package norm

import "fmt"

// Window selects the rows [Start, Stop) of a result. Nil bounds are open;
// negative bounds count from the end of the result.
//
// A positive Stop is also sent to the database as LIMIT, so that the server
// never produces rows the window drops.
type Window struct {
	Start *int
	Stop  *int
}

// Bound returns a pointer to n, for building windows inline:
//
//	q.Window(norm.Window{Start: norm.Bound(-3)})
func Bound(n int) *int { return &n }

func (w Window) clone() Window {
	var c Window
	if w.Start != nil {
		c.Start = Bound(*w.Start)
	}
	if w.Stop != nil {
		c.Stop = Bound(*w.Stop)
	}
	return c
}

// String formats the window as a slice expression.
func (w Window) String() string {
	bound := func(p *int) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	}
	return "[" + bound(w.Start) + ":" + bound(w.Stop) + "]"
}

// resolveBound turns a negative bound into an index from the end of a
// result of n rows, clamped at zero.
func resolveBound(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return i
}
