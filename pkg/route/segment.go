package route

import (
	"fmt"
	"strings"

	"github.com/matzehuels/portalmap/pkg/geom"
)

// Role tells what part of a connector a segment draws.
type Role string

const (
	RoleDrop       Role = "drop"       // source down to a bus
	RoleBus        Role = "bus"        // horizontal trunk
	RoleTerminal   Role = "terminal"   // bus down into a destination
	RoleLateral    Role = "lateral"    // same-row association
	RoleDirect     Role = "direct"     // straight source-to-destination line
	RoleOrthogonal Role = "orthogonal" // fallback path
)

// Kind is the geometric shape of a segment.
type Kind string

const (
	KindLine Kind = "line" // exactly two points
	KindPath Kind = "path" // three or more points, axis-aligned runs
)

// Segment is one drawable piece of connector.
type Segment struct {
	// Edges lists the keys ("from->to") of the edges this segment serves.
	// Bus pieces are shared by every edge of their group.
	Edges   []string     `json:"edges"`
	Role    Role         `json:"role"`
	Kind    Kind         `json:"kind"`
	Points  []geom.Point `json:"points"`
	Color   string       `json:"color"`
	Width   float64      `json:"width"`
	Opacity float64      `json:"opacity"`
	Arrow   bool         `json:"arrow"`
}

// Start returns the first point.
func (s Segment) Start() geom.Point { return s.Points[0] }

// End returns the last point; the arrowhead, if any, sits here.
func (s Segment) End() geom.Point { return s.Points[len(s.Points)-1] }

// Horizontal reports whether the segment is a single horizontal run.
func (s Segment) Horizontal() bool {
	return len(s.Points) == 2 && s.Points[0].Y == s.Points[1].Y
}

// Vertical reports whether the segment is a single vertical run.
func (s Segment) Vertical() bool {
	return len(s.Points) == 2 && s.Points[0].X == s.Points[1].X
}

// PathData returns the SVG path data ("M x y L x y ...").
func (s Segment) PathData() string {
	var b strings.Builder
	for i, p := range s.Points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		fmt.Fprintf(&b, " %s %s", num(p.X), num(p.Y))
	}
	return b.String()
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// SegmentsFor returns the segments that serve the edge with the given key.
func SegmentsFor(segs []Segment, key string) []Segment {
	var out []Segment
	for _, s := range segs {
		for _, k := range s.Edges {
			if k == key {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
