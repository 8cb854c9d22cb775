package surface

import "github.com/matzehuels/portalmap/pkg/geom"

// Surface is a measurable layout. All rectangles are in viewport
// coordinates.
type Surface interface {
	// Container returns the diagram container's rectangle. The boolean is
	// false when the container is not attached, in which case nothing can
	// be measured.
	Container() (geom.Rect, bool)

	// TaggedIDs returns the ids of all tagged node boxes currently laid out.
	TaggedIDs() []string

	// Measure returns the rectangle of a tagged box.
	Measure(id string) (geom.Rect, bool)
}
