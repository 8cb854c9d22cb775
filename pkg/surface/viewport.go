package surface

import (
	"fmt"
	"sync"
)

// Size is a viewport size in surface units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) String() string { return fmt.Sprintf("%gx%g", s.Width, s.Height) }

// Viewport holds the current viewport size and fans resize notifications out
// to subscribers. It is safe for concurrent use.
type Viewport struct {
	mu        sync.Mutex
	size      Size
	nextID    int
	listeners map[int]func(Size)
	order     []int
}

// NewViewport returns a viewport of the given size.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		size:      Size{Width: width, Height: height},
		listeners: make(map[int]func(Size)),
	}
}

// Size returns the current size.
func (v *Viewport) Size() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Resize updates the size and notifies subscribers in subscription order.
// Callbacks run on the caller's goroutine, after the lock is released.
// Resizing to the current size is a no-op.
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	next := Size{Width: width, Height: height}
	if next == v.size {
		v.mu.Unlock()
		return
	}
	v.size = next
	fns := make([]func(Size), 0, len(v.order))
	for _, id := range v.order {
		fns = append(fns, v.listeners[id])
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// OnResize registers fn and returns a function that unregisters it.
// Calling the returned function more than once is harmless.
func (v *Viewport) OnResize(fn func(Size)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.order = append(v.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.listeners, id)
			for i, o := range v.order {
				if o == id {
					v.order = append(v.order[:i:i], v.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of registered resize callbacks.
func (v *Viewport) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
