package navigation

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Navigator moves the application to another route. Fire-and-forget.
type Navigator interface {
	GoTo(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) GoTo(path string) { f(path) }

var _ Navigator = (*Router)(nil)

// Router tracks the current route and publishes every change on Changes. Navigating to the
// route that is already current still publishes, so a view can be remounted.
type Router struct {
	mu      sync.RWMutex
	current string
	changes chan string
}

// NewRouter starts at initial. buffer sizes the change channel; GoTo never blocks and drops
// the oldest pending change when the buffer is full.
func NewRouter(initial string, buffer int) *Router {
	if buffer < 1 {
		buffer = 1
	}
	return &Router{
		current: initial,
		changes: make(chan string, buffer),
	}
}

func (r *Router) GoTo(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.Debug().Str("from", r.current).Str("to", path).Msg("navigate")
	r.current = path
	for {
		select {
		case r.changes <- path:
			return
		default:
		}
		select {
		case <-r.changes:
		default:
		}
	}
}

// Current returns the route last navigated to
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Changes delivers routes in the order GoTo was called
func (r *Router) Changes() <-chan string {
	return r.changes
}
