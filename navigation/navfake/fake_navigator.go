package navfake

import (
	"sync"

	"github.com/jrsteele09/go-auth-portal/navigation"
)

var _ navigation.Navigator = (*FakeNavigator)(nil)

// FakeNavigator records every GoTo call
type FakeNavigator struct {
	lock  sync.RWMutex
	paths []string
}

func NewFakeNavigator() *FakeNavigator {
	return &FakeNavigator{}
}

func (n *FakeNavigator) GoTo(path string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns the navigation history in call order
func (n *FakeNavigator) Paths() []string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return append([]string(nil), n.paths...)
}

// Count returns how many times path was navigated to
func (n *FakeNavigator) Count(path string) int {
	n.lock.RLock()
	defer n.lock.RUnlock()

	count := 0
	for _, p := range n.paths {
		if p == path {
			count++
		}
	}
	return count
}
