package notifyfake

import (
	"sync"

	"github.com/jrsteele09/go-auth-portal/notify"
)

var _ notify.Notifier = (*FakeNotifier)(nil)

// Notice is one recorded Notify call
type Notice struct {
	Kind    notify.Kind
	Message string
}

type FakeNotifier struct {
	lock    sync.RWMutex
	notices []Notice
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (n *FakeNotifier) Notify(kind notify.Kind, message string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.notices = append(n.notices, Notice{Kind: kind, Message: message})
}

// Notices returns every recorded notice in call order
func (n *FakeNotifier) Notices() []Notice {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return append([]Notice(nil), n.notices...)
}

// Last returns the most recent notice
func (n *FakeNotifier) Last() (Notice, bool) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	if len(n.notices) == 0 {
		return Notice{}, false
	}
	return n.notices[len(n.notices)-1], true
}
