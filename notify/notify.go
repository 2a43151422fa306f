package notify

// Kind is the flavour of a user-facing notice
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier shows a transient notice to the user. Purely cosmetic: callers never branch on it.
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) { f(kind, message) }

// Nop discards every notice
var Nop Notifier = NotifierFunc(func(Kind, string) {})
