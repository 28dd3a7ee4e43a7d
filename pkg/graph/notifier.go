package graph

// Notifier surfaces short user-facing messages (the toast of the AR app)
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}
