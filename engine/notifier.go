package engine

// Notifier is a concurrency primitive for informing worker routines about the
// arrival of new work unit(s). Notifications are coalesced: a worker woken up
// by the channel must drain all available work before waiting again.
//
// Notifier is safe to pass by value, all copies share the same channel.
type Notifier struct {
	notifier chan struct{}
}

// NewNotifier instantiates a Notifier. Notifiers essentially behave like
// channels in that they can be passed by value and still allow concurrent
// updates of the same internal state.
func NewNotifier() Notifier {
	// the 1 message buffer is important to avoid the possibility of missing notifications
	return Notifier{make(chan struct{}, 1)}
}

// Notify sends a notification. It never blocks.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns a channel for receiving notifications.
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}
