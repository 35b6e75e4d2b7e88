package scheduler

// ReadinessToken carries the index of a Batch whose worker has finished,
// successfully or not.
type ReadinessToken struct {
	BatchIndex int
}

// Notifier is a bounded mutex+condvar equivalent: a buffered channel plays
// that role natively in Go, so no separate lock is needed. The scheduler
// awaits exactly one token per Batch it dispatched.
type Notifier struct {
	tokens chan ReadinessToken
}

// NewNotifier returns a Notifier with room for `capacity` outstanding
// tokens, i.e. at most that many in-flight Batches.
func NewNotifier(capacity int) *Notifier {
	return &Notifier{tokens: make(chan ReadinessToken, capacity)}
}

// Notify emits one ReadinessToken. Called by a worker task when its Batch
// attempt completes, regardless of outcome.
func (n *Notifier) Notify(t ReadinessToken) {
	n.tokens <- t
}

// Await blocks until one ReadinessToken is available.
func (n *Notifier) Await() ReadinessToken {
	return <-n.tokens
}
