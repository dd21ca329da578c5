// Package status implements the fan-out status tree used throughout the
// server: a top-level caller calls Wait() and blocks until every
// component that was handed a forked consumer has called Join(),
// concatenating whatever each component chose to Emit along the way.
// Roles implement `Status(sc *status.StatusConsumer)` and recurse into
// their children with sc.Fork(), exactly as goshawkdb's ProposerManager
// and Acceptor do.
package status

import (
	"strings"
	"sync"
)

// StatusConsumer collects Emit'd lines from one component and however
// many children it Fork()s off. Join() blocks until every forked child
// has also Join'd, then folds the children's text (indented one level)
// into this node's own lines.
type StatusConsumer struct {
	mu       sync.Mutex
	lines    []string
	children sync.WaitGroup
	parent   *StatusConsumer
	done     chan struct{} // non-nil only on the root
}

// NewStatusConsumer creates a root consumer. Call Wait() on it after
// handing Fork()s out to however many status emitters exist.
func NewStatusConsumer() *StatusConsumer {
	return &StatusConsumer{done: make(chan struct{})}
}

// Emit appends one line of status text owned by this consumer.
func (sc *StatusConsumer) Emit(line string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.lines = append(sc.lines, line)
}

// Fork returns a child consumer. This node will not finish folding its
// text together until the returned child has Join'd.
func (sc *StatusConsumer) Fork() *StatusConsumer {
	sc.children.Add(1)
	return &StatusConsumer{parent: sc}
}

// Join waits for every child this consumer forked to also Join, folds
// their emitted text into this node (indented one level), and then
// signals this node's own parent (or, for the root, unblocks Wait).
func (sc *StatusConsumer) Join() {
	sc.children.Wait()

	if sc.parent != nil {
		sc.mu.Lock()
		text := strings.Join(sc.lines, "\n")
		sc.mu.Unlock()

		sc.parent.mu.Lock()
		for _, line := range strings.Split(text, "\n") {
			if line != "" {
				sc.parent.lines = append(sc.parent.lines, "  "+line)
			}
		}
		sc.parent.mu.Unlock()
		sc.parent.children.Done()
		return
	}

	close(sc.done)
}

// Wait blocks until the root consumer and every forked descendant has
// Join'd, then returns the concatenated, newline-joined status text.
func (sc *StatusConsumer) Wait() string {
	<-sc.done
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return strings.Join(sc.lines, "\n")
}
