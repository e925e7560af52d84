package engine

import "sync"

// Notifier is the engine's one-way notification channel to observing
// presentation layers. Publishing is fire-and-forget: the engine
// neither knows nor cares whether anything listens, and a slow observer
// loses intermediate updates rather than blocking the loop.
type Notifier struct {
	mu   sync.Mutex
	subs []chan []string
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe attaches an observer. The returned channel receives each
// published payload; if the observer falls behind, newer payloads
// replace delivery rather than queue (buffer of one, non-blocking send).
func (n *Notifier) Subscribe() <-chan []string {
	ch := make(chan []string, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, ch)
	return ch
}

// Publish fans a payload out to every observer without blocking.
// Delivery order across observers is unspecified.
func (n *Notifier) Publish(lines []string) {
	n.mu.Lock()
	subs := make([]chan []string, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- lines:
		default:
			// observer still holds the previous payload; drop the
			// stale one and deliver the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lines:
			default:
			}
		}
	}
}
