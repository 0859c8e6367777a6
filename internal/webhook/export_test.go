package webhook

// Limiters reports how many token buckets the notifier holds.
func (n *Notifier) Limiters() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.limiters)
}
