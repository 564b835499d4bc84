package events

// Subscription is the identity token returned when a callback is
// registered. Removal matches on the token, not on the function value,
// so anonymous callbacks can be unregistered.
type Subscription struct {
	ID        string // Unique subscription ID
	EventName string // Empty for global subscriptions

	registry *Registry
	global   bool
}

// Unsubscribe removes this subscription from its registry. It reports
// whether the owning event record still existed.
func (s *Subscription) Unsubscribe() bool {
	if s == nil || s.registry == nil {
		return false
	}
	if s.global {
		return s.registry.UnobserveAll(s)
	}
	return s.registry.Unobserve(s.EventName, s)
}
