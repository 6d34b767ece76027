package cache

import "github.com/IvanBrykalov/arccache/policy"

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                     {}
func (NoopMetrics) Miss()                    {}
func (NoopMetrics) Evict(policy.EvictReason) {}

var _ Metrics = NoopMetrics{}
