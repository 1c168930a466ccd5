package models

// Context carries the request-scoped key/value signals for one coordination
// cycle. Values are arbitrary; well-known keys (topic, industry, domain) are
// interpreted by the dispatcher's signal-field rules.
//
// A Context is treated as immutable for the duration of a cycle: enhancement
// always operates on a clone and the caller's map is never written to.
type Context map[string]any

// Keys injected by the context enhancer.
const (
	KeyPatternDigest         = "pattern_digest"
	KeyCrossCapabilityDigest = "cross_capability_digest"
	KeyTemporalBucket        = "temporal_bucket"
)

// Clone returns a shallow copy of the context. A nil context clones to an
// empty, writable map.
func (c Context) Clone() Context {
	out := make(Context, len(c)+3)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String returns the value for key if it is a string, or "" otherwise.
func (c Context) String(key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}

// TemporalBucket summarizes when a request arrived relative to recent
// coordination activity.
type TemporalBucket struct {
	// HourOfDay is the local hour in [0,23].
	HourOfDay int `json:"hour_of_day"`
	// DayOfWeek is the local weekday (time.Weekday numbering, Sunday=0).
	DayOfWeek int `json:"day_of_week"`
	// CountLast7Days is the number of decision points recorded in the
	// trailing 7 days.
	CountLast7Days int `json:"count_last_7_days"`
}
