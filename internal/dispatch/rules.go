package dispatch

// Trigger routes a request to a capability tag when either its topic matches
// the request context's topic value or one of its keywords appears in the
// query text.
type Trigger struct {
	// Topic is a context topic value that fires this trigger. Empty means
	// the trigger is keyword-only.
	Topic string `yaml:"topic,omitempty"`
	// Keywords are case-insensitive substrings scanned against the query.
	Keywords []string `yaml:"keywords,omitempty"`
	// Capability is the tag the trigger routes to.
	Capability string `yaml:"capability"`
}

// Rules is the orchestration ruleset: which context fields carry routing
// signals and which triggers map requests to capabilities.
type Rules struct {
	// SignalFields are the context keys whose string values are treated as
	// candidate capability tags and as pattern-grouping fields.
	SignalFields []string `yaml:"signal_fields"`
	// Triggers is the topic/keyword routing table.
	Triggers []Trigger `yaml:"triggers"`
}

// DefaultRules returns the built-in ruleset used when no rules file is
// configured or the configured one cannot be read.
func DefaultRules() Rules {
	return Rules{
		SignalFields: []string{"topic", "industry", "domain"},
		Triggers: []Trigger{
			{Topic: "career_change", Capability: "finance"},
			{Topic: "work_life_balance", Capability: "health"},
			{Keywords: []string{"salary", "budget", "investment"}, Capability: "finance"},
			{Keywords: []string{"stress", "balance", "burnout"}, Capability: "health"},
			{Keywords: []string{"career", "job", "promotion"}, Capability: "career"},
		},
	}
}
