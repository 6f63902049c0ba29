package inspector

// Tiers reports which cache tiers one query rebuilt.
type Tiers struct {
	Schema   bool `json:"schema" yaml:"schema"`
	Instance bool `json:"instance" yaml:"instance"`
	Session  bool `json:"session" yaml:"session"`
}

// Stats counts cache activity since the cache was created.
type Stats struct {
	Lookups           int `json:"lookups" yaml:"lookups"`
	Hits              int `json:"hits" yaml:"hits"`
	SchemaBuilds      int `json:"schemaBuilds" yaml:"schemaBuilds"`
	SchemaFailures    int `json:"schemaFailures" yaml:"schemaFailures"`
	InstanceBuilds    int `json:"instanceBuilds" yaml:"instanceBuilds"`
	SessionRecomputes int `json:"sessionRecomputes" yaml:"sessionRecomputes"`
	Evictions         int `json:"evictions" yaml:"evictions"`
}

// HitRate returns the share of lookups that rebuilt nothing, as a percentage.
func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100.0
}
