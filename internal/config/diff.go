package config

// ConfigDiff describes what changed between two configs. The matching and
// log-level sections can be applied to a running server; everything else
// needs a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatchingChanged is true if any threshold, weight, or the phonetic
	// block differs. New sessions pick the new values up; established
	// WebSocket sessions keep the matchers they were built with.
	MatchingChanged bool

	// RestartRequired is true if the server or backend sections changed.
	RestartRequired bool
}

// Changed reports whether the diff carries any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.MatchingChanged || d.RestartRequired
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Matching != new.Matching {
		d.MatchingChanged = true
	}

	if old.Backend != new.Backend {
		d.RestartRequired = true
	}
	if old.Server.ListenAddr != new.Server.ListenAddr || !tlsEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = true
	}
	if old.Audit != new.Audit {
		d.RestartRequired = true
	}

	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
