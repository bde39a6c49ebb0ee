package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultListenAddr is used when server.listen_addr is not set.
const DefaultListenAddr = ":8090"

// DefaultBackendTimeout bounds backend requests when backend.timeout is unset.
const DefaultBackendTimeout = 10 * time.Second

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and validates
// the result. Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills the fields whose zero value stands for "unset".
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = Duration(DefaultBackendTimeout)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	if cfg.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if cfg.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout %s must be positive", cfg.Backend.Timeout.Std()))
	}

	m := cfg.Matching
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"matching.min_intent_confidence", m.MinIntentConfidence},
		{"matching.min_entity_confidence", m.MinEntityConfidence},
		{"matching.keyword_threshold", m.KeywordThreshold},
		{"matching.word_match_threshold", m.WordMatchThreshold},
		{"matching.phrase_weight", m.PhraseWeight},
		{"matching.containment_weight", m.ContainmentWeight},
		{"matching.keyword_weight", m.KeywordWeight},
		{"matching.phonetic.threshold", m.Phonetic.Threshold},
	} {
		if v.value < 0 || v.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", v.name, v.value))
		}
	}

	// The weights are all-or-nothing: overriding only one of the three
	// coefficients silently reweights the other two to zero.
	weightsSet := 0
	for _, w := range []float64{m.PhraseWeight, m.ContainmentWeight, m.KeywordWeight} {
		if w != 0 {
			weightsSet++
		}
	}
	switch weightsSet {
	case 0, 3:
	default:
		errs = append(errs, errors.New("matching: phrase_weight, containment_weight, and keyword_weight must be set together"))
	}
	if weightsSet == 3 {
		sum := m.PhraseWeight + m.ContainmentWeight + m.KeywordWeight
		if sum < 0.99 || sum > 1.01 {
			slog.Warn("matching weights do not sum to 1; confidence values will be skewed",
				"phrase", m.PhraseWeight,
				"containment", m.ContainmentWeight,
				"keyword", m.KeywordWeight,
			)
		}
	}

	if m.Phonetic.Threshold != 0 && !m.Phonetic.Enabled {
		slog.Warn("matching.phonetic.threshold is set but matching.phonetic.enabled is false; the correction pass stays off")
	}

	if cfg.Audit.PostgresDSN == "" && cfg.Audit.LogFile == "" {
		slog.Warn("no audit store configured; utterances will not be persisted")
	}

	return errors.Join(errs...)
}

// SlogLevel maps l to the corresponding [slog.Level].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
