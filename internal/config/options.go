package config

import (
	"github.com/deshkavote/voicebridge/internal/entity"
	"github.com/deshkavote/voicebridge/internal/intent"
	"github.com/deshkavote/voicebridge/internal/phonetic"
)

// IntentOptions maps the non-zero matching overrides to classifier options.
func (m MatchingConfig) IntentOptions() []intent.Option {
	var opts []intent.Option
	if m.MinIntentConfidence != 0 {
		opts = append(opts, intent.WithMinConfidence(m.MinIntentConfidence))
	}
	if m.KeywordThreshold != 0 {
		opts = append(opts, intent.WithKeywordThreshold(m.KeywordThreshold))
	}
	if m.PhraseWeight != 0 || m.ContainmentWeight != 0 || m.KeywordWeight != 0 {
		opts = append(opts, intent.WithWeights(m.PhraseWeight, m.ContainmentWeight, m.KeywordWeight))
	}
	return opts
}

// EntityOptions maps the non-zero matching overrides to resolver options.
func (m MatchingConfig) EntityOptions() []entity.Option {
	var opts []entity.Option
	if m.MinEntityConfidence != 0 {
		opts = append(opts, entity.WithMinConfidence(m.MinEntityConfidence))
	}
	if m.WordMatchThreshold != 0 {
		opts = append(opts, entity.WithWordMatchThreshold(m.WordMatchThreshold))
	}
	return opts
}

// PhoneticOptions maps the phonetic overrides to matcher options.
// The caller is expected to check [PhoneticConfig.Enabled] first.
func (m MatchingConfig) PhoneticOptions() []phonetic.Option {
	var opts []phonetic.Option
	if m.Phonetic.Threshold != 0 {
		opts = append(opts, phonetic.WithPhoneticThreshold(m.Phonetic.Threshold))
	}
	return opts
}
