package dualrole

import (
	"fmt"

	"github.com/rs/zerolog"

	"dualkey/internal/config"
	"dualkey/internal/input"
)

// OptionsFromConfig resolves the configured key names against the keyboard
// mapping of the running display.
func OptionsFromConfig(cfg *config.Config, km *input.KeyboardMap, sink input.KeySink, log zerolog.Logger) (Options, error) {
	modifiers, err := input.ResolveKeysyms(cfg.Modifiers, km)
	if err != nil {
		return Options{}, fmt.Errorf("modifiers: %w", err)
	}

	bindings := make([]Binding, 0, len(cfg.Keys))
	for i, kc := range cfg.Keys {
		name := kc.Name
		if name == "" {
			name = fmt.Sprintf("keys[%d]", i)
		}
		key, err := input.ParseKeySpec(kc.Key, km)
		if err != nil {
			return Options{}, fmt.Errorf("%s: key: %w", name, err)
		}
		sub, err := input.ParseKeySpec(kc.Substitute, km)
		if err != nil {
			return Options{}, fmt.Errorf("%s: substitute: %w", name, err)
		}
		bindings = append(bindings, Binding{Name: name, Key: key, Substitute: sub})
	}

	return Options{
		Bindings:  bindings,
		Modifiers: modifiers,
		Threshold: cfg.Threshold,
		Sink:      sink,
		Logger:    log,
	}, nil
}

// NewFromConfig builds a Detector straight from configuration.
func NewFromConfig(cfg *config.Config, km *input.KeyboardMap, sink input.KeySink, log zerolog.Logger) (*Detector, error) {
	opts, err := OptionsFromConfig(cfg, km, sink, log)
	if err != nil {
		return nil, err
	}
	return New(opts)
}
