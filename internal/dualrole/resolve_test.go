package dualrole

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dualkey/internal/config"
	"dualkey/internal/input"
	mock_input "dualkey/internal/input/mocks"
)

func evdevKeyboardMap() *input.KeyboardMap {
	const perCode = 2
	syms := make([]input.Keysym, perCode*(256-8))
	set := func(code int, sym input.Keysym) { syms[(code-8)*perCode] = sym }
	set(9, 0xff1b)   // Escape
	set(37, 0xffe3)  // Control_L
	set(38, 'a')     // a
	set(48, '\'')    // apostrophe
	set(66, 0xffe5)  // Caps_Lock
	set(105, 0xffe4) // Control_R
	return input.NewKeyboardMap(8, perCode, syms)
}

func TestOptionsFromDefaultConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_input.NewMockKeySink(ctrl)

	opts, err := OptionsFromConfig(config.DefaultConfig(), evdevKeyboardMap(), sink, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []Binding{
		{Name: "quote", Key: 48, Substitute: 255},
		{Name: "caps", Key: 66, Substitute: 254},
	}, opts.Bindings)
	assert.Equal(t, []input.Keycode{37, 105}, opts.Modifiers)
	assert.Equal(t, config.DefaultThreshold, opts.Threshold)
	assert.Equal(t, DefaultThreshold, config.DefaultThreshold)
}

func TestOptionsFromKeysymNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := config.DefaultConfig()
	cfg.Keys = []config.KeyConfig{{Key: "Caps_Lock", Substitute: "Escape"}}
	cfg.Modifiers = []string{"Control_R"}

	d, err := NewFromConfig(cfg, evdevKeyboardMap(), mock_input.NewMockKeySink(ctrl), zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, d.order, 1)
	assert.Equal(t, Binding{Name: "keys[0]", Key: 66, Substitute: 9}, d.order[0].Binding)
	assert.True(t, d.modifiers[105])
	assert.False(t, d.modifiers[37])
}

func TestOptionsFromConfigErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_input.NewMockKeySink(ctrl)
	km := evdevKeyboardMap()

	cfg := config.DefaultConfig()
	cfg.Modifiers = []string{"Hyper_L"}
	_, err := OptionsFromConfig(cfg, km, sink, zerolog.Nop())
	assert.ErrorContains(t, err, "modifiers")

	cfg = config.DefaultConfig()
	cfg.Keys[1].Key = "Super_L"
	_, err = OptionsFromConfig(cfg, km, sink, zerolog.Nop())
	assert.ErrorContains(t, err, "caps: key")

	cfg = config.DefaultConfig()
	cfg.Keys[0].Substitute = "999"
	_, err = OptionsFromConfig(cfg, km, sink, zerolog.Nop())
	assert.ErrorContains(t, err, "quote: substitute")

	cfg = config.DefaultConfig()
	cfg.Keys[0].Key = "Control_L"
	_, err = NewFromConfig(cfg, km, sink, zerolog.Nop())
	assert.ErrorContains(t, err, "also a modifier")
}
