package tray

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuLayout(t *testing.T) {
	tr := New("dualkey", "tooltip")

	quit := 0
	var toggles []bool
	pauseID := tr.AddCheckItem("Pause remapping", false, func(checked bool) {
		toggles = append(toggles, checked)
	})
	tr.AddSeparator()
	quitID := tr.AddMenuItem("Quit", func() { quit++ })

	assert.Equal(t, 0, pauseID)
	assert.Equal(t, 2, quitID)
	require.Len(t, tr.items, 3)
	assert.Nil(t, tr.items[1])

	// clicks before the menu is realised only update state
	tr.items[pauseID].Callback()
	tr.items[pauseID].Callback()
	tr.items[quitID].Callback()

	assert.Equal(t, []bool{true, false}, toggles)
	assert.False(t, tr.items[pauseID].Checked)
	assert.Equal(t, 1, quit)

	tr.SetItemChecked(pauseID, true)
	assert.True(t, tr.items[pauseID].Checked)
	tr.SetItemChecked(1, true)
	tr.SetItemChecked(42, true)
}

func TestIconIsPNG(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(getIcon()))
	require.NoError(t, err)
	assert.Equal(t, 22, img.Bounds().Dx())
}
