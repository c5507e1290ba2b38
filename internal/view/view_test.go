package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Show(t *testing.T) {
	var buf bytes.Buffer
	sink := NewText(&buf, 3, 2)

	image := []float64{0, 0.5, 1, 1, 0, 0}
	probs := []float64{0.25, 0.75}
	require.NoError(t, sink.Show(probs, image))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, " =@", lines[0])
	assert.Equal(t, "@  ", lines[1])

	assert.True(t, strings.HasPrefix(lines[2], " 0 "+strings.Repeat("#", 10)+" "))
	assert.Contains(t, lines[2], "25.00%")
	assert.False(t, strings.HasSuffix(lines[2], "<"))

	assert.True(t, strings.HasPrefix(lines[3], " 1 "+strings.Repeat("#", 30)+" "))
	assert.Contains(t, lines[3], "75.00%")
	assert.True(t, strings.HasSuffix(lines[3], "<"))
}

func TestText_FlatImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, 2, 1).Show(nil, []float64{-1, -1}))
	assert.Equal(t, "  \n", buf.String())
}

func TestText_WrongSize(t *testing.T) {
	var buf bytes.Buffer
	err := NewText(&buf, 28, 28).Show([]float64{1}, make([]float64, 10))
	require.ErrorIs(t, err, ErrImageSize)
	assert.Empty(t, buf.String())
}

func TestShade(t *testing.T) {
	assert.Equal(t, byte(' '), shade(0, 0, 1))
	assert.Equal(t, byte('@'), shade(1, 0, 1))
	assert.Equal(t, byte('@'), shade(1, -1, 1))
	assert.Equal(t, byte(' '), shade(-1, -1, 1))
}
