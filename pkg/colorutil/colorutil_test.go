package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	pink := color.RGBA{R: 255, G: 192, B: 203, A: 255}
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"pink", pink, true},
		{" Pink ", pink, true},
		{"#ffc0cb", pink, true},
		{"#FFC0CB", pink, true},
		{"rgb(255, 192, 203)", pink, true},
		{"#f00", color.RGBA{R: 255, A: 255}, true},
		{"rgb(100%,0%,0%)", color.RGBA{R: 255, A: 255}, true},
		{"none", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
		{"rgb(1,2)", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("pink", "#FFC0CB"))
	assert.True(t, Equal("rgb(255,192,203)", "Pink"))
	assert.False(t, Equal("pink", "hotpink"))
	assert.True(t, Equal("url(#grad)", "URL(#grad)"))
	assert.False(t, Equal("none", "pink"))
}
