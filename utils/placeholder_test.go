package utils

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderLabel(t *testing.T) {
	tests := []struct {
		postType string
		want     string
	}{
		{"house", "House"},
		{"APARTMENT", "Apartment"},
		{"castle", "No photo"},
		{"", "No photo"},
	}
	for _, tt := range tests {
		t.Run(tt.postType, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceholderLabel(tt.postType))
		})
	}
}

func TestGeneratePlaceholderSVG(t *testing.T) {
	out := GeneratePlaceholderSVG(640, 480, "house")

	var doc struct {
		XMLName xml.Name `xml:"svg"`
		Width   string   `xml:"width,attr"`
		Height  string   `xml:"height,attr"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Equal(t, "640", doc.Width)
	assert.Equal(t, "480", doc.Height)
	assert.Contains(t, string(out), "House")
}

func TestTypeColorIsStable(t *testing.T) {
	assert.Equal(t, typeColor("house"), typeColor("house"))
	assert.Regexp(t, `^#[0-9a-f]{6}$`, typeColor("land"))
}
