package utils

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// placeholderLabels maps known property types to their card label.
var placeholderLabels = map[string]string{
	"apartment":  "Apartment",
	"house":      "House",
	"land":       "Land",
	"commercial": "Commercial",
}

// typeColor derives a stable pastel colour from the property type.
func typeColor(postType string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(postType))
	sum := h.Sum32()
	return fmt.Sprintf("#%02x%02x%02x",
		byte(sum)%100+140,
		byte(sum>>8)%100+140,
		byte(sum>>16)%100+140)
}

// PlaceholderLabel returns the label drawn on the placeholder for postType.
func PlaceholderLabel(postType string) string {
	if label, ok := placeholderLabels[strings.ToLower(postType)]; ok {
		return label
	}
	return "No photo"
}

// GeneratePlaceholderSVG draws the image shown for a listing without photos.
func GeneratePlaceholderSVG(width, height int, postType string) []byte {
	var svgContent bytes.Buffer
	canvas := svg.New(&svgContent)
	canvas.Start(width, height)

	canvas.Rect(0, 0, width, height, "fill:"+typeColor(strings.ToLower(postType)))

	// house outline
	cx, cy := width/2, height/2-height/10
	size := height / 4
	canvas.Polygon(
		[]int{cx - size, cx, cx + size},
		[]int{cy, cy - size, cy},
		"fill:none;stroke:#ffffff;stroke-width:4")
	canvas.Rect(cx-size*3/4, cy, size*3/2, size, "fill:none;stroke:#ffffff;stroke-width:4")

	canvas.Text(width/2, height-height/6, PlaceholderLabel(postType),
		fmt.Sprintf("text-anchor:middle;font-family:sans-serif;font-size:%dpx;fill:#ffffff", height/10))

	canvas.End()
	return svgContent.Bytes()
}
