package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

func TestHeuristic_LooksScriptRendered(t *testing.T) {
	t.Parallel()

	plain := "<html><body><h1>Backend Engineer</h1><p>" + strings.Repeat("Responsibilities include ", 20) + "</p></body></html>"

	tests := []struct {
		name      string
		threshold int
		content   extract.FetchedContent
		want      bool
	}{
		{
			name:      "empty body",
			threshold: 100,
			content:   extract.FetchedContent{StatusCode: 200, Body: []byte("  \n")},
			want:      true,
		},
		{
			name:      "spa marker",
			threshold: 100,
			content:   extract.FetchedContent{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)},
			want:      true,
		},
		{
			name:      "script dense shell",
			threshold: 1000,
			content:   extract.FetchedContent{StatusCode: 200, Body: []byte(`<html><script>var a=1;</script><p>t</p></html>`)},
			want:      true,
		},
		{
			name:      "large script page is not a shell",
			threshold: 10,
			content:   extract.FetchedContent{StatusCode: 200, Body: []byte(`<html><script>var a=1;</script><p>t</p></html>`)},
			want:      false,
		},
		{
			name:      "server rendered posting",
			threshold: 100,
			content:   extract.FetchedContent{StatusCode: 200, Body: []byte(plain)},
			want:      false,
		},
		{
			name:      "error status",
			threshold: 100,
			content:   extract.FetchedContent{StatusCode: 404, Body: []byte("not found")},
			want:      false,
		},
		{
			name:      "unknown status is checked",
			threshold: 100,
			content:   extract.FetchedContent{Body: []byte(`<div data-reactroot></div>`)},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHeuristic(tt.threshold)
			assert.Equal(t, tt.want, h.LooksScriptRendered(tt.content))
		})
	}
}

func TestNewHeuristic_DefaultThreshold(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultMinBodyBytes, NewHeuristic(0).BodyLengthThreshold)
	require.Equal(t, DefaultMinBodyBytes, NewHeuristic(-5).BodyLengthThreshold)
}

func TestScriptDensityHigh_UnterminatedScript(t *testing.T) {
	t.Parallel()

	assert.True(t, scriptDensityHigh([]byte(`<p>x</p><script src="a.js"`)))
	assert.False(t, scriptDensityHigh([]byte(`<p>no scripts here at all</p>`)))
}
