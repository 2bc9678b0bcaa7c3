package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain content untouched",
			in:   "<p>Hello world</p>",
			want: "<p>Hello world</p>",
		},
		{
			name: "non-breaking spaces become spaces",
			in:   "<p>Hello\u00a0world</p>",
			want: "<p>Hello world</p>",
		},
		{
			name: "entity form of nbsp",
			in:   "<p>Hello&nbsp;world</p>",
			want: "<p>Hello world</p>",
		},
		{
			name: "empty paragraph dropped",
			in:   "<p>One</p><p>\u00a0 </p><p>Two</p>",
			want: "<p>One</p><p>Two</p>",
		},
		{
			name: "paragraph with only br dropped",
			in:   "<p>One</p><p><br/></p><p>Two</p>",
			want: "<p>One</p><p>Two</p>",
		},
		{
			name: "zero width characters removed",
			in:   "<p>He\u200bllo\ufeff</p>",
			want: "<p>Hello</p>",
		},
		{
			name: "nested markup preserved",
			in:   "<p>Read <a href=\"/x\">this link</a></p>",
			want: "<p>Read <a href=\"/x\">this link</a></p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanBody(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanBodyEmpty(t *testing.T) {
	got, err := CleanBody("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
