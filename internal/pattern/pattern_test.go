package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "single keyword",
			src:  "nvidia",
			want: `"nvidia"`,
		},
		{
			name: "quoted keyword keeps spaces",
			src:  `"RTX 3080"`,
			want: `"RTX 3080"`,
		},
		{
			name: "and",
			src:  "nvidia && rtx",
			want: `"nvidia" && "rtx"`,
		},
		{
			name: "or without spaces",
			src:  "nvidia||rtx",
			want: `"nvidia" || "rtx"`,
		},
		{
			name: "negated group",
			src:  "!(bad || expensive)",
			want: `!"bad" || "expensive"`,
		},
		{
			name: "grouped and-or",
			src:  `(nvidia && rtx) || (nvidia && "gtx 3060 ti")`,
			want: `"nvidia" && "rtx" || "nvidia" && "gtx 3060 ti"`,
		},
		{
			name: "left associative chain",
			src:  "a && b || c",
			want: `"a" && "b" || "c"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty input", src: ""},
		{name: "only whitespace", src: "   "},
		{name: "unclosed group", src: "(nvidia"},
		{name: "lone pipe", src: "a | b"},
		{name: "lone ampersand", src: "a & b"},
		{name: "dangling operator", src: "a &&"},
		{name: "empty quotes", src: `""`},
		{name: "punctuation in bare keyword", src: "b650m-plus"},
		{name: "trailing keyword", src: "gpu gtx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		subject string
		want    bool
	}{
		{
			name:    "substring is enough",
			src:     "rtx",
			subject: "ASUS NVIDIA GeForce RTX 4070 Ti",
			want:    true,
		},
		{
			name:    "case insensitive",
			src:     "NVIDIA",
			subject: "nvidia geforce",
			want:    true,
		},
		{
			name:    "and requires both",
			src:     "nvidia && rtx",
			subject: "nvidia gtx 1080",
			want:    false,
		},
		{
			name:    "or requires either",
			src:     "amd || intel",
			subject: "Intel Core i5-13600K",
			want:    true,
		},
		{
			name:    "negation",
			src:     "!refurbished",
			subject: "Refurbished PSU",
			want:    false,
		},
		{
			name:    "negated group",
			src:     "!(open || refurbished)",
			subject: "brand new GPU",
			want:    true,
		},
		{
			name:    "quoted phrase",
			src:     `"3060 ti"`,
			subject: "EVGA GTX 3060 Ti FTW",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.subject))
		})
	}
}

func TestMatchOptional(t *testing.T) {
	flair := "GPU"

	p, err := Parse("gpu")
	require.NoError(t, err)
	assert.True(t, MatchOptional(p, &flair))
	// A missing subject can't contain the keyword.
	assert.False(t, MatchOptional(p, nil))

	n, err := Parse("!cpu")
	require.NoError(t, err)
	// A missing subject trivially satisfies a negation.
	assert.True(t, MatchOptional(n, nil))
	assert.True(t, MatchOptional(n, &flair))
}
