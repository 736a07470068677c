package types

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesUnmarshalYAML(t *testing.T) {
	tests := []struct {
		in   string
		want Bytes
	}{
		{in: "limit: 1048576", want: 1048576},
		{in: "limit: 0", want: 0},
		{in: "limit: 10MB", want: 10_000_000},
		{in: "limit: 10MiB", want: 10 * 1024 * 1024},
		{in: `limit: "512 kB"`, want: 512_000},
	}
	for _, tt := range tests {
		var v struct {
			Limit Bytes `yaml:"limit"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(tt.in), &v), tt.in)
		assert.Equal(t, tt.want, v.Limit, tt.in)
	}

	var v struct {
		Limit Bytes `yaml:"limit"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("limit: lots"), &v))
}

func TestBytesText(t *testing.T) {
	var b Bytes
	require.NoError(t, b.UnmarshalText([]byte("2 MB")))
	assert.EqualValues(t, 2_000_000, b.Bytes())
	assert.EqualValues(t, 2_000_000, b.Int64())

	text, err := b.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2.0 MB", string(text))

	out, err := yaml.Marshal(struct {
		Limit Bytes `yaml:"limit"`
	}{Limit: b})
	require.NoError(t, err)
	assert.Contains(t, string(out), "2.0 MB")

	assert.Error(t, b.Set("not a size"))
}
