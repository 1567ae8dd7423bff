package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		device string
		os     string
	}{
		{
			name:   "iphone",
			ua:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148",
			device: "Mobile",
			os:     "iOS",
		},
		{
			name:   "android phone",
			ua:     "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Mobile Safari/537.36",
			device: "Mobile",
			os:     "Android",
		},
		{
			name:   "ipad",
			ua:     "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
			device: "Tablet",
			os:     "iOS",
		},
		{
			name:   "windows desktop",
			ua:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0",
			device: "Desktop",
			os:     "Windows",
		},
		{
			name:   "mac desktop",
			ua:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Safari/605.1.15",
			device: "Desktop",
			os:     "macOS",
		},
		{
			name:   "linux desktop",
			ua:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0",
			device: "Desktop",
			os:     "Linux",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, os := ParseUserAgent(tt.ua)
			require.NotNil(t, device)
			assert.Equal(t, tt.device, *device)
			require.NotNil(t, os)
			assert.Equal(t, tt.os, *os)
		})
	}
}

func TestParseUserAgentEmpty(t *testing.T) {
	device, os := ParseUserAgent("")
	assert.Nil(t, device)
	assert.Nil(t, os)
}

func TestParseUserAgentUnknownOS(t *testing.T) {
	device, os := ParseUserAgent("curl/8.4.0")
	require.NotNil(t, device)
	assert.Equal(t, "Desktop", *device)
	assert.Nil(t, os)
}
