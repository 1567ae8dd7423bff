package tracking

import "strings"

// ParseUserAgent derives a coarse device type and OS from a User-Agent
// header. Both return nil when the header is empty or unrecognized;
// the rollup layer applies its own defaulting rules on read.
func ParseUserAgent(ua string) (deviceType, osType *string) {
	if ua == "" {
		return nil, nil
	}
	lower := strings.ToLower(ua)

	device := "Desktop"
	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		device = "Tablet"
	case strings.Contains(lower, "mobi") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		device = "Mobile"
	}

	var os string
	switch {
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "ios"):
		os = "iOS"
	case strings.Contains(lower, "android"):
		os = "Android"
	case strings.Contains(lower, "windows"):
		os = "Windows"
	case strings.Contains(lower, "mac os") || strings.Contains(lower, "macintosh"):
		os = "macOS"
	case strings.Contains(lower, "linux"):
		os = "Linux"
	}

	deviceType = &device
	if os != "" {
		osType = &os
	}
	return deviceType, osType
}
