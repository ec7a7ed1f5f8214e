// Package device turns raw User-Agent strings into short display names for
// the audit trail, so reviewers see "Chrome on Mac OS X" instead of a full UA.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns a human-readable device name for a User-Agent string.
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}

	switch {
	case browser != "" && platform != "":
		return browser + " on " + platform
	case browser != "":
		return browser + " on unknown platform"
	case platform != "":
		return "Unknown browser on " + platform
	default:
		return strings.TrimSpace(raw) + " on unknown platform"
	}
}
