package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// deviceLabel turns a User-Agent into "Browser on OS" (e.g. "Chrome on
// macOS", "Safari on iPhone") for the subscriber list.
func deviceLabel(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
