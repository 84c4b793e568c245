package http

import (
	"strings"

	"agency-cms/internal/visitor/domain/model"

	"github.com/gofiber/fiber/v2"
)

// Geo headers set by reverse proxies / CDNs
const (
	headerCFCountry = "CF-IPCountry"
	headerCountry   = "X-Country"
	headerRegion    = "X-Region"
	headerCity      = "X-City"
)

// requestMetadata collects the descriptive fields recorded when a visitor
// record is created
func requestMetadata(c *fiber.Ctx) model.Metadata {
	meta := model.Metadata{
		Referrer: c.Get(fiber.HeaderReferer),
	}
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		meta.Device = ParseUserAgent(ua)
	}

	country := c.Get(headerCFCountry)
	if country == "" || country == "XX" {
		country = c.Get(headerCountry)
	}
	loc := &model.Location{
		Country: strings.ToUpper(country),
		Region:  c.Get(headerRegion),
		City:    c.Get(headerCity),
	}
	if !loc.IsZero() {
		meta.Location = loc
	}
	return meta
}

// ParseUserAgent classifies a User-Agent string into device type, browser and OS
func ParseUserAgent(ua string) *model.DeviceInfo {
	l := strings.ToLower(ua)
	info := &model.DeviceInfo{UserAgent: ua, Type: "desktop", Browser: "other", OS: "other"}

	switch {
	case containsAny(l, "bot", "crawler", "spider", "curl/", "wget/"):
		info.Type = "bot"
	case containsAny(l, "ipad", "tablet") || (strings.Contains(l, "android") && !strings.Contains(l, "mobile")):
		info.Type = "tablet"
	case containsAny(l, "mobi", "iphone", "ipod", "android"):
		info.Type = "mobile"
	}

	// order matters: Edge and Opera also announce Chrome, Chrome announces Safari
	switch {
	case strings.Contains(l, "edg/"):
		info.Browser = "edge"
	case containsAny(l, "opr/", "opera"):
		info.Browser = "opera"
	case containsAny(l, "firefox/", "fxios/"):
		info.Browser = "firefox"
	case containsAny(l, "chrome/", "crios/"):
		info.Browser = "chrome"
	case strings.Contains(l, "safari/"):
		info.Browser = "safari"
	}

	switch {
	case containsAny(l, "iphone", "ipad", "ipod"):
		info.OS = "ios"
	case strings.Contains(l, "android"):
		info.OS = "android"
	case strings.Contains(l, "windows"):
		info.OS = "windows"
	case strings.Contains(l, "mac os"):
		info.OS = "macos"
	case strings.Contains(l, "linux"):
		info.OS = "linux"
	}
	return info
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
