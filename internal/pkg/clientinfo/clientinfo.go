package clientinfo

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// Info describes the client behind a login request. It feeds security-alert
// notifications; Location is whatever an upstream proxy reported — no
// geolocation is performed here.
type Info struct {
	Time     time.Time `json:"time"`
	IP       string    `json:"ip"`
	Device   string    `json:"device"`
	Location string    `json:"location"`
}

// FromRequest extracts login metadata from an incoming request.
func FromRequest(r *http.Request) Info {
	return Info{
		Time:     time.Now().UTC(),
		IP:       realIP(r),
		Device:   device(r.UserAgent()),
		Location: location(r),
	}
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// device reduces a User-Agent string to a coarse "browser on platform" label.
func device(ua string) string {
	if ua == "" {
		return "Unknown device"
	}
	platform := "Unknown platform"
	switch {
	case strings.Contains(ua, "Windows"):
		platform = "Windows"
	case strings.Contains(ua, "Android"):
		platform = "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		platform = "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		platform = "macOS"
	case strings.Contains(ua, "Linux"):
		platform = "Linux"
	}
	browser := "Unknown browser"
	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	}
	return browser + " on " + platform
}

func location(r *http.Request) string {
	if loc := r.Header.Get("X-App-Location"); loc != "" {
		return loc
	}
	return "Unknown"
}
