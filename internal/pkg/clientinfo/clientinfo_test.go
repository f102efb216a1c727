package clientinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	assert.Equal(t, "1.2.3.4", FromRequest(req).IP)
}

func TestFromRequest_RemoteAddrFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	assert.Equal(t, "192.168.1.1", FromRequest(req).IP)
}

func TestDevice_ChromeOnWindows(t *testing.T) {
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	assert.Equal(t, "Chrome on Windows", device(ua))
}

func TestDevice_EdgeBeatsChromeToken(t *testing.T) {
	ua := "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36 Edg/120.0"
	assert.Equal(t, "Edge on Windows", device(ua))
}

func TestDevice_Empty(t *testing.T) {
	assert.Equal(t, "Unknown device", device(""))
}

func TestLocation_HeaderOrUnknown(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "Unknown", FromRequest(req).Location)
	req.Header.Set("X-App-Location", "Riyadh, SA")
	assert.Equal(t, "Riyadh, SA", FromRequest(req).Location)
}
