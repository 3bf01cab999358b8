package listener

import (
	"net"
	"net/http"
	"strings"
)

// clientIP extracts the connecting client's address for geo enrichment.
// X-Real-Ip is trusted first since it's set by a single reverse proxy hop
// (unlike X-Forwarded-For, whose left-most entry a client can forge);
// X-Forwarded-For's left-most parseable entry is the fallback, and the
// raw socket address last.
func clientIP(r *http.Request) net.IP {
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		if ip := net.ParseIP(strings.TrimSpace(real)); ip != nil {
			return ip
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, p := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

// clientClass buckets a User-Agent header into the coarse categories
// /api/stats reports, so a dashboard can chart player mix without
// exposing raw, highly identifying User-Agent strings.
func clientClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return "unknown"
	case strings.Contains(ua, "vlc"):
		return "vlc"
	case strings.Contains(ua, "winamp"):
		return "winamp"
	case strings.Contains(ua, "mpv") || strings.Contains(ua, "ffmpeg") || strings.Contains(ua, "libmpv"):
		return "mpv"
	case strings.Contains(ua, "curl") || strings.Contains(ua, "wget"):
		return "cli"
	case strings.Contains(ua, "android"):
		return "android_browser"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "ios_browser"
	case strings.Contains(ua, "mozilla"):
		return "browser"
	default:
		return "other"
	}
}
