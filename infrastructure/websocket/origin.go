package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may open a socket.
// An empty allow-list falls back to a same-host check.
// Requests without an Origin header come from non-browser clients and are accepted.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginPolicy(log *slog.Logger, origins []string) OriginPolicy {
	p := OriginPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch trimmed {
		case "":
			continue
		case "*":
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

func (p OriginPolicy) Check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}
	origin, ok := normalizeOrigin(header)
	if !ok {
		return false
	}
	if len(p.allowed) == 0 {
		u, _ := url.Parse(origin)
		return strings.EqualFold(u.Host, r.Host)
	}
	_, ok = p.allowed[origin]
	return ok
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
