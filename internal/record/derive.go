package record

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Derive fills absent derived fields of r. An empty Domain is set to the
// registrable domain (eTLD+1) of the URL host, or the bare host when no
// registrable domain exists (IP literals, single-label hosts). An empty
// SenderDomain is set to the part of Sender after the last '@'. Fields that
// are already present are never overwritten.
func Derive(r Record) Record {
	if r.Domain == "" && r.URL != "" {
		r.Domain = URLDomain(r.URL)
	}
	if r.SenderDomain == "" {
		r.SenderDomain = addressDomain(r.Sender)
	}
	return r
}

// URLDomain returns the registrable domain of raw's host, lower-cased.
// Scheme-less values are parsed as if prefixed with "http://". It returns
// "" when no host can be extracted.
func URLDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

func addressDomain(addr string) string {
	i := strings.LastIndexByte(addr, '@')
	if i < 0 || i == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[i+1:]))
}
