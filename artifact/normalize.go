package artifact

import (
	"regexp"
	"strings"
)

// socketPattern matches an IPv4 address with one or more comma-separated
// ports attached, e.g. "1.2.3.4:8080" or "1.2.3.4:8080,8443".
var socketPattern = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3}){3}):([\d,]+)$`)

// refangScheme matches defanged URL schemes in any casing.
var refangScheme = regexp.MustCompile(`(?i)hxxp`)

// placeholderMarkers are generic filler phrases that extractors emit in
// place of a concrete value. Matched case-insensitively as substrings.
var placeholderMarkers = []string{"ip address", "target"}

// valueBlacklist lists values that are never meaningful artifacts.
// Matched case-insensitively against the whole cleaned value.
var valueBlacklist = map[string]bool{
	"unknown":     true,
	"none":        true,
	"n/a":         true,
	"example.com": true,
	"localhost":   true,
	"127.0.0.1":   true,
}

// Refang reverses common indicator defanging so values compare equal to
// their canonical graph forms: "[.]" and "(.)" become ".", "[:]" becomes
// ":", and "hxxp"/"hxxps" schemes become "http"/"https".
func Refang(s string) string {
	s = strings.ReplaceAll(s, "[.]", ".")
	s = strings.ReplaceAll(s, "(.)", ".")
	s = strings.ReplaceAll(s, "[:]", ":")
	s = refangScheme.ReplaceAllString(s, "http")
	return s
}

// Normalize cleans one raw value into zero or more artifacts of the given
// type. The value is trimmed and refanged, then rejected entirely if it is
// placeholder noise. A composite "IP:port[,port...]" value is split into
// the bare IP plus one socket artifact per port. Normalize is pure and
// never returns an error: garbage in, nothing out.
func Normalize(raw string, typ Type) []Artifact {
	cleaned := Refang(strings.TrimSpace(raw))
	if !acceptable(cleaned) {
		return nil
	}

	if (typ == TypeIP || typ == TypeIndicator) && strings.Contains(cleaned, ":") {
		if m := socketPattern.FindStringSubmatch(cleaned); m != nil {
			return splitSockets(raw, typ, m[1], m[2])
		}
	}

	return []Artifact{{Type: typ, RawValue: raw, CleanedValue: cleaned}}
}

// splitSockets emits the bare IP followed by one artifact per ip:port pair.
// Split artifacts keep the original type so indicator-class values stay
// indicator-class.
func splitSockets(raw string, typ Type, ip, portList string) []Artifact {
	out := []Artifact{{Type: typ, RawValue: raw, CleanedValue: ip}}
	for _, port := range strings.Split(portList, ",") {
		if port == "" {
			continue
		}
		out = append(out, Artifact{
			Type:         typ,
			RawValue:     raw,
			CleanedValue: ip + ":" + port,
		})
	}
	return out
}

// NormalizeAll cleans a batch of raw artifacts, dropping rejects and
// expanding composites in place. Input order is preserved.
func NormalizeAll(arts []Artifact) []Artifact {
	out := make([]Artifact, 0, len(arts))
	for _, a := range arts {
		raw := a.RawValue
		if raw == "" {
			raw = a.CleanedValue
		}
		out = append(out, Normalize(raw, a.Type)...)
	}
	return out
}

// acceptable reports whether a cleaned value is a usable artifact rather
// than extractor noise.
func acceptable(v string) bool {
	if len(v) < 3 {
		return false
	}
	if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
		return false
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return false
	}
	lower := strings.ToLower(v)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return !valueBlacklist[lower]
}
