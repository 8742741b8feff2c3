package artifact

import (
	"regexp"
	"strings"
)

// Extraction patterns. Defanged separators are matched directly so that
// indicators survive copy-paste from published reports.
var (
	ipv4Pattern = regexp.MustCompile(`\b\d{1,3}(?:\[\.\]|\(\.\)|\.)\d{1,3}(?:\[\.\]|\(\.\)|\.)\d{1,3}(?:\[\.\]|\(\.\)|\.)\d{1,3}\b`)

	urlPattern = regexp.MustCompile(`(?i)(?:hxxps?|https?)(?:\[:\]|:)(?:/{2}|\\{2})[a-zA-Z0-9\-.\[\]]+[a-zA-Z]{2,}[^\s"'<>]*`)

	domainPattern = regexp.MustCompile(`(?i)\b(?:[a-zA-Z0-9-]+\.)+(?:com|net|org|io|kr|ru|cn|eu|co|biz|info)\b`)

	cvePattern = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

	// SHA-256, SHA-1, MD5; longest alternative first.
	hashPattern = regexp.MustCompile(`\b[a-fA-F0-9]{64}\b|\b[a-fA-F0-9]{40}\b|\b[a-fA-F0-9]{32}\b`)

	walletPattern = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)

	// Matches that open with a four-digit year are calendar dates, not
	// addresses.
	yearPrefix = regexp.MustCompile(`^\d{4}`)

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// vendorDomains are high-traffic benign domains that appear constantly in
// report prose and are never indicators themselves.
var vendorDomains = []string{"ahnlab", "microsoft", "google", "facebook", "twitter", "github"}

// Extract scans free text for indicators of compromise and returns them as
// normalized artifacts: IPv4 addresses (including defanged forms), URLs,
// domains, CVE identifiers, file hashes, and cryptocurrency wallets.
// Results are deduplicated by cleaned value, preserving first-seen order.
// Extract complements structured extraction upstream; it is pure and never
// errors.
func Extract(text string) []Artifact {
	seen := make(map[string]bool)
	var out []Artifact

	add := func(typ Type, value string) {
		for _, a := range Normalize(value, typ) {
			key := strings.ToLower(a.CleanedValue)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, a)
		}
	}

	for _, m := range ipv4Pattern.FindAllString(text, -1) {
		if yearPrefix.MatchString(m) {
			continue
		}
		add(TypeIP, m)
	}

	for _, m := range urlPattern.FindAllString(text, -1) {
		add(TypeURL, m)
	}

	for _, m := range domainPattern.FindAllString(text, -1) {
		if isVendorDomain(m) {
			continue
		}
		add(TypeDomain, m)
	}

	for _, m := range cvePattern.FindAllString(text, -1) {
		add(TypeVulnerability, strings.ToUpper(m))
	}

	for _, m := range hashPattern.FindAllString(text, -1) {
		// All-digit runs of hash length are usually timestamps or IDs.
		if digitsOnly.MatchString(m) {
			continue
		}
		add(TypeHash, m)
	}

	for _, m := range walletPattern.FindAllString(text, -1) {
		add(TypeCryptocurrency, m)
	}

	return out
}

func isVendorDomain(domain string) bool {
	lower := strings.ToLower(domain)
	for _, v := range vendorDomains {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}
