// Package artifact defines the raw evidence values fed into grounding and
// correlation, together with the normalization rules that clean them.
//
// An Artifact is a single piece of evidence (an IP, domain, hash, CVE ID,
// malware or actor name) supplied by an analyst or an automated extractor.
// Raw values arrive noisy: defanged ("1.2.3[.]4", "hxxp://..."), wrapped in
// template placeholders ("{ IP Address }"), or fused into composites
// ("1.2.3.4:8080,8443"). Normalize turns one raw value into zero or more
// clean artifacts:
//
//	arts := artifact.Normalize("1.2.3[.]4:8080,8443", artifact.TypeIndicator)
//	// -> 1.2.3.4, 1.2.3.4:8080, 1.2.3.4:8443
//
// Normalization is pure: malformed or placeholder input yields zero
// artifacts, never an error.
//
// Extract scans free text for indicators (IPs, URLs, domains, CVE IDs,
// file hashes, wallet addresses) using the same cleaning rules, so that
// pattern-matched indicators and analyst-supplied values compare equal.
package artifact
