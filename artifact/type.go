package artifact

import (
	"fmt"
	"strings"
)

// Type classifies an artifact by the kind of real-world object it names.
type Type string

const (
	// TypeIP is an IPv4/IPv6 address.
	TypeIP Type = "ip"

	// TypeDomain is a DNS name.
	TypeDomain Type = "domain"

	// TypeURL is a full URL, including scheme.
	TypeURL Type = "url"

	// TypeHash is a file hash (MD5, SHA-1, SHA-256).
	TypeHash Type = "hash"

	// TypeEmail is an email address.
	TypeEmail Type = "email"

	// TypeCryptocurrency is a cryptocurrency wallet address.
	TypeCryptocurrency Type = "cryptocurrency"

	// TypeMalware is a malware family or sample name.
	TypeMalware Type = "malware"

	// TypeVulnerability is a vulnerability identifier, typically a CVE ID.
	TypeVulnerability Type = "vulnerability"

	// TypeTool is an offensive or dual-use tool name.
	TypeTool Type = "tool"

	// TypeTechnique is an attack technique, typically a MITRE ATT&CK ID.
	TypeTechnique Type = "technique"

	// TypeThreatGroup is a threat actor or intrusion set name.
	TypeThreatGroup Type = "threat_group"

	// TypePerson is an individual's name.
	TypePerson Type = "person"

	// TypeOrganization is a company or institution name.
	TypeOrganization Type = "organization"

	// TypeIndicator is a generic indicator of compromise whose exact kind
	// is unknown or mixed (the extractor could not classify it further).
	TypeIndicator Type = "indicator"

	// TypeIncident is a specific breach or intrusion event.
	TypeIncident Type = "incident"

	// TypeAttackStep is one phase of an incident's attack flow.
	TypeAttackStep Type = "attack_step"

	// TypeCampaign is a named activity cluster spanning incidents.
	TypeCampaign Type = "campaign"

	// TypeUnknown marks a value whose type could not be determined.
	TypeUnknown Type = "unknown"
)

// typeAliases maps common alternate spellings to canonical types.
var typeAliases = map[string]Type{
	"ipv4":             TypeIP,
	"ipv6":             TypeIP,
	"ip_address":       TypeIP,
	"hostname":         TypeDomain,
	"fqdn":             TypeDomain,
	"md5":              TypeHash,
	"sha1":             TypeHash,
	"sha256":           TypeHash,
	"cve":              TypeVulnerability,
	"actor":            TypeThreatGroup,
	"threat_actor":     TypeThreatGroup,
	"threatgroup":      TypeThreatGroup,
	"intrusion_set":    TypeThreatGroup,
	"group":            TypeThreatGroup,
	"ttp":              TypeTechnique,
	"attack_technique": TypeTechnique,
	"wallet":           TypeCryptocurrency,
	"ioc":              TypeIndicator,
}

// IsValid returns true if the type is one of the defined artifact types.
func (t Type) IsValid() bool {
	switch t {
	case TypeIP, TypeDomain, TypeURL, TypeHash, TypeEmail, TypeCryptocurrency,
		TypeMalware, TypeVulnerability, TypeTool, TypeTechnique, TypeThreatGroup,
		TypePerson, TypeOrganization, TypeIndicator, TypeIncident, TypeAttackStep,
		TypeCampaign, TypeUnknown:
		return true
	default:
		return false
	}
}

// IsContext returns true for incident-class context types. Context values
// describe events rather than reusable objects and are never deduplicated
// against existing graph entities during grounding.
func (t Type) IsContext() bool {
	switch t {
	case TypeIncident, TypeAttackStep, TypeCampaign:
		return true
	default:
		return false
	}
}

// IsActor returns true for threat actor types.
func (t Type) IsActor() bool {
	return t == TypeThreatGroup
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// ParseType parses a string into a Type value. Matching is case-insensitive
// and tolerates common alternate spellings ("IPv4", "CVE", "threat_actor").
// Returns an error if the string names no known type.
func ParseType(s string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	if alias, ok := typeAliases[normalized]; ok {
		return alias, nil
	}

	typ := Type(normalized)
	if !typ.IsValid() {
		return "", fmt.Errorf("invalid artifact type: %s", s)
	}
	return typ, nil
}

// AllTypes returns all defined artifact types.
func AllTypes() []Type {
	return []Type{
		TypeIP,
		TypeDomain,
		TypeURL,
		TypeHash,
		TypeEmail,
		TypeCryptocurrency,
		TypeMalware,
		TypeVulnerability,
		TypeTool,
		TypeTechnique,
		TypeThreatGroup,
		TypePerson,
		TypeOrganization,
		TypeIndicator,
		TypeIncident,
		TypeAttackStep,
		TypeCampaign,
		TypeUnknown,
	}
}
