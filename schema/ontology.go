package schema

// Label is a node label in the threat graph.
type Label string

const (
	// LabelThreatGroup is a threat actor or intrusion set.
	LabelThreatGroup Label = "ThreatGroup"

	// LabelMalware is a malware family.
	LabelMalware Label = "Malware"

	// LabelIndicator is a technical indicator of compromise.
	LabelIndicator Label = "Indicator"

	// LabelVulnerability is an exploitable weakness, keyed by CVE ID.
	LabelVulnerability Label = "Vulnerability"

	// LabelAttackTechnique is a MITRE ATT&CK technique.
	LabelAttackTechnique Label = "AttackTechnique"

	// LabelTool is an offensive or dual-use tool.
	LabelTool Label = "Tool"

	// LabelIdentity is a person or organization.
	LabelIdentity Label = "Identity"

	// LabelIncident is a curated breach or intrusion event.
	LabelIncident Label = "Incident"

	// LabelAttackStep is one phase in an incident's attack flow.
	LabelAttackStep Label = "AttackStep"

	// LabelCampaign is a named activity cluster spanning incidents.
	LabelCampaign Label = "Campaign"

	// LabelEntity is the generic label carried by ingested values whose
	// kind was not further classified.
	LabelEntity Label = "Entity"
)

// String returns the label as it appears in the graph.
func (l Label) String() string {
	return string(l)
}

// Relationship is a relationship type in the threat graph.
type Relationship string

const (
	RelUses           Relationship = "USES"
	RelUsesMalware    Relationship = "USES_MALWARE"
	RelIndicates      Relationship = "INDICATES"
	RelHasIndicator   Relationship = "HAS_INDICATOR"
	RelExploits       Relationship = "EXPLOITS"
	RelTargets        Relationship = "TARGETS"
	RelAttributedTo   Relationship = "ATTRIBUTED_TO"
	RelAliasedAs      Relationship = "ALIASED_AS"
	RelRelatedTo      Relationship = "RELATED_TO"
	RelStartsWith     Relationship = "STARTS_WITH"
	RelNext           Relationship = "NEXT"
	RelHasAttackFlow  Relationship = "HAS_ATTACK_FLOW"
	RelInvolvesEntity Relationship = "INVOLVES_ENTITY"
)

// String returns the relationship type as it appears in the graph.
func (r Relationship) String() string {
	return string(r)
}

// ExpansionRelationships returns the relationship allowlist for bounded
// graph expansion: attribution, usage, indication, exploitation,
// targeting, sequencing and aliasing edges. RELATED_TO is excluded; it
// carries too little signal to bound a traversal.
func ExpansionRelationships() []Relationship {
	return []Relationship{
		RelAttributedTo,
		RelUses,
		RelUsesMalware,
		RelIndicates,
		RelHasIndicator,
		RelExploits,
		RelTargets,
		RelStartsWith,
		RelNext,
		RelHasAttackFlow,
		RelInvolvesEntity,
		RelAliasedAs,
	}
}

// ExpansionLabels returns the label allowlist for bounded graph expansion.
// When includeIncidents is false, incident-class labels are excluded so
// traversals stay on static intelligence.
func ExpansionLabels(includeIncidents bool) []Label {
	labels := []Label{
		LabelThreatGroup,
		LabelMalware,
		LabelIndicator,
		LabelVulnerability,
		LabelAttackTechnique,
		LabelTool,
		LabelIdentity,
	}
	if includeIncidents {
		labels = append(labels, LabelIncident, LabelAttackStep, LabelCampaign)
	}
	return labels
}

// AttributionRelationships returns the edges that tie a threat group to
// the things it is responsible for or uses.
func AttributionRelationships() []Relationship {
	return []Relationship{RelAttributedTo, RelUses, RelUsesMalware}
}

// IncidentChainRelationships returns the edges that link incident-class
// nodes to their attack flow and involved entities.
func IncidentChainRelationships() []Relationship {
	return []Relationship{
		RelStartsWith,
		RelNext,
		RelHasAttackFlow,
		RelInvolvesEntity,
		RelHasIndicator,
	}
}

// ActorLabels returns the labels that identify a responsible actor.
func ActorLabels() []Label {
	return []Label{LabelThreatGroup}
}

// IncidentLabels returns the incident-class labels: curated event data as
// opposed to inferred static intelligence.
func IncidentLabels() []Label {
	return []Label{LabelIncident, LabelAttackStep, LabelCampaign}
}

// ClueLabels returns the labels whose nodes count as shared intermediate
// evidence when they appear on an attribution path.
func ClueLabels() []Label {
	return []Label{
		LabelMalware,
		LabelVulnerability,
		LabelAttackTechnique,
		LabelIndicator,
		LabelTool,
	}
}

// HasActorLabel reports whether any of a node's labels marks it as an
// actor.
func HasActorLabel(labels []string) bool {
	return hasAny(labels, ActorLabels())
}

// HasIncidentLabel reports whether any of a node's labels is
// incident-class.
func HasIncidentLabel(labels []string) bool {
	return hasAny(labels, IncidentLabels())
}

// HasClueLabel reports whether any of a node's labels is in the clue set.
func HasClueLabel(labels []string) bool {
	return hasAny(labels, ClueLabels())
}

func hasAny(labels []string, set []Label) bool {
	for _, l := range labels {
		for _, s := range set {
			if l == string(s) {
				return true
			}
		}
	}
	return false
}
