package schema

import (
	"strings"

	"github.com/zero-day-ai/threatgraph/artifact"
)

// Adapter binds an artifact type to the graph label and property used to
// compare values of that type. Search queries are generated from the
// adapter rather than coalescing every property a node might carry, so a
// mismatch between artifact kind and stored shape fails visibly instead of
// silently matching nothing.
type Adapter struct {
	label    Label
	property string
	// fallbacks are secondary properties consulted by ComparableText when
	// the primary property is absent on a node.
	fallbacks []string
}

// Label returns the canonical node label for the adapter's artifact type.
func (a Adapter) Label() Label {
	return a.label
}

// Property returns the node property holding the comparable value.
func (a Adapter) Property() string {
	return a.property
}

// ComparableText extracts the single comparable string from a node's
// properties: the primary property when present, otherwise the first
// non-empty fallback. Returns "" when the node carries none of them.
func (a Adapter) ComparableText(props map[string]any) string {
	if s := stringProp(props, a.property); s != "" {
		return s
	}
	for _, p := range a.fallbacks {
		if s := stringProp(props, p); s != "" {
			return s
		}
	}
	return ""
}

func stringProp(props map[string]any, key string) string {
	if props == nil || key == "" {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// adapters maps every artifact type to its graph shape. Indicator-class
// values (addresses, domains, URLs, hashes, wallets) live on Indicator
// nodes whose value property is url; unclassified values live on generic
// Entity nodes.
var adapters = map[artifact.Type]Adapter{
	artifact.TypeIP:             {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeDomain:         {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeURL:            {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeHash:           {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeEmail:          {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeCryptocurrency: {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeIndicator:      {label: LabelIndicator, property: "url", fallbacks: []string{"name"}},
	artifact.TypeMalware:        {label: LabelMalware, property: "name"},
	artifact.TypeVulnerability:  {label: LabelVulnerability, property: "cve_id", fallbacks: []string{"name"}},
	artifact.TypeTechnique:      {label: LabelAttackTechnique, property: "mitre_id", fallbacks: []string{"name"}},
	artifact.TypeThreatGroup:    {label: LabelThreatGroup, property: "name", fallbacks: []string{"mitre_id"}},
	artifact.TypeTool:           {label: LabelTool, property: "name"},
	artifact.TypePerson:         {label: LabelIdentity, property: "name"},
	artifact.TypeOrganization:   {label: LabelIdentity, property: "name"},
	artifact.TypeIncident:       {label: LabelIncident, property: "title", fallbacks: []string{"name"}},
	artifact.TypeAttackStep:     {label: LabelAttackStep, property: "description"},
	artifact.TypeCampaign:       {label: LabelCampaign, property: "name"},
	artifact.TypeUnknown:        {label: LabelEntity, property: "name", fallbacks: []string{"normalized_value"}},
}

// AdapterFor returns the adapter for an artifact type. Unrecognized types
// fall back to the generic Entity adapter so callers never receive a
// zero-valued adapter.
func AdapterFor(t artifact.Type) Adapter {
	if a, ok := adapters[t]; ok {
		return a
	}
	return adapters[artifact.TypeUnknown]
}

// displayProperties is the coalesce order for rendering a node of unknown
// artifact type, widest-coverage property first.
var displayProperties = []string{"name", "title", "cve_id", "mitre_id", "url", "description"}

// DisplayName extracts a human-readable value from arbitrary node
// properties. Traversal results carry nodes of mixed labels, so this
// coalesces across the known display properties instead of consulting a
// single adapter.
func DisplayName(props map[string]any) string {
	for _, p := range displayProperties {
		if s := stringProp(props, p); s != "" {
			return s
		}
	}
	return ""
}
