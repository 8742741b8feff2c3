package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zero-day-ai/threatgraph/artifact"
)

func TestAdapterFor_LabelAndProperty(t *testing.T) {
	tests := []struct {
		name     string
		typ      artifact.Type
		label    Label
		property string
	}{
		{"ip maps to indicator url", artifact.TypeIP, LabelIndicator, "url"},
		{"hash maps to indicator url", artifact.TypeHash, LabelIndicator, "url"},
		{"malware maps to name", artifact.TypeMalware, LabelMalware, "name"},
		{"vulnerability maps to cve id", artifact.TypeVulnerability, LabelVulnerability, "cve_id"},
		{"technique maps to mitre id", artifact.TypeTechnique, LabelAttackTechnique, "mitre_id"},
		{"actor maps to name", artifact.TypeThreatGroup, LabelThreatGroup, "name"},
		{"person maps to identity", artifact.TypePerson, LabelIdentity, "name"},
		{"incident maps to title", artifact.TypeIncident, LabelIncident, "title"},
		{"unknown maps to entity", artifact.TypeUnknown, LabelEntity, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := AdapterFor(tt.typ)
			assert.Equal(t, tt.label, ad.Label())
			assert.Equal(t, tt.property, ad.Property())
		})
	}
}

func TestAdapterFor_UnrecognizedTypeFallsBack(t *testing.T) {
	ad := AdapterFor(artifact.Type("not-a-type"))
	assert.Equal(t, LabelEntity, ad.Label())
}

func TestComparableText(t *testing.T) {
	vuln := AdapterFor(artifact.TypeVulnerability)

	t.Run("primary property wins", func(t *testing.T) {
		got := vuln.ComparableText(map[string]any{"cve_id": "CVE-2021-44228", "name": "Log4Shell"})
		assert.Equal(t, "CVE-2021-44228", got)
	})

	t.Run("falls back when primary missing", func(t *testing.T) {
		got := vuln.ComparableText(map[string]any{"name": "Log4Shell"})
		assert.Equal(t, "Log4Shell", got)
	})

	t.Run("empty when nothing comparable", func(t *testing.T) {
		assert.Equal(t, "", vuln.ComparableText(map[string]any{"product": "log4j"}))
	})

	t.Run("nil props", func(t *testing.T) {
		assert.Equal(t, "", vuln.ComparableText(nil))
	})

	t.Run("non-string property skipped", func(t *testing.T) {
		got := vuln.ComparableText(map[string]any{"cve_id": 42, "name": "Log4Shell"})
		assert.Equal(t, "Log4Shell", got)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		got := vuln.ComparableText(map[string]any{"cve_id": "  CVE-2024-21412  "})
		assert.Equal(t, "CVE-2024-21412", got)
	})
}
