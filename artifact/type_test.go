package artifact

import "testing"

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want bool
	}{
		{"ip is valid", TypeIP, true},
		{"domain is valid", TypeDomain, true},
		{"hash is valid", TypeHash, true},
		{"threat group is valid", TypeThreatGroup, true},
		{"incident is valid", TypeIncident, true},
		{"unknown is valid", TypeUnknown, true},
		{"empty is invalid", Type(""), false},
		{"made up is invalid", Type("widget"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsContext(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want bool
	}{
		{"incident is context", TypeIncident, true},
		{"attack step is context", TypeAttackStep, true},
		{"campaign is context", TypeCampaign, true},
		{"ip is not context", TypeIP, false},
		{"malware is not context", TypeMalware, false},
		{"threat group is not context", TypeThreatGroup, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsContext(); got != tt.want {
				t.Errorf("Type.IsContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{"canonical ip", "ip", TypeIP, false},
		{"uppercase", "DOMAIN", TypeDomain, false},
		{"mixed case", "Malware", TypeMalware, false},
		{"alias ipv4", "IPv4", TypeIP, false},
		{"alias cve", "CVE", TypeVulnerability, false},
		{"alias actor", "actor", TypeThreatGroup, false},
		{"alias threat actor with space", "Threat Actor", TypeThreatGroup, false},
		{"alias attack technique", "attack-technique", TypeTechnique, false},
		{"trimmed", "  hash  ", TypeHash, false},
		{"unknown word", "gizmo", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAllTypes(t *testing.T) {
	for _, typ := range AllTypes() {
		if !typ.IsValid() {
			t.Errorf("AllTypes returned invalid type %q", typ)
		}
	}
}
