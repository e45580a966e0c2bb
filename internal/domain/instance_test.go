package domain

import "testing"

func TestConventionServiceName(t *testing.T) {
	conv := Convention{Prefix: "app"}
	if got := conv.ServiceName("abcd123"); got != "app-abcd123" {
		t.Errorf("ServiceName() = %q, want %q", got, "app-abcd123")
	}
}

func TestConventionParseServiceName(t *testing.T) {
	conv := Convention{Prefix: "app"}

	tests := []struct {
		name      string
		input     string
		versionID string
		ok        bool
	}{
		{
			name:      "plain name",
			input:     "app-abcd123",
			versionID: "abcd123",
			ok:        true,
		},
		{
			name:      "runtime leading slash",
			input:     "/app-ef56789",
			versionID: "ef56789",
			ok:        true,
		},
		{
			name:  "wrong prefix",
			input: "api-abcd123",
			ok:    false,
		},
		{
			name:  "prefix only",
			input: "app-",
			ok:    false,
		},
		{
			name:  "no separator",
			input: "appabcd123",
			ok:    false,
		},
		{
			name:  "version id with extra segment",
			input: "app-abcd123-db",
			ok:    false,
		},
		{
			name:  "unrelated service",
			input: "traefik",
			ok:    false,
		},
		{
			name:  "empty name",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versionID, ok := conv.ParseServiceName(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseServiceName(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && versionID != tt.versionID {
				t.Errorf("ParseServiceName(%q) = %q, want %q", tt.input, versionID, tt.versionID)
			}
		})
	}
}

func TestConventionInstance(t *testing.T) {
	conv := Convention{Prefix: "app"}
	inst := conv.Instance("abcd123", true)

	if inst.VersionID != "abcd123" {
		t.Errorf("VersionID = %q, want %q", inst.VersionID, "abcd123")
	}
	if inst.ServiceName != "app-abcd123" {
		t.Errorf("ServiceName = %q, want %q", inst.ServiceName, "app-abcd123")
	}
	if !inst.Running {
		t.Error("Running = false, want true")
	}
}

func TestValidVersionID(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"abcd123", true},
		{"EF56789", true},
		{"7", true},
		{"", false},
		{"abc-123", false},
		{"abc.123", false},
		{"abc 123", false},
		{"abc/123", false},
	}

	for _, tt := range tests {
		if got := ValidVersionID(tt.input); got != tt.expected {
			t.Errorf("ValidVersionID(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
