package domain

import "testing"

func TestBuildRule(t *testing.T) {
	tests := []struct {
		name       string
		versionID  string
		rootDomain string
		claim      bool
		expected   string
	}{
		{
			name:       "without claim",
			versionID:  "abcd123",
			rootDomain: "example.com",
			claim:      false,
			expected:   "Host(`abcd123.example.com`)",
		},
		{
			name:       "with claim",
			versionID:  "abcd123",
			rootDomain: "example.com",
			claim:      true,
			expected:   "Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)",
		},
		{
			name:       "other version without claim",
			versionID:  "ef56789",
			rootDomain: "example.com",
			claim:      false,
			expected:   "Host(`ef56789.example.com`)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildRule(tt.versionID, tt.rootDomain, tt.claim)
			if result != tt.expected {
				t.Errorf("BuildRule() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestBuildRuleIdempotent(t *testing.T) {
	// Granting an existing claim recomputes the same rule, it never
	// appends another OR-clause.
	first := BuildRule("abcd123", "example.com", true)
	second := BuildRule("abcd123", "example.com", true)
	if first != second {
		t.Errorf("rule changed across builds: %q vs %q", first, second)
	}
}

func TestHasRootClaim(t *testing.T) {
	tests := []struct {
		name       string
		rule       string
		rootDomain string
		expected   bool
	}{
		{
			name:       "claim held",
			rule:       "Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)",
			rootDomain: "example.com",
			expected:   true,
		},
		{
			name:       "claim not held",
			rule:       "Host(`abcd123.example.com`)",
			rootDomain: "example.com",
			expected:   false,
		},
		{
			name:       "version subdomain does not count",
			rule:       "Host(`example.com.evil.io`)",
			rootDomain: "example.com",
			expected:   false,
		},
		{
			name:       "www alone does not count",
			rule:       "Host(`abcd123.example.com`) || Host(`www.example.com`)",
			rootDomain: "example.com",
			expected:   false,
		},
		{
			name:       "tight spacing still parses",
			rule:       "Host(`abcd123.example.com`)||Host(`example.com`)",
			rootDomain: "example.com",
			expected:   true,
		},
		{
			name:       "empty rule",
			rule:       "",
			rootDomain: "example.com",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HasRootClaim(tt.rule, tt.rootDomain)
			if result != tt.expected {
				t.Errorf("HasRootClaim(%q, %q) = %v, want %v", tt.rule, tt.rootDomain, result, tt.expected)
			}
		})
	}
}

func TestBuildRuleRoundTrip(t *testing.T) {
	// A rule built with a claim must be recognized as holding it, and
	// one built without must not.
	if !HasRootClaim(BuildRule("abcd123", "example.com", true), "example.com") {
		t.Error("claimed rule not recognized as holding the root claim")
	}
	if HasRootClaim(BuildRule("abcd123", "example.com", false), "example.com") {
		t.Error("unclaimed rule recognized as holding the root claim")
	}
}
