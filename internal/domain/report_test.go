package domain

import (
	"strings"
	"testing"
)

func TestReportSucceeded(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		expected bool
	}{
		{
			name:     "clean run",
			report:   Report{TargetApplied: true},
			expected: true,
		},
		{
			name:     "target failed",
			report:   Report{Error: "apply app-abcd123: exit status 1"},
			expected: false,
		},
		{
			name: "discovery failed after cutover",
			report: Report{
				TargetApplied: true,
				Error:         "list containers: daemon unreachable",
			},
			expected: false,
		},
		{
			name: "other failures are isolated",
			report: Report{
				TargetApplied: true,
				Others: []OtherResult{
					{VersionID: "ef56789", Outcome: OutcomeFailed, Detail: "write failed"},
				},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Succeeded(); got != tt.expected {
				t.Errorf("Succeeded() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReportSummary(t *testing.T) {
	r := Report{
		Target:        "abcd123",
		RootDomain:    "example.com",
		TargetApplied: true,
		Others: []OtherResult{
			{VersionID: "ef56789", Outcome: OutcomeRevoked},
			{VersionID: "9876fed", Outcome: OutcomeSkipped, Detail: "no manifest"},
			{VersionID: "5432abc", Outcome: OutcomeFailed, Detail: "apply app-5432abc: exit status 1"},
		},
	}

	summary := r.Summary()

	wantLines := []string{
		"🚀 rollback abcd123 -> example.com",
		"✅ target abcd123: root claim granted",
		"✅ ef56789: root claim revoked",
		"9876fed: skipped (no manifest)",
		"❌ 5432abc: apply app-5432abc: exit status 1",
	}
	for _, want := range wantLines {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q\ngot:\n%s", want, summary)
		}
	}
}

func TestReportSummaryTargetFailure(t *testing.T) {
	r := Report{
		Target:     "abcd123",
		RootDomain: "example.com",
		Error:      "target manifest missing",
	}

	summary := r.Summary()
	if !strings.Contains(summary, "❌ target abcd123: target manifest missing") {
		t.Errorf("Summary() missing target failure line, got:\n%s", summary)
	}
	if strings.Contains(summary, "granted") {
		t.Errorf("Summary() claims success on a failed run:\n%s", summary)
	}
}

func TestReportSummaryDryRun(t *testing.T) {
	r := Report{
		Target:        "abcd123",
		RootDomain:    "example.com",
		DryRun:        true,
		TargetApplied: true,
		Others: []OtherResult{
			{VersionID: "ef56789", Outcome: OutcomeRevoked},
		},
	}

	summary := r.Summary()
	for _, want := range []string{"(dry run)", "would grant root claim", "would revoke root claim"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q\ngot:\n%s", want, summary)
		}
	}
}
