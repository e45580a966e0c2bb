package manifest

import (
	"errors"
	"strings"
	"testing"
)

const mappingManifest = `# deployed by ship.sh, do not edit by hand
services:
  app:
    image: registry.domain.ext/shop:abcd123
    container_name: app-abcd123
    restart: unless-stopped
    networks:
      - web
    labels:
      traefik.enable: "true"
      traefik.http.routers.app-abcd123.entrypoints: websecure
      traefik.http.routers.app-abcd123.rule: Host(` + "`abcd123.example.com`" + `)
      traefik.http.routers.app-abcd123.tls.certresolver: letsencrypt
      traefik.http.services.app-abcd123.loadbalancer.server.port: "3000"
  db:
    image: postgres:16
    restart: unless-stopped
    volumes:
      - dbdata:/var/lib/postgresql/data
volumes:
  dbdata:
networks:
  web:
    external: true
`

const sequenceManifest = `services:
  app:
    image: registry.domain.ext/shop:ef56789
    container_name: app-ef56789
    labels:
      - traefik.enable=true
      - traefik.http.routers.app-ef56789.entrypoints=websecure
      - traefik.http.routers.app-ef56789.rule=Host(` + "`ef56789.example.com`" + `) || Host(` + "`example.com`" + `) || Host(` + "`www.example.com`" + `)
      - traefik.http.routers.app-ef56789.tls.certresolver=letsencrypt
`

func TestDocumentRule(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		service  string
		expected string
	}{
		{
			name:     "mapping form labels",
			manifest: mappingManifest,
			service:  "app",
			expected: "Host(`abcd123.example.com`)",
		},
		{
			name:     "sequence form labels",
			manifest: sequenceManifest,
			service:  "app",
			expected: "Host(`ef56789.example.com`) || Host(`example.com`) || Host(`www.example.com`)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.manifest))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			rule, err := doc.Rule(tt.service)
			if err != nil {
				t.Fatalf("Rule() error: %v", err)
			}
			if rule != tt.expected {
				t.Errorf("Rule() = %q, want %q", rule, tt.expected)
			}
		})
	}
}

func TestDocumentRuleErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		service  string
		wantErr  error
	}{
		{
			name:     "unknown service",
			manifest: mappingManifest,
			service:  "web",
			wantErr:  ErrServiceNotFound,
		},
		{
			name:     "service without labels",
			manifest: mappingManifest,
			service:  "db",
			wantErr:  ErrRuleNotFound,
		},
		{
			name:     "labels without rule",
			manifest: "services:\n  app:\n    labels:\n      traefik.enable: \"true\"\n",
			service:  "app",
			wantErr:  ErrRuleNotFound,
		},
		{
			name:     "no services block",
			manifest: "volumes:\n  dbdata:\n",
			service:  "app",
			wantErr:  ErrServiceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.manifest))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if _, err := doc.Rule(tt.service); !errors.Is(err, tt.wantErr) {
				t.Errorf("Rule() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocumentSetRuleMappingForm(t *testing.T) {
	doc, err := Parse([]byte(mappingManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	claimed := "Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)"
	if err := doc.SetRule("app", claimed); err != nil {
		t.Fatalf("SetRule() error: %v", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(rewritten) error: %v", err)
	}
	rule, err := reparsed.Rule("app")
	if err != nil {
		t.Fatalf("Rule(rewritten) error: %v", err)
	}
	if rule != claimed {
		t.Errorf("rewritten rule = %q, want %q", rule, claimed)
	}

	// Everything but the one scalar must survive the rewrite.
	for _, keep := range []string{
		"# deployed by ship.sh, do not edit by hand",
		"image: registry.domain.ext/shop:abcd123",
		"container_name: app-abcd123",
		"traefik.http.routers.app-abcd123.entrypoints: websecure",
		"traefik.http.routers.app-abcd123.tls.certresolver: letsencrypt",
		`traefik.http.services.app-abcd123.loadbalancer.server.port: "3000"`,
		"image: postgres:16",
		"dbdata:/var/lib/postgresql/data",
		"external: true",
	} {
		if !strings.Contains(string(out), keep) {
			t.Errorf("rewrite lost %q\noutput:\n%s", keep, out)
		}
	}
}

func TestDocumentSetRuleSequenceForm(t *testing.T) {
	doc, err := Parse([]byte(sequenceManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	demoted := "Host(`ef56789.example.com`)"
	if err := doc.SetRule("app", demoted); err != nil {
		t.Fatalf("SetRule() error: %v", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	// The sequence item keeps its key=value form.
	want := "- traefik.http.routers.app-ef56789.rule=Host(`ef56789.example.com`)"
	if !strings.Contains(string(out), want) {
		t.Errorf("rewrite missing %q\noutput:\n%s", want, out)
	}
	if strings.Contains(string(out), "www.example.com") {
		t.Errorf("claim atoms survived revocation:\n%s", out)
	}
	for _, keep := range []string{
		"- traefik.enable=true",
		"- traefik.http.routers.app-ef56789.entrypoints=websecure",
		"- traefik.http.routers.app-ef56789.tls.certresolver=letsencrypt",
	} {
		if !strings.Contains(string(out), keep) {
			t.Errorf("rewrite lost %q\noutput:\n%s", keep, out)
		}
	}
}

func TestDocumentSetRuleIdempotent(t *testing.T) {
	doc, err := Parse([]byte(mappingManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	rule := "Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)"
	if err := doc.SetRule("app", rule); err != nil {
		t.Fatalf("first SetRule() error: %v", err)
	}
	first, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	if err := doc.SetRule("app", rule); err != nil {
		t.Fatalf("second SetRule() error: %v", err)
	}
	second, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("repeated SetRule changed output:\n--- first\n%s\n--- second\n%s", first, second)
	}
	if count := strings.Count(string(second), "Host(`example.com`)"); count != 1 {
		t.Errorf("root atom appears %d times, want 1:\n%s", count, second)
	}
}

func TestDocumentSetRuleUnknownService(t *testing.T) {
	doc, err := Parse([]byte(mappingManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if err := doc.SetRule("web", "Host(`x.example.com`)"); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("SetRule() error = %v, want %v", err, ErrServiceNotFound)
	}
}

func TestDocumentServices(t *testing.T) {
	doc, err := Parse([]byte(mappingManifest))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	services := doc.Services()
	if len(services) != 2 || services[0] != "app" || services[1] != "db" {
		t.Errorf("Services() = %v, want [app db]", services)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Error("Parse(nil) should fail")
	}
	if _, err := Parse([]byte("   \n")); err == nil {
		t.Error("Parse(blank) should fail")
	}
}
