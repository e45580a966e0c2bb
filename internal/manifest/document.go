package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrServiceNotFound means the manifest has no block for the service.
	ErrServiceNotFound = errors.New("service not found in manifest")

	// ErrRuleNotFound means the service carries no router-rule label.
	// Fatal when granting a claim (nothing to grant on), a skip when
	// revoking (nothing to revoke).
	ErrRuleNotFound = errors.New("router rule label not found")
)

// routerRuleKey matches the label carrying a Traefik router's rule,
// whatever the router is named: traefik.http.routers.<name>.rule
var routerRuleKey = regexp.MustCompile(`^traefik\.http\.routers\.[A-Za-z0-9_-]+\.rule$`)

// Document is one parsed manifest, kept as a YAML node tree. Mutations
// touch exactly the targeted scalar; ordering, unrelated services and
// every other entry serialize back unchanged. The rule entry is found
// by its association with the service, never by line position.
type Document struct {
	root yaml.Node
}

// Parse decodes manifest bytes into a Document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, fmt.Errorf("failed to parse manifest yaml: %w", err)
	}
	if doc.root.Kind != yaml.DocumentNode || len(doc.root.Content) == 0 {
		return nil, errors.New("failed to parse manifest yaml: empty document")
	}
	return doc, nil
}

// Bytes serializes the document with compose-style 2-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return nil, fmt.Errorf("failed to encode manifest yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode manifest yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Services lists the service names declared in the manifest, in file order.
func (d *Document) Services() []string {
	services := mappingValue(d.top(), "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}
	names := make([]string, 0, len(services.Content)/2)
	for i := 0; i+1 < len(services.Content); i += 2 {
		names = append(names, services.Content[i].Value)
	}
	return names
}

// Rule returns the current router rule for a service.
func (d *Document) Rule(serviceName string) (string, error) {
	entry, err := d.findRule(serviceName)
	if err != nil {
		return "", err
	}
	return entry.get(), nil
}

// SetRule replaces the router rule for a service, leaving every other
// entry of the manifest untouched. The label's form (mapping or
// "key=value" sequence item) and scalar style are preserved.
func (d *Document) SetRule(serviceName, rule string) error {
	entry, err := d.findRule(serviceName)
	if err != nil {
		return err
	}
	entry.set(rule)
	return nil
}

// ruleEntry points at the located rule label in either labels form.
type ruleEntry struct {
	node *yaml.Node // scalar holding the value (mapping) or the whole item (sequence)
	key  string     // label key, set for the sequence form only
}

func (e ruleEntry) get() string {
	if e.key != "" {
		_, value, _ := strings.Cut(e.node.Value, "=")
		return value
	}
	return e.node.Value
}

func (e ruleEntry) set(rule string) {
	if e.key != "" {
		e.node.Value = e.key + "=" + rule
		return
	}
	e.node.Value = rule
	e.node.Tag = "!!str"
}

func (d *Document) findRule(serviceName string) (ruleEntry, error) {
	services := mappingValue(d.top(), "services")
	if services == nil {
		return ruleEntry{}, fmt.Errorf("%q: %w", serviceName, ErrServiceNotFound)
	}
	service := mappingValue(services, serviceName)
	if service == nil {
		return ruleEntry{}, fmt.Errorf("%q: %w", serviceName, ErrServiceNotFound)
	}

	labels := mappingValue(service, "labels")
	if labels == nil {
		return ruleEntry{}, fmt.Errorf("service %q: %w", serviceName, ErrRuleNotFound)
	}

	switch labels.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(labels.Content); i += 2 {
			if routerRuleKey.MatchString(labels.Content[i].Value) {
				return ruleEntry{node: labels.Content[i+1]}, nil
			}
		}
	case yaml.SequenceNode:
		for _, item := range labels.Content {
			key, _, found := strings.Cut(item.Value, "=")
			if found && routerRuleKey.MatchString(key) {
				return ruleEntry{node: item, key: key}, nil
			}
		}
	}
	return ruleEntry{}, fmt.Errorf("service %q: %w", serviceName, ErrRuleNotFound)
}

// top returns the manifest's root mapping.
func (d *Document) top() *yaml.Node {
	return d.root.Content[0]
}

// mappingValue returns the value node for a key inside a mapping node,
// or nil when the node is not a mapping or the key is absent.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
