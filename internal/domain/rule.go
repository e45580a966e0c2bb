package domain

import "strings"

// Router rules are boolean expressions over Host(`...`) atoms, joined
// with " || ". The controller only ever emits the two forms below; the
// reverse proxy consumes them verbatim, so the syntax is exact.
const ruleOr = " || "

// BuildRule computes the full router rule for a version.
//
// Every instance answers on its version subdomain. Holding the root
// claim additionally grants the bare root domain and its www variant:
//
//	BuildRule("abcd123", "example.com", false)
//	  -> Host(`abcd123.example.com`)
//	BuildRule("abcd123", "example.com", true)
//	  -> Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)
//
// The rule is always computed whole, never patched, so re-granting an
// existing claim can not duplicate OR-clauses.
func BuildRule(versionID, rootDomain string, claim bool) string {
	rule := hostAtom(versionID + "." + rootDomain)
	if claim {
		rule += ruleOr + hostAtom(rootDomain) + ruleOr + hostAtom("www."+rootDomain)
	}
	return rule
}

func hostAtom(host string) string {
	return "Host(`" + host + "`)"
}

// HasRootClaim reports whether a rule grants the bare root domain.
// Atoms are compared exactly, so a version subdomain of rootDomain
// never counts as a claim.
func HasRootClaim(rule, rootDomain string) bool {
	want := hostAtom(rootDomain)
	for _, atom := range strings.Split(rule, "||") {
		if strings.TrimSpace(atom) == want {
			return true
		}
	}
	return false
}
