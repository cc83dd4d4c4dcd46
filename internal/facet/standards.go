package facet

import "strings"

var owaspTop10_2021 = map[string]string{
	"a1":  "Broken Access Control",
	"a2":  "Cryptographic Failures",
	"a3":  "Injection",
	"a4":  "Insecure Design",
	"a5":  "Security Misconfiguration",
	"a6":  "Vulnerable and Outdated Components",
	"a7":  "Identification and Authentication Failures",
	"a8":  "Software and Data Integrity Failures",
	"a9":  "Security Logging and Monitoring Failures",
	"a10": "Server-Side Request Forgery (SSRF)",
}

// OWASPTop10_2021Category renders an OWASP Top 10 2021 facet value such as
// "a3" as "A3 - Injection". Unknown values are returned upper-cased.
func OWASPTop10_2021Category(val string) string {
	code := strings.ToUpper(val)
	if title, ok := owaspTop10_2021[val]; ok {
		return code + " - " + title
	}
	return code
}

// Label renders a facet value for display.
func Label(d Dimension, val string) string {
	if d == OWASPTop10_2021 {
		return OWASPTop10_2021Category(val)
	}
	return val
}
