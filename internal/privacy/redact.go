// Package privacy implements the redaction layer that runs before any
// captured event reaches the buffer. Everything here is pure and stateless:
// the same input always produces the same output, regardless of call order,
// so a flush retry can never leak data that a first attempt redacted.
package privacy

import (
	"regexp"
	"strings"
)

// Marker replaces the matched value portion of a secret. The key name is
// preserved where the pattern can identify it ("password: [REDACTED]").
const Marker = "[REDACTED]"

// CommandMarker replaces an entire shell command that carries credentials.
const CommandMarker = "[REDACTED COMMAND]"

// secretRules is the ordered list of redaction patterns. Order matters:
// PEM blocks are consumed before the key:value rule can chew on their
// header lines.
var secretRules = []struct {
	name string
	re   *regexp.Regexp
	repl string
}{
	{
		name: "pem-private-key",
		re:   regexp.MustCompile(`(?s)-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----.*?(?:-----END (?:[A-Z]+ )*PRIVATE KEY-----|\z)`),
		repl: Marker,
	},
	{
		name: "credential-url",
		re:   regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)([^/\s:@]+):([^/\s@]+)@`),
		repl: `${1}${2}:` + Marker + `@`,
	},
	{
		name: "key-value-secret",
		re:   regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api[_-]?key|apikey|access[_-]?key|private[_-]?key|auth)\b(\s*[:=]\s*)("[^"]*"|'[^']*'|\S+)`),
		repl: `${1}${2}` + Marker,
	},
	{
		name: "bearer-token",
		re:   regexp.MustCompile(`(?i)\b(bearer)\s+[a-zA-Z0-9._~+/=-]{8,}`),
		repl: `${1} ` + Marker,
	},
}

// credentialCommandPatterns match CLI idioms that carry credentials in
// flags rather than key:value text — basic-auth flags on HTTP clients,
// password flags on SSH and database clients.
var credentialCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcurl\b.*\s(?:-u|--user)[= ]\S+`),
	regexp.MustCompile(`(?i)\bwget\b.*--(?:password|http-password|proxy-password|ftp-password)[= ]\S+`),
	regexp.MustCompile(`(?i)\bhttps?\b.*\s(?:-a|--auth)[= ]\S+`),
	regexp.MustCompile(`(?i)\bsshpass\b.*\s-p\s*\S+`),
	regexp.MustCompile(`(?i)\b(?:mysql|mysqldump|mariadb)\b.*\s(?:-p\S+|--password(?:[= ]\S*)?)`),
	regexp.MustCompile(`(?i)\bPGPASSWORD=\S+`),
	regexp.MustCompile(`(?i)(?:^|\s)--password[= ]\S+`),
}

// Redact replaces every secret-shaped substring with the redaction marker.
// Multiple distinct matches are each independently redacted.
func Redact(text string) string {
	for _, rule := range secretRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}

// IsSensitive reports whether any redaction pattern matches the text.
func IsSensitive(text string) bool {
	for _, rule := range secretRules {
		if rule.re.MatchString(text) {
			return true
		}
	}
	return false
}

// RedactCommand sanitizes a shell command before capture. It returns
// ok=false for empty or whitespace-only input. Commands matching a secret
// pattern or a credential-bearing CLI idiom are replaced wholesale with
// CommandMarker — flag-based credentials can't be surgically redacted the
// way key:value text can.
func RedactCommand(cmd string) (string, bool) {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return "", false
	}
	if IsSensitive(trimmed) {
		return CommandMarker, true
	}
	for _, re := range credentialCommandPatterns {
		if re.MatchString(trimmed) {
			return CommandMarker, true
		}
	}
	return trimmed, true
}
