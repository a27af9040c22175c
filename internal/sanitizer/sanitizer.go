// Package sanitizer strips dangerous commands and injection payloads from
// an upstream model's response before it reaches the caller.
package sanitizer

import (
	"fmt"
	"regexp"
)

var (
	destructiveShell = regexp.MustCompile(
		`(?i)(?:rm\s+-[rf]+\s+/|mkfs\b|dd\s+if=|>\s*/dev/sd|fork\s*bomb|:\(\)\s*\{|chmod\s+-R\s+777\s+/|shutdown\s|reboot\s|init\s+0|kill\s+-9\s+-1)`)

	destructiveSQL = regexp.MustCompile(
		`(?i)\b(?:DROP\s+(?:TABLE|DATABASE|SCHEMA|INDEX)\b|TRUNCATE\s+TABLE\b|DELETE\s+FROM\s+\S+\s*(?:;|$)|ALTER\s+TABLE\s+\S+\s+DROP\b|UPDATE\s+\S+\s+SET\s+.*WHERE\s+1\s*=\s*1)`)

	scriptInjection = regexp.MustCompile(
		`(?i)<script[\s>]|javascript\s*:|on(?:load|error|click)\s*=|eval\s*\(|document\.(?:cookie|write)|window\.(?:location|open)`)

	networkAttack = regexp.MustCompile(
		`(?i)(?:nc\s+-[elp]+|ncat\s+-[elp]+|bash\s+-i\s+>&|/dev/tcp/|reverse.?shell|bind.?shell|msfvenom|metasploit)`)

	privilegeEscalation = regexp.MustCompile(
		`(?i)(?:sudo\s+su\b|passwd\s+root|chmod\s+[u+]*s\b|setuid|/etc/shadow|/etc/passwd\s*>>)`)
)

// redactedNotice replaces each removed match in the output text.
const redactedNotice = "[⚠ removed for safety: dangerous command detected]"

var patterns = []struct {
	re       *regexp.Regexp
	category string
}{
	{destructiveShell, "destructive shell command"},
	{destructiveSQL, "destructive SQL command"},
	{scriptInjection, "script injection"},
	{networkAttack, "network attack command"},
	{privilegeEscalation, "privilege escalation command"},
}

// Sanitize removes dangerous commands from text, returning the cleaned
// text and a description of each removed match for audit logging.
func Sanitize(text string) (string, []string) {
	sanitized := text
	var removed []string

	for _, p := range patterns {
		for _, match := range p.re.FindAllString(sanitized, -1) {
			removed = append(removed, fmt.Sprintf("%s: %s", p.category, match))
		}
		sanitized = p.re.ReplaceAllString(sanitized, redactedNotice)
	}

	return sanitized, removed
}
