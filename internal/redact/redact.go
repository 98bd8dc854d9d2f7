// Package redact masks credentials in strings before they reach logs or
// error responses. Database errors and connection strings are the usual
// carriers: driver errors may echo the DSN, and connection failures may quote
// the password.
package redact

import (
	"net/url"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules are applied in order. Connection URLs go first so that the
// key/value password rule does not split them.
var rules = []rule{
	{
		pattern:     regexp.MustCompile(`(?i)((?:postgres|postgresql|pgx|sqlite3?|mysql)://)[^@\s/]+@`),
		replacement: "${1}" + RedactedCredentialPlaceholder + "@",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*)(['"]?)[^'"&\s]+(['"]?)`),
		replacement: "${1}${2}${3}" + RedactedCredentialPlaceholder + "${4}",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(user|username)(\s*=\s*)(['"]?)[^'"&\s]+(['"]?)`),
		replacement: "${1}${2}${3}" + RedactionPlaceholder + "${4}",
	},
	{
		pattern:     regexp.MustCompile(`(/[\w.-]+){3,}`),
		replacement: RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// DSN masks the password of a URL-style connection string while keeping
// host, port, database and options readable. Anything that does not parse as
// a URL with user info is passed through String.
func DSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return String(dsn)
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
