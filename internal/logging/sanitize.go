package logging

import (
	"regexp"
	"strings"
)

// RedactedText replaces sensitive values.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Azure storage connection strings
	accountKeyPattern = regexp.MustCompile(`(?i)(AccountKey|SharedAccessSignature|sig)=[^;&\s]+`)

	// user:pass@host
	userInfoPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

	// snowflake/mssql style user:pass@account without a scheme
	bareUserInfoPattern = regexp.MustCompile(`^([^:/@\s]+):[^@\s]+@`)
)

// SanitizeDSN removes secrets from a DSN or connection string.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	s := passwordPattern.ReplaceAllString(dsn, "${1}="+RedactedText)
	s = accountKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = userInfoPattern.ReplaceAllString(s, "://"+RedactedText+"@")
	if !strings.Contains(s, "://") {
		s = bareUserInfoPattern.ReplaceAllString(s, "${1}:"+RedactedText+"@")
	}
	return s
}

// SanitizeError returns err's message with secrets removed. Driver errors
// sometimes echo the DSN they failed to use.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeDSN(err.Error())
}
