package logging

import (
	"net/url"
	"strings"
)

// SanitizeSource prepares a modlist source for logging. Sources given as
// URLs lose userinfo, query and fragment so tokens never reach the log;
// local paths are returned unchanged.
func SanitizeSource(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || !strings.Contains(s, "://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
