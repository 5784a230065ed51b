package shoutout

import (
	"regexp"
	"strings"
)

// PlatformDomain is the host used for profile links and URL input.
const PlatformDomain = "twitch.tv"

// profilePrefix matches a Twitch profile URL prefix, with or without scheme and www.
var profilePrefix = regexp.MustCompile(`(?i)^(https?://)?(www\.)?twitch\.tv/`)

// Normalize turns free-text streamer input into a canonical login.
// It accepts bare names, @mentions and profile URLs, and drops every character
// outside [A-Za-z0-9_]. The result is lowercase and may be empty.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if loc := profilePrefix.FindStringIndex(s); loc != nil {
		// first path segment after the host is the login
		s = s[loc[1]:]
		if i := strings.IndexAny(s, "/?"); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// ProfileURL returns the public channel link for a normalized login.
func ProfileURL(login string) string {
	return "https://" + PlatformDomain + "/" + login
}
