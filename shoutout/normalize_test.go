package shoutout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@Foo", "foo"},
		{"https://twitch.tv/Bar/", "bar"},
		{"https://www.twitch.tv/Baz?ref=1", "baz"},
		{"!!weird$$", "weird"},
		{"", ""},
		{"   ", ""},
		{"  PlainName  ", "plainname"},
		{"http://twitch.tv/old_school", "old_school"},
		{"HTTPS://WWW.TWITCH.TV/Loud", "loud"},
		{"twitch.tv/NoScheme", "noscheme"},
		{"www.twitch.tv/NoScheme2/videos", "noscheme2"},
		{"https://twitch.tv/clipper/clip/SomeSlug", "clipper"},
		{"@@double", "double"},
		{"name?utm=1", "name"},
		{"name///", "name"},
		{"✨StarStreamer✨", "starstreamer"},
		{"🎮🎮", ""},
		{"user_123", "user_123"},
		{"@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"@Foo", "https://twitch.tv/Bar/", "https://www.twitch.tv/Baz?ref=1", "!!weird$$", "",
		"@@@x", "twitch.tv/a/b?c", "https://example.com/user", "Ünïcödé_Name", "  @ spaced",
		"ALLCAPS", "a?b/c", "/leading", "?", "__", "https://twitch.tv/", "twitch.tvname",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
		assert.Regexp(t, `^[a-z0-9_]*$`, once, "Normalize(%q) produced non-canonical output", in)
	}
}

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "https://twitch.tv/alice", ProfileURL("alice"))
}
