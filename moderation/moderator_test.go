package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T) Moderator {
	t.Helper()
	moderator, err := NewModerator([]string{"hate", "stupid"}, '*')
	require.NoError(t, err)
	return moderator
}

func TestModerator_Censor(t *testing.T) {
	moderator := newTestModerator(t)

	t.Run("should leave clean content untouched", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("hello, nice to meet you")

		req.Equal("hello, nice to meet you", sanitized)
		req.Empty(found)
	})

	t.Run("should mask a forbidden word and report it", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("I hate mondays")

		req.Equal("I **** mondays", sanitized)
		req.Equal([]string{"hate"}, found)
	})

	t.Run("should catch leet-speak variants", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("you are s0 5tup1d")

		req.Equal("you are s0 ******", sanitized)
		req.Equal([]string{"stupid"}, found)
	})

	t.Run("should catch words split by punctuation", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("h.a.t.e")

		req.Equal("*******", sanitized)
		req.Equal([]string{"hate"}, found)
	})

	t.Run("should be case insensitive", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("HATE")

		req.Equal("****", sanitized)
		req.Equal([]string{"hate"}, found)
	})

	t.Run("should handle empty content", func(t *testing.T) {
		req := require.New(t)

		sanitized, found := moderator.Censor("")

		req.Empty(sanitized)
		req.Empty(found)
	})
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("The quick brown fox jumps over the lazy dog and keeps running"))
	req.Equal("fr", DetectLanguage("Le renard brun et rapide saute par-dessus le chien paresseux"))
}

func TestEmbeddedWords(t *testing.T) {
	req := require.New(t)

	words, err := EmbeddedWords()

	req.NoError(err)
	req.NotEmpty(words)
	for _, word := range words {
		req.NotEmpty(word)
		req.NotContains(word, "#")
	}
}
