package moderation

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed words/*.txt
var wordFiles embed.FS

// EmbeddedWords returns the deduplicated censored word list shipped with
// the binary, one word per line, '#' lines ignored.
func EmbeddedWords() ([]string, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var words []string
	for _, entry := range entries {
		f, err := wordFiles.Open("words/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		if err := scanner.Err(); err != nil {
			_ = f.Close()
			return nil, err
		}
		_ = f.Close()
	}
	return words, nil
}
