package moderation

import (
	"bufio"
	"bytes"
	"chat-hub/errors"
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed censored/*.txt
var censoredFolder embed.FS

// DefaultDirectory is the embedded folder holding one dictionary per language.
const DefaultDirectory = "censored"

// CensoredData carries the result of the loading process including metadata for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads blacklisted words from a filesystem, one word per line.
type CensoredLoader struct {
	fs fs.FS
}

// NewCensoredLoader reads from the embedded dictionaries when f is nil.
func NewCensoredLoader(f fs.FS) *CensoredLoader {
	if f == nil {
		f = censoredFolder
	}
	return &CensoredLoader{fs: f}
}

// LoadAll treats every .txt file of dir as a language dictionary ("fr.txt" is "fr")
// and returns the unique words found.
func (l *CensoredLoader) LoadAll(dir string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// Scanner handles \n and \r\n alike
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &CensoredData{Words: words, Languages: languages}, nil
}
