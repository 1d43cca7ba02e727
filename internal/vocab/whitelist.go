package vocab

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// whitelistDocument is the YAML form of a whitelist file.
type whitelistDocument struct {
	Words []string `yaml:"words"`
}

// LoadWhitelistFile reads a whitelist from path and installs it. Files ending
// in .yaml or .yml hold either a top-level list or a "words" list; anything
// else is plain text with whitespace-separated words and "#" comments.
func (f *Filter) LoadWhitelistFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read whitelist %s: %w", path, err)
	}

	var words []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		words, err = ParseWhitelistYAML(data)
	default:
		words, err = ParseWhitelistText(bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("parse whitelist %s: %w", path, err)
	}

	f.LoadWhitelist(words)
	return nil
}

// ParseWhitelistYAML decodes a YAML whitelist.
func ParseWhitelistYAML(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return []string{}, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var words []string
		if err := root.Decode(&words); err != nil {
			return nil, err
		}
		return words, nil
	case yaml.MappingNode:
		var doc whitelistDocument
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Words, nil
	}
	return nil, fmt.Errorf("whitelist must be a list or a mapping with a 'words' key")
}

// ParseWhitelistText reads a plain-text whitelist.
func ParseWhitelistText(r io.Reader) ([]string, error) {
	words := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		words = append(words, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
