// Package leaf decodes .leaf manifest files. The format looks like a small
// subset of YAML but is deliberately parsed line by line: the registry must
// accept whatever users upload and show as much metadata as it can recover.
package leaf

import (
	"strings"

	"github.com/treelinux/leafregistry/internal/domain"
)

type listContext int

const (
	listNone listContext = iota
	listFiles
	listDependencies
)

// Parse extracts a manifest projection from raw file content. It never
// fails: malformed lines are skipped, unknown keys ignored, and the caller
// must not assume any field is set.
//
// Scalar keys win last-declared; list order and duplicates are preserved.
func Parse(content []byte) domain.Manifest {
	m := domain.Manifest{Raw: string(content)}

	ctx := listNone
	for _, line := range strings.Split(m.Raw, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "files:"):
			ctx = listFiles

		case strings.HasPrefix(trimmed, "dependencies:"):
			ctx = listDependencies

		case strings.HasPrefix(trimmed, "- "):
			// List items only count inside an active list context.
			if ctx == listNone {
				continue
			}
			item := strings.TrimSpace(trimmed[2:])
			if ctx == listFiles {
				if rest, ok := strings.CutPrefix(item, "path:"); ok {
					item = strings.TrimSpace(rest)
				}
				m.Files = append(m.Files, item)
			} else {
				m.Dependencies = append(m.Dependencies, item)
			}

		case !startsIndented(line):
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			// Any top-level key closes an open list.
			ctx = listNone
			setField(&m, strings.TrimSpace(key), strings.TrimSpace(value))
		}
	}

	return m
}

func startsIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func setField(m *domain.Manifest, key, value string) {
	v := value
	switch strings.ToLower(key) {
	case "name":
		m.Name = &v
	case "version":
		m.Version = &v
	case "description":
		m.Description = &v
	case "author":
		m.Author = &v
	case "license":
		m.License = &v
	case "repository":
		m.Repository = &v
	case "homepage":
		m.Homepage = &v
	}
}
