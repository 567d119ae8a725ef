// Package library scans a peer's directory for the documents it holds.
// Documents are files named doc<id>.txt; a document's title is the first
// non-empty line of the file.
package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/docdex/docdex/internal/shared/models"
)

const maxTitleLen = 80

// DocumentPath is where document id lives (or would live) under dir.
func DocumentPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("doc%d.txt", id))
}

// FindDocuments lists the documents held under dir, sorted by id. Files
// not matching the doc<id>.txt naming are ignored. A missing directory
// yields an empty list, not an error.
func FindDocuments(dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var docs []models.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseDocName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		docs = append(docs, models.Document{
			ID:    id,
			Title: readTitle(path, id),
			Path:  path,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func parseDocName(name string) (int, bool) {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, "doc") || !strings.HasSuffix(lower, ".txt") {
		return 0, false
	}
	id, err := strconv.Atoi(lower[3 : len(lower)-4])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// readTitle returns the first non-empty line truncated to 80 chars,
// falling back to "Document <id>" for unreadable or empty files.
func readTitle(path string, id int) string {
	fallback := fmt.Sprintf("Document %d", id)

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) > maxTitleLen {
			line = line[:maxTitleLen]
		}
		return line
	}
	return fallback
}
