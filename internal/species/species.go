// Package species maps scientific names to localized common names using
// the BirdNET label files ("Turdus merula_Common Blackbird" per line).
package species

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/httpclient"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

// maxLabelFileSize caps the label download; the V2.4 files are about 250 KB
const maxLabelFileSize = 8 << 20

// NameMap is an immutable scientific name to common name lookup. The zero
// value and nil are empty maps. Safe for concurrent reads.
type NameMap struct {
	names map[string]string
}

// NewNameMap builds a map from entries, copying them.
func NewNameMap(entries map[string]string) *NameMap {
	names := make(map[string]string, len(entries))
	for k, v := range entries {
		names[k] = v
	}
	return &NameMap{names: names}
}

// Lookup returns the common name for scientificName, or "" when unknown.
func (m *NameMap) Lookup(scientificName string) string {
	if m == nil {
		return ""
	}
	return m.names[scientificName]
}

// Has reports whether scientificName has an entry.
func (m *NameMap) Has(scientificName string) bool {
	if m == nil {
		return false
	}
	_, ok := m.names[scientificName]
	return ok
}

// Len returns the number of entries.
func (m *NameMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Parse reads label lines. Lines without an underscore are ignored; the
// first field is the scientific name and the second the common name.
// Later duplicates win.
func Parse(r io.Reader) (*NameMap, error) {
	names := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.Contains(line, "_") {
			continue
		}
		fields := strings.SplitN(line, "_", 3)
		names[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &NameMap{names: names}, nil
}

// Load fetches and parses the label file at url. Any failure, including a
// non-200 status, returns an empty map together with the error so callers
// can log and carry on.
func Load(ctx context.Context, client *httpclient.Client, url string) (*NameMap, error) {
	empty := NewNameMap(nil)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return empty, labelError(fmt.Errorf("fetch species labels: %w", err), url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return empty, labelError(fmt.Errorf("fetch species labels: unexpected status %s", resp.Status), url)
	}

	m, err := Parse(io.LimitReader(resp.Body, maxLabelFileSize))
	if err != nil {
		return empty, labelError(fmt.Errorf("read species labels: %w", err), url)
	}

	GetLogger().Info("species labels loaded",
		logger.Int("entries", m.Len()),
		logger.String("url", url))
	return m, nil
}

func labelError(err error, url string) error {
	return errors.New(err).
		Component("species").
		Category(errors.CategoryLabelLoad).
		Context("url", url).
		Build()
}
