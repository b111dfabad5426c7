// Package corpus loads the YAML protocol corpus from disk and normalizes it
// into the typed Protocol representation used by the rest of the system.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// Corpus is one immutable load of the protocol directory. Order preserves the
// deterministic insertion order (sorted file names) used for stable search
// tie-breaking.
type Corpus struct {
	Protocols map[string]*models.Protocol
	Order     []string
}

// Get returns the protocol for an id.
func (c *Corpus) Get(id string) (*models.Protocol, bool) {
	p, ok := c.Protocols[id]
	return p, ok
}

// Len returns the number of loaded protocols.
func (c *Corpus) Len() int { return len(c.Order) }

// Parse decodes a single YAML protocol document and normalizes it. fallbackID
// is used when the document omits an explicit id (the source file's stem).
func Parse(data []byte, fallbackID string) (*models.Protocol, error) {
	var p models.Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode protocol: %w", err)
	}
	if p.ID == "" {
		p.ID = fallbackID
	}
	if p.ID == "" {
		return nil, fmt.Errorf("protocol has no id")
	}
	if p.Version == "" {
		p.Version = "v1"
	}
	normalizeSteps(&p)
	return &p, nil
}

// normalizeSteps assigns ordinal ids to steps the author left unnumbered, so
// request-time code never branches on representation.
func normalizeSteps(p *models.Protocol) {
	for i := range p.Steps {
		if !p.Steps[i].HasExplicitID() {
			p.Steps[i].SetOrdinalID(i)
		}
	}
}

// LoadAll reads every *.yaml file under dir. Malformed entries are skipped
// with a warning; the remaining protocols load normally. A missing directory
// yields an empty corpus, not an error.
func LoadAll(dir string, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Corpus{Protocols: make(map[string]*models.Protocol)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("protocol directory not found", "dir", dir)
			return c, nil
		}
		return nil, fmt.Errorf("read protocol dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable protocol file", "file", name, "error", err)
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		p, err := Parse(data, stem)
		if err != nil {
			logger.Warn("skipping malformed protocol file", "file", name, "error", err)
			continue
		}

		if _, dup := c.Protocols[p.ID]; dup {
			logger.Warn("duplicate protocol id, keeping first", "id", p.ID, "file", name)
			continue
		}
		c.Protocols[p.ID] = p
		c.Order = append(c.Order, p.ID)
	}

	logger.Info("protocol corpus loaded", "dir", dir, "protocols", len(c.Order))
	return c, nil
}
