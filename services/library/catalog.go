// Package library holds the catalog of entities the user wants and resolves
// parsed release titles to them.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"novagrab/models"
	"novagrab/utils/similarity"

	"github.com/spf13/afero"
)

var (
	ErrCatalogPathRequired = errors.New("catalog path not provided")
	ErrIDRequired          = errors.New("entity id is required")
	ErrTitleRequired       = errors.New("entity title is required")
	ErrEntityNotFound      = errors.New("library entity not found")
)

// minSimilarity is the lowest fuzzy score accepted when no clean title
// matches exactly.
const minSimilarity = 0.90

// Catalog is a JSON-file backed set of library entities.
type Catalog struct {
	mu       sync.RWMutex
	fs       afero.Fs
	path     string
	entities map[string]models.LibraryEntity
}

// NewCatalog loads the catalog at path, starting empty when the file does
// not exist yet.
func NewCatalog(fsys afero.Fs, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrCatalogPathRequired
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
	}
	c := &Catalog{
		fs:       fsys,
		path:     path,
		entities: make(map[string]models.LibraryEntity),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns every entity ordered by title.
func (c *Catalog) List() []models.LibraryEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

// Get returns the entity with id.
func (c *Catalog) Get(id string) (models.LibraryEntity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[strings.TrimSpace(id)]
	return cloneEntity(e), ok
}

// Upsert adds or replaces an entity and persists the catalog.
func (c *Catalog) Upsert(entity models.LibraryEntity) (models.LibraryEntity, error) {
	entity = normaliseEntity(entity)
	if entity.ID == "" {
		return models.LibraryEntity{}, ErrIDRequired
	}
	if entity.Title == "" {
		return models.LibraryEntity{}, ErrTitleRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[entity.ID] = entity
	if err := c.saveLocked(); err != nil {
		return models.LibraryEntity{}, err
	}
	return cloneEntity(entity), nil
}

// Remove deletes an entity. It reports whether the entity existed.
func (c *Catalog) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id = strings.TrimSpace(id)
	if _, ok := c.entities[id]; !ok {
		return false, nil
	}
	delete(c.entities, id)
	return true, c.saveLocked()
}

// UpdateQuality records the quality of the file imported for id.
func (c *Catalog) UpdateQuality(id string, quality models.QualityModel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entities[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	e.CurrentQuality = &quality
	c.entities[e.ID] = e
	return c.saveLocked()
}

// Resolve finds the entity a parsed title refers to. Exact clean-title
// matches on the title or an alternate title win, preferring the exact year,
// then a year off by one. Otherwise the most similar title scoring at least
// 0.90 within a year either way is used. Entities or titles without a year
// match any year.
func (c *Catalog) Resolve(title string, year int) (*models.LibraryEntity, bool) {
	clean := similarity.CleanTitle(title)
	if clean == "" {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	entities := c.sortedLocked()

	var near *models.LibraryEntity
	for i := range entities {
		e := &entities[i]
		if !titleMatches(e, clean) {
			continue
		}
		switch yearDistance(e.Year, year) {
		case 0:
			return e, true
		case 1:
			if near == nil {
				near = e
			}
		}
	}
	if near != nil {
		return near, true
	}

	var (
		best      *models.LibraryEntity
		bestScore float64
	)
	for i := range entities {
		e := &entities[i]
		if yearDistance(e.Year, year) > 1 {
			continue
		}
		for _, name := range names(e) {
			score := similarity.Similarity(title, name)
			if score >= minSimilarity && score > bestScore {
				best, bestScore = e, score
			}
		}
	}
	return best, best != nil
}

func titleMatches(e *models.LibraryEntity, clean string) bool {
	for _, name := range names(e) {
		if similarity.CleanTitle(name) == clean {
			return true
		}
	}
	return false
}

func names(e *models.LibraryEntity) []string {
	return append([]string{e.Title}, e.AlternateTitles...)
}

// yearDistance is 0 when either year is unknown.
func yearDistance(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		return a - b
	}
	return b - a
}

func (c *Catalog) sortedLocked() []models.LibraryEntity {
	out := make([]models.LibraryEntity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, cloneEntity(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func (c *Catalog) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := afero.ReadFile(c.fs, c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entities []models.LibraryEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return fmt.Errorf("decode library: %w", err)
	}
	for _, e := range entities {
		e = normaliseEntity(e)
		if e.ID == "" || e.Title == "" {
			continue
		}
		c.entities[e.ID] = e
	}
	return nil
}

func (c *Catalog) saveLocked() error {
	entities := c.sortedLocked()

	tmp := c.path + ".tmp"
	file, err := c.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create library temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entities); err != nil {
		file.Close()
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("encode library: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("sync library: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("close library temp file: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace library file: %w", err)
	}
	return nil
}

func normaliseEntity(e models.LibraryEntity) models.LibraryEntity {
	e.ID = strings.TrimSpace(e.ID)
	e.Title = strings.TrimSpace(e.Title)
	e.Kind = models.EntityKind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
	if e.Kind == "" {
		e.Kind = models.EntityKindMovie
	}
	alts := e.AlternateTitles[:0:0]
	for _, alt := range e.AlternateTitles {
		if alt = strings.TrimSpace(alt); alt != "" {
			alts = append(alts, alt)
		}
	}
	e.AlternateTitles = alts
	return e
}

func cloneEntity(e models.LibraryEntity) models.LibraryEntity {
	out := e
	if e.AlternateTitles != nil {
		out.AlternateTitles = append([]string(nil), e.AlternateTitles...)
	}
	if e.CurrentQuality != nil {
		q := *e.CurrentQuality
		out.CurrentQuality = &q
	}
	return out
}
