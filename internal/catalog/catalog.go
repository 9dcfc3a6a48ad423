package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCardNotFound is returned when an id is not in the catalog
var ErrCardNotFound = errors.New("card not found")

// LoadError reports a missing or malformed card source
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load cards from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the card document at path. The document must be a JSON array of
// objects, each with a unique integer id. Order is preserved.
func Load(path string) ([]Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return parse(path, data)
}

func parse(path string, data []byte) ([]Card, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("expected a JSON array of cards: %w", err)}
	}

	cards := make([]Card, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("card #%d is not an object", i)}
		}
		id, err := cardID(rec)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("card #%d: %w", i, err)}
		}
		if seen[id] {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("duplicate card id %d", id)}
		}
		seen[id] = true
		cards = append(cards, resolve(id, rec))
	}
	return cards, nil
}

// Snapshot is an immutable view of one successful load
type Snapshot struct {
	cards     []Card
	index     map[int]int
	overrides Overrides
	modTime   time.Time
	size      int64
}

func newSnapshot(cards []Card, overrides Overrides, info os.FileInfo) *Snapshot {
	index := make(map[int]int, len(cards))
	for i, c := range cards {
		index[c.ID] = i
	}
	return &Snapshot{
		cards:     cards,
		index:     index,
		overrides: overrides,
		modTime:   info.ModTime(),
		size:      info.Size(),
	}
}

// Cards returns every card in source order with overrides applied
func (s *Snapshot) Cards() []Card {
	out := make([]Card, len(s.cards))
	for i, c := range s.cards {
		out[i] = s.overrides.Apply(c)
	}
	return out
}

// Lookup returns the card with the given id
func (s *Snapshot) Lookup(id int) (Card, bool) {
	i, ok := s.index[id]
	if !ok {
		return Card{}, false
	}
	return s.overrides.Apply(s.cards[i]), true
}

// Contains reports whether id is in the snapshot
func (s *Snapshot) Contains(id int) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Snapshot) Len() int {
	return len(s.cards)
}

// Catalog serves the current card snapshot and reloads it when the source
// file changes on disk. Readers never see a partially loaded catalog.
type Catalog struct {
	path      string
	overrides Overrides

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// New loads the catalog at path. A LoadError here is fatal to the caller.
func New(path string, overrides Overrides) (*Catalog, error) {
	if overrides == nil {
		overrides = Overrides{}
	}
	c := &Catalog{path: path, overrides: overrides}

	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)
	return c, nil
}

func (c *Catalog) load() (*Snapshot, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, &LoadError{Path: c.path, Err: err}
	}
	cards, err := Load(c.path)
	if err != nil {
		return nil, err
	}
	return newSnapshot(cards, c.overrides, info), nil
}

// Current returns the latest snapshot, reloading first if the source file's
// modification time or size changed. If the reload fails the previous
// snapshot is returned together with the error.
func (c *Catalog) Current() (*Snapshot, error) {
	snap := c.current.Load()

	info, err := os.Stat(c.path)
	if err != nil {
		return snap, &LoadError{Path: c.path, Err: err}
	}
	if info.ModTime().Equal(snap.modTime) && info.Size() == snap.size {
		return snap, nil
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	// Another caller may have reloaded while we waited
	if latest := c.current.Load(); latest != snap {
		return latest, nil
	}

	next, err := c.load()
	if err != nil {
		return snap, err
	}
	c.current.Store(next)
	return next, nil
}

// Lookup returns the card with id from the current snapshot. When a reload
// fails the card comes from the previous snapshot and the LoadError is
// returned with it.
func (c *Catalog) Lookup(id int) (Card, error) {
	snap, reloadErr := c.Current()
	card, ok := snap.Lookup(id)
	if !ok {
		return Card{}, errors.Join(fmt.Errorf("card %d: %w", id, ErrCardNotFound), reloadErr)
	}
	return card, reloadErr
}

// Path is the source document location
func (c *Catalog) Path() string {
	return c.path
}
