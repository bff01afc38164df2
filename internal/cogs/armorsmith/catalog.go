package armorsmith

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/snakecogs/cogvault/internal/filex"
	"github.com/snakecogs/cogvault/internal/logging"
)

// catalogFile is the on-disk shape of the item list.
type catalogFile struct {
	Weapons []Item `json:"weapons_list"`
	Armor   []Item `json:"armor_list"`
	Potions []Item `json:"potion_list"`
}

// Catalog is the shop's item list, loaded from a JSON file and reloaded
// when the file changes. Lookups are case-insensitive.
type Catalog struct {
	path string
	log  logging.Logger

	mu     sync.RWMutex
	items  []Item
	byName map[string]Item
}

func NewCatalog(path string, log logging.Logger) *Catalog {
	if log == nil {
		log = logging.Nop()
	}
	return &Catalog{
		path:   path,
		log:    log.With("component", "catalog"),
		byName: make(map[string]Item),
	}
}

// Load reads the catalog file. Kind is implied by the list an item sits
// in; the file does not repeat it per entry.
func (c *Catalog) Load() error {
	var file catalogFile
	if err := filex.LoadJSON(c.path, &file); err != nil {
		return fmt.Errorf("loading catalog %s: %w", c.path, err)
	}

	var items []Item
	stamp := func(kind Kind, list []Item) {
		for _, item := range list {
			item.Kind = kind
			items = append(items, item)
		}
	}
	stamp(KindWeapon, file.Weapons)
	stamp(KindArmor, file.Armor)
	stamp(KindPotion, file.Potions)

	byName := make(map[string]Item, len(items))
	for _, item := range items {
		byName[strings.ToLower(item.Name)] = item
	}

	c.mu.Lock()
	c.items = items
	c.byName = byName
	c.mu.Unlock()
	return nil
}

// ItemByName finds a catalog item, ignoring case.
func (c *Catalog) ItemByName(name string) (Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	return item, nil
}

// Items returns the catalog entries in file order.
func (c *Catalog) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Render lists the shop's stock grouped by kind, for the store list
// command.
func (c *Catalog) Render() string {
	sections := []struct {
		title string
		kind  Kind
	}{
		{"Weapons", KindWeapon},
		{"Armor", KindArmor},
		{"Potions", KindPotion},
	}

	var b strings.Builder
	b.WriteString("Item Shop. What're ya buyin', traveler?\n")
	for _, section := range sections {
		b.WriteString(section.title + ":\n")
		for _, item := range c.Items() {
			if item.Kind == section.kind {
				b.WriteString("  " + item.Describe() + "\n")
			}
		}
	}
	b.WriteString("Buy using the store buy command.")
	return b.String()
}

// Watch reloads the catalog whenever its file is written. It blocks
// until ctx is cancelled or the watcher fails; run it in a goroutine.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.path); err != nil {
		return fmt.Errorf("watching %s: %w", c.path, err)
	}
	c.log.Info(ctx, "watching catalog", "path", c.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.Load(); err != nil {
				// keep serving the previous catalog
				c.log.Error(ctx, "catalog reload failed", "err", err)
				continue
			}
			c.log.Info(ctx, "catalog reloaded", "path", c.path, "items", len(c.Items()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Error(ctx, "catalog watcher error", "err", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
