package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"agency-cms/internal/shared/logger"
)

// Snapshot is the verbatim content of the three client stores
type Snapshot struct {
	Cookies        map[string]string `json:"cookies"`
	LocalStorage   map[string]string `json:"localStorage"`
	SessionStorage map[string]string `json:"sessionStorage"`
}

// Source reads every entry of one client store
type Source interface {
	Entries(ctx context.Context) (map[string]string, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (map[string]string, error)

func (f SourceFunc) Entries(ctx context.Context) (map[string]string, error) { return f(ctx) }

// MapSource serves a fixed set of entries
type MapSource map[string]string

func (m MapSource) Entries(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// Collector snapshots cookies, localStorage and sessionStorage. A source
// that fails contributes an empty map; the others are still collected.
type Collector struct {
	cookies Source
	local   Source
	session Source
	logger  logger.Logger
}

// NewCollector creates a collector. A nil source is treated as empty.
func NewCollector(cookies, local, session Source, log logger.Logger) *Collector {
	return &Collector{cookies: cookies, local: local, session: session, logger: log.WithComponent("tracker.collector")}
}

// Collect reads all three stores. It never fails.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	return Snapshot{
		Cookies:        c.read(ctx, "cookies", c.cookies),
		LocalStorage:   c.read(ctx, "localStorage", c.local),
		SessionStorage: c.read(ctx, "sessionStorage", c.session),
	}
}

func (c *Collector) read(ctx context.Context, name string, src Source) map[string]string {
	if src == nil {
		return map[string]string{}
	}
	entries, err := src.Entries(ctx)
	if err != nil {
		c.logger.Warnf("Could not read %s: %v", name, err)
		return map[string]string{}
	}
	if entries == nil {
		return map[string]string{}
	}
	return entries
}

// FileSnapshot reads the stores from a JSON file shaped like Snapshot. The
// file is read again on every collection so edits show up on the next
// report.
type FileSnapshot struct {
	path string
}

// NewFileSnapshot creates a reader for path
func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{path: path}
}

func (f *FileSnapshot) load() (Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: malformed snapshot file: %v", ErrStoreUnavailable, err)
	}
	return snap, nil
}

func (f *FileSnapshot) section(pick func(Snapshot) map[string]string) Source {
	return SourceFunc(func(context.Context) (map[string]string, error) {
		snap, err := f.load()
		if err != nil {
			return nil, err
		}
		return pick(snap), nil
	})
}

// Cookies returns the cookies section as a Source
func (f *FileSnapshot) Cookies() Source {
	return f.section(func(s Snapshot) map[string]string { return s.Cookies })
}

// LocalStorage returns the localStorage section as a Source
func (f *FileSnapshot) LocalStorage() Source {
	return f.section(func(s Snapshot) map[string]string { return s.LocalStorage })
}

// SessionStorage returns the sessionStorage section as a Source
func (f *FileSnapshot) SessionStorage() Source {
	return f.section(func(s Snapshot) map[string]string { return s.SessionStorage })
}
