package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// LoadOptions controls directory loading.
type LoadOptions struct {
	// SkipInvalid logs and drops files that fail parsing or validation
	// instead of aborting the whole load.
	SkipInvalid bool
	Logger      *slog.Logger
}

// Corpus is an immutable collection of advisories loaded from one
// directory, ordered by filename.
type Corpus struct {
	Dir        string
	advisories []*Advisory
	byName     map[string]*Advisory
}

// LoadDir reads every *.md file in dir and parses it as an advisory.
// Documents are independent, so parsing runs concurrently; results keep
// filename order regardless of completion order.
func LoadDir(ctx context.Context, dir string, opts LoadOptions) (*Corpus, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		names = append(names, entry.Name())
	}

	results := make([]*Advisory, len(names))
	g, gctx := errgroup.WithContext(ctx)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}

			adv, err := Parse(name, string(data))
			if err != nil {
				if opts.SkipInvalid {
					logger.Warn("skipping invalid advisory", "file", name, "error", err)
					return nil
				}
				return err
			}

			results[i] = adv
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	corpus := &Corpus{
		Dir:    dir,
		byName: make(map[string]*Advisory),
	}
	for _, adv := range results {
		if adv == nil {
			continue
		}
		corpus.advisories = append(corpus.advisories, adv)
		corpus.byName[adv.Filename] = adv
	}

	logger.Info("loaded advisories", "dir", dir, "count", len(corpus.advisories))
	return corpus, nil
}

func (c *Corpus) Len() int { return len(c.advisories) }

// All returns the advisories in filename order. The slice is shared;
// callers must not modify it.
func (c *Corpus) All() []*Advisory { return c.advisories }

// Get returns the advisory with the given filename.
func (c *Corpus) Get(filename string) (*Advisory, bool) {
	adv, ok := c.byName[filename]
	return adv, ok
}

// Filenames returns the loaded filenames in order.
func (c *Corpus) Filenames() []string {
	names := make([]string, len(c.advisories))
	for i, adv := range c.advisories {
		names[i] = adv.Filename
	}
	return names
}
