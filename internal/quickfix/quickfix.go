// Package quickfix produces lists of source locations, typically from a
// workspace search, that buffers then keep aligned with their edits.
package quickfix

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/arbor/internal/edit"
	"github.com/xonecas/arbor/internal/search"
)

// Location is a position range inside a file.
type Location struct {
	Path  string
	Range edit.PositionRange
}

// Item is one quickfix entry.
type Item struct {
	Location Location
	Info     string
}

// WithRange returns a copy of i pointing at r.
func (i Item) WithRange(r edit.PositionRange) Item {
	i.Location.Range = r
	return i
}

func (i Item) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", i.Location.Path,
		i.Location.Range.Start.Line+1, i.Location.Range.Start.Column+1, i.Info)
}

// Options configures a workspace search.
type Options struct {
	// Root is the directory to walk. Defaults to the working directory.
	Root       string
	Config     search.Config
	Limits     search.Limits
	MaxResults int
}

const maxSearchFileSize = 10 << 20

// Search walks Root, honouring its .gitignore, and returns an item for every
// regex match of opts.Config. Item paths are absolute.
func Search(ctx context.Context, opts Options) ([]Item, error) {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	re, err := opts.Config.Compile(opts.Limits)
	if err != nil {
		return nil, err
	}
	ignore, err := LoadIgnore(filepath.Join(root, ".gitignore"))
	if err != nil {
		log.Warn().Err(err).Str("root", root).Msg("quickfix: unreadable .gitignore")
	}

	var items []Item
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" || ignore.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Ignored(rel, false) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchFileSize {
			return nil
		}
		found, err := searchFile(path, re)
		if err != nil {
			log.Debug().Err(err).Str("file", path).Msg("quickfix: skip file")
			return nil
		}
		items = append(items, found...)
		if opts.MaxResults > 0 && len(items) >= opts.MaxResults {
			items = items[:opts.MaxResults]
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipAll) {
		return nil, err
	}
	return items, nil
}

func searchFile(path string, re *regexp2.Regexp) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []Item
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxSearchFileSize)
	for line := 0; sc.Scan(); line++ {
		text := sc.Text()
		if strings.IndexByte(text, 0) >= 0 {
			// Binary file.
			return nil, nil
		}
		m, err := re.FindStringMatch(text)
		for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
			items = append(items, Item{
				Location: Location{
					Path: path,
					Range: edit.PositionRange{
						Start: edit.Position{Line: line, Column: m.Index},
						End:   edit.Position{Line: line, Column: m.Index + m.Length},
					},
				},
				Info: strings.TrimSpace(text),
			})
		}
		if err != nil {
			return nil, err
		}
	}
	return items, sc.Err()
}
