package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// expandArgs resolves glob patterns, keeping literal paths that exist and
// dropping duplicates. Order follows the arguments.
func expandArgs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path so the read error names it
			matches = []string{arg}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}

// loadFile reads path into an UploadedFile keyed by the path itself.
func loadFile(path string) (core.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.UploadedFile{}, err
	}
	return core.UploadedFile{
		ID:      path,
		Name:    filepath.Base(path),
		Size:    int64(len(data)),
		Data:    data,
		AddedAt: time.Now(),
	}, nil
}

// outputPath picks where to write name inside dir and records the choice
// in written. Existing files get a __N suffix unless overwrite is set. The
// source file and paths already in written are never replaced, so two
// inputs sharing a name in one run both survive.
func outputPath(dir, name, source string, overwrite bool, written map[string]bool) string {
	usable := func(p string) bool {
		if samePath(p, source) || written[absPath(p)] {
			return false
		}
		if overwrite {
			return true
		}
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}

	target := filepath.Join(dir, name)
	if !usable(target) {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for i := 2; ; i++ {
			target = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, i, ext))
			if usable(target) {
				break
			}
		}
	}
	written[absPath(target)] = true
	return target
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func samePath(a, b string) bool {
	return absPath(a) == absPath(b)
}

// parseRenames turns repeated old=new flags into a rename map.
func parseRenames(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		if !ok || from == "" {
			return nil, fmt.Errorf("invalid --rename %q (want old=new)", p)
		}
		m[from] = to
	}
	return m, nil
}
