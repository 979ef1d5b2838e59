package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ListFiles returns the episode log files in dir in chronological order
func ListFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "episodes-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadFile decodes every episode in one log file, calling fn for each in order.
// Iteration stops at the first error fn returns.
func ReadFile(path string, fn func(*Episode) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var ep Episode
		if err := json.Unmarshal(sc.Bytes(), &ep); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(&ep); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadDir decodes every episode in dir
func ReadDir(dir string) ([]*Episode, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	var episodes []*Episode
	for _, path := range files {
		err := ReadFile(path, func(ep *Episode) error {
			episodes = append(episodes, ep)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return episodes, nil
}
