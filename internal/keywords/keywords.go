package keywords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads one search term per line from path. Blank lines and lines
// starting with '#' are skipped; surrounding whitespace is trimmed. Order is
// preserved and repeated terms are kept only once.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keywords file: %w", err)
	}
	defer f.Close()

	kws, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading keywords file %s: %w", path, err)
	}
	return kws, nil
}

// Parse reads keywords from r using the same rules as Load.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
