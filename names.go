package zarc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadNames reads candidate entry names, one per line, and maps each name's
// filename hash to it. Blank lines and lines starting with '#' are ignored.
// When two names collide on one hash, the first is kept.
func ReadNames(r io.Reader) (map[uint64]string, error) {
	names := make(map[uint64]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		name := strings.TrimSpace(sc.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		h := HashName(name)
		if _, ok := names[h]; !ok {
			names[h] = name
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read names line %d: %w", line+1, err)
	}
	return names, nil
}
