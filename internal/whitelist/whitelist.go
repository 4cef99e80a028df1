// Package whitelist parses the syscall whitelist file consumed by the
// child bootstrap before it chroots (§4.2 step 5, §4.5). The format is
// a plain text file, one or more syscall names per line, shell-style
// tokenized so a line may carry a trailing comment or grouped names.
package whitelist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
)

// ParseFile reads syscall names from f: blank lines and lines whose
// first non-space rune is '#' are ignored, everything else is
// shlex-tokenized so quoting and inline comments behave the way a
// shell would treat them. Duplicate names are preserved in order;
// the caller's filter compiler is expected to de-duplicate if it
// cares.
func ParseFile(f io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("whitelist: line %d: %w", lineNo, err)
		}
		for _, tok := range tokens {
			if strings.HasPrefix(tok, "#") {
				break
			}
			names = append(names, tok)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("whitelist: read: %w", err)
	}
	return names, nil
}
