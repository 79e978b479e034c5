package lockfile

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// yarnParser handles the yarn v1 text format with a line-oriented state
// machine: a non-indented, non-comment line ending in ":" opens a
// stanza, indented "version"/"integrity"/"resolved" lines fill it in,
// and a blank line (or end of input) emits the accumulated record.
//
// IsDirect is always false: the v1 format does not distinguish a
// project's own declarations from hoisted transitive entries.
type yarnParser struct{}

func (p *yarnParser) Parse(data []byte) ([]*store.SnapshotDependency, error) {
	var deps []*store.SnapshotDependency
	var current store.SnapshotDependency

	flush := func() {
		if current.Name != "" && current.Version != "" {
			dep := current
			deps = append(deps, &dep)
		}
		current = store.SnapshotDependency{}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		switch {
		case strings.TrimSpace(line) == "":
			flush()

		case strings.HasPrefix(line, "#"):
			// Comment, including the generated-file banner.

		case !strings.HasPrefix(line, " ") && strings.HasSuffix(strings.TrimSpace(line), ":"):
			// Stanza header: one or more comma-separated descriptors.
			flush()
			current.Name = yarnHeaderName(line)

		default:
			field := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(field, "version "):
				current.Version = unquote(strings.TrimPrefix(field, "version "))
			case strings.HasPrefix(field, "integrity "):
				current.IntegrityHash = unquote(strings.TrimPrefix(field, "integrity "))
			case strings.HasPrefix(field, "resolved "):
				current.ResolvedURL = unquote(strings.TrimPrefix(field, "resolved "))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse yarn.lock: %w", err)
	}

	// The final stanza is usually terminated by EOF rather than a blank line.
	flush()

	return deps, nil
}

// yarnHeaderName extracts the package name from a stanza header such as
// `lodash@^4.17.21:` or `"@babel/core@^7.0.0", "@babel/core@^7.23":`.
// Scoped names are split at the second "@"; bare names at the first.
func yarnHeaderName(line string) string {
	header := strings.TrimSuffix(strings.TrimSpace(line), ":")

	// Only the first descriptor is needed; all descriptors in one
	// stanza resolve to the same package.
	if idx := strings.IndexByte(header, ','); idx >= 0 {
		header = header[:idx]
	}
	header = unquote(strings.TrimSpace(header))

	if strings.HasPrefix(header, "@") {
		if at := strings.Index(header[1:], "@"); at >= 0 {
			return header[:at+1]
		}
		return header
	}
	if at := strings.IndexByte(header, '@'); at >= 0 {
		return header[:at]
	}
	return header
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
