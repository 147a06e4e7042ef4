// Package stacktrace trims raw goroutine dumps down to the frames that live
// in this repository, for compact panic logs.
package stacktrace

import "strings"

// InternalPaths extracts the internal package file:line entries from a raw
// stack trace, most recent call first. Runtime and third-party frames are
// dropped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[idx+1:]
		if cut := strings.IndexByte(frame, ' '); cut != -1 {
			frame = frame[:cut]
		}
		paths = append(paths, frame)
	}

	return paths
}
