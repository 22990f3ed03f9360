package file

import (
	"bufio"
	"fmt"
	"os"

	"authwatch/internal/logger"
)

// ReadLines reads one log file into memory, one entry per line.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	defer f.Close()

	lines := make([]string, 0, 4096)
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan log file %s: %w", path, err)
	}
	return lines, nil
}

// ReadMultiple reads and concatenates several log files. Missing files
// are skipped with a warning so one bad path does not abort the batch.
func ReadMultiple(paths []string) ([]string, error) {
	var all []string
	read := 0
	for _, path := range paths {
		lines, err := ReadLines(path)
		if err != nil {
			logger.Warnf("Skipping %s: %v", path, err)
			continue
		}
		all = append(all, lines...)
		read++
	}
	if read == 0 && len(paths) > 0 {
		return nil, fmt.Errorf("none of %d log files could be read", len(paths))
	}
	return all, nil
}
