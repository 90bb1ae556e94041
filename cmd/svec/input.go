package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// readLines returns the non-empty lines of path, or of r when path is "-".
func readLines(path string, r io.Reader) ([]string, error) {
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// collectTexts merges positional arguments with lines read from file.
func collectTexts(args []string, file string, stdin io.Reader) ([]string, error) {
	texts := append([]string(nil), args...)
	if file != "" {
		lines, err := readLines(file, stdin)
		if err != nil {
			return nil, err
		}
		texts = append(texts, lines...)
	}
	return texts, nil
}
