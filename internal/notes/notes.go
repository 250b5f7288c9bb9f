// Package notes reads and writes the per-chunk note annotation table.
//
// The file is tab separated with a commented header line and one
// onset/offset/pitch row per event, each value in %.18e notation.
package notes

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"solea/internal/fileutil"
)

// Header is the first line of every notes file.
const Header = "# onset,offset,pitch"

// FileName is the notes file inside a chunk directory.
const FileName = "notes.tsv"

// Event is a single annotated note.
type Event struct {
	Onset  float64
	Offset float64
	Pitch  float64
}

// Format renders events in the on-disk table layout.
func Format(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := fmt.Fprintf(bw, "%.18e\t%.18e\t%.18e\n", ev.Onset, ev.Offset, ev.Pitch); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write stores events at path, replacing any existing file.
func Write(path string, events []Event) error {
	var buf bytes.Buffer
	if err := Format(&buf, events); err != nil {
		return fmt.Errorf("format notes: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write notes: %w", err)
	}
	return nil
}

// Parse reads a notes table. Lines starting with # and blank lines are skipped.
func Parse(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	events := make([]Event, 0)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("notes line %d: expected 3 columns, got %d", line, len(fields))
		}
		var values [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("notes line %d column %d: %w", line, i+1, err)
			}
			values[i] = v
		}
		events = append(events, Event{Onset: values[0], Offset: values[1], Pitch: values[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Read loads the notes table at path.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
