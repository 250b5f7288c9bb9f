package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"solea/internal/notes"
)

// ID is a manifest identifier that accepts either a JSON string or a bare
// number and keeps its textual form.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: identifier must be a scalar", value.Line)
	}
	*id = ID(value.Value)
	return nil
}

// NoteEvent is one [onset, offset, pitch] triple.
type NoteEvent [3]float64

// UnmarshalJSON implements json.Unmarshaler. Arrays that are not exactly
// three numbers are rejected rather than padded or cut.
func (n *NoteEvent) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("note event must be an array of numbers: %w", err)
	}
	return n.set(values)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *NoteEvent) UnmarshalYAML(value *yaml.Node) error {
	var values []float64
	if err := value.Decode(&values); err != nil {
		return fmt.Errorf("line %d: note event must be a sequence of numbers: %w", value.Line, err)
	}
	if err := n.set(values); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

func (n *NoteEvent) set(values []float64) error {
	if len(values) != len(n) {
		return fmt.Errorf("note event needs [onset, offset, pitch], got %d values", len(values))
	}
	copy(n[:], values)
	return nil
}

// Record is one annotated chunk of a song.
type Record struct {
	SongID   ID          `json:"dali_id" yaml:"dali_id"`
	RemoteID ID          `json:"youtube_id" yaml:"youtube_id"`
	ChunkID  ID          `json:"chunk_id" yaml:"chunk_id"`
	Start    float64     `json:"beginning" yaml:"beginning"`
	End      float64     `json:"end" yaml:"end"`
	Notes    []NoteEvent `json:"notes" yaml:"notes"`
}

// Events converts the record's note triples for the notes writer.
func (r Record) Events() []notes.Event {
	events := make([]notes.Event, len(r.Notes))
	for i, n := range r.Notes {
		events[i] = notes.Event{Onset: n[0], Offset: n[1], Pitch: n[2]}
	}
	return events
}

func (r Record) validate(index int) error {
	switch {
	case strings.TrimSpace(string(r.SongID)) == "":
		return fmt.Errorf("record %d: dali_id is empty", index)
	case strings.TrimSpace(string(r.RemoteID)) == "":
		return fmt.Errorf("record %d (%s): youtube_id is empty", index, r.SongID)
	case strings.TrimSpace(string(r.ChunkID)) == "":
		return fmt.Errorf("record %d (%s): chunk_id is empty", index, r.SongID)
	}
	return nil
}
