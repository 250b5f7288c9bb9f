package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"solea/internal/services"
)

// Group holds every record of one song in file order.
type Group struct {
	SongID   string
	RemoteID string
	Records  []Record
}

// Load parses the manifest at path. Files ending in .yaml or .yml are read as
// YAML; everything else as JSON.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrManifest, "manifest", "read", path, err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&records)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrManifest, "manifest", "parse", path, err)
	}

	for i, rec := range records {
		if err := rec.validate(i); err != nil {
			return nil, services.Wrap(services.ErrManifest, "manifest", "validate", path, err)
		}
	}
	return records, nil
}

// GroupRecords groups records by song. Groups appear in order of first
// occurrence and records keep their relative order. Every record of a group
// must name the same remote identifier.
func GroupRecords(records []Record) ([]Group, error) {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, rec := range records {
		song := string(rec.SongID)
		pos, ok := index[song]
		if !ok {
			index[song] = len(groups)
			groups = append(groups, Group{SongID: song, RemoteID: string(rec.RemoteID), Records: []Record{rec}})
			continue
		}
		group := &groups[pos]
		if string(rec.RemoteID) != group.RemoteID {
			return nil, services.Wrap(services.ErrManifest, "manifest", "group",
				fmt.Sprintf("song %s references remote ids %q and %q", song, group.RemoteID, rec.RemoteID), nil)
		}
		group.Records = append(group.Records, rec)
	}
	return groups, nil
}

// LoadGroups loads path and groups its records.
func LoadGroups(path string) ([]Group, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return GroupRecords(records)
}

// ChunkCount returns the number of records across groups.
func ChunkCount(groups []Group) int {
	total := 0
	for _, g := range groups {
		total += len(g.Records)
	}
	return total
}
