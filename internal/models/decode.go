package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// DecodePlaylists decodes a playlist array one element at a time.
//
// Elements that are not objects or lack an id are skipped and counted. A missing name falls back to "title".
// Non-string track entries are dropped.
func DecodePlaylists(raw json.RawMessage) (playlists []Playlist, skipped int) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0
	}

	playlists = make([]Playlist, 0, len(items))
	for _, item := range items {
		var fields struct {
			ID     json.RawMessage `json:"id"`
			Name   json.RawMessage `json:"name"`
			Title  json.RawMessage `json:"title"`
			Tracks json.RawMessage `json:"tracks"`
		}
		if err := json.Unmarshal(item, &fields); err != nil {
			skipped++
			continue
		}

		id := decodeScalarString(fields.ID)
		if id == "" {
			skipped++
			continue
		}

		name := decodeScalarString(fields.Name)
		if name == "" {
			name = decodeScalarString(fields.Title)
		}

		playlists = append(playlists, Playlist{ID: id, Name: name, Tracks: DecodeStrings(fields.Tracks)})
	}
	return playlists, skipped
}

// DecodeStrings decodes an array keeping only its string elements.
func DecodeStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DecodeStats decodes a stats object one track at a time.
//
// Entries that are not objects are skipped and counted; non-numeric sequence values are dropped.
func DecodeStats(raw json.RawMessage) (stats StatsMap, skipped int) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return StatsMap{}, 0
	}

	stats = make(StatsMap, len(entries))
	for id, entry := range entries {
		var fields struct {
			Completions json.RawMessage `json:"completions"`
			Listens     json.RawMessage `json:"listens"`
		}
		if err := json.Unmarshal(entry, &fields); err != nil || id == "" {
			skipped++
			continue
		}

		var s ListenStats
		for _, v := range decodeNumbers(fields.Completions) {
			s.Completions = append(s.Completions, ClampPercent(v))
		}
		for _, v := range decodeNumbers(fields.Listens) {
			s.Listens = append(s.Listens, int64(v))
		}
		stats[id] = ListenStats{
			Completions: nonNilInts(s.Completions),
			Listens:     nonNilInt64s(s.Listens),
		}
	}
	return stats, skipped
}

// DecodeBackupData unwraps a backup document and decodes its content.
//
// The content is taken from "payload.data", then "data", then the document itself.
// It fails only when the document is not a JSON object.
func DecodeBackupData(raw []byte) (BackupData, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return BackupData{}, fmt.Errorf("backup document is not an object")
	}

	content := doc
	if inner, ok := nestedObject(doc, "payload"); ok {
		if data, ok := nestedObject(inner, "data"); ok {
			content = data
		} else if data, ok := nestedObject(doc, "data"); ok {
			content = data
		}
	} else if data, ok := nestedObject(doc, "data"); ok {
		content = data
	}

	playlists, _ := DecodePlaylists(content["playlists"])
	stats, _ := DecodeStats(content["listenStats"])
	return BackupData{
		Playlists:   playlists,
		History:     DecodeStrings(content["history"]),
		ListenStats: stats,
	}, nil
}

// ClampPercent clamps v to [0,100] and rounds half away from zero.
func ClampPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func nestedObject(doc map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := doc[key]
	if !ok {
		return nil, false
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil || inner == nil {
		return nil, false
	}
	return inner, true
}

func decodeScalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeNumbers(raw json.RawMessage) []float64 {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		var v float64
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nonNilInt64s(s []int64) []int64 {
	if s == nil {
		return []int64{}
	}
	return s
}
