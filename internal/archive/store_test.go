package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func msg(ts, user, text string) Message {
	return Message{TS: Timestamp(ts), Type: "message", User: user, Text: text}
}

func writeConversation(t *testing.T, path string, messages []Message) {
	t.Helper()
	data, err := json.MarshalIndent(messages, "", jsonIndent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Timestamp
	}{
		{"slack string form", `"1503435956.000247"`, Timestamp("1503435956.000247")},
		{"bare number", `100`, Timestamp("100")},
		{"fractional number", `200.5`, Timestamp("200.5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if ts != tt.expected {
				t.Errorf("got %q, want %q", ts, tt.expected)
			}
		})
	}
}

func TestLastTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel-general.json")
	store := NewStore(false)

	last, err := store.LastTimestamp(path)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if last.Float64() != 0 {
		t.Errorf("empty conversation boundary = %v, want 0", last)
	}

	writeConversation(t, path, []Message{msg("200", "U1", "b"), msg("100", "U1", "a")})
	last, err = store.LastTimestamp(path)
	if err != nil {
		t.Fatalf("LastTimestamp: %v", err)
	}
	if last != Timestamp("200") {
		t.Errorf("boundary = %v, want 200", last)
	}
}

func TestMergeAndWriteDedup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel-general.json")
	store := NewStore(false)

	writeConversation(t, path, []Message{msg("200", "UA", "two"), msg("100", "UA", "one")})

	// Boundary-inclusive fetch returns 200 again alongside the new 300.
	result, err := store.MergeAndWrite(path, []Message{msg("300", "UA", "three"), msg("200", "UA", "two")})
	if err != nil {
		t.Fatalf("MergeAndWrite: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
	if result.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Duplicates)
	}
	if !result.Written {
		t.Error("expected a write")
	}

	stored, err := ReadMessages(path)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d messages, want 3", len(stored))
	}
	want := []Timestamp{"300", "200", "100"}
	for i, w := range want {
		if stored[i].TS != w {
			t.Errorf("stored[%d].TS = %v, want %v (descending order)", i, stored[i].TS, w)
		}
	}
}

func TestMergeAndWriteIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group-project.json")
	store := NewStore(false)

	original := []Message{msg("300", "UA", "c"), msg("200", "UB", "b"), msg("100", "UA", "a")}
	writeConversation(t, path, original)

	result, err := store.MergeAndWrite(path, nil)
	if err != nil {
		t.Fatalf("MergeAndWrite: %v", err)
	}
	if result.Total != len(original) {
		t.Errorf("Total = %d, want %d", result.Total, len(original))
	}

	stored, err := ReadMessages(path)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(stored) != len(original) {
		t.Fatalf("stored %d messages, want %d", len(stored), len(original))
	}
	for i := range original {
		if stored[i].TS != original[i].TS || stored[i].Text != original[i].Text {
			t.Errorf("stored[%d] = %+v, want %+v", i, stored[i], original[i])
		}
	}
}

func TestMergeAndWriteEmptySuppression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "im-quiet-person.json")

	result, err := NewStore(false).MergeAndWrite(path, nil)
	if err != nil {
		t.Fatalf("MergeAndWrite: %v", err)
	}
	if result.Written {
		t.Error("empty merge with saveEmpty=false must not write")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should exist after a suppressed write")
	}

	result, err = NewStore(true).MergeAndWrite(path, nil)
	if err != nil {
		t.Fatalf("MergeAndWrite: %v", err)
	}
	if !result.Written {
		t.Error("empty merge with saveEmpty=true should write")
	}
	stored, err := ReadMessages(path)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored %d messages, want 0", len(stored))
	}
}

func TestMergeAndWriteMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-such-team", "channel-general.json")

	_, err := NewStore(false).MergeAndWrite(path, []Message{msg("100", "UA", "hi")})
	if err == nil {
		t.Fatal("writing into a missing directory must fail; the store does not mkdir")
	}
}

func TestMergeKeepsFetchedCopyOnDuplicate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channel-general.json")
	store := NewStore(false)

	writeConversation(t, path, []Message{msg("200", "UA", "stale text")})

	if _, err := store.MergeAndWrite(path, []Message{msg("200", "UA", "edited text")}); err != nil {
		t.Fatalf("MergeAndWrite: %v", err)
	}
	stored, err := ReadMessages(path)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d messages, want 1", len(stored))
	}
	if stored[0].Text != "edited text" {
		t.Errorf("keep-first dedup should retain the fetched copy, got %q", stored[0].Text)
	}
}

func TestWriteJSONNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-someone.json")

	first := &User{ID: "U1", RealName: "First Snapshot", Color: "aabbcc"}
	if err := WriteJSON(path, first, false); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	second := &User{ID: "U1", RealName: "Renamed Later", Color: "ddeeff"}
	if err := WriteJSON(path, second, false); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var stored User
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stored.RealName != "First Snapshot" {
		t.Errorf("profile was overwritten: %q", stored.RealName)
	}
}
