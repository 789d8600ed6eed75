package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// jsonIndent matches the 4-space pretty-printing used across every archive
// file, so files diff cleanly between runs.
const jsonIndent = "    "

// Store persists conversation files for one archive run. It owns the durable
// JSON files exclusively but never creates directories: the caller is
// responsible for the team folder existing before a write.
type Store struct {
	saveEmpty bool
}

// NewStore returns a store. saveEmpty controls whether conversations that end
// up with zero messages still get a file on disk.
func NewStore(saveEmpty bool) *Store {
	return &Store{saveEmpty: saveEmpty}
}

// MergeResult summarizes one merge-on-write.
type MergeResult struct {
	Total      int  // messages on disk after the merge
	Fetched    int  // newly fetched messages offered
	Duplicates int  // fetched messages dropped as timestamp duplicates
	Written    bool // false when the empty-conversation policy suppressed the write
}

// ReadMessages loads a conversation file. A missing file is an empty
// conversation, not an error.
func ReadMessages(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", path, err)
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", path, err)
	}
	return messages, nil
}

// LastTimestamp returns the most recent timestamp already on disk for the
// conversation, or zero when nothing has been archived yet. The archiver
// hands this to the API layer as the `oldest` fetch boundary.
func (s *Store) LastTimestamp(path string) (Timestamp, error) {
	messages, err := ReadMessages(path)
	if err != nil {
		return Timestamp("0"), err
	}
	last := Timestamp("0")
	for _, m := range messages {
		if last.Before(m.TS) {
			last = m.TS
		}
	}
	return last, nil
}

// MergeAndWrite reconciles newly fetched messages with the conversation
// already on disk: concatenate, sort descending by timestamp, drop timestamp
// duplicates keeping the first occurrence, write back pretty-printed. The
// fetch boundary is inclusive, so the boundary message routinely comes back a
// second time; dedup is what keeps it from being stored twice.
func (s *Store) MergeAndWrite(path string, fetched []Message) (MergeResult, error) {
	existing, err := ReadMessages(path)
	if err != nil {
		return MergeResult{}, err
	}

	merged := make([]Message, 0, len(fetched)+len(existing))
	merged = append(merged, fetched...)
	merged = append(merged, existing...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[j].TS.Before(merged[i].TS)
	})

	seen := make(map[float64]bool, len(merged))
	deduped := merged[:0]
	for _, m := range merged {
		key := m.TS.Float64()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, m)
	}
	result := MergeResult{
		Total:      len(deduped),
		Fetched:    len(fetched),
		Duplicates: len(merged) - len(deduped),
	}

	if len(deduped) == 0 && !s.saveEmpty {
		slog.Debug("Skipping empty conversation", slog.String("path", path))
		return result, nil
	}

	data, err := json.MarshalIndent(deduped, "", jsonIndent)
	if err != nil {
		return result, fmt.Errorf("failed to encode conversation %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return result, fmt.Errorf("failed to write conversation %s: %w", path, err)
	}
	result.Written = true
	return result, nil
}

// WriteJSON writes any archive file (profiles, the owner descriptor) with the
// shared pretty-printing convention. Existing profile files are the caller's
// concern: pass overwrite=false to keep the first snapshot.
func WriteJSON(path string, v interface{}, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	data, err := json.MarshalIndent(v, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
