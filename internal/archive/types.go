package archive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Timestamp is a Slack message timestamp: seconds since the epoch with
// fractional precision. Slack sends it as a JSON string ("1503435956.000247")
// but older archives may hold bare numbers, so both are accepted on read.
// Within one conversation the timestamp is unique enough to act as the
// natural key for merging.
type Timestamp string

func (t Timestamp) Float64() float64 {
	f, err := strconv.ParseFloat(string(t), 64)
	if err != nil {
		return 0
	}
	return f
}

// Before reports whether t is strictly older than other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Float64() < other.Float64()
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = Timestamp(v)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("timestamp must be a string or number: %w", err)
	}
	*t = Timestamp(v.String())
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

// Comment carries the authorship of a file comment. When present, the
// comment's author overrides the message author for identity resolution.
type Comment struct {
	User string `json:"user,omitempty"`
}

// Message is one archived Slack message, marshalled with Slack's own field
// names so conversation files stay readable by anything that understands the
// Slack export shape.
type Message struct {
	TS      Timestamp `json:"ts"`
	Type    string    `json:"type,omitempty"`
	SubType string    `json:"subtype,omitempty"`
	User    string    `json:"user,omitempty"`
	Text    string    `json:"text,omitempty"`
	Comment *Comment  `json:"comment,omitempty"`
}

// AuthorID resolves the effective author of the message: the comment author
// for file comments, otherwise the message author. Empty for system messages.
func (m *Message) AuthorID() string {
	if m.Comment != nil && m.Comment.User != "" {
		return m.Comment.User
	}
	return m.User
}

// DefaultColor is used whenever a user's color is unknown.
const DefaultColor = "999999"

// User is one snapshotted profile (user-<name>.json). Profiles are written
// once and never overwritten, so fields may be stale relative to Slack.
type User struct {
	ID       string `json:"id"`
	TeamID   string `json:"team_id,omitempty"`
	Name     string `json:"name,omitempty"`
	RealName string `json:"real_name,omitempty"`
	Color    string `json:"color,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	Updated  int64  `json:"updated,omitempty"`
}

// DisplayName prefers the real name over the handle.
func (u *User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}

// UnknownUser is the synthetic identity attached to messages whose author
// cannot be resolved from the team's profile files.
func UnknownUser() *User {
	return &User{
		ID:       "UUUUUUUUU",
		RealName: "Unknown User",
		Color:    DefaultColor,
		Deleted:  true,
	}
}

// LocalUser is the per-team owner descriptor (_localuser.json): which user
// the archive belongs to within that team.
type LocalUser struct {
	OK     bool   `json:"ok,omitempty"`
	URL    string `json:"url,omitempty"`
	Team   string `json:"team"`
	User   string `json:"user,omitempty"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// ConversationKind tags a conversation file by its filename prefix.
type ConversationKind string

const (
	KindChannel ConversationKind = "channel"
	KindGroup   ConversationKind = "group"
	KindIM      ConversationKind = "im"
)

// LocalUserFile is the fixed name of the owner descriptor in a team folder.
const LocalUserFile = "_localuser.json"

// UserFilePrefix is the filename prefix of snapshotted profiles.
const UserFilePrefix = "user-"
