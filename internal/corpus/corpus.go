package corpus

import (
	"strings"

	"slackmirror/internal/archive"
)

// Corpus is the in-memory aggregate of everything under the archive root.
// It is rebuilt from disk on every Load and owned by the caller; nothing in
// this package keeps state between loads.
type Corpus struct {
	Teams []*Team

	// Problems lists files that could not be loaded. A bad file is isolated
	// and reported here instead of aborting the team it belongs to.
	Problems []FileProblem
}

// Team is one archived workspace: its owner descriptor, the canonical user
// table for the load, and every conversation found in the team folder.
type Team struct {
	Info   archive.LocalUser
	Folder string
	Users  map[string]*archive.User

	Conversations []*Conversation

	unknown *archive.User
}

// Unknown returns the team's shared synthetic user for unresolvable authors.
// A single instance per load keeps color and name canonical across messages.
func (t *Team) Unknown() *archive.User {
	if t.unknown == nil {
		t.unknown = archive.UnknownUser()
	}
	return t.unknown
}

// Conversation is one loaded conversation file, annotated after load.
type Conversation struct {
	Team        *Team
	Path        string
	FileName    string
	Kind        archive.ConversationKind
	DisplayName string

	// Counterpart is the unique other participant of a direct message, when
	// exactly one distinct non-local author exists. Nil otherwise.
	Counterpart *archive.User

	Messages []*Message
}

// Message wraps an archived message with its load-time annotations.
type Message struct {
	archive.Message

	Author      *archive.User
	IsLocalUser bool
}

// FileProblem records a file excluded from the corpus and why.
type FileProblem struct {
	Path   string
	Reason string
}

// slackbotFile is the direct-message conversation with Slack's own bot
// account; its contents are reminders and release notes, not user data.
const slackbotFile = "im-slackbot.json"

// ParseConversationFileName maps a conversation filename onto its explicit
// kind tag and human display name, per the {type}-{name}.json convention.
// ok is false for anything that is not a conversation file.
func ParseConversationFileName(name string) (archive.ConversationKind, string, bool) {
	base, found := strings.CutSuffix(name, ".json")
	if !found {
		return "", "", false
	}
	prefix, rest, found := strings.Cut(base, "-")
	if !found || rest == "" {
		return "", "", false
	}
	kind := archive.ConversationKind(prefix)
	switch kind {
	case archive.KindChannel, archive.KindGroup, archive.KindIM:
	default:
		return "", "", false
	}
	return kind, strings.ReplaceAll(rest, "-", " "), true
}
