// Package export renders archived conversations as portable Markdown.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"slackmirror/internal/corpus"
)

const (
	unknownUserName = "Unknown User"

	// attributionTimeFormat is the caption under each quoted message.
	attributionTimeFormat = "Jan 2, 2006 3:04 PM"
)

// Slack inline markup differs from Markdown mainly in bold print, mentions
// and URLs. The rewrite order matters: mention and special tokens must be
// consumed before the generic <...> link patterns see them.
var (
	boldPattern        = regexp.MustCompile(`\*([^\s].*[^\s])\*`)
	specialPattern     = regexp.MustCompile(`<!([^>]*)>`)
	userMentionPattern = regexp.MustCompile(`<@(U[0-9A-Z]*)>`)
	channelPattern     = regexp.MustCompile(`<#C[0-9A-Z]*\|([^>]*)>`)
	labeledLinkPattern = regexp.MustCompile(`<([^<|]*)\|([^<>]*)>`)
	bareLinkPattern    = regexp.MustCompile(`<([^<>]*)>`)
	leadingQuote       = regexp.MustCompile(`^&gt; `)
)

// Markdown renders the selected messages of one conversation as a Markdown
// document: a team/file header, then each message as a block quote followed
// by an attribution line. Messages render in the order given, which is the
// conversation's load order. Zero messages yield a header-only document.
// Attribution times render in loc; a nil loc means the local time zone.
func Markdown(conversation *corpus.Conversation, selected []*corpus.Message, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s : %s\n\n", conversation.Team.Info.Team, conversation.FileName)

	for _, m := range selected {
		fmt.Fprintf(&b, " > %s\n\n", rewriteInline(m.Text, conversation.Team))
		when := time.Unix(int64(m.TS.Float64()), 0).In(loc).Format(attributionTimeFormat)
		fmt.Fprintf(&b, "%s (%s)\n\n", authorName(m), when)
	}
	return b.String()
}

func authorName(m *corpus.Message) string {
	if m.Author == nil {
		return unknownUserName
	}
	return m.Author.DisplayName()
}

// rewriteInline converts Slack inline markup to Markdown.
func rewriteInline(text string, team *corpus.Team) string {
	text = boldPattern.ReplaceAllString(text, "**$1**")
	text = specialPattern.ReplaceAllString(text, "**$1**")
	text = userMentionPattern.ReplaceAllStringFunc(text, func(token string) string {
		id := userMentionPattern.FindStringSubmatch(token)[1]
		name := unknownUserName
		if user, ok := team.Users[id]; ok {
			name = user.DisplayName()
		}
		return "**" + name + "**"
	})
	text = channelPattern.ReplaceAllString(text, "**#$1**")
	text = labeledLinkPattern.ReplaceAllString(text, "[$2]($1)")
	text = bareLinkPattern.ReplaceAllString(text, "[$1]($1)")
	text = leadingQuote.ReplaceAllString(text, "> ")
	return text
}
