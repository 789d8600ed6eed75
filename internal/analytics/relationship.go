package analytics

import (
	"sort"

	"slackmirror/internal/archive"
	"slackmirror/internal/corpus"
)

// GroupMessageWeight is how much a message in a multi-party conversation
// counts toward a relationship, relative to 1.0 for a direct message. A
// channel post is directed at everyone, so it carries a fraction of the
// weight of a one-on-one message.
const GroupMessageWeight = 0.25

// Relationship aggregates the message volume between the local user and one
// other user. In is volume directed at the local user; Out is volume the
// local user directed into the conversations they share.
type Relationship struct {
	Name      string  `json:"name"`
	Team      string  `json:"team"`
	File      string  `json:"file"`
	Color     string  `json:"color"`
	TeamColor string  `json:"team_color"`
	Deleted   bool    `json:"deleted"`
	In        float64 `json:"in"`
	Out       float64 `json:"out"`
}

// Relationships derives relationship strength for the local user of every
// team. Only conversations in which the local user authored at least one
// message count at all; a conversation the local user never spoke in says
// nothing about their relationships.
func Relationships(c *corpus.Corpus) []Relationship {
	entries := make(map[string]*Relationship)

	ensure := func(id string, m *corpus.Message, conversation *corpus.Conversation) *Relationship {
		entry, ok := entries[id]
		if !ok {
			entry = &Relationship{
				Name:      "Unknown User",
				Team:      "Unknown Team",
				Color:     archive.DefaultColor,
				Deleted:   true,
				TeamColor: ColorFromString("Unknown Team"),
			}
			entries[id] = entry
		}
		if entry.Color == archive.DefaultColor && m.Author != nil && m.Author.Color != "" {
			entry.Color = m.Author.Color
			entry.Name = m.Author.DisplayName()
			entry.Deleted = m.Author.Deleted
			entry.Team = conversation.Team.Info.Team
			entry.TeamColor = ColorFromString(entry.Team)
			entry.File = conversation.Path
		} else if conversation.Kind == archive.KindIM {
			// The direct-message file is the better jump target for the
			// relationship than whatever channel was seen first.
			entry.File = conversation.Path
		}
		return entry
	}

	for _, team := range c.Teams {
		local := team.Info.UserID
		for _, conversation := range team.Conversations {
			if len(conversation.Messages) == 0 {
				continue
			}
			weight := GroupMessageWeight
			if conversation.Kind == archive.KindIM {
				weight = 1.0
			}

			who := make(map[string]int)
			byAuthor := make(map[string]*corpus.Message)
			for _, m := range conversation.Messages {
				id := m.AuthorID()
				if id == "" {
					continue
				}
				who[id]++
				if byAuthor[id] == nil {
					byAuthor[id] = m
				}
			}
			if who[local] == 0 {
				continue
			}

			for id, count := range who {
				if id == local {
					continue
				}
				entry := ensure(id, byAuthor[id], conversation)
				entry.In += float64(count) * weight
				entry.Out += float64(who[local]) * weight
			}
		}
	}

	relationships := make([]Relationship, 0, len(entries))
	for _, entry := range entries {
		relationships = append(relationships, *entry)
	}
	sort.SliceStable(relationships, func(i, j int) bool {
		ti, tj := relationships[i].In+relationships[i].Out, relationships[j].In+relationships[j].Out
		if ti != tj {
			return ti > tj
		}
		return relationships[i].Name < relationships[j].Name
	})
	return relationships
}
