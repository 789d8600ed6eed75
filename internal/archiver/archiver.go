// Package archiver drives one fetch-and-merge pass against the Slack API,
// writing the team's archive folder through the archive store.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"slackmirror/internal/archive"
	"slackmirror/internal/config"
	"slackmirror/internal/metrics"
)

// historyPageSize is the per-call message limit for history fetches.
const historyPageSize = 1000

// SlackClient is the slice of the Slack API the archiver needs. *slack.Client
// satisfies it; tests substitute a mock.
type SlackClient interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetTeamInfoContext(ctx context.Context) (*slack.TeamInfo, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetFilesContext(ctx context.Context, params slack.GetFilesParameters) ([]slack.File, *slack.Paging, error)
	ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error)
	DeleteFileContext(ctx context.Context, fileID string) error
}

// Archiver owns one token's archive. Calls to Slack are paced through a rate
// limiter so a large workspace doesn't trip the API's tier limits.
type Archiver struct {
	client  SlackClient
	store   *archive.Store
	cfg     *config.Config
	limiter *rate.Limiter
}

// Report summarizes one archive run.
type Report struct {
	Team           string        `json:"team"`
	TeamFolder     string        `json:"team_folder"`
	Users          int           `json:"users"`
	Conversations  int           `json:"conversations"`
	Messages       int           `json:"messages"`
	Duplicates     int           `json:"duplicates"`
	UnreadMessages int           `json:"unread_messages"`
	Duration       time.Duration `json:"duration"`
}

func New(client SlackClient, store *archive.Store, cfg *config.Config) *Archiver {
	return &Archiver{
		client:  client,
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Run executes one archive pass in a fixed order: identity, team, profiles,
// owner descriptor, then every conversation history merged against what is
// already on disk. A failing conversation is logged and skipped; the pass
// carries on.
func (a *Archiver) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report, err := a.run(ctx)
	if err != nil {
		metrics.ArchiveRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	report.Duration = time.Since(start)
	metrics.ArchiveRuns.WithLabelValues("ok").Inc()
	metrics.ArchiveRunDuration.Observe(report.Duration.Seconds())
	slog.Info("Archive run completed",
		slog.String("team", report.Team),
		slog.Int("conversations", report.Conversations),
		slog.Int("messages", report.Messages),
		slog.Int("unread", report.UnreadMessages),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (a *Archiver) run(ctx context.Context) (*Report, error) {
	auth, err := a.authTest(ctx)
	if err != nil {
		return nil, err
	}

	team, err := a.teamInfo(ctx)
	if err != nil {
		return nil, err
	}

	folder := TeamFolderName(team.Name)
	teamDir := filepath.Join(a.cfg.ArchiveFolder, folder)
	if err := os.MkdirAll(teamDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating team folder %s: %w", teamDir, err)
	}

	report := &Report{Team: team.Name, TeamFolder: folder}

	users, err := a.users(ctx)
	if err != nil {
		return nil, err
	}
	userMap := a.snapshotProfiles(teamDir, users, report)

	local := archive.LocalUser{
		OK:     true,
		URL:    auth.URL,
		Team:   team.Name,
		User:   auth.User,
		TeamID: team.ID,
		UserID: auth.UserID,
	}
	if err := archive.WriteJSON(filepath.Join(teamDir, archive.LocalUserFile), local, true); err != nil {
		return nil, err
	}

	conversations, err := a.conversations(ctx)
	if err != nil {
		return nil, err
	}

	for _, conversation := range conversations {
		fileName, ok := a.conversationFileName(conversation, userMap)
		if !ok {
			continue
		}
		path := filepath.Join(teamDir, fileName)
		if err := a.archiveConversation(ctx, conversation, path, report); err != nil {
			slog.Warn("Skipping conversation",
				slog.String("channel", conversation.ID),
				slog.String("file", fileName),
				slog.String("error", err.Error()))
			metrics.ConversationsMerged.WithLabelValues(kindOf(conversation), "error").Inc()
			continue
		}
		report.UnreadMessages += conversation.UnreadCountDisplay
	}

	return report, nil
}

func (a *Archiver) archiveConversation(ctx context.Context, conversation slack.Channel, path string, report *Report) error {
	oldest, err := a.store.LastTimestamp(path)
	if err != nil {
		return err
	}

	var fetched []archive.Message
	cursor := ""
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		history, err := a.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: conversation.ID,
			Oldest:    string(oldest),
			Limit:     historyPageSize,
			Cursor:    cursor,
			Inclusive: true,
		})
		a.countCall("conversations.history", err)
		if err != nil {
			return fmt.Errorf("fetching history for %s: %w", conversation.ID, err)
		}
		for i := range history.Messages {
			fetched = append(fetched, convertMessage(&history.Messages[i].Msg))
		}
		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = history.ResponseMetaData.NextCursor
	}

	result, err := a.store.MergeAndWrite(path, fetched)
	if err != nil {
		return err
	}

	report.Conversations++
	report.Messages += result.Fetched - result.Duplicates
	report.Duplicates += result.Duplicates
	metrics.ConversationsMerged.WithLabelValues(kindOf(conversation), "ok").Inc()
	metrics.MessagesArchived.Add(float64(result.Fetched - result.Duplicates))
	metrics.DuplicatesDropped.Add(float64(result.Duplicates))
	return nil
}

// snapshotProfiles writes one user-<name>.json per active user. Profiles are
// a first-seen snapshot: an existing file is left alone. Deleted users get no
// file and stay out of the map that names direct-message archives.
func (a *Archiver) snapshotProfiles(teamDir string, users []slack.User, report *Report) map[string]slack.User {
	userMap := make(map[string]slack.User, len(users))
	for _, user := range users {
		if user.Deleted {
			continue
		}
		userMap[user.ID] = user
		name := strings.ReplaceAll(profileName(user), " ", "-")
		path := filepath.Join(teamDir, archive.UserFilePrefix+name+".json")
		profile := archive.User{
			ID:       user.ID,
			TeamID:   user.TeamID,
			Name:     user.Name,
			RealName: user.RealName,
			Color:    user.Color,
			Deleted:  user.Deleted,
			Updated:  int64(user.Updated),
		}
		if err := archive.WriteJSON(path, profile, false); err != nil {
			slog.Warn("Skipping profile snapshot",
				slog.String("user", user.ID),
				slog.String("error", err.Error()))
			continue
		}
		report.Users++
	}
	return userMap
}

// conversationFileName names the archive file for a conversation and decides
// whether it should be archived at all. Channels the local user is not a
// member of are skipped unless configured otherwise; direct messages with
// deleted or unknown users are skipped.
func (a *Archiver) conversationFileName(conversation slack.Channel, userMap map[string]slack.User) (string, bool) {
	switch {
	case conversation.IsIM:
		user, ok := userMap[conversation.User]
		if !ok {
			return "", false
		}
		name := strings.ReplaceAll(profileName(user), " ", "-")
		return "im-" + name + ".json", true
	case conversation.IsGroup || conversation.IsPrivate:
		return "group-" + conversation.Name + ".json", true
	default:
		if !conversation.IsMember && !a.cfg.SaveNonmemberChannels {
			return "", false
		}
		return "channel-" + conversation.Name + ".json", true
	}
}

func (a *Archiver) authTest(ctx context.Context) (*slack.AuthTestResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	auth, err := a.client.AuthTestContext(ctx)
	a.countCall("auth.test", err)
	if err != nil {
		return nil, fmt.Errorf("auth test: %w", err)
	}
	return auth, nil
}

func (a *Archiver) teamInfo(ctx context.Context) (*slack.TeamInfo, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	team, err := a.client.GetTeamInfoContext(ctx)
	a.countCall("team.info", err)
	if err != nil {
		return nil, fmt.Errorf("fetching team info: %w", err)
	}
	return team, nil
}

func (a *Archiver) users(ctx context.Context) ([]slack.User, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	users, err := a.client.GetUsersContext(ctx)
	a.countCall("users.list", err)
	if err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	return users, nil
}

func (a *Archiver) conversations(ctx context.Context) ([]slack.Channel, error) {
	var all []slack.Channel
	cursor := ""
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		channels, next, err := a.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:  []string{"public_channel", "private_channel", "im"},
			Cursor: cursor,
			Limit:  historyPageSize,
		})
		a.countCall("conversations.list", err)
		if err != nil {
			return nil, fmt.Errorf("listing conversations: %w", err)
		}
		all = append(all, channels...)
		if next == "" {
			break
		}
		cursor = next
	}
	return all, nil
}

func (a *Archiver) countCall(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SlackAPICalls.WithLabelValues(method, status).Inc()
}

func convertMessage(m *slack.Msg) archive.Message {
	out := archive.Message{
		TS:      archive.Timestamp(m.Timestamp),
		Type:    m.Type,
		SubType: m.SubType,
		User:    m.User,
		Text:    m.Text,
	}
	if m.Comment != nil && m.Comment.User != "" {
		out.Comment = &archive.Comment{User: m.Comment.User}
	}
	return out
}

func profileName(user slack.User) string {
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func kindOf(conversation slack.Channel) string {
	switch {
	case conversation.IsIM:
		return string(archive.KindIM)
	case conversation.IsGroup || conversation.IsPrivate:
		return string(archive.KindGroup)
	default:
		return string(archive.KindChannel)
	}
}

var nonAlnumPattern = regexp.MustCompile(`[^0-9a-z]+`)

// TeamFolderName derives the on-disk folder for a team: lowercased with
// every non-alphanumeric run collapsed to a single underscore.
func TeamFolderName(teamName string) string {
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(teamName), "_")
}
