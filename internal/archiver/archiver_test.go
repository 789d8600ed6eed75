package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"slackmirror/internal/archive"
	"slackmirror/internal/config"
)

type mockSlackClient struct {
	auth       *slack.AuthTestResponse
	team       *slack.TeamInfo
	users      []slack.User
	channels   []slack.Channel
	histories  map[string]*slack.GetConversationHistoryResponse
	historyErr map[string]error
	lastOldest map[string]string
	files      []slack.File
	pins       map[string][]slack.Item
	pinsErr    map[string]error
	deleteErr  map[string]error
	deleted    []string
}

func (m *mockSlackClient) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return m.auth, nil
}

func (m *mockSlackClient) GetTeamInfoContext(ctx context.Context) (*slack.TeamInfo, error) {
	return m.team, nil
}

func (m *mockSlackClient) GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error) {
	return m.users, nil
}

func (m *mockSlackClient) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	return m.channels, "", nil
}

func (m *mockSlackClient) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	if m.lastOldest == nil {
		m.lastOldest = make(map[string]string)
	}
	m.lastOldest[params.ChannelID] = params.Oldest
	if err := m.historyErr[params.ChannelID]; err != nil {
		return nil, err
	}
	if resp, ok := m.histories[params.ChannelID]; ok {
		return resp, nil
	}
	return &slack.GetConversationHistoryResponse{}, nil
}

func (m *mockSlackClient) GetFilesContext(ctx context.Context, params slack.GetFilesParameters) ([]slack.File, *slack.Paging, error) {
	return m.files, &slack.Paging{Pages: 1}, nil
}

func (m *mockSlackClient) ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error) {
	if err := m.pinsErr[channel]; err != nil {
		return nil, nil, err
	}
	return m.pins[channel], &slack.Paging{Pages: 1}, nil
}

func (m *mockSlackClient) DeleteFileContext(ctx context.Context, fileID string) error {
	if err := m.deleteErr[fileID]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

func historyOf(messages ...slack.Message) *slack.GetConversationHistoryResponse {
	return &slack.GetConversationHistoryResponse{Messages: messages}
}

func slackMessage(ts, user, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{Type: "message", Timestamp: ts, User: user, Text: text}}
}

func channelConversation(id, name string, member bool) slack.Channel {
	c := slack.Channel{IsMember: member}
	c.ID = id
	c.Name = name
	return c
}

func imConversation(id, user string) slack.Channel {
	c := slack.Channel{}
	c.ID = id
	c.IsIM = true
	c.User = user
	return c
}

func groupConversation(id, name string) slack.Channel {
	c := slack.Channel{}
	c.ID = id
	c.Name = name
	c.IsGroup = true
	return c
}

func workspaceMock() *mockSlackClient {
	return &mockSlackClient{
		auth: &slack.AuthTestResponse{
			URL:    "https://acme.slack.com/",
			Team:   "Acme Co",
			User:   "alice",
			TeamID: "T1",
			UserID: "U1",
		},
		team: &slack.TeamInfo{ID: "T1", Name: "Acme Co"},
		users: []slack.User{
			{ID: "U1", Name: "alice", RealName: "Alice Adams", Color: "e7392d"},
			{ID: "U2", Name: "bob", RealName: "Bob Brown", Color: "4bbe2e"},
			{ID: "U3", Name: "carol", RealName: "Carol Cruz", Deleted: true},
		},
		channels: []slack.Channel{
			channelConversation("C1", "general", true),
			channelConversation("C2", "random", false),
			groupConversation("G1", "secret-plans"),
			imConversation("D1", "U2"),
			imConversation("D2", "UGONE"),
		},
		histories: map[string]*slack.GetConversationHistoryResponse{
			"C1": historyOf(slackMessage("200", "U2", "hi"), slackMessage("100", "U1", "hello")),
			"G1": historyOf(slackMessage("300", "U1", "psst")),
			"D1": historyOf(slackMessage("400", "U2", "hey")),
		},
	}
}

func newTestArchiver(client SlackClient, cfg *config.Config) *Archiver {
	a := New(client, archive.NewStore(cfg.SaveEmptyConversations), cfg)
	a.limiter = rate.NewLimiter(rate.Inf, 0)
	return a
}

func TestRunArchivesWorkspace(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{ArchiveFolder: root, FileRetentionDays: 30}
	a := newTestArchiver(workspaceMock(), cfg)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	teamDir := filepath.Join(root, "acme_co")
	assert.Equal(t, "acme_co", report.TeamFolder)
	assert.Equal(t, 2, report.Users, "deleted users get no profile")
	assert.FileExists(t, filepath.Join(teamDir, "user-Alice-Adams.json"))
	assert.FileExists(t, filepath.Join(teamDir, "user-Bob-Brown.json"))
	assert.NoFileExists(t, filepath.Join(teamDir, "user-Carol-Cruz.json"))

	var local archive.LocalUser
	data, err := os.ReadFile(filepath.Join(teamDir, archive.LocalUserFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &local))
	assert.Equal(t, "Acme Co", local.Team)
	assert.Equal(t, "U1", local.UserID)

	assert.FileExists(t, filepath.Join(teamDir, "channel-general.json"))
	assert.NoFileExists(t, filepath.Join(teamDir, "channel-random.json"), "nonmember channels skip by default")
	assert.FileExists(t, filepath.Join(teamDir, "group-secret-plans.json"))
	assert.FileExists(t, filepath.Join(teamDir, "im-Bob-Brown.json"))
	assert.NoFileExists(t, filepath.Join(teamDir, "im-.json"), "direct messages with unknown users skip")

	assert.Equal(t, 3, report.Conversations)
	assert.Equal(t, 4, report.Messages)
	assert.Zero(t, report.Duplicates)
}

func TestRunSavesNonmemberChannelsWhenConfigured(t *testing.T) {
	root := t.TempDir()
	mock := workspaceMock()
	mock.histories["C2"] = historyOf(slackMessage("500", "U2", "noise"))
	cfg := &config.Config{ArchiveFolder: root, SaveNonmemberChannels: true}
	a := newTestArchiver(mock, cfg)

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "acme_co", "channel-random.json"))
}

func TestRunUsesExistingBoundary(t *testing.T) {
	root := t.TempDir()
	teamDir := filepath.Join(root, "acme_co")
	require.NoError(t, os.MkdirAll(teamDir, 0o755))
	existing := []archive.Message{
		{TS: "150", User: "U1", Text: "already archived"},
		{TS: "100", User: "U2", Text: "older"},
	}
	require.NoError(t, archive.WriteJSON(filepath.Join(teamDir, "channel-general.json"), existing, true))

	mock := workspaceMock()
	// The boundary fetch is inclusive, so the newest stored message comes
	// back again alongside the genuinely new one.
	mock.histories["C1"] = historyOf(slackMessage("200", "U2", "new"), slackMessage("150", "U1", "already archived"))
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: root})

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "150", mock.lastOldest["C1"])
	assert.Equal(t, 1, report.Duplicates)

	messages, err := archive.ReadMessages(filepath.Join(teamDir, "channel-general.json"))
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, archive.Timestamp("200"), messages[0].TS)
}

func TestRunIsolatesFailingConversation(t *testing.T) {
	root := t.TempDir()
	mock := workspaceMock()
	mock.historyErr = map[string]error{"C1": errors.New("channel_not_found")}
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: root})

	report, err := a.Run(context.Background())
	require.NoError(t, err, "one failing conversation must not fail the run")

	teamDir := filepath.Join(root, "acme_co")
	assert.NoFileExists(t, filepath.Join(teamDir, "channel-general.json"))
	assert.FileExists(t, filepath.Join(teamDir, "im-Bob-Brown.json"))
	assert.Equal(t, 2, report.Conversations)
}

func TestRunKeepsFirstProfileSnapshot(t *testing.T) {
	root := t.TempDir()
	teamDir := filepath.Join(root, "acme_co")
	require.NoError(t, os.MkdirAll(teamDir, 0o755))
	original := archive.User{ID: "U1", RealName: "Alice Original"}
	profilePath := filepath.Join(teamDir, "user-Alice-Adams.json")
	require.NoError(t, archive.WriteJSON(profilePath, original, true))

	a := newTestArchiver(workspaceMock(), &config.Config{ArchiveFolder: root})
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(profilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice Original", "profile snapshots are never overwritten")
}

func TestTeamFolderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Co", "acme_co"},
		{"acme", "acme"},
		{"Big Corp (EU) #2", "big_corp_eu_2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TeamFolderName(tt.in), tt.in)
	}
}

func TestListFilesFlagsStale(t *testing.T) {
	mock := workspaceMock()
	now := time.Now()
	old := slack.JSONTime(now.AddDate(0, 0, -60).Unix())
	recent := slack.JSONTime(now.AddDate(0, 0, -5).Unix())
	mock.files = []slack.File{
		{ID: "F1", Name: "old.txt", Created: old},
		{ID: "F2", Name: "pinned.txt", Created: old, Channels: []string{"C1"}},
		{ID: "F3", Name: "recent.txt", Created: recent},
	}
	mock.pins = map[string][]slack.Item{
		"C1": {{File: &slack.File{ID: "F2"}}},
	}
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: t.TempDir(), FileRetentionDays: 30})

	files, err := a.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)

	byID := make(map[string]StaleFile)
	for _, f := range files {
		byID[f.ID] = f
	}
	assert.True(t, byID["F1"].Stale)
	assert.False(t, byID["F2"].Stale, "pinned files are never stale")
	assert.True(t, byID["F2"].Pinned)
	assert.False(t, byID["F3"].Stale)
}

func TestListFilesKeepsChannelFilesWhenPinsUnreadable(t *testing.T) {
	mock := workspaceMock()
	old := slack.JSONTime(time.Now().AddDate(0, 0, -60).Unix())
	mock.files = []slack.File{
		{ID: "F1", Name: "old.txt", Created: old, Channels: []string{"C1"}},
		{ID: "F2", Name: "orphan.txt", Created: old},
	}
	mock.pinsErr = map[string]error{"C1": errors.New("channel_not_found")}
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: t.TempDir(), FileRetentionDays: 30})

	files, err := a.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)

	byID := make(map[string]StaleFile)
	for _, f := range files {
		byID[f.ID] = f
	}
	assert.False(t, byID["F1"].Stale, "unverifiable pin status must not allow deletion")
	assert.True(t, byID["F2"].Stale)
}

func TestDeleteFilesDeletesOnlyStale(t *testing.T) {
	mock := workspaceMock()
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: t.TempDir()})

	deleted, err := a.DeleteFiles(context.Background(), []StaleFile{
		{ID: "F1", Stale: true},
		{ID: "F2", Stale: false},
		{ID: "F3", Stale: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{"F1", "F3"}, mock.deleted)
}

func TestDeleteFilesSkipsFailures(t *testing.T) {
	mock := workspaceMock()
	mock.deleteErr = map[string]error{"F1": errors.New("cant_delete_file")}
	a := newTestArchiver(mock, &config.Config{ArchiveFolder: t.TempDir()})

	deleted, err := a.DeleteFiles(context.Background(), []StaleFile{
		{ID: "F1", Stale: true},
		{ID: "F3", Stale: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"F3"}, mock.deleted)
}
