package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// fakeRepo is an in-memory ConversationRepository and AssistantDirectory for
// use case tests. It mimics the Postgres adapter's contract, including
// pgx.ErrNoRows on misses.
type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]workbench.Conversation
	participants  map[string]map[string]workbench.Participant
	messages      map[string][]workbench.Message
	assistants    map[string]workbench.Assistant
	nextID        int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]workbench.Conversation),
		participants:  make(map[string]map[string]workbench.Participant),
		messages:      make(map[string][]workbench.Message),
		assistants:    make(map[string]workbench.Assistant),
	}
}

var _ repository.ConversationRepository = (*fakeRepo)(nil)
var _ repository.AssistantDirectory = (*fakeRepo)(nil)

func (f *fakeRepo) genID() string {
	f.nextID++
	return "id-" + strconv.Itoa(f.nextID)
}

func (f *fakeRepo) CreateConversation(_ context.Context, c workbench.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.genID()
	f.conversations[c.ID] = c
	return c.ID, nil
}

func (f *fakeRepo) GetConversation(_ context.Context, id, forParticipant string) (*workbench.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c.Permission = workbench.PermissionRead
	if c.OwnerID == forParticipant {
		c.Permission = workbench.PermissionReadWrite
	} else if p, ok := f.participants[id][forParticipant]; ok {
		c.Permission = p.Permission
	}
	return &c, nil
}

func (f *fakeRepo) ListConversations(_ context.Context, participantID string) ([]workbench.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []workbench.Conversation
	for id, c := range f.conversations {
		if _, ok := f.participants[id][participantID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) AddParticipant(_ context.Context, p workbench.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.participants[p.ConversationID] == nil {
		f.participants[p.ConversationID] = make(map[string]workbench.Participant)
	}
	f.participants[p.ConversationID][p.ID] = p
	return nil
}

func (f *fakeRepo) GetParticipant(_ context.Context, conversationID, participantID string) (*workbench.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[conversationID][participantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakeRepo) ListParticipants(_ context.Context, conversationID string) ([]workbench.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []workbench.Participant
	for _, p := range f.participants[conversationID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) UpdateParticipant(_ context.Context, conversationID, participantID string, upd repository.ParticipantUpdate) (*workbench.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[conversationID][participantID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Active != nil {
		p.Active = *upd.Active
	}
	if upd.ClearStatus {
		p.Status = nil
	} else if upd.Status != nil {
		s := *upd.Status
		p.Status = &s
	}
	f.participants[conversationID][participantID] = p
	return &p, nil
}

func (f *fakeRepo) SaveMessage(_ context.Context, m workbench.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.DedupeKey != nil {
		for _, existing := range f.messages[m.ConversationID] {
			if existing.DedupeKey != nil && *existing.DedupeKey == *m.DedupeKey {
				return existing.ID, nil
			}
		}
	}
	m.ID = f.genID()
	f.messages[m.ConversationID] = append(f.messages[m.ConversationID], m)
	return m.ID, nil
}

func (f *fakeRepo) GetMessage(_ context.Context, conversationID, messageID string) (*workbench.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages[conversationID] {
		if m.ID == messageID {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRepo) ListMessages(_ context.Context, conversationID string, limit int, beforeMessageID string) ([]workbench.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[conversationID]
	end := len(msgs)
	if beforeMessageID != "" {
		for i, m := range msgs {
			if m.ID == beforeMessageID {
				end = i
				break
			}
		}
	}
	start := 0
	if limit > 0 && end-start > limit {
		start = end - limit
	}
	out := make([]workbench.Message, end-start)
	copy(out, msgs[start:end])
	return out, nil
}

func (f *fakeRepo) LastMessageAt(_ context.Context, conversationID string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[conversationID]
	if len(msgs) == 0 {
		return nil, nil
	}
	ts := msgs[len(msgs)-1].CreatedAt
	return &ts, nil
}

func (f *fakeRepo) DeleteMessagesFrom(_ context.Context, conversationID, messageID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[conversationID]
	for i, m := range msgs {
		if m.ID == messageID {
			deleted := int64(len(msgs) - i)
			f.messages[conversationID] = msgs[:i]
			return deleted, nil
		}
	}
	return 0, pgx.ErrNoRows
}

func (f *fakeRepo) UpsertAssistant(_ context.Context, a workbench.Assistant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := f.assistants[a.ID]; ok {
		a.RegisteredAt = existing.RegisteredAt
	} else {
		a.RegisteredAt = now
	}
	a.LastSeen = now
	f.assistants[a.ID] = a
	return nil
}

func (f *fakeRepo) GetAssistant(_ context.Context, id string) (*workbench.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (f *fakeRepo) ListAssistants(_ context.Context) ([]workbench.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]workbench.Assistant, 0, len(f.assistants))
	for _, a := range f.assistants {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeCache is a TTL-less in-memory Cache for directory tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
	dels int
}

var _ cacheport.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
	}
	c.dels++
	return n, nil
}

func (c *fakeCache) Ping(_ context.Context) error { return nil }
func (c *fakeCache) Close() error                 { return nil }
