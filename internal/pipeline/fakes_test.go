package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"voxpost/internal/article"
	"voxpost/internal/services/writer"
	"voxpost/internal/testsupport"
)

type memArticles struct {
	mu        sync.Mutex
	updates   []article.Update
	prefs     map[string]*article.Preferences
	profiles  map[string]*article.StyleProfile
	updateErr error
	prefsErr  error
}

func newMemArticles() *memArticles {
	return &memArticles{
		prefs:    map[string]*article.Preferences{},
		profiles: map[string]*article.StyleProfile{},
	}
}

func (m *memArticles) Update(_ context.Context, _, _ string, u article.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, u)
	return nil
}

func (m *memArticles) GetPreferences(_ context.Context, userID string) (*article.Preferences, error) {
	if m.prefsErr != nil {
		return nil, m.prefsErr
	}
	return m.prefs[userID], nil
}

func (m *memArticles) GetStyleProfile(_ context.Context, userID, profileID string) (*article.StyleProfile, error) {
	return m.profiles[userID+"/"+profileID], nil
}

// terminalWrites returns the statuses written, in order.
func (m *memArticles) terminalWrites() []article.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []article.Status
	for _, u := range m.updates {
		if u.Status != nil && u.Status.IsTerminal() {
			out = append(out, *u.Status)
		}
	}
	return out
}

func (m *memArticles) last() article.Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates[len(m.updates)-1]
}

type memCheckpoints struct {
	mu      sync.Mutex
	data    map[string]json.RawMessage
	states  []string
	saveErr map[string]error
	loadErr error
	loads   int
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{data: map[string]json.RawMessage{}, saveErr: map[string]error{}}
}

func (m *memCheckpoints) LoadCheckpoints(context.Context, string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]json.RawMessage, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *memCheckpoints) SaveCheckpoint(_ context.Context, _, step string, output json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[step]; err != nil {
		return err
	}
	m.data[step] = output
	return nil
}

func (m *memCheckpoints) SetPipelineState(_ context.Context, _, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
	return nil
}

type stubTranscriber struct {
	calls atomic.Int32
	text  string
	err   error
}

func (s *stubTranscriber) Transcribe(context.Context, string, string) (string, error) {
	s.calls.Add(1)
	return s.text, s.err
}

type stubWriter struct {
	calls atomic.Int32
	doc   string
	err   error
	got   writer.Request
}

func (s *stubWriter) Generate(_ context.Context, req writer.Request) (string, error) {
	s.calls.Add(1)
	s.got = req
	return s.doc, s.err
}

const coverURL = "https://img.example/cover.png"

type stubImages struct {
	mu        sync.Mutex
	prompts   []string
	urls      map[string]string
	failCover bool
	delay     time.Duration
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (s *stubImages) Generate(_ context.Context, prompt string) (string, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxFlight.Load()
		if current <= prev || s.maxFlight.CompareAndSwap(prev, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if strings.HasPrefix(prompt, "A cover illustration") {
		if s.failCover {
			return "", errTest("cover failed")
		}
		return coverURL, nil
	}
	if url, ok := s.urls[prompt]; ok {
		return url, nil
	}
	return "", errTest("no image for " + prompt)
}

func (s *stubImages) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type errTest string

func (e errTest) Error() string { return string(e) }

type harness struct {
	articles    *memArticles
	checkpoints *memCheckpoints
	transcriber *stubTranscriber
	writer      *stubWriter
	images      *stubImages
}

func newHarness() *harness {
	return &harness{
		articles:    newMemArticles(),
		checkpoints: newMemCheckpoints(),
		transcriber: &stubTranscriber{text: "we talked about gardening"},
		writer:      &stubWriter{doc: "# Garden Notes\nTomatoes need sun.\n[image: a tomato plant]\nWater daily."},
		images:      &stubImages{urls: map[string]string{"a tomato plant": "https://img.example/tomato.png"}},
	}
}

func (h *harness) orchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(Dependencies{
		Articles:    h.articles,
		Checkpoints: h.checkpoints,
		Transcriber: h.transcriber,
		Writer:      h.writer,
		Images:      h.images,
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func validJob() Job {
	return Job{
		ArticleID:     "article-1",
		UserID:        "user-1",
		AudioDataURI:  testsupport.AudioDataURI(testsupport.SampleAudio, ""),
		SelectedModel: DefaultModel,
		Language:      "en",
		BlogType:      "standard",
		WordCount:     "medium",
	}
}
