package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"enterprise-docs-qa/internal/storage"
	"enterprise-docs-qa/models"
)

// fakeEmbedder produces deterministic letter-frequency vectors so similar
// texts land near each other under cosine similarity.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	fail  bool
	model string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, errors.New("embedding provider unavailable")
	}
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func (f *fakeEmbedder) Model() string {
	if f.model == "" {
		return "fake-embedder"
	}
	return f.model
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu         sync.Mutex
	calls      int
	reply      string
	fail       bool
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastPrompt = prompt
	f.mu.Unlock()

	if f.fail {
		return "", errors.New("generation provider unavailable")
	}
	return f.reply, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSource is an in-memory ObjectStore. With ignoreFilter set it returns
// every key regardless of the requested extensions, imitating a misbehaving
// adapter.
type fakeSource struct {
	mu           sync.Mutex
	docs         map[string][]byte
	failKeys     map[string]bool
	listErr      error
	ignoreFilter bool
}

func newFakeSource(docs map[string]string) *fakeSource {
	s := &fakeSource{docs: make(map[string][]byte), failKeys: make(map[string]bool)}
	for k, v := range docs {
		s.docs[k] = []byte(v)
	}
	return s
}

func (s *fakeSource) ListByExtension(ctx context.Context, extensions []string) ([]models.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var infos []models.DocumentInfo
	for key, data := range s.docs {
		if !s.ignoreFilter && !storage.HasExtension(key, extensions) {
			continue
		}
		infos = append(infos, models.DocumentInfo{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *fakeSource) GetContent(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failKeys[key] {
		return nil, fmt.Errorf("fetch failed for %s", key)
	}
	data, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return data, nil
}

func (s *fakeSource) MaterializeToLocalFile(ctx context.Context, key string) (string, error) {
	data, err := s.GetContent(ctx, key)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "fake-*"+path.Ext(key))
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *fakeSource) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
}
