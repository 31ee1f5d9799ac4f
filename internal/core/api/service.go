// Package api implements the sentenceparser.v1.Matcher gRPC service.
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/solatis/sentenceparser/internal/core/config"
	"github.com/solatis/sentenceparser/internal/core/store"
	"github.com/solatis/sentenceparser/internal/rules"
)

// MatcherService implements MatcherServer.
// Thin orchestration layer delegating to the rule store and the rules engine.
type MatcherService struct {
	store        store.RuleStore
	engine       *rules.Engine
	cfg          *config.Config
	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// NewMatcherService creates service instance with dependencies.
// Auto-creates the match history directory if not exists.
func NewMatcherService(rs store.RuleStore, engine *rules.Engine, cfg *config.Config) (*MatcherService, error) {
	if rs == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	if err := os.MkdirAll(historyDir(cfg.DataDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &MatcherService{
		store:        rs,
		engine:       engine,
		cfg:          cfg,
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

func historyDir(dataDir string) string {
	return filepath.Join(dataDir, "matches")
}

// getJSONLMutex returns mutex for given filename, creating if not exists.
// Per-file mutex protects concurrent appends to the same daily file.
// The map grows by one entry per day.
func (s *MatcherService) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}
