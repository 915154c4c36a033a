// Package file persists trade memory as a single JSON snapshot.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"sentinel_bot/internal/models"
)

const DefaultPath = "data/trade_memory.json"

type Store struct {
	path string

	mu     sync.Mutex
	recs   []models.TradeRecord
	index  map[uuid.UUID]int
	loaded bool
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:  path,
		index: make(map[uuid.UUID]int),
	}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) ([]models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return append([]models.TradeRecord(nil), s.recs...), nil
}

func (s *Store) Append(ctx context.Context, rec models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	if _, dup := s.index[rec.ID]; dup {
		return fmt.Errorf("file.Append: record %s already stored", rec.ID)
	}
	s.index[rec.ID] = len(s.recs)
	s.recs = append(s.recs, rec)
	if err := s.saveLocked(); err != nil {
		s.recs = s.recs[:len(s.recs)-1]
		delete(s.index, rec.ID)
		return err
	}
	return nil
}

func (s *Store) Update(ctx context.Context, rec models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	i, ok := s.index[rec.ID]
	if !ok {
		return fmt.Errorf("file.Update: record %s not found", rec.ID)
	}
	prev := s.recs[i]
	s.recs[i] = rec
	if err := s.saveLocked(); err != nil {
		s.recs[i] = prev
		return err
	}
	return nil
}

type snapshot struct {
	UpdatedAt time.Time            `json:"updated_at"`
	Trades    []models.TradeRecord `json:"trades"`
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	var snap snapshot
	if len(b) > 0 {
		if err := sonic.Unmarshal(b, &snap); err != nil {
			return fmt.Errorf("decode %s: %w", s.path, err)
		}
	}

	s.recs = snap.Trades
	s.index = make(map[uuid.UUID]int, len(s.recs))
	for i, r := range s.recs {
		s.index[r.ID] = i
	}
	s.loaded = true
	return nil
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	b, err := sonic.ConfigStd.MarshalIndent(&snapshot{
		UpdatedAt: time.Now().UTC(),
		Trades:    s.recs,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
