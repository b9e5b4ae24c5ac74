// Package memstore is an in-memory Store used by the "mem" storage profile
// and by tests. Data does not survive a restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	assets  map[string]domain.Asset
	alerts  map[string]domain.Alert
	history map[string][]domain.PriceHistory

	now   func() time.Time
	idGen func() string
}

var _ application.Store = (*Store)(nil)

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithIDGen(g func() string) Option { return func(s *Store) { s.idGen = g } }

func New(opts ...Option) *Store {
	s := &Store{
		assets:  make(map[string]domain.Asset),
		alerts:  make(map[string]domain.Alert),
		history: make(map[string][]domain.PriceHistory),
		now:     time.Now,
		idGen:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) GetAssets(context.Context) ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAssetByID(_ context.Context, id string) (domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return domain.Asset{}, application.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAsset(_ context.Context, n domain.NewAsset) (domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assets {
		if existing.MatchesSymbol(n.Symbol) {
			return domain.Asset{}, application.ErrConflict
		}
	}
	a := domain.Asset{
		ID:        s.idGen(),
		Symbol:    n.Symbol,
		Name:      n.Name,
		Type:      n.Type,
		CreatedAt: s.now().UTC(),
	}
	s.assets[a.ID] = a
	return a, nil
}

// DeleteAsset removes the asset together with its alerts and history.
func (s *Store) DeleteAsset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.assets, id)
	for alertID, al := range s.alerts {
		if al.AssetID == id {
			delete(s.alerts, alertID)
		}
	}
	delete(s.history, id)
	return nil
}

func (s *Store) GetAlerts(context.Context) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAlertsByAssetID(_ context.Context, assetID string) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alert
	for _, a := range s.alerts {
		if a.AssetID == assetID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateAlert(_ context.Context, n domain.NewAlert) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[n.AssetID]; !ok {
		return domain.Alert{}, application.ErrNotFound
	}
	a := domain.Alert{
		ID:          s.idGen(),
		AssetID:     n.AssetID,
		Type:        n.Type,
		Threshold:   n.Threshold,
		Currency:    n.Currency,
		IsActive:    n.IsActive,
		IsTriggered: n.IsTriggered,
		TriggeredAt: n.TriggeredAt,
		CreatedAt:   s.now().UTC(),
	}
	s.alerts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAlert(_ context.Context, id string, patch domain.AlertPatch) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return domain.Alert{}, application.ErrNotFound
	}
	patch.Apply(&a)
	s.alerts[id] = a
	return a, nil
}

func (s *Store) DeleteAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.alerts, id)
	return nil
}

func (s *Store) GetPriceHistory(_ context.Context, assetID string, limit int) ([]domain.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[assetID]
	out := make([]domain.PriceHistory, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AddPriceHistory(_ context.Context, n domain.NewPriceHistory) (domain.PriceHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[n.AssetID]; !ok {
		return domain.PriceHistory{}, application.ErrNotFound
	}
	h := domain.PriceHistory{
		ID:        s.idGen(),
		AssetID:   n.AssetID,
		PriceUSD:  n.PriceUSD,
		PriceJPY:  n.PriceJPY,
		Volume:    n.Volume,
		Timestamp: n.Timestamp,
	}
	s.history[n.AssetID] = append(s.history[n.AssetID], h)
	return h, nil
}
