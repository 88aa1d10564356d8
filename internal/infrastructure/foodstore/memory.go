package foodstore

import (
	"context"
	"strings"
	"sync"

	"nutrition-calculator/internal/core/nutrition"
)

// MemoryStore keeps the reference in a slice. Lookups follow insertion
// order like the database stores.
type MemoryStore struct {
	mu    sync.RWMutex
	foods []nutrition.FoodRecord
}

func NewMemoryStore(records ...nutrition.FoodRecord) *MemoryStore {
	s := &MemoryStore{}
	for _, rec := range records {
		_ = s.Upsert(context.Background(), rec)
	}
	return s
}

func (s *MemoryStore) FindExact(_ context.Context, name string) (*nutrition.FoodRecord, error) {
	return s.find(func(food string) bool { return food == strings.ToLower(name) })
}

func (s *MemoryStore) FindContaining(_ context.Context, fragment string) (*nutrition.FoodRecord, error) {
	fragment = strings.ToLower(fragment)
	return s.find(func(food string) bool { return strings.Contains(food, fragment) })
}

func (s *MemoryStore) FindContainedIn(_ context.Context, text string) (*nutrition.FoodRecord, error) {
	text = strings.ToLower(text)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *nutrition.FoodRecord
	for i := range s.foods {
		food := strings.ToLower(s.foods[i].Name)
		if food == "" || !strings.Contains(text, food) {
			continue
		}
		if best == nil || len(food) > len(best.Name) {
			rec := s.foods[i]
			best = &rec
		}
	}
	if best == nil {
		return nil, nutrition.ErrFoodNotFound
	}
	return best, nil
}

func (s *MemoryStore) FoodNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.foods))
	for i, f := range s.foods {
		names[i] = f.Name
	}
	return names, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec nutrition.FoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.foods {
		if strings.EqualFold(s.foods[i].Name, rec.Name) {
			s.foods[i] = rec
			return nil
		}
	}
	s.foods = append(s.foods, rec)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) find(match func(lowerName string) bool) (*nutrition.FoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.foods {
		if match(strings.ToLower(f.Name)) {
			rec := f
			return &rec, nil
		}
	}
	return nil, nutrition.ErrFoodNotFound
}
