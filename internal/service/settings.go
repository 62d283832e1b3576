package service

import (
	"errors"
	"sync"

	"adminconsole/internal/model"
)

var ErrInvalidThreshold = errors.New("low stock threshold must not be negative")

// SettingsStore keeps the console's notification preferences in memory.
type SettingsStore struct {
	mu       sync.RWMutex
	settings model.NotificationSettings
}

func NewSettingsStore(lowStockThreshold int) *SettingsStore {
	if lowStockThreshold < 0 {
		lowStockThreshold = model.DefaultLowStockThreshold
	}
	return &SettingsStore{
		settings: model.NotificationSettings{LowStockThreshold: lowStockThreshold},
	}
}

func (s *SettingsStore) Get() model.NotificationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) Update(n model.NotificationSettings) error {
	if n.LowStockThreshold < 0 {
		return ErrInvalidThreshold
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = n
	return nil
}
