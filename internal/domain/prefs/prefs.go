// Package prefs stores small per-user interface preferences (theme,
// font scale, notice flags) as a key/value map, last-write-wins.
package prefs

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyKey = errors.New("preference key is required")

// Repository persists preference values per client.
type Repository interface {
	GetAll(ctx context.Context, clientID string) (map[string]string, error)
	Set(ctx context.Context, clientID, key, value string) error
	Delete(ctx context.Context, clientID, key string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetAll(ctx context.Context, clientID string) (map[string]string, error) {
	prefs, err := s.repo.GetAll(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if prefs == nil {
		prefs = map[string]string{}
	}
	return prefs, nil
}

func (s *Service) Set(ctx context.Context, clientID, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.repo.Set(ctx, clientID, key, value)
}

func (s *Service) Delete(ctx context.Context, clientID, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.repo.Delete(ctx, clientID, key)
}
