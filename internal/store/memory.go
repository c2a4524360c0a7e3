package store

import (
	"context"
	"sync"
)

// MemoryStore keeps all lobby state in process memory. It is the default
// backend and the one the test suite runs against.
type MemoryStore struct {
	mu      sync.RWMutex
	lobbies map[string]*memLobby
}

type memLobby struct {
	meta    Lobby
	players map[string]string // userID -> display name
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lobbies: make(map[string]*memLobby)}
}

func (s *MemoryStore) CreateLobby(_ context.Context, l Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[l.ID] = &memLobby{meta: l, players: make(map[string]string)}
	return nil
}

func (s *MemoryStore) GetLobby(_ context.Context, id string) (Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lb, ok := s.lobbies[id]
	if !ok {
		return Lobby{}, ErrNotFound
	}
	return lb.meta, nil
}

func (s *MemoryStore) DeleteLobby(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
	return nil
}

func (s *MemoryStore) AddParticipant(_ context.Context, lobbyID, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.lobbies[lobbyID]
	if !ok {
		return ErrNotFound
	}
	lb.players[userID] = name
	return nil
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, lobbyID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lb, ok := s.lobbies[lobbyID]; ok {
		delete(lb.players, userID)
	}
	return nil
}

func (s *MemoryStore) Participants(_ context.Context, lobbyID string) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lb, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Participant, 0, len(lb.players))
	for id, name := range lb.players {
		out = append(out, Participant{UserID: id, Name: name})
	}
	return out, nil
}
