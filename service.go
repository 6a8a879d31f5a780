package orm

import (
	"sync"
)

// Service is the registry of Objects over one client. Records reach
// related models through it, so every proxy hanging off one Service
// shares model descriptors (and their memoized metadata).
type Service struct {
	client Client

	mu      sync.Mutex
	objects map[string]*Object
}

func NewService(client Client) *Service {
	return &Service{
		client:  client,
		objects: make(map[string]*Object),
	}
}

func (s *Service) Client() Client {
	return s.client
}

// Object returns the descriptor for a model name, creating it on first
// access. No metadata is fetched until the descriptor is used.
func (s *Service) Object(name string) *Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[name]
	if !ok {
		obj = &Object{svc: s, name: name}
		s.objects[name] = obj
	}
	return obj
}
