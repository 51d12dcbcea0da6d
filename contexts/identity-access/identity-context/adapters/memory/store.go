package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"resupply/contexts/identity-access/identity-context/domain/entities"
	domainerrors "resupply/contexts/identity-access/identity-context/domain/errors"
)

type Store struct {
	mu sync.RWMutex

	subjects      map[string]entities.Subject
	organizations map[string]entities.Organization
}

func NewStore() *Store {
	return &Store{
		subjects:      make(map[string]entities.Subject),
		organizations: make(map[string]entities.Organization),
	}
}

func (s *Store) RegisterSubject(subject entities.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[strings.TrimSpace(subject.UserID)] = subject
}

func (s *Store) RegisterOrganization(organization entities.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[strings.TrimSpace(organization.OrganizationID)] = organization
}

func (s *Store) GetSubject(_ context.Context, userID string) (entities.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[strings.TrimSpace(userID)]
	if !ok {
		return entities.Subject{}, domainerrors.ErrUnknownSubject
	}
	return subject, nil
}

func (s *Store) GetOrganization(_ context.Context, organizationID string) (entities.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	organization, ok := s.organizations[strings.TrimSpace(organizationID)]
	if !ok {
		return entities.Organization{}, domainerrors.ErrOrganizationNotFound
	}
	return organization, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
