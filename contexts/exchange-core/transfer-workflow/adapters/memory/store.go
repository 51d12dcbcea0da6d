package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

// Store keeps transfer requests, their outbox rows, and audit writes
// under one mutex. The optimistic status check and the companion
// appends happen in the same critical section, mirroring the single
// transaction the postgres adapter uses.
type Store struct {
	mu sync.RWMutex

	requests map[string]entities.TransferRequest
	outbox   []ports.OutboxMessage
	audit    ports.AuditSink
}

func NewStore(audit ports.AuditSink) *Store {
	return &Store{
		requests: make(map[string]entities.TransferRequest),
		audit:    audit,
	}
}

func (s *Store) CreateRequest(ctx context.Context, request entities.TransferRequest, audit ports.AuditEntry, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(request.RequestID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.requests[id]; exists {
		return domainerrors.ErrInvalidInput
	}

	if err := s.appendAudit(ctx, audit, nil, request); err != nil {
		return err
	}
	if err := s.appendOutbox(event); err != nil {
		return err
	}
	s.requests[id] = cloneRequest(request)
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (entities.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[strings.TrimSpace(requestID)]
	if !ok {
		return entities.TransferRequest{}, domainerrors.ErrTransferNotFound
	}
	return cloneRequest(request), nil
}

func (s *Store) ListRequests(_ context.Context, filter ports.TransferFilter) ([]entities.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	items := make([]entities.TransferRequest, 0)
	for _, request := range s.requests {
		if filter.OrganizationID != "" &&
			request.FromOrganizationID != filter.OrganizationID &&
			request.ToOrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		items = append(items, cloneRequest(request))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []entities.TransferRequest{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (s *Store) UpdateRequest(ctx context.Context, request entities.TransferRequest, expectedStatus entities.TransferStatus, audit ports.AuditEntry, event ports.EventEnvelope) (entities.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[strings.TrimSpace(request.RequestID)]
	if !ok {
		return entities.TransferRequest{}, domainerrors.ErrTransferNotFound
	}
	if current.Status != expectedStatus {
		return entities.TransferRequest{}, domainerrors.ErrStatusConflict
	}

	before := cloneRequest(current)
	next := cloneRequest(request)
	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.TransferRequest{}, err
	}
	if err := s.appendOutbox(event); err != nil {
		return entities.TransferRequest{}, err
	}
	s.requests[next.RequestID] = cloneRequest(next)
	return next, nil
}

// ListPendingOutbox implements the relay's read side.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	out := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outbox {
		if row.OutboxID == outboxID {
			s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) appendOutbox(event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, ports.OutboxMessage{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	})
	return nil
}

func (s *Store) appendAudit(ctx context.Context, audit ports.AuditEntry, before *entities.TransferRequest, after entities.TransferRequest) error {
	if s.audit == nil {
		return nil
	}
	if before != nil {
		raw, err := json.Marshal(snapshot(*before))
		if err != nil {
			return err
		}
		audit.Before = raw
	}
	raw, err := json.Marshal(snapshot(after))
	if err != nil {
		return err
	}
	audit.After = raw
	return s.audit.Append(ctx, audit)
}

// snapshot is the audit-facing request shape. Quantity serializes as a
// string to keep snapshots exact.
type snapshotModel struct {
	RequestID          string `json:"request_id"`
	MaterialID         string `json:"material_id"`
	FromOrganizationID string `json:"from_organization_id"`
	ToOrganizationID   string `json:"to_organization_id"`
	RequestedBy        string `json:"requested_by"`
	Quantity           string `json:"quantity"`
	Unit               string `json:"unit"`
	Status             string `json:"status"`
	Comments           int    `json:"comments"`
}

func snapshot(request entities.TransferRequest) snapshotModel {
	return snapshotModel{
		RequestID:          request.RequestID,
		MaterialID:         request.MaterialID,
		FromOrganizationID: request.FromOrganizationID,
		ToOrganizationID:   request.ToOrganizationID,
		RequestedBy:        request.RequestedBy,
		Quantity:           request.Quantity.String(),
		Unit:               request.Unit,
		Status:             string(request.Status),
		Comments:           len(request.Comments),
	}
}

func cloneRequest(request entities.TransferRequest) entities.TransferRequest {
	clone := request
	clone.Comments = append([]entities.Comment(nil), request.Comments...)
	if request.DecidedAt != nil {
		at := *request.DecidedAt
		clone.DecidedAt = &at
	}
	if request.CompletedAt != nil {
		at := *request.CompletedAt
		clone.CompletedAt = &at
	}
	return clone
}

// Now implements the clock port for wiring convenience in tests.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
