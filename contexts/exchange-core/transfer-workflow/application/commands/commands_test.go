package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"resupply/contexts/exchange-core/transfer-workflow/adapters/memory"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type stubGate struct {
	allowed bool
	reason  string
}

func (g stubGate) Decide(_ context.Context, _ ports.Identity, _ string, _ ports.GateResource) (bool, string, error) {
	return g.allowed, g.reason, nil
}

type seqIDGen struct {
	counter atomic.Int64
}

func (g *seqIDGen) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("id_%d", g.counter.Add(1)), nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type recordingSink struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
}

func (s *recordingSink) Append(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// fakeInventory mimics the ledger's conditional reserve semantics so
// workflow tests exercise real contention outcomes.
type fakeInventory struct {
	mu          sync.Mutex
	material    ports.MaterialSnapshot
	reserved    map[string]decimal.Decimal
	released    map[string]decimal.Decimal
	transferred []string
}

func newFakeInventory(quantity string) *fakeInventory {
	return &fakeInventory{
		material: ports.MaterialSnapshot{
			MaterialID:           "mat_1",
			OrganizationID:       "org_food_1",
			OrganizationCategory: "food_bank",
			Quantity:             decimal.RequireFromString(quantity),
			Unit:                 "kg",
			IsSurplus:            true,
			Available:            true,
		},
		reserved: make(map[string]decimal.Decimal),
		released: make(map[string]decimal.Decimal),
	}
}

func (f *fakeInventory) GetMaterial(_ context.Context, materialID string) (ports.MaterialSnapshot, error) {
	if materialID != f.material.MaterialID {
		return ports.MaterialSnapshot{}, domainerrors.ErrMaterialUnavailable
	}
	return f.material, nil
}

func (f *fakeInventory) Reserve(_ context.Context, req ports.AllocationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Quantity.GreaterThan(f.material.Quantity.Sub(f.totalReservedLocked())) {
		return domainerrors.ErrInsufficientQuantity
	}
	f.reserved[req.TransferRequestID] = f.reserved[req.TransferRequestID].Add(req.Quantity)
	return nil
}

func (f *fakeInventory) Release(_ context.Context, req ports.AllocationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.reserved[req.TransferRequestID].IsPositive() {
		return domainerrors.ErrInvalidInput
	}
	f.reserved[req.TransferRequestID] = f.reserved[req.TransferRequestID].Sub(req.Quantity)
	f.released[req.TransferRequestID] = f.released[req.TransferRequestID].Add(req.Quantity)
	return nil
}

func (f *fakeInventory) MarkTransferred(_ context.Context, _ string, transferRequestID string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferred = append(f.transferred, transferRequestID)
	return nil
}

func (f *fakeInventory) totalReservedLocked() decimal.Decimal {
	total := decimal.Zero
	for _, quantity := range f.reserved {
		total = total.Add(quantity)
	}
	return total
}

func (f *fakeInventory) netReserved(requestID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserved[requestID]
}

type harness struct {
	store     *memory.Store
	inventory *fakeInventory
	sink      *recordingSink
	idGen     *seqIDGen
	clock     fixedClock
}

func newHarness(quantity string) *harness {
	sink := &recordingSink{}
	return &harness{
		store:     memory.NewStore(sink),
		inventory: newFakeInventory(quantity),
		sink:      sink,
		idGen:     &seqIDGen{},
		clock:     fixedClock{at: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func (h *harness) createUC() CreateTransferRequestUseCase {
	return CreateTransferRequestUseCase{
		Requests:  h.store,
		Inventory: h.inventory,
		Gate:      stubGate{allowed: true},
		Clock:     h.clock,
		IDGen:     h.idGen,
	}
}

func (h *harness) approveUC() ApproveTransferRequestUseCase {
	return ApproveTransferRequestUseCase{
		Requests:  h.store,
		Inventory: h.inventory,
		Gate:      stubGate{allowed: true},
		Clock:     h.clock,
		IDGen:     h.idGen,
	}
}

func (h *harness) rejectUC() RejectTransferRequestUseCase {
	return RejectTransferRequestUseCase{
		Requests: h.store,
		Gate:     stubGate{allowed: true},
		Clock:    h.clock,
		IDGen:    h.idGen,
	}
}

func (h *harness) cancelUC() CancelTransferRequestUseCase {
	return CancelTransferRequestUseCase{
		Requests:  h.store,
		Inventory: h.inventory,
		Gate:      stubGate{allowed: true},
		Clock:     h.clock,
		IDGen:     h.idGen,
	}
}

func (h *harness) completeUC() CompleteTransferRequestUseCase {
	return CompleteTransferRequestUseCase{
		Requests:  h.store,
		Inventory: h.inventory,
		Gate:      stubGate{allowed: true},
		Clock:     h.clock,
		IDGen:     h.idGen,
	}
}

func requesterIdentity() ports.Identity {
	return ports.Identity{
		UserID:               "user_requester_1",
		OrganizationID:       "org_shelter_2",
		OrganizationCategory: "food_bank",
		Role:                 "org_member",
	}
}

func ownerAdminIdentity() ports.Identity {
	return ports.Identity{
		UserID:               "user_admin_1",
		OrganizationID:       "org_food_1",
		OrganizationCategory: "food_bank",
		Role:                 "org_admin",
	}
}

func mustRequest(t *testing.T, h *harness, quantity string) entities.TransferRequest {
	t.Helper()
	request, err := h.createUC().Execute(context.Background(), requesterIdentity(), CreateTransferRequestCommand{
		MaterialID: "mat_1",
		Quantity:   decimal.RequireFromString(quantity),
		Comment:    "we can pick up friday",
	})
	if err != nil {
		t.Fatalf("create request returned error: %v", err)
	}
	return request
}

func TestCreateOpensPendingRequest(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	if request.Status != entities.TransferStatusPending {
		t.Fatalf("expected pending, got %s", request.Status)
	}
	if len(request.Comments) != 1 || request.Comments[0].Type != entities.CommentTypeRequest {
		t.Fatalf("expected 1 request comment, got %+v", request.Comments)
	}
	// No reservation before approval.
	if h.inventory.netReserved(request.RequestID).IsPositive() {
		t.Fatalf("creation must not reserve quantity")
	}

	pending, err := h.store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "exchange.transfer.requested.v1" {
		t.Fatalf("expected 1 requested event in outbox, got %+v", pending)
	}
}

func TestCreateRejectsOwnMaterial(t *testing.T) {
	h := newHarness("100")

	_, err := h.createUC().Execute(context.Background(), ownerAdminIdentity(), CreateTransferRequestCommand{
		MaterialID: "mat_1",
		Quantity:   decimal.RequireFromString("10"),
	})
	if !errors.Is(err, domainerrors.ErrSameOrganization) {
		t.Fatalf("expected ErrSameOrganization, got %v", err)
	}
}

func TestCreateRejectsExcessQuantity(t *testing.T) {
	h := newHarness("100")

	_, err := h.createUC().Execute(context.Background(), requesterIdentity(), CreateTransferRequestCommand{
		MaterialID: "mat_1",
		Quantity:   decimal.RequireFromString("150"),
	})
	if !errors.Is(err, domainerrors.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}
}

func TestApproveReservesQuantity(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	approved, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if approved.Status != entities.TransferStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.DecidedBy != "user_admin_1" {
		t.Fatalf("expected decided_by user_admin_1, got %s", approved.DecidedBy)
	}
	if !h.inventory.netReserved(request.RequestID).Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected 60 reserved, got %s", h.inventory.netReserved(request.RequestID))
	}
}

func TestApproveNonPendingRequest(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	if _, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID}); err != nil {
		t.Fatalf("first approve returned error: %v", err)
	}
	_, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID})
	if !errors.Is(err, domainerrors.ErrInvalidTransferStatus) {
		t.Fatalf("expected ErrInvalidTransferStatus, got %v", err)
	}
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	h := newHarness("1000")
	request := mustRequest(t, h, "60")

	const reviewers = 8
	var wg sync.WaitGroup
	var wins atomic.Int64
	var conflicts atomic.Int64

	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{
				RequestID: request.RequestID,
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domainerrors.ErrStatusConflict) || errors.Is(err, domainerrors.ErrInvalidTransferStatus):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected approval error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly 1 winning approval, got %d", wins.Load())
	}
	if conflicts.Load() != reviewers-1 {
		t.Fatalf("expected %d losing reviewers, got %d", reviewers-1, conflicts.Load())
	}
	// Losers released their reservations; exactly one remains.
	if !h.inventory.netReserved(request.RequestID).Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected net reservation of 60, got %s", h.inventory.netReserved(request.RequestID))
	}
}

// failingUpdateStore fails the status flip with an infrastructure
// error while reads keep working.
type failingUpdateStore struct {
	*memory.Store
	updateErr error
}

func (s *failingUpdateStore) UpdateRequest(_ context.Context, _ entities.TransferRequest, _ entities.TransferStatus, _ ports.AuditEntry, _ ports.EventEnvelope) (entities.TransferRequest, error) {
	return entities.TransferRequest{}, s.updateErr
}

func TestApproveStoreFailureReleasesReservation(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	uc := h.approveUC()
	uc.Requests = &failingUpdateStore{Store: h.store, updateErr: errors.New("connection reset by peer")}

	if _, err := uc.Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID}); err == nil {
		t.Fatal("expected store failure to surface")
	}

	got, err := h.store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("GetRequest returned error: %v", err)
	}
	if got.Status != entities.TransferStatusPending {
		t.Fatalf("request should stay pending after failed approve, got %s", got.Status)
	}
	if !h.inventory.netReserved(request.RequestID).IsZero() {
		t.Fatalf("reservation must not survive a failed approval, still holding %s", h.inventory.netReserved(request.RequestID))
	}

	// A retried approve against a healthy store reserves exactly once.
	approved, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID})
	if err != nil {
		t.Fatalf("retried approve returned error: %v", err)
	}
	if approved.Status != entities.TransferStatusApproved {
		t.Fatalf("expected approved after retry, got %s", approved.Status)
	}
	if !h.inventory.netReserved(request.RequestID).Equal(decimal.RequireFromString("60")) {
		t.Fatalf("expected net reservation of 60 after retry, got %s", h.inventory.netReserved(request.RequestID))
	}
}

func TestCompetingRequestsLoseAtApproval(t *testing.T) {
	h := newHarness("100")
	first := mustRequest(t, h, "60")
	second := mustRequest(t, h, "60")

	if _, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: first.RequestID}); err != nil {
		t.Fatalf("first approval returned error: %v", err)
	}
	_, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: second.RequestID})
	if !errors.Is(err, domainerrors.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity for second approval, got %v", err)
	}

	got, err := h.store.GetRequest(context.Background(), second.RequestID)
	if err != nil {
		t.Fatalf("GetRequest returned error: %v", err)
	}
	if got.Status != entities.TransferStatusPending {
		t.Fatalf("losing request should stay pending, got %s", got.Status)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	_, err := h.rejectUC().Execute(context.Background(), ownerAdminIdentity(), RejectTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if !errors.Is(err, domainerrors.ErrRejectionCommentRequired) {
		t.Fatalf("expected ErrRejectionCommentRequired, got %v", err)
	}

	rejected, err := h.rejectUC().Execute(context.Background(), ownerAdminIdentity(), RejectTransferRequestCommand{
		RequestID: request.RequestID,
		Comment:   "already promised elsewhere",
	})
	if err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	if rejected.Status != entities.TransferStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if h.inventory.netReserved(request.RequestID).IsPositive() {
		t.Fatalf("rejection must not leave a reservation")
	}
}

func TestCancelApprovedReleasesReservation(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	if _, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID}); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}

	cancelled, err := h.cancelUC().Execute(context.Background(), requesterIdentity(), CancelTransferRequestCommand{
		RequestID: request.RequestID,
		Comment:   "no longer needed",
	})
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if cancelled.Status != entities.TransferStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if !h.inventory.netReserved(request.RequestID).IsZero() {
		t.Fatalf("expected reservation released, still holding %s", h.inventory.netReserved(request.RequestID))
	}
}

func TestCompleteMarksTransferred(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	if _, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID}); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	completed, err := h.completeUC().Execute(context.Background(), requesterIdentity(), CompleteTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if completed.Status != entities.TransferStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if len(h.inventory.transferred) != 1 || h.inventory.transferred[0] != request.RequestID {
		t.Fatalf("expected ledger finalization for %s, got %v", request.RequestID, h.inventory.transferred)
	}
}

func TestEveryTransitionAppendsTypedComment(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	// No comment body on approve; the transition still leaves a typed
	// record of who decided and when.
	approved, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if len(approved.Comments) != 2 {
		t.Fatalf("expected request + approval comments, got %+v", approved.Comments)
	}
	approval := approved.Comments[1]
	if approval.Type != entities.CommentTypeApproval || approval.AuthorID != "user_admin_1" || approval.CreatedAt.IsZero() {
		t.Fatalf("unexpected approval comment %+v", approval)
	}

	completed, err := h.completeUC().Execute(context.Background(), requesterIdentity(), CompleteTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if len(completed.Comments) != 3 || completed.Comments[2].Type != entities.CommentTypeCompletion {
		t.Fatalf("expected trailing completion comment, got %+v", completed.Comments)
	}
	if completed.Comments[2].AuthorID != "user_requester_1" {
		t.Fatalf("completion comment must name the actor, got %+v", completed.Comments[2])
	}
}

func TestCompletionPreservesApprovalDecision(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	approved, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	completed, err := h.completeUC().Execute(context.Background(), requesterIdentity(), CompleteTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}

	if completed.DecidedBy != "user_admin_1" {
		t.Fatalf("completion must keep the approver, got decided_by %q", completed.DecidedBy)
	}
	if completed.DecidedAt == nil || approved.DecidedAt == nil || !completed.DecidedAt.Equal(*approved.DecidedAt) {
		t.Fatalf("completion must keep the approval time, got %v want %v", completed.DecidedAt, approved.DecidedAt)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completion must stamp completed_at")
	}
}

func TestCompletePendingRequestIsInvalid(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	_, err := h.completeUC().Execute(context.Background(), requesterIdentity(), CompleteTransferRequestCommand{
		RequestID: request.RequestID,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransferStatus) {
		t.Fatalf("expected ErrInvalidTransferStatus, got %v", err)
	}
}

func TestTerminalStatusesAcceptNoTransitions(t *testing.T) {
	h := newHarness("100")
	request := mustRequest(t, h, "60")

	if _, err := h.rejectUC().Execute(context.Background(), ownerAdminIdentity(), RejectTransferRequestCommand{
		RequestID: request.RequestID,
		Comment:   "not this time",
	}); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}

	if _, err := h.approveUC().Execute(context.Background(), ownerAdminIdentity(), ApproveTransferRequestCommand{RequestID: request.RequestID}); !errors.Is(err, domainerrors.ErrInvalidTransferStatus) {
		t.Fatalf("approve after reject: expected ErrInvalidTransferStatus, got %v", err)
	}
	if _, err := h.cancelUC().Execute(context.Background(), requesterIdentity(), CancelTransferRequestCommand{RequestID: request.RequestID}); !errors.Is(err, domainerrors.ErrInvalidTransferStatus) {
		t.Fatalf("cancel after reject: expected ErrInvalidTransferStatus, got %v", err)
	}
	if _, err := h.completeUC().Execute(context.Background(), requesterIdentity(), CompleteTransferRequestCommand{RequestID: request.RequestID}); !errors.Is(err, domainerrors.ErrInvalidTransferStatus) {
		t.Fatalf("complete after reject: expected ErrInvalidTransferStatus, got %v", err)
	}
}
