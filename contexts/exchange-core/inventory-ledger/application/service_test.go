package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"resupply/contexts/exchange-core/inventory-ledger/adapters/memory"
	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	domainerrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	"resupply/contexts/exchange-core/inventory-ledger/ports"
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

// recordingSink captures every audit entry appended by the store.
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

func (s *recordingSink) byAction(action string) []ports.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]ports.AuditEntry, 0)
	for _, entry := range s.entries {
		if entry.Action == action {
			matched = append(matched, entry)
		}
	}
	return matched
}

func newTestService(t *testing.T) (Service, *memory.Store, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	store := memory.NewStore(sink)
	service := Service{
		Repo:  store,
		Gate:  stubGate{allowed: true},
		Clock: fixedClock{at: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		IDGen: &seqIDGen{},
	}
	return service, store, sink
}

func donorIdentity() ports.Identity {
	return ports.Identity{
		UserID:               "user_admin_1",
		OrganizationID:       "org_food_1",
		OrganizationCategory: "food_bank",
		Role:                 "org_admin",
	}
}

func mustCreate(t *testing.T, service Service, quantity string) entities.Material {
	t.Helper()
	material, err := service.CreateMaterial(context.Background(), donorIdentity(), ports.CreateMaterialInput{
		Name:      "canned beans",
		Quantity:  decimal.RequireFromString(quantity),
		Unit:      "kg",
		IsSurplus: true,
	})
	if err != nil {
		t.Fatalf("CreateMaterial returned error: %v", err)
	}
	return material
}

func TestCreateMaterialListsAvailableSurplus(t *testing.T) {
	service, _, sink := newTestService(t)

	material := mustCreate(t, service, "100")
	if material.Status != entities.MaterialStatusAvailable {
		t.Fatalf("expected status available, got %s", material.Status)
	}
	if !material.ListedQuantity.Equal(material.Quantity) {
		t.Fatalf("listed quantity %s should equal initial quantity %s", material.ListedQuantity, material.Quantity)
	}
	created := sink.byAction("material.created")
	if len(created) != 1 {
		t.Fatalf("expected 1 creation audit entry, got %d", len(created))
	}
	if created[0].Before != nil {
		t.Fatalf("creation audit entry should have no before snapshot")
	}
	if len(created[0].After) == 0 {
		t.Fatalf("creation audit entry missing after snapshot")
	}
}

func TestCreateMaterialRejectsNonPositiveQuantity(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateMaterial(context.Background(), donorIdentity(), ports.CreateMaterialInput{
		Name:     "empty lot",
		Quantity: decimal.Zero,
		Unit:     "kg",
	})
	if !errors.Is(err, domainerrors.ErrNonPositiveQuantity) {
		t.Fatalf("expected ErrNonPositiveQuantity, got %v", err)
	}
}

func TestCreateMaterialDeniedByGate(t *testing.T) {
	service, _, _ := newTestService(t)
	service.Gate = stubGate{allowed: false, reason: "mutation_requires_org_admin"}

	_, err := service.CreateMaterial(context.Background(), donorIdentity(), ports.CreateMaterialInput{
		Name:      "canned beans",
		Quantity:  decimal.RequireFromString("10"),
		Unit:      "kg",
		IsSurplus: true,
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReserveDecrementsAndConserves(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	reserved, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("60"),
	})
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if !reserved.Quantity.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected remaining 40, got %s", reserved.Quantity)
	}
	if reserved.Status != entities.MaterialStatusAvailable {
		t.Fatalf("partial reservation should keep status available, got %s", reserved.Status)
	}
	if !reserved.ConservesListedQuantity() {
		t.Fatalf("ledger invariant violated: allocations %s + remaining %s != listed %s",
			reserved.AllocatedTotal(), reserved.Quantity, reserved.ListedQuantity)
	}
}

func TestConcurrentReserveNeverOverAllocates(t *testing.T) {
	service, store, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	const workers = 16
	var wg sync.WaitGroup
	var wins atomic.Int64
	var insufficient atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			_, err := service.Reserve(context.Background(), ports.ReserveInput{
				MaterialID:        material.MaterialID,
				TransferRequestID: fmt.Sprintf("req_%d", worker),
				ActorID:           "user_requester_1",
				Quantity:          decimal.RequireFromString("60"),
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domainerrors.ErrInsufficientQuantity):
				insufficient.Add(1)
			default:
				t.Errorf("unexpected reserve error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly 1 winning reservation of 60 against 100, got %d", wins.Load())
	}
	if insufficient.Load() != workers-1 {
		t.Fatalf("expected %d insufficient-quantity losers, got %d", workers-1, insufficient.Load())
	}

	final, err := store.GetMaterial(context.Background(), material.MaterialID)
	if err != nil {
		t.Fatalf("GetMaterial returned error: %v", err)
	}
	if !final.Quantity.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected final remaining 40, got %s", final.Quantity)
	}
	if !final.ConservesListedQuantity() {
		t.Fatalf("ledger invariant violated after concurrent reserves")
	}
	if len(final.AllocationHistory) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(final.AllocationHistory))
	}
}

func TestReserveToZeroFlipsStatusReserved(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "2.5")

	for _, requestID := range []string{"req_1", "req_2"} {
		reserved, err := service.Reserve(context.Background(), ports.ReserveInput{
			MaterialID:        material.MaterialID,
			TransferRequestID: requestID,
			ActorID:           "user_requester_1",
			Quantity:          decimal.RequireFromString("1.25"),
		})
		if err != nil {
			t.Fatalf("Reserve(%s) returned error: %v", requestID, err)
		}
		material = reserved
	}

	if !material.Quantity.IsZero() {
		t.Fatalf("expected zero remaining, got %s", material.Quantity)
	}
	if material.Status != entities.MaterialStatusReserved {
		t.Fatalf("fully allocated material should be reserved, got %s", material.Status)
	}
	if !material.ConservesListedQuantity() {
		t.Fatalf("ledger invariant violated with fractional quantities")
	}
}

func TestReleaseRestoresQuantityAppendOnly(t *testing.T) {
	service, _, sink := newTestService(t)
	material := mustCreate(t, service, "100")

	if _, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("100"),
	}); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	released, err := service.Release(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	if !released.Quantity.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected restored quantity 100, got %s", released.Quantity)
	}
	if released.Status != entities.MaterialStatusAvailable {
		t.Fatalf("released material should be available again, got %s", released.Status)
	}
	// History is append-only: the release adds a negated row instead of
	// removing the reservation row.
	if len(released.AllocationHistory) != 2 {
		t.Fatalf("expected 2 ledger rows after reserve+release, got %d", len(released.AllocationHistory))
	}
	if !released.AllocatedToRequest("req_1").IsZero() {
		t.Fatalf("expected net zero allocation for req_1, got %s", released.AllocatedToRequest("req_1"))
	}
	if !released.ConservesListedQuantity() {
		t.Fatalf("ledger invariant violated after release")
	}
	if got := len(sink.byAction("material.released")); got != 1 {
		t.Fatalf("expected 1 release audit entry, got %d", got)
	}
}

func TestReleaseUnknownAllocation(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	_, err := service.Release(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_missing",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("10"),
	})
	if !errors.Is(err, domainerrors.ErrAllocationNotFound) {
		t.Fatalf("expected ErrAllocationNotFound, got %v", err)
	}
}

func TestReserveRejectsIneligibleMaterial(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	if _, err := service.ArchiveMaterial(context.Background(), donorIdentity(), material.MaterialID); err != nil {
		t.Fatalf("ArchiveMaterial returned error: %v", err)
	}

	_, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("10"),
	})
	if !errors.Is(err, domainerrors.ErrMaterialUnavailable) {
		t.Fatalf("expected ErrMaterialUnavailable, got %v", err)
	}
}

func TestMarkTransferredOnlyWhenFullyAllocated(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	if _, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("60"),
	}); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	partial, err := service.MarkTransferred(context.Background(), material.MaterialID, "req_1", "user_requester_1")
	if err != nil {
		t.Fatalf("MarkTransferred returned error: %v", err)
	}
	if partial.Status != entities.MaterialStatusAvailable {
		t.Fatalf("partially allocated material should stay available, got %s", partial.Status)
	}

	if _, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_2",
		ActorID:           "user_requester_2",
		Quantity:          decimal.RequireFromString("40"),
	}); err != nil {
		t.Fatalf("second Reserve returned error: %v", err)
	}

	full, err := service.MarkTransferred(context.Background(), material.MaterialID, "req_2", "user_requester_2")
	if err != nil {
		t.Fatalf("MarkTransferred returned error: %v", err)
	}
	if full.Status != entities.MaterialStatusTransferred {
		t.Fatalf("fully allocated material should be transferred, got %s", full.Status)
	}
	if !full.ConservesListedQuantity() {
		t.Fatalf("ledger invariant violated after transfer completion")
	}
}

func TestArchiveRejectsActiveReservation(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "10")

	if _, err := service.Reserve(context.Background(), ports.ReserveInput{
		MaterialID:        material.MaterialID,
		TransferRequestID: "req_1",
		ActorID:           "user_requester_1",
		Quantity:          decimal.RequireFromString("10"),
	}); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	_, err := service.ArchiveMaterial(context.Background(), donorIdentity(), material.MaterialID)
	if !errors.Is(err, domainerrors.ErrActiveReservation) {
		t.Fatalf("expected ErrActiveReservation, got %v", err)
	}
}

func TestUpdateMaterialDetailsAllowList(t *testing.T) {
	service, _, _ := newTestService(t)
	material := mustCreate(t, service, "100")

	name := "canned beans (bulk)"
	updated, err := service.UpdateMaterialDetails(context.Background(), donorIdentity(), ports.MaterialDetailsUpdate{
		MaterialID: material.MaterialID,
		Name:       &name,
	})
	if err != nil {
		t.Fatalf("UpdateMaterialDetails returned error: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("expected updated name %q, got %q", name, updated.Name)
	}
	if !updated.Quantity.Equal(material.Quantity) {
		t.Fatalf("details update must not touch quantity")
	}

	// Empty patch is rejected.
	if _, err := service.UpdateMaterialDetails(context.Background(), donorIdentity(), ports.MaterialDetailsUpdate{
		MaterialID: material.MaterialID,
	}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
}
