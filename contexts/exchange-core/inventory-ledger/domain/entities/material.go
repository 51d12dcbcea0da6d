package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type MaterialStatus string

const (
	MaterialStatusAvailable   MaterialStatus = "available"
	MaterialStatusReserved    MaterialStatus = "reserved"
	MaterialStatusTransferred MaterialStatus = "transferred"
	MaterialStatusArchived    MaterialStatus = "archived"
)

// AllocationEntry is one row of the append-only allocation ledger.
// Releases append a negated quantity instead of rewriting history.
type AllocationEntry struct {
	TransferRequestID string
	Quantity          decimal.Decimal
	AllocatedAt       time.Time
	AllocatedBy       string
}

// Material is a listed inventory item. Quantity is the current remaining
// amount; ListedQuantity is the amount originally listed.
type Material struct {
	MaterialID           string
	OrganizationID       string
	OrganizationCategory string
	Name                 string
	Description          string
	Quantity             decimal.Decimal
	ListedQuantity       decimal.Decimal
	Unit                 string
	Status               MaterialStatus
	IsSurplus            bool
	AttachmentIDs        []string
	AllocationHistory    []AllocationEntry
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (m Material) ValidateCreate() bool {
	return strings.TrimSpace(m.OrganizationID) != "" &&
		strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Unit) != "" &&
		m.Quantity.IsPositive()
}

// EligibleForTransfer reports whether the material may be targeted by a
// new or approved transfer request.
func (m Material) EligibleForTransfer() bool {
	return m.IsSurplus && m.Status == MaterialStatusAvailable
}

// AllocatedTotal sums the allocation ledger. Releases carry negative
// quantities, so the total reflects outstanding plus completed allocations.
func (m Material) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range m.AllocationHistory {
		total = total.Add(entry.Quantity)
	}
	return total
}

// AllocatedToRequest sums ledger rows for one transfer request.
func (m Material) AllocatedToRequest(transferRequestID string) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range m.AllocationHistory {
		if entry.TransferRequestID == transferRequestID {
			total = total.Add(entry.Quantity)
		}
	}
	return total
}

// ConservesListedQuantity checks the ledger invariant:
// sum(allocation history) + remaining quantity == listed quantity.
func (m Material) ConservesListedQuantity() bool {
	return m.AllocatedTotal().Add(m.Quantity).Equal(m.ListedQuantity)
}
