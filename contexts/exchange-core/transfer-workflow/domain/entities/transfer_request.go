package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusRejected  TransferStatus = "rejected"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

type CommentType string

const (
	CommentTypeRequest      CommentType = "request"
	CommentTypeApproval     CommentType = "approval"
	CommentTypeRejection    CommentType = "rejection"
	CommentTypeCompletion   CommentType = "completion"
	CommentTypeCancellation CommentType = "cancellation"
)

// Comment is one typed note on the request thread. The thread is
// append-only, like the allocation ledger it mirrors.
type Comment struct {
	CommentID string
	Type      CommentType
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// TransferRequest asks the owning organization to hand over part of a
// listed material to the requesting organization.
type TransferRequest struct {
	RequestID          string
	MaterialID         string
	FromOrganizationID string
	ToOrganizationID   string
	RequestedBy        string
	Quantity           decimal.Decimal
	Unit               string
	Status             TransferStatus
	Comments           []Comment
	DecidedBy          string
	DecidedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r TransferRequest) ValidateCreate() bool {
	return strings.TrimSpace(r.MaterialID) != "" &&
		strings.TrimSpace(r.FromOrganizationID) != "" &&
		strings.TrimSpace(r.ToOrganizationID) != "" &&
		strings.TrimSpace(r.RequestedBy) != "" &&
		r.FromOrganizationID != r.ToOrganizationID &&
		r.Quantity.IsPositive()
}

// transitions is the closed transition table. Absence means invalid.
var transitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:  {TransferStatusApproved, TransferStatusRejected, TransferStatusCancelled},
	TransferStatusApproved: {TransferStatusCompleted, TransferStatusCancelled},
}

func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s TransferStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// PartyOrganizations lists both tenant scopes touching this request.
func (r TransferRequest) PartyOrganizations() []string {
	return []string{r.FromOrganizationID, r.ToOrganizationID}
}
