package httptransport

// Quantities travel as decimal strings on the wire so fractional units
// survive without float drift.

type CreateTransferRequest struct {
	MaterialID string `json:"material_id"`
	Quantity   string `json:"quantity"`
	Comment    string `json:"comment,omitempty"`
}

type ReviewTransferRequest struct {
	Comment string `json:"comment,omitempty"`
}

type CommentPayload struct {
	CommentID string `json:"comment_id"`
	Type      string `json:"type"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type TransferRequestPayload struct {
	RequestID          string           `json:"request_id"`
	MaterialID         string           `json:"material_id"`
	FromOrganizationID string           `json:"from_organization_id"`
	ToOrganizationID   string           `json:"to_organization_id"`
	RequestedBy        string           `json:"requested_by"`
	Quantity           string           `json:"quantity"`
	Unit               string           `json:"unit"`
	Status             string           `json:"status"`
	Comments           []CommentPayload `json:"comments,omitempty"`
	DecidedBy          string           `json:"decided_by,omitempty"`
	DecidedAt          string           `json:"decided_at,omitempty"`
	CompletedAt        string           `json:"completed_at,omitempty"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

type TransferResponse struct {
	Status string                 `json:"status"`
	Data   TransferRequestPayload `json:"data"`
}

type TransferListResponse struct {
	Status string                   `json:"status"`
	Data   []TransferRequestPayload `json:"data"`
}
