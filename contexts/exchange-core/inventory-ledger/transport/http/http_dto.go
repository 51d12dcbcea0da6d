package httptransport

// Quantities travel as decimal strings on the wire so fractional units
// (kilograms, litres) survive without float drift.

type CreateMaterialRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Quantity      string   `json:"quantity"`
	Unit          string   `json:"unit"`
	IsSurplus     bool     `json:"is_surplus"`
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
}

type UpdateMaterialRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	IsSurplus   *bool   `json:"is_surplus,omitempty"`
}

type MaterialPayload struct {
	MaterialID     string   `json:"material_id"`
	OrganizationID string   `json:"organization_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Quantity       string   `json:"quantity"`
	ListedQuantity string   `json:"listed_quantity"`
	Unit           string   `json:"unit"`
	Status         string   `json:"status"`
	IsSurplus      bool     `json:"is_surplus"`
	AttachmentIDs  []string `json:"attachment_ids,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type MaterialResponse struct {
	Status string          `json:"status"`
	Data   MaterialPayload `json:"data"`
}

type MaterialListResponse struct {
	Status string            `json:"status"`
	Data   []MaterialPayload `json:"data"`
}
