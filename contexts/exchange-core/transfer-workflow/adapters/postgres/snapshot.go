package postgresadapter

import (
	"encoding/json"

	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
)

// Audit snapshots serialize quantity as a string to stay exact.
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

func snapshotJSON(request entities.TransferRequest) []byte {
	raw, _ := json.Marshal(snapshotModel{
		RequestID:          request.RequestID,
		MaterialID:         request.MaterialID,
		FromOrganizationID: request.FromOrganizationID,
		ToOrganizationID:   request.ToOrganizationID,
		RequestedBy:        request.RequestedBy,
		Quantity:           request.Quantity.String(),
		Unit:               request.Unit,
		Status:             string(request.Status),
		Comments:           len(request.Comments),
	})
	return raw
}
