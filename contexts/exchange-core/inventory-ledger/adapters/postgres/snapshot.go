package postgresadapter

import (
	"encoding/json"

	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
)

// Audit snapshots serialize decimals as strings to stay exact.
type snapshotModel struct {
	MaterialID     string `json:"material_id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	ListedQuantity string `json:"listed_quantity"`
	Unit           string `json:"unit"`
	Status         string `json:"status"`
	IsSurplus      bool   `json:"is_surplus"`
	Allocations    int    `json:"allocations"`
}

func snapshotJSON(material entities.Material) []byte {
	raw, _ := json.Marshal(snapshotModel{
		MaterialID:     material.MaterialID,
		OrganizationID: material.OrganizationID,
		Name:           material.Name,
		Quantity:       material.Quantity.String(),
		ListedQuantity: material.ListedQuantity.String(),
		Unit:           material.Unit,
		Status:         string(material.Status),
		IsSurplus:      material.IsSurplus,
		Allocations:    len(material.AllocationHistory),
	})
	return raw
}
