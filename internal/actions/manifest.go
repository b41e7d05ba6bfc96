package actions

import (
	"encoding/json"
	"fmt"
	"time"
)

type shipmentManifest struct {
	OrderID    string    `json:"order_id"`
	ShippedAt  time.Time `json:"shipped_at"`
	ManifestID string    `json:"manifest_id"`
}

func buildShipmentManifest(orderID string) ([]byte, error) {
	manifest := shipmentManifest{
		OrderID:    orderID,
		ShippedAt:  time.Now().UTC(),
		ManifestID: fmt.Sprintf("manifest-%s-%d", orderID, time.Now().UTC().UnixNano()),
	}
	return json.Marshal(manifest)
}
