package orders

import (
	"strings"

	"eshop/internal/models"
)

var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusNew:        "Nová",
	models.OrderStatusConfirmed:  "Potvrdená",
	models.OrderStatusProcessing: "Spracováva sa",
	models.OrderStatusShipped:    "Odoslaná",
	models.OrderStatusDelivered:  "Doručená",
	models.OrderStatusCancelled:  "Zrušená",
}

// Codes and labels used by orders imported from the old backoffice.
var legacyStatuses = map[string]models.OrderStatus{
	"prijata":     models.OrderStatusNew,
	"prijatá":     models.OrderStatusNew,
	"spracovanie": models.OrderStatusProcessing,
	"expedovana":  models.OrderStatusShipped,
	"expedovaná":  models.OrderStatusShipped,
	"dokoncena":   models.OrderStatusDelivered,
	"dokončená":   models.OrderStatusDelivered,
	"stornovana":  models.OrderStatusCancelled,
	"stornovaná":  models.OrderStatusCancelled,
}

// Label returns the Slovak label of a status.
func Label(status models.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// ParseStatus accepts a status code, its label or a legacy code.
func ParseStatus(value string) (models.OrderStatus, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	for _, status := range models.OrderStatuses {
		if value == string(status) || value == strings.ToLower(statusLabels[status]) {
			return status, true
		}
	}
	status, ok := legacyStatuses[value]
	return status, ok
}
