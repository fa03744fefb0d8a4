package notifications

import "github.com/petalworks/petalworks-backend/pkg/enums"

// statusMessages maps an order status to the customer-facing line. Statuses
// missing here fall back to genericStatusMessage instead of failing the
// dispatch.
var statusMessages = map[enums.OrderStatus]string{
	enums.OrderStatusPending:        "Your order has been received and is being processed.",
	enums.OrderStatusAccepted:       "Your order has been accepted.",
	enums.OrderStatusPreparing:      "Your order is being prepared.",
	enums.OrderStatusReady:          "Your order is ready.",
	enums.OrderStatusOutForDelivery: "Your order is on its way.",
	enums.OrderStatusDelivered:      "Your order has been delivered. Thank you!",
	enums.OrderStatusCancelled:      "Your order has been cancelled. Please contact support if this is unexpected.",
}

const genericStatusMessage = "Your order status has been updated."

// StatusMessage returns the human message for a status.
func StatusMessage(status enums.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return genericStatusMessage
}
