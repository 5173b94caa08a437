package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies an outbound notification. The dispatcher's
// type-to-channel routing table is keyed on it.
type NotificationType string

const (
	NotifyMedicationUpdate NotificationType = "medicationUpdate"
	NotifyEmergency        NotificationType = "emergency"
	NotifyFamilyUpdate     NotificationType = "familyUpdate"
	NotifySystem           NotificationType = "system"
	NotifyMedicationTaken  NotificationType = "medicationTaken"
	NotifyMedicationMissed NotificationType = "medicationMissed"
	NotifyMedicationDue    NotificationType = "medicationDue"
	NotifyMedicationRefill NotificationType = "medicationRefill"
	NotifyDoseReminder     NotificationType = "doseReminder"
	NotifyDrugInteraction  NotificationType = "drugInteraction"
	NotifyEmergencyUpdate  NotificationType = "emergencyUpdate"
)

// Priority orders notifications from low to critical. Critical and high
// messages must never be silently dropped.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority converts a wire-level priority string to a Priority.
// Unknown values default to medium so a malformed caller never silences a message.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// Escalates reports whether a total delivery failure at this priority must
// raise a liability escalation event.
func (p Priority) Escalates() bool {
	return p >= PriorityHigh
}

// DeliveryState tracks a notification message through its lifecycle:
// pending -> sent -> acknowledged | failed. Channels without acknowledgement
// support stop at sent.
type DeliveryState string

const (
	DeliveryPending      DeliveryState = "pending"
	DeliverySent         DeliveryState = "sent"
	DeliveryAcknowledged DeliveryState = "acknowledged"
	DeliveryFailed       DeliveryState = "failed"
)

// ChannelName identifies a delivery channel adapter.
type ChannelName string

const (
	ChannelPush  ChannelName = "push"
	ChannelInApp ChannelName = "inApp"
	ChannelEmail ChannelName = "email"
)

// NotificationMessage is one outbound notification tracked through dispatch.
// AckCapable records whether a channel that supports read receipts accepted
// the message; only such messages can move to acknowledged.
type NotificationMessage struct {
	ID            uuid.UUID        `json:"id"`
	Type          NotificationType `json:"type"`
	Priority      Priority         `json:"priority"`
	Payload       map[string]any   `json:"payload"`
	Timestamp     time.Time        `json:"timestamp"`
	DeliveryState DeliveryState    `json:"delivery_state"`
	AckCapable    bool             `json:"ack_capable"`
}

// Title derives a human-readable title from the payload, falling back to the type.
func (m *NotificationMessage) Title() string {
	if title, ok := m.Payload["title"].(string); ok && title != "" {
		return title
	}

	return string(m.Type)
}

// Body derives the message body from the payload.
func (m *NotificationMessage) Body() string {
	if body, ok := m.Payload["body"].(string); ok {
		return body
	}

	return ""
}
