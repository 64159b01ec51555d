package models

// ✅ Friend request statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

// ✅ Friend request listing directions
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// ✅ Poll close reasons
const (
	CloseReasonManual = "manual"
	CloseReasonAuto   = "auto"
)

// ✅ Sentinel identity for messages authored by the engine itself
const (
	SystemSenderID   = "system"
	SystemSenderName = "System"
)
