package services

// Broadcaster fans out state-change notifications to a room's participants.
// Implemented by the websocket hub.
type Broadcaster interface {
	Broadcast(roomCode, event string, data any)
	SendTo(roomCode, participantID, event string, data any)
}

// Events broadcast to all members of a room. Every payload carries the full
// resulting room snapshot so clients never need to diff.
const (
	EventMemberJoined       = "member_joined"
	EventMemberLeft         = "member_left"
	EventMemberDisconnected = "member_disconnected"
	EventMemberResumed      = "member_resumed"
	EventMemberCooled       = "member_cooled"
	EventHeatingStarted     = "heating_started"
	EventPotatoCritical     = "potato_critical"
	EventPotatoReadyToToss  = "potato_ready_to_toss"
	EventPotatoTossed       = "potato_tossed"
	EventPotatoAutoTossed   = "potato_auto_tossed"
	EventPotatoToOven       = "potato_to_oven"
	EventSessionCancelled   = "session_cancelled"
	EventReactionReceived   = "reaction_received"
	EventToppingsEarned     = "toppings_earned"
)

// Reasons attached to automatic resolutions.
const (
	ReasonDisconnect = "disconnect"
	ReasonLeft       = "left"
)
