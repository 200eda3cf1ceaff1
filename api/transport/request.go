package transport

// RegisterRequest enrolls the caller into the identity registry.
type RegisterRequest struct {
	ProfileRef string `json:"profile_ref"`
}

// ReputationRequest applies an authorized reputation delta.
type ReputationRequest struct {
	Target string `json:"target"`
	Delta  int    `json:"delta"`
}

// RoleRequest grants or revokes a capability.
type RoleRequest struct {
	Target string `json:"target"`
	Role   string `json:"role"`
}

// TaskCreateRequest publishes a new help request.
type TaskCreateRequest struct {
	ID         string `json:"id"`
	LatMicro   int64  `json:"lat_micro"`
	LonMicro   int64  `json:"lon_micro"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	ContentRef string `json:"content_ref"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// DepositRequest credits a participant balance through the gateway role.
type DepositRequest struct {
	Target string `json:"target"`
	Amount int64  `json:"amount"`
}

// DonationRequest moves balance into a task's pool.
type DonationRequest struct {
	Amount int64 `json:"amount"`
}

// LocationProofRequest is the volunteer's on-site attestation.
type LocationProofRequest struct {
	LatMicro int64 `json:"lat_micro"`
	LonMicro int64 `json:"lon_micro"`
}

// RelayReportRequest credits one node for relayed packets.
type RelayReportRequest struct {
	Node    string `json:"node"`
	Packets int64  `json:"packets"`
}

// UptimeReportRequest credits one node for reported uptime.
type UptimeReportRequest struct {
	Node    string `json:"node"`
	Minutes int64  `json:"minutes"`
}

// DeliveryReportRequest credits one node for one delivered message.
type DeliveryReportRequest struct {
	Node      string `json:"node"`
	MessageID string `json:"message_id"`
}

// AuthLoginRequest issues a session for a registered address.
type AuthLoginRequest struct {
	Address string `json:"address"`
	TTL     int    `json:"ttl_seconds"`
}

// RefreshRequest extends an existing session.
type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
