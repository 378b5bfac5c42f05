package domain

// Payload schemas for each action kind. Fields that feed numeric formatting
// are pointers so an absent value is distinguishable from zero and renders
// as a placeholder rather than "0".
//
// Required-field validation happens once at handler entry; a payload that
// fails a check produces the matching missing_* outcome and the handler
// never touches Discord.

// NationSnapshot is the producer's point-in-time view of a nation.
type NationSnapshot struct {
	ID         int64    `json:"nation_id"`
	Name       string   `json:"nation_name"`
	LeaderName string   `json:"leader_name"`
	Alliance   string   `json:"alliance_name"`
	Score      *float64 `json:"score"`
	Cities     *float64 `json:"num_cities"`
	Soldiers   *float64 `json:"soldiers"`
	Tanks      *float64 `json:"tanks"`
	Aircraft   *float64 `json:"aircraft"`
	Ships      *float64 `json:"ships"`
	Missiles   *float64 `json:"missiles"`
	Nukes      *float64 `json:"nukes"`
	BeigeTurns *float64 `json:"beige_turns"`
	LastActive string   `json:"last_active"`
}

// WarAlertPayload announces a declared war with both participants.
type WarAlertPayload struct {
	ChannelID string          `json:"channel_id"`
	WarID     int64           `json:"war_id"`
	WarType   string          `json:"war_type"`
	Reason    string          `json:"reason"`
	Attacker  *NationSnapshot `json:"attacker"`
	Defender  *NationSnapshot `json:"defender"`
}

// AllianceDeparturePayload announces a nation leaving the alliance.
// LeftAt, when present, takes precedence over the queue item's created_at.
type AllianceDeparturePayload struct {
	ChannelID    string          `json:"channel_id"`
	Nation       *NationSnapshot `json:"nation"`
	PriorAlliance string         `json:"prior_alliance"`
	NewAlliance   string         `json:"new_alliance"`
	LeftAt        string         `json:"left_at"`
}

// InactivityAlertPayload flags a member who has not logged in recently.
// ThresholdDays may be absent, in which case the handler extracts the day
// count from the free-text Message if one is embedded there.
type InactivityAlertPayload struct {
	ChannelID     string `json:"channel_id"`
	UserID        string `json:"user_id"`
	NationName    string `json:"nation_name"`
	LastActive    string `json:"last_active"`
	ThresholdDays *int   `json:"threshold_days"`
	Message       string `json:"message"`
	Mention       bool   `json:"mention"`
}

// RoleRemovalPayload strips alliance roles from a departed member.
type RoleRemovalPayload struct {
	UserID string `json:"user_id"`
}

// BeigePayload is bimodal: a non-empty Nations list produces chunked
// plain-text summaries, a single Nation produces one rich exit artifact.
type BeigePayload struct {
	ChannelID string           `json:"channel_id"`
	Nations   []NationSnapshot `json:"nations"`
	Nation    *NationSnapshot  `json:"nation"`
}

// WarRoomPayload creates a coordination thread in a forum channel for the
// given target and pings the assigned members.
type WarRoomPayload struct {
	ChannelID string          `json:"channel_id"`
	WarID     int64           `json:"war_id"`
	Target    *NationSnapshot `json:"target"`
	MemberIDs []string        `json:"member_ids"`
}
