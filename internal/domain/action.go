package domain

// Action is the fixed enumeration of notification kinds the worker can deliver.
type Action string

const (
	ActionWarAlert            Action = "war_alert"
	ActionAllianceDeparture   Action = "alliance_departure"
	ActionInactivityAlert     Action = "inactivity_alert"
	ActionAllianceRoleRemoval Action = "alliance_role_removal"
	ActionBeigeAlert          Action = "beige_alert"
	ActionWarRoomCreate       Action = "war_room_create"
)

// FailureReason is the fixed taxonomy reported back to the producer when a
// dispatch fails. Reasons are terminal for the item: dispatch-level failures
// are never retried, only status-report delivery is.
type FailureReason string

const (
	ReasonInvalidAction      FailureReason = "invalid_action"
	ReasonUnsupportedAction  FailureReason = "unsupported_action"
	ReasonMissingChannel     FailureReason = "missing_channel"
	ReasonMissingUser        FailureReason = "missing_user"
	ReasonMissingNation      FailureReason = "missing_nation"
	ReasonMissingTarget      FailureReason = "missing_target"
	ReasonChannelUnavailable FailureReason = "channel_unavailable"
	ReasonGuildUnavailable   FailureReason = "guild_unavailable"
	ReasonMemberUnavailable  FailureReason = "member_unavailable"
	ReasonSendFailed         FailureReason = "discord_send_failed"
	ReasonRoleRemovalFailed  FailureReason = "role_removal_failed"
	ReasonThreadCreateFailed FailureReason = "thread_create_failed"
	ReasonHandlerError       FailureReason = "handler_error"
)

// ReportStatus is the value posted back to the producer's status endpoint.
type ReportStatus string

const (
	StatusComplete ReportStatus = "complete"
	StatusFailed   ReportStatus = "failed"
)

// DispatchOutcome is the uniform result of dispatching one queue item.
// Reason is set only when Success is false.
type DispatchOutcome struct {
	Success bool
	Reason  FailureReason
}

// Completed returns the successful outcome.
func Completed() DispatchOutcome { return DispatchOutcome{Success: true} }

// Failed returns a failed outcome with the given reason.
func Failed(reason FailureReason) DispatchOutcome {
	return DispatchOutcome{Success: false, Reason: reason}
}

// ReportStatus maps the outcome to the producer's status vocabulary.
func (o DispatchOutcome) ReportStatus() ReportStatus {
	if o.Success {
		return StatusComplete
	}
	return StatusFailed
}
