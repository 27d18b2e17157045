package procurement

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle status of a purchase order
type Status string

const (
	StatusDraft                 Status = "DRAFT"
	StatusPendingApproval       Status = "PENDING_APPROVAL"
	StatusRejected              Status = "REJECTED"
	StatusApprovedPendingConcur Status = "APPROVED_PENDING_CONCUR"
	StatusActive                Status = "ACTIVE"
	StatusPartiallyReceived     Status = "PARTIALLY_RECEIVED"
	StatusReceived              Status = "RECEIVED"
	StatusVariancePending       Status = "VARIANCE_PENDING"
	StatusClosed                Status = "CLOSED"
)

// AllStatuses lists every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusPendingApproval,
		StatusRejected,
		StatusApprovedPendingConcur,
		StatusActive,
		StatusPartiallyReceived,
		StatusReceived,
		StatusVariancePending,
		StatusClosed,
	}
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusRejected, StatusApprovedPendingConcur,
		StatusActive, StatusPartiallyReceived, StatusReceived, StatusVariancePending, StatusClosed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Label returns the human readable form of the status, e.g. "Approved Pending Concur".
// Display text is derived here and never compared against.
func (s Status) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(s)), "_", " "))
}

// IsTerminal returns true for statuses that accept no further normal transitions
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusClosed
}

// ImpliesReceipt returns true for statuses that assert goods have arrived
func (s Status) ImpliesReceipt() bool {
	return s == StatusPartiallyReceived || s == StatusReceived || s == StatusClosed
}

// Action is a user action that drives a status transition
type Action string

const (
	ActionSubmit          Action = "SUBMIT"
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionLinkConcur      Action = "LINK_CONCUR"
	ActionRecordDelivery  Action = "RECORD_DELIVERY"
	ActionApproveVariance Action = "APPROVE_VARIANCE"
	ActionComplete        Action = "COMPLETE"
)

// transitions is the state machine: from-status -> action -> allowed targets.
// Admin override bypasses this table entirely.
var transitions = map[Status]map[Action][]Status{
	StatusDraft: {
		ActionSubmit:   {StatusPendingApproval},
		ActionComplete: {StatusClosed},
	},
	StatusPendingApproval: {
		ActionApprove: {StatusApprovedPendingConcur},
		ActionReject:  {StatusRejected},
	},
	StatusApprovedPendingConcur: {
		ActionLinkConcur: {StatusActive},
		ActionComplete:   {StatusClosed},
	},
	StatusActive: {
		ActionLinkConcur:     {StatusActive},
		ActionRecordDelivery: {StatusPartiallyReceived, StatusReceived, StatusVariancePending},
		ActionComplete:       {StatusClosed},
	},
	StatusPartiallyReceived: {
		ActionRecordDelivery: {StatusPartiallyReceived, StatusReceived, StatusVariancePending},
		ActionComplete:       {StatusClosed},
	},
	StatusReceived: {
		ActionRecordDelivery: {StatusPartiallyReceived, StatusReceived, StatusVariancePending},
		ActionComplete:       {StatusClosed},
	},
	StatusVariancePending: {
		ActionRecordDelivery:  {StatusVariancePending},
		ActionApproveVariance: {StatusReceived, StatusPartiallyReceived},
		ActionComplete:        {StatusClosed},
	},
}

// Allows reports whether action is permitted from s at all
func (s Status) Allows(action Action) bool {
	_, ok := transitions[s][action]
	return ok
}

// CanTransition reports whether action moves s to target
func (s Status) CanTransition(action Action, target Status) bool {
	for _, to := range transitions[s][action] {
		if to == target {
			return true
		}
	}
	return false
}

// AllowedActions returns the actions available from s, in a stable order
func (s Status) AllowedActions() []Action {
	order := []Action{
		ActionSubmit, ActionApprove, ActionReject, ActionLinkConcur,
		ActionRecordDelivery, ActionApproveVariance, ActionComplete,
	}
	actions := make([]Action, 0, len(transitions[s]))
	for _, a := range order {
		if s.Allows(a) {
			actions = append(actions, a)
		}
	}
	return actions
}

// ReasonForRequest is why the requester raised the order
type ReasonForRequest string

const (
	ReasonDepletion   ReasonForRequest = "Depletion"
	ReasonNewCustomer ReasonForRequest = "New Customer"
	ReasonOther       ReasonForRequest = "Other"
)

// IsValid checks if the reason is one of the known values
func (r ReasonForRequest) IsValid() bool {
	switch r {
	case ReasonDepletion, ReasonNewCustomer, ReasonOther:
		return true
	}
	return false
}

// ApprovalAction is the kind of entry in an order's approval history
type ApprovalAction string

const (
	ApprovalSubmitted     ApprovalAction = "SUBMITTED"
	ApprovalApproved      ApprovalAction = "APPROVED"
	ApprovalRejected      ApprovalAction = "REJECTED"
	ApprovalAdminOverride ApprovalAction = "ADMIN_OVERRIDE"
	ApprovalCompleted     ApprovalAction = "COMPLETED"
)
