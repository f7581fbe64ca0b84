package handler

import (
	"strings"

	id "clearport/pkg/domain"
	dErrors "clearport/pkg/domain-errors"
)

// DecisionRequest is the body of the approve and reject endpoints. Both
// ids are required; reason is required only when rejecting.
type DecisionRequest struct {
	ApplicationID string `json:"applicationId"`
	MemberID      string `json:"memberId"`
	Reason        string `json:"reason,omitempty"`

	applicationID id.ApplicationID
	memberID      id.MemberID
}

// Validate parses the ids and normalizes the reason. It runs before any
// repository access so malformed requests never reach storage.
func (r *DecisionRequest) Validate() error {
	if strings.TrimSpace(r.ApplicationID) == "" {
		return dErrors.New(dErrors.CodeValidation, "applicationId is required")
	}
	if strings.TrimSpace(r.MemberID) == "" {
		return dErrors.New(dErrors.CodeValidation, "memberId is required")
	}
	applicationID, err := id.ParseApplicationID(r.ApplicationID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "applicationId must be a valid UUID")
	}
	memberID, err := id.ParseMemberID(r.MemberID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "memberId must be a valid UUID")
	}
	r.applicationID = applicationID
	r.memberID = memberID
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}
