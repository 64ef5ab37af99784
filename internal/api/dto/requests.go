package dto

import "encoding/json"

// LoginRequest carries the identity-provider credential.
type LoginRequest struct {
	Token string `json:"token"`
}

// ProfileUpdateRequest carries self-service profile changes.
type ProfileUpdateRequest struct {
	Name        *string             `json:"name"`
	Preferences *PreferencesPayload `json:"notification_preferences"`
}

// PreferencesPayload mirrors the stored notification toggles.
type PreferencesPayload struct {
	Email         bool `json:"email"`
	TicketUpdates bool `json:"ticket_updates"`
}

// CreateTicketRequest carries the non-file fields of the multipart create
// form.
type CreateTicketRequest struct {
	Subject    string  `json:"subject" form:"subject"`
	Body       string  `json:"body" form:"body"`
	CategoryID string  `json:"category_id" form:"category_id"`
	Priority   *string `json:"priority" form:"priority"`
}

// UpdateTicketRequest carries the staff triage fields. The assignee is
// tri-state: key absent leaves it alone, null clears it, a value sets it.
type UpdateTicketRequest struct {
	Status        *string
	Priority      *string
	AssignedTo    *string
	AssignedToSet bool
}

func (r *UpdateTicketRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status     *string         `json:"status"`
		Priority   *string         `json:"priority"`
		AssignedTo json.RawMessage `json:"assigned_to"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Status = raw.Status
	r.Priority = raw.Priority
	if raw.AssignedTo != nil {
		r.AssignedToSet = true
		if string(raw.AssignedTo) != "null" {
			var id string
			if err := json.Unmarshal(raw.AssignedTo, &id); err != nil {
				return err
			}
			if id != "" {
				r.AssignedTo = &id
			}
		}
	}
	return nil
}

// AddCommentRequest appends to a ticket thread.
type AddCommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// VoteRequest sets the caller's vote.
type VoteRequest struct {
	Direction string `json:"direction"`
}

// CreateCategoryRequest registers a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateCategoryRequest modifies a category; nil fields are untouched.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Active      *bool   `json:"active"`
}

// ChangeRoleRequest sets an account's role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// SetActivationRequest toggles an account's activation flag.
type SetActivationRequest struct {
	Active bool `json:"active"`
}
