package dto

import "github.com/cab-basket/socios-api/internal/models"

// RegisterMemberRequest creates an account and the attached member profile
// in a single step.
type RegisterMemberRequest struct {
	FullName      string `json:"full_name" validate:"required,min=3"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	ContactEmails string `json:"contact_emails" validate:"omitempty,email_list"`
	Phone         string `json:"phone" validate:"omitempty,min=9"`
	Address       string `json:"address"`
	PostalCode    string `json:"postal_code" validate:"required,pt_postal"`
	NIF           string `json:"nif" validate:"required,nif"`
	Tier          string `json:"tier" validate:"required,membership_tier"`
}

// UpdateMemberRequest updates the member's own profile. The tier is changed
// through its dedicated endpoint so the change is audited.
type UpdateMemberRequest struct {
	FullName      string `json:"full_name" validate:"required,min=3"`
	Email         string `json:"email" validate:"required,email"`
	ContactEmails string `json:"contact_emails" validate:"omitempty,email_list"`
	Phone         string `json:"phone" validate:"omitempty,min=9"`
	Address       string `json:"address"`
	PostalCode    string `json:"postal_code" validate:"required,pt_postal"`
	NIF           string `json:"nif" validate:"required,nif"`
}

// ChangeTierRequest switches the membership tier.
type ChangeTierRequest struct {
	Tier string `json:"tier" validate:"required,membership_tier"`
}

// MemberListResponse wraps a paginated member listing.
type MemberListResponse struct {
	Members []models.MemberDetail `json:"members"`
}
