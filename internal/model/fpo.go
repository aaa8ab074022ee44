package model

import "time"

const (
	FPOStatusPending  = "pending"
	FPOStatusApproved = "approved"
	FPOStatusRejected = "rejected"
)

type BoardMember struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Phone       string `json:"phone,omitempty"`
	DIN         string `json:"din,omitempty"`
}

type FPO struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	RegistrationNumber string        `json:"registration_number"`
	RegistrationDate   string        `json:"registration_date,omitempty"`
	State              string        `json:"state"`
	District           string        `json:"district"`
	Block              string        `json:"block,omitempty"`
	Village            string        `json:"village,omitempty"`
	ContactEmail       string        `json:"contact_email,omitempty"`
	ContactPhone       string        `json:"contact_phone,omitempty"`
	MemberCount        int           `json:"member_count"`
	Status             string        `json:"status"`
	Remarks            string        `json:"remarks,omitempty"`
	BoardMembers       []BoardMember `json:"board_members,omitempty"`
	CreatedAt          *time.Time    `json:"created_at,omitempty"`
}

// FPOQuery filters an already-fetched FPO list.
type FPOQuery struct {
	Search string
	Status string
}

type ApprovalDecision struct {
	FPOID   int64  `json:"fpo_id"`
	Comment string `json:"comment,omitempty"`
}

// FPORegistration is what the registration wizard accumulates across steps.
type FPORegistration struct {
	Name               string        `json:"name"`
	RegistrationNumber string        `json:"registration_number"`
	RegistrationDate   string        `json:"registration_date"`
	ContactEmail       string        `json:"contact_email"`
	ContactPhone       string        `json:"contact_phone"`
	MemberCount        int           `json:"member_count"`
	State              string        `json:"state"`
	District           string        `json:"district"`
	Block              string        `json:"block"`
	Village            string        `json:"village"`
	BoardMembers       []BoardMember `json:"board_members"`
}
