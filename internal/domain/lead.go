package domain

import (
	"fmt"
	"time"
)

// LeadStatus tracks a lead through the sales funnel.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadClosed    LeadStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadClosed:
		return true
	}
	return false
}

// LeadPriority ranks leads for the admin dashboard.
type LeadPriority string

const (
	PriorityLow    LeadPriority = "low"
	PriorityMedium LeadPriority = "medium"
	PriorityHigh   LeadPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p LeadPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// SourceContactForm is the default lead source.
const SourceContactForm = "contact_form"

// Lead is a captured contact-form submission.
type Lead struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	BusinessType string       `json:"businessType,omitempty"`
	ServiceType  string       `json:"serviceType,omitempty"`
	Budget       string       `json:"budget,omitempty"`
	Timeline     string       `json:"timeline,omitempty"`
	Message      string       `json:"message,omitempty"`
	Source       string       `json:"source"`
	Status       LeadStatus   `json:"status"`
	Priority     LeadPriority `json:"priority"`
	Notes        string       `json:"notes,omitempty"`
	FollowUpDate *time.Time   `json:"followUpDate,omitempty"`
	ConvertedAt  *time.Time   `json:"convertedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// AgeInDays returns the number of whole days elapsed since creation.
func (l Lead) AgeInDays(now time.Time) int {
	return int(now.Sub(l.CreatedAt) / (24 * time.Hour))
}

// NewLead is the payload stored for a fresh submission. Status and
// priority are always assigned by the store.
type NewLead struct {
	Name         string
	Email        string
	Phone        string
	BusinessType string
	ServiceType  string
	Budget       string
	Timeline     string
	Message      string
	Source       string
}

// LeadPatch carries partial updates; nil fields are left untouched.
type LeadPatch struct {
	Status       *LeadStatus
	Priority     *LeadPriority
	Notes        *string
	FollowUpDate *time.Time
}

// Apply merges the patch into the lead in place.
func (p LeadPatch) Apply(l *Lead, now time.Time) {
	if p.Status != nil {
		l.Status = *p.Status
		if l.Status == LeadConverted && l.ConvertedAt == nil {
			at := now
			l.ConvertedAt = &at
		}
	}
	if p.Priority != nil {
		l.Priority = *p.Priority
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.FollowUpDate != nil {
		at := *p.FollowUpDate
		l.FollowUpDate = &at
	}
}

// Validate rejects unknown enum values.
func (p LeadPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown lead status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("unknown lead priority %q", *p.Priority)
	}
	return nil
}

// LeadFilter narrows ListLeads.
type LeadFilter struct {
	Status   LeadStatus
	Priority LeadPriority
	Limit    int
}

// Matches reports whether the lead satisfies the filter, ignoring the limit.
func (f LeadFilter) Matches(l Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Priority != "" && l.Priority != f.Priority {
		return false
	}
	return true
}
