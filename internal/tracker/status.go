// Package tracker moves generated emails through the outreach workflow.
//
// Valid status graph:
//
//	Draft ──► Applied ──► Interview ──► Offered ──► Accepted
//	  │          │            │            │
//	  └──────────┴────────────┴────────────┴──► Rejected
//
// Accepted and Rejected are terminal.
package tracker

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/khrees2412/coldreach/pkg/models"
)

var validTransitions = map[models.Status][]models.Status{
	models.StatusDraft:     {models.StatusApplied, models.StatusRejected},
	models.StatusApplied:   {models.StatusInterview, models.StatusRejected},
	models.StatusInterview: {models.StatusOffered, models.StatusRejected},
	models.StatusOffered:   {models.StatusAccepted, models.StatusRejected},
}

var titleCase = cases.Title(language.English)

// ParseStatus converts user input such as "interview" or "OFFERED" to a Status.
func ParseStatus(s string) (models.Status, error) {
	st := models.Status(titleCase.String(strings.TrimSpace(s)))
	for _, known := range models.Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q, must be one of: %s", s, statusList())
}

// IsTransitionAllowed reports whether a draft may move from → to.
func IsTransitionAllowed(from, to models.Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses a draft in from may move to.
func NextStatuses(from models.Status) []models.Status {
	return append([]models.Status(nil), validTransitions[from]...)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.Status) bool {
	return len(validTransitions[s]) == 0
}

func statusList() string {
	names := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
