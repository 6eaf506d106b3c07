package service

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailListResult buckets a raw submission batch. Every input entry lands in
// validEmails or invalidEmails; a valid entry additionally lands in
// duplicateEmails or newEmails, never both.
type EmailListResult struct {
	ValidEmails     []string `json:"valid_emails"`
	InvalidEmails   []string `json:"invalid_emails"`
	DuplicateEmails []string `json:"duplicate_emails"`
	NewEmails       []string `json:"new_emails"`
}

// ProcessedCount is the number of input entries examined.
func (r EmailListResult) ProcessedCount() int { return len(r.ValidEmails) + len(r.InvalidEmails) }

// SuccessCount is the number of emails not previously recorded.
func (r EmailListResult) SuccessCount() int { return len(r.NewEmails) }

// ErrorCount is the number of entries that failed format validation.
func (r EmailListResult) ErrorCount() int { return len(r.InvalidEmails) }

// DuplicateCount is the number of valid entries already seen.
func (r EmailListResult) DuplicateCount() int { return len(r.DuplicateEmails) }

// ProcessEmailList classifies each entry of a raw email batch against the
// already-completed set. Matching is case-insensitive and whitespace-trimmed;
// original casing is preserved in the output buckets and input order is kept.
// A duplicate is a valid entry matching either an earlier entry in the same
// batch or an existing completed email. Invalid entries are never considered
// duplicates.
func ProcessEmailList(rawEmails []string, existingCompleted []string) EmailListResult {
	result := EmailListResult{
		ValidEmails:     []string{},
		InvalidEmails:   []string{},
		DuplicateEmails: []string{},
		NewEmails:       []string{},
	}

	existing := make(map[string]struct{}, len(existingCompleted))
	for _, email := range existingCompleted {
		existing[NormalizeEmail(email)] = struct{}{}
	}

	seenInBatch := make(map[string]struct{}, len(rawEmails))
	for _, raw := range rawEmails {
		trimmed := strings.TrimSpace(raw)
		if !emailPattern.MatchString(trimmed) {
			result.InvalidEmails = append(result.InvalidEmails, raw)
			continue
		}
		result.ValidEmails = append(result.ValidEmails, trimmed)

		normalized := strings.ToLower(trimmed)
		_, dupInBatch := seenInBatch[normalized]
		_, dupExisting := existing[normalized]
		if dupInBatch || dupExisting {
			result.DuplicateEmails = append(result.DuplicateEmails, trimmed)
			continue
		}
		seenInBatch[normalized] = struct{}{}
		result.NewEmails = append(result.NewEmails, trimmed)
	}

	return result
}

// NormalizeEmail returns the canonical lowercase, trimmed form used for
// case-insensitive matching and the uniqueness index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
