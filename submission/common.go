package submission

import (
	"fmt"
	"path"
	"time"

	"text2phenotype.com/sdoh/types"
)

const EventTypeSubmitted = "screening.submitted"

// Submission is the archived copy of an accepted screening. The token itself
// is never stored, only its hash.
type Submission struct {
	EventID      string             `json:"event_id"`
	TokenHash    string             `json:"token_hash"`
	SubmittedAt  time.Time          `json:"submitted_at"`
	ClinicInfo   types.ClinicInfo   `json:"clinic_info"`
	Answers      types.Answers      `json:"answers"`
	Demographics types.Demographics `json:"demographics"`
}

type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	TokenHash   string    `json:"token_hash"`
	ClinicName  string    `json:"clinic_name"`
	SubmittedAt time.Time `json:"submitted_at"`
	ArchiveKey  string    `json:"archive_key,omitempty"`
}

func ArchiveKey(tokenHash string, eventID string) string {
	return path.Join("submissions", tokenHash, fmt.Sprintf("%s.json", eventID))
}
