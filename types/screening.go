package types

import (
	"encoding/json"
	"sort"
	"time"

	"golang.org/x/text/language"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusDeclined   Status = "declined"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further changes are accepted in this status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusDeclined || s == StatusExpired
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusComplete, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

type ClinicInfo struct {
	ClinicName         string `json:"clinic_name"`
	ClinicLogoURL      string `json:"clinic_logo_url,omitempty"`
	PatientFirstName   string `json:"patient_first_name,omitempty"`
	LanguagePreference string `json:"language_preference,omitempty"`
}

// Language resolves the clinic's language preference to a supported
// language tag for the locale provider.
func (c ClinicInfo) Language() language.Tag {
	if c.LanguagePreference == "" {
		return LanguageEnglish.Tag()
	}
	return MatchLanguage(c.LanguagePreference).Tag()
}

type ScreeningState struct {
	Status         Status       `json:"status"`
	Answers        Answers      `json:"answers"`
	Demographics   Demographics `json:"demographics"`
	TokenExpiresAt time.Time    `json:"token_expires_at"`
}

// Expired reports whether the token's validity window ended before now.
func (s ScreeningState) Expired(now time.Time) bool {
	return s.TokenExpiresAt.Before(now)
}

type ScreeningResponse struct {
	ClinicInfo     ClinicInfo     `json:"clinic_info"`
	ScreeningState ScreeningState `json:"screening_state"`
}

// UpdatePayload is a partial update in JSON merge patch form. Only the
// sections that are set are sent. Cleared fields travel as explicit nulls so
// that the receiver removes them instead of keeping its old value.
type UpdatePayload struct {
	Answers             *Answers           `json:"answers,omitempty"`
	Demographics        *Demographics      `json:"demographics,omitempty"`
	ClearedAnswers      []QuestionID       `json:"-"`
	ClearedDemographics []DemographicField `json:"-"`
}

type updateSections struct {
	Answers      *Answers      `json:"answers,omitempty"`
	Demographics *Demographics `json:"demographics,omitempty"`
}

// Empty reports whether the payload changes nothing.
func (p UpdatePayload) Empty() bool {
	return p.Answers == nil && p.Demographics == nil &&
		len(p.ClearedAnswers) == 0 && len(p.ClearedDemographics) == 0
}

// Validate checks set answers, set enum demographics and the cleared names.
// Only the optional question can be cleared.
func (p UpdatePayload) Validate() error {
	if p.Answers != nil {
		if err := p.Answers.Validate(); err != nil {
			return err
		}
	}
	for _, id := range p.ClearedAnswers {
		if err := ValidateAnswer(id, AnswerNone); err != nil {
			return err
		}
	}
	if p.Demographics != nil {
		if err := p.Demographics.ValidateEnums(); err != nil {
			return err
		}
	}
	return ValidateFields(p.ClearedDemographics)
}

func (p UpdatePayload) MarshalJSON() ([]byte, error) {
	doc := map[string]map[string]interface{}{}
	if p.Answers != nil || len(p.ClearedAnswers) > 0 {
		section, err := sectionOf(p.Answers)
		if err != nil {
			return nil, err
		}
		for _, id := range p.ClearedAnswers {
			section[string(id)] = nil
		}
		doc["answers"] = section
	}
	if p.Demographics != nil || len(p.ClearedDemographics) > 0 {
		section, err := sectionOf(p.Demographics)
		if err != nil {
			return nil, err
		}
		for _, f := range p.ClearedDemographics {
			section[string(f)] = nil
		}
		doc["demographics"] = section
	}
	return json.Marshal(doc)
}

func sectionOf(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	section := map[string]interface{}{}
	if err = json.Unmarshal(b, &section); err != nil {
		return nil, err
	}
	if section == nil {
		section = map[string]interface{}{}
	}
	return section, nil
}

// UnmarshalJSON records null members as cleared fields.
func (p *UpdatePayload) UnmarshalJSON(b []byte) error {
	var sections updateSections
	if err := json.Unmarshal(b, &sections); err != nil {
		return err
	}
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = UpdatePayload{Answers: sections.Answers, Demographics: sections.Demographics}
	for _, key := range sortedNullKeys(raw["answers"]) {
		p.ClearedAnswers = append(p.ClearedAnswers, QuestionID(key))
	}
	for _, key := range sortedNullKeys(raw["demographics"]) {
		p.ClearedDemographics = append(p.ClearedDemographics, DemographicField(key))
	}
	return nil
}

func sortedNullKeys(section map[string]json.RawMessage) []string {
	var keys []string
	for key, value := range section {
		if string(value) == "null" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

type SubmitResponse struct {
	Success       bool     `json:"success"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Snapshot is the locally cached progress of one screening.
type Snapshot struct {
	Answers      Answers      `json:"answers"`
	Demographics Demographics `json:"demographics"`
	LastUpdated  time.Time    `json:"lastUpdated"`
}
