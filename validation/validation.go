// Package validation decides when a screening is complete, what is still
// missing and how far along the patient is. Every function is pure apart from
// reading the wall clock for date of birth checks.
package validation

import (
	"math"
	"regexp"
	"time"

	"text2phenotype.com/sdoh/types"
)

const (
	DOBLayout = "01/02/2006"
	MaxAge    = 130

	// 9 required questions + 5 demographic items.
	progressItems = 14
)

var (
	zipPattern = regexp.MustCompile(`^[0-9]{5}$`)
	dobPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01])/[0-9]{4}$`)
)

type Reason string

const (
	ReasonMissing Reason = "missing"
	ReasonInvalid Reason = "invalid"
)

const (
	FieldBirth             = "dob_or_age"
	FieldRace              = "race"
	FieldEthnicity         = "ethnicity"
	FieldPreferredLanguage = "preferred_language"
	FieldZip               = "zip"
)

// MissingField describes one unmet requirement. Key is a translation key,
// Label the English text shown when no translation is available.
type MissingField struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
	Key    string `json:"key"`
	Label  string `json:"label"`
}

func (f MissingField) String() string {
	return f.Label
}

func IsValidZip(zip string) bool {
	return zipPattern.MatchString(zip)
}

func IsValidDOB(dob string) bool {
	return IsValidDOBAt(dob, time.Now())
}

// IsValidDOBAt accepts MM/DD/YYYY strings naming a real calendar day that is
// not after now.
func IsValidDOBAt(dob string, now time.Time) bool {
	if !dobPattern.MatchString(dob) {
		return false
	}
	date, err := time.ParseInLocation(DOBLayout, dob, now.Location())
	if err != nil {
		return false
	}
	return !date.After(now)
}

func IsValidAge(age int) bool {
	return age >= 0 && age <= MaxAge
}

func isAnswered(answers types.Answers, id types.QuestionID) bool {
	value := answers.Get(id)
	if !value.IsSet() {
		return false
	}
	kind, _ := types.KindOf(id)
	return kind.Allows(value)
}

func hasBirthInfo(d types.Demographics, now time.Time) bool {
	if d.HasDOB() && IsValidDOBAt(d.DOB, now) {
		return true
	}
	return d.HasAge() && IsValidAge(*d.Age)
}

func AreQuestionsComplete(answers types.Answers) bool {
	for _, id := range types.RequiredQuestions {
		if !isAnswered(answers, id) {
			return false
		}
	}
	return true
}

func AreDemographicsComplete(d types.Demographics) bool {
	return demographicsScore(d, time.Now()) == 5
}

func IsScreeningComplete(answers types.Answers, d types.Demographics) bool {
	return AreQuestionsComplete(answers) && AreDemographicsComplete(d)
}

func demographicsScore(d types.Demographics, now time.Time) int {
	score := 0
	for _, ok := range []bool{
		hasBirthInfo(d, now),
		d.Race.Valid(),
		d.Ethnicity.Valid(),
		d.PreferredLanguage.Valid(),
		IsValidZip(d.Zip),
	} {
		if ok {
			score++
		}
	}
	return score
}

// CalculateProgress returns the rounded percentage of satisfied items. It
// reaches 100 exactly when IsScreeningComplete holds.
func CalculateProgress(answers types.Answers, d types.Demographics) int {
	completed := demographicsScore(d, time.Now())
	for _, id := range types.RequiredQuestions {
		if isAnswered(answers, id) {
			completed++
		}
	}
	return int(math.Round(float64(completed) / progressItems * 100))
}

// MissingFields lists unmet requirements in a fixed order: required questions
// by step, then date of birth or age, race, ethnicity, preferred language and
// zip.
func MissingFields(answers types.Answers, d types.Demographics) []MissingField {
	catalog := types.DefaultCatalog()
	now := time.Now()
	var missing []MissingField

	for _, id := range types.RequiredQuestions {
		if isAnswered(answers, id) {
			continue
		}
		q, _ := catalog.Question(id)
		reason := ReasonMissing
		if answers.Get(id).IsSet() {
			reason = ReasonInvalid
		}
		missing = append(missing, MissingField{
			Field:  string(id),
			Reason: reason,
			Key:    q.Key,
			Label:  q.Descriptor(),
		})
	}

	if !hasBirthInfo(d, now) {
		field := MissingField{
			Field:  FieldBirth,
			Reason: ReasonMissing,
			Key:    "demographics.dobOrAge",
			Label:  "Date of Birth or Age",
		}
		if d.HasDOB() || d.HasAge() {
			field.Reason = ReasonInvalid
			field.Key = "demographics.invalidDobOrAge"
			field.Label = "Valid Date of Birth (MM/DD/YYYY) or Age"
		}
		missing = append(missing, field)
	}
	if !d.Race.Valid() {
		missing = append(missing, enumField(FieldRace, string(d.Race), "demographics.race", "Race"))
	}
	if !d.Ethnicity.Valid() {
		missing = append(missing, enumField(FieldEthnicity, string(d.Ethnicity), "demographics.ethnicity", "Ethnicity"))
	}
	if !d.PreferredLanguage.Valid() {
		missing = append(missing, enumField(
			FieldPreferredLanguage, string(d.PreferredLanguage), "demographics.preferredLanguage", "Preferred Language",
		))
	}
	switch {
	case d.Zip == "":
		missing = append(missing, MissingField{
			Field: FieldZip, Reason: ReasonMissing, Key: "demographics.zip", Label: "ZIP Code",
		})
	case !IsValidZip(d.Zip):
		missing = append(missing, MissingField{
			Field: FieldZip, Reason: ReasonInvalid, Key: "demographics.invalidZip", Label: "Valid ZIP Code (5 digits)",
		})
	}
	return missing
}

func enumField(field, value, key, label string) MissingField {
	reason := ReasonMissing
	if value != "" {
		reason = ReasonInvalid
	}
	return MissingField{Field: field, Reason: reason, Key: key, Label: label}
}

// GetMissingFields returns the labels of MissingFields.
func GetMissingFields(answers types.Answers, d types.Demographics) []string {
	fields := MissingFields(answers, d)
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	return labels
}
