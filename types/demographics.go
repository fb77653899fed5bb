package types

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

var ErrInvalidDemographic = errors.New("invalid demographic value")

type Race string

const (
	RaceAmericanIndianAlaskaNative    Race = "american_indian_alaska_native"
	RaceAsian                         Race = "asian"
	RaceBlackAfricanAmerican          Race = "black_african_american"
	RaceNativeHawaiianPacificIslander Race = "native_hawaiian_pacific_islander"
	RaceWhite                         Race = "white"
	RaceOther                         Race = "other"
	RacePreferNotToAnswer             Race = "prefer_not_to_answer"
)

// Races are the OMB categories in display order.
var Races = []Race{
	RaceAmericanIndianAlaskaNative,
	RaceAsian,
	RaceBlackAfricanAmerican,
	RaceNativeHawaiianPacificIslander,
	RaceWhite,
	RaceOther,
	RacePreferNotToAnswer,
}

func (r Race) Valid() bool {
	for _, race := range Races {
		if race == r {
			return true
		}
	}
	return false
}

type Ethnicity string

const (
	EthnicityHispanic    Ethnicity = "hispanic"
	EthnicityNotHispanic Ethnicity = "not_hispanic"
)

func (e Ethnicity) Valid() bool {
	return e == EthnicityHispanic || e == EthnicityNotHispanic
}

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageChinese Language = "zh"
	LanguageRussian Language = "ru"
	LanguageBengali Language = "bn"
)

var Languages = []Language{LanguageEnglish, LanguageSpanish, LanguageChinese, LanguageRussian, LanguageBengali}

var languageTags = map[Language]language.Tag{
	LanguageEnglish: language.English,
	LanguageSpanish: language.Spanish,
	LanguageChinese: language.SimplifiedChinese,
	LanguageRussian: language.Russian,
	LanguageBengali: language.Bengali,
}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.SimplifiedChinese,
	language.Russian,
	language.Bengali,
})

func (l Language) Valid() bool {
	_, ok := languageTags[l]
	return ok
}

// Tag returns the BCP 47 tag for a supported language, English otherwise.
func (l Language) Tag() language.Tag {
	if tag, ok := languageTags[l]; ok {
		return tag
	}
	return language.English
}

// MatchLanguage picks the closest supported language for a free-form
// preference such as "es-MX" or "zh-Hans". Unknown input falls back to English.
func MatchLanguage(preference string) Language {
	tag, err := language.Parse(preference)
	if err != nil {
		return LanguageEnglish
	}
	_, index, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return LanguageEnglish
	}
	return Languages[index]
}

// DemographicField names one demographic item by its JSON key.
type DemographicField string

const (
	DemographicDOB               DemographicField = "dob"
	DemographicAge               DemographicField = "age"
	DemographicRace              DemographicField = "race"
	DemographicEthnicity         DemographicField = "ethnicity"
	DemographicPreferredLanguage DemographicField = "preferred_language"
	DemographicZip               DemographicField = "zip"
)

var DemographicFields = []DemographicField{
	DemographicDOB,
	DemographicAge,
	DemographicRace,
	DemographicEthnicity,
	DemographicPreferredLanguage,
	DemographicZip,
}

func (f DemographicField) Valid() bool {
	for _, field := range DemographicFields {
		if field == f {
			return true
		}
	}
	return false
}

// ValidateFields rejects unknown field names.
func ValidateFields(fields []DemographicField) error {
	for _, f := range fields {
		if !f.Valid() {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidDemographic, f)
		}
	}
	return nil
}

// Demographics holds the demographic answers. Empty strings and a nil Age are
// absent. DOB and Age substitute for each other.
type Demographics struct {
	DOB               string    `json:"dob,omitempty"`
	Age               *int      `json:"age,omitempty"`
	Race              Race      `json:"race,omitempty"`
	Ethnicity         Ethnicity `json:"ethnicity,omitempty"`
	PreferredLanguage Language  `json:"preferred_language,omitempty"`
	Zip               string    `json:"zip,omitempty"`
}

func (d Demographics) HasDOB() bool {
	return d.DOB != ""
}

func (d Demographics) HasAge() bool {
	return d.Age != nil
}

// Merge returns a copy of d with every field set in partial applied on top.
func (d Demographics) Merge(partial Demographics) Demographics {
	if partial.DOB != "" {
		d.DOB = partial.DOB
	}
	if partial.Age != nil {
		age := *partial.Age
		d.Age = &age
	}
	if partial.Race != "" {
		d.Race = partial.Race
	}
	if partial.Ethnicity != "" {
		d.Ethnicity = partial.Ethnicity
	}
	if partial.PreferredLanguage != "" {
		d.PreferredLanguage = partial.PreferredLanguage
	}
	if partial.Zip != "" {
		d.Zip = partial.Zip
	}
	return d
}

// Without returns a copy of d with the named fields removed.
func (d Demographics) Without(fields ...DemographicField) Demographics {
	d = d.Clone()
	for _, f := range fields {
		switch f {
		case DemographicDOB:
			d.DOB = ""
		case DemographicAge:
			d.Age = nil
		case DemographicRace:
			d.Race = ""
		case DemographicEthnicity:
			d.Ethnicity = ""
		case DemographicPreferredLanguage:
			d.PreferredLanguage = ""
		case DemographicZip:
			d.Zip = ""
		}
	}
	return d
}

// Clone returns a copy that shares no memory with d.
func (d Demographics) Clone() Demographics {
	if d.Age != nil {
		age := *d.Age
		d.Age = &age
	}
	return d
}

// ValidateEnums rejects set enum fields holding unknown values. Free-text
// fields (dob, zip) are checked by the validation engine instead, so that a
// partially typed value can still be saved.
func (d Demographics) ValidateEnums() error {
	if d.Race != "" && !d.Race.Valid() {
		return fmt.Errorf("%w: race %q", ErrInvalidDemographic, d.Race)
	}
	if d.Ethnicity != "" && !d.Ethnicity.Valid() {
		return fmt.Errorf("%w: ethnicity %q", ErrInvalidDemographic, d.Ethnicity)
	}
	if d.PreferredLanguage != "" && !d.PreferredLanguage.Valid() {
		return fmt.Errorf("%w: preferred_language %q", ErrInvalidDemographic, d.PreferredLanguage)
	}
	if d.Age != nil && *d.Age < 0 {
		return fmt.Errorf("%w: age %d", ErrInvalidDemographic, *d.Age)
	}
	return nil
}
