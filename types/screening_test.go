package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdatePayloadSendsClearedFieldsAsNull(t *testing.T) {
	age := 34
	payload := UpdatePayload{
		Answers:             &Answers{Q1: AnswerYes},
		Demographics:        &Demographics{Age: &age},
		ClearedAnswers:      []QuestionID{Q9},
		ClearedDemographics: []DemographicField{DemographicZip, DemographicDOB},
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"answers": {"q1": "yes", "q9": null},
		"demographics": {"age": 34, "zip": null, "dob": null}
	}`, string(b))

	var decoded UpdatePayload
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, Answers{Q1: AnswerYes}, *decoded.Answers)
	require.Equal(t, 34, *decoded.Demographics.Age)
	require.Equal(t, []QuestionID{Q9}, decoded.ClearedAnswers)
	require.Equal(t, []DemographicField{DemographicDOB, DemographicZip}, decoded.ClearedDemographics)
}

func TestUpdatePayloadOmitsUntouchedSections(t *testing.T) {
	b, err := json.Marshal(UpdatePayload{ClearedAnswers: []QuestionID{Q9}})
	require.NoError(t, err)
	require.JSONEq(t, `{"answers": {"q9": null}}`, string(b))

	var decoded UpdatePayload
	require.NoError(t, json.Unmarshal([]byte(`{"demographics": {"zip": "02139"}}`), &decoded))
	require.Nil(t, decoded.Answers)
	require.Empty(t, decoded.ClearedDemographics)
	require.False(t, decoded.Empty())

	require.NoError(t, json.Unmarshal([]byte(`{}`), &decoded))
	require.True(t, decoded.Empty())
}

func TestUpdatePayloadValidate(t *testing.T) {
	require.NoError(t, UpdatePayload{ClearedAnswers: []QuestionID{Q9}}.Validate())
	require.ErrorIs(t, UpdatePayload{ClearedAnswers: []QuestionID{Q1}}.Validate(), ErrInvalidAnswer)
	require.ErrorIs(t, UpdatePayload{ClearedDemographics: []DemographicField{"shoe"}}.Validate(), ErrInvalidDemographic)
	require.ErrorIs(t, UpdatePayload{Demographics: &Demographics{Race: "martian"}}.Validate(), ErrInvalidDemographic)
}

func TestDemographicsWithout(t *testing.T) {
	age := 40
	d := Demographics{DOB: "01/15/1990", Age: &age, Race: RaceWhite, Zip: "02139"}
	cleared := d.Without(DemographicAge, DemographicZip)
	require.Equal(t, Demographics{DOB: "01/15/1990", Race: RaceWhite}, cleared)
	require.Equal(t, "02139", d.Zip)
	require.Equal(t, 40, *d.Age)
}
