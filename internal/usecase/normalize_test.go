package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestNormalizeInstagram_FieldMapping(t *testing.T) {
	raw := []byte(`{"entry":[{"changes":[{"value":{"leadgen_id":"L1","ad_id":"A9",
		"field_data":[{"name":"FULL_NAME","values":["Ann"]},{"name":"Phone_Number","values":["+1 555"]},
		{"name":"email","values":["ann@x.io"]},{"name":"comments","values":["hi"]}]}}]}]}`)

	leads, err := NormalizeInstagram(raw)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, entity.SourceInstagram, l.Source)
	assert.Equal(t, "L1", *l.SourceID)
	assert.Equal(t, "Ann", *l.Name)
	assert.Equal(t, "ann@x.io", *l.Email)
	assert.Equal(t, "+1 555", *l.Phone)
	assert.Equal(t, "hi", *l.Message)
	assert.Equal(t, "A9", *l.CampaignID)
	assert.Nil(t, l.CampaignName)
	assert.Nil(t, l.PageURL)
}

func TestNormalizeInstagram_CandidatePriority(t *testing.T) {
	raw := []byte(`{"entry":[{"changes":[{"value":{"leadgen_id":"L1","adgroup_id":"G1",
		"field_data":[{"name":"name","values":["short"]},{"name":"full_name","values":["Full Name"]},
		{"name":"phone","values":["2"]},{"name":"phone_number","values":[]},
		{"name":"message","values":["m"]},{"name":"comments","values":["c"]}]}}]}]}`)

	leads, err := NormalizeInstagram(raw)
	require.NoError(t, err)
	l := leads[0]

	assert.Equal(t, "Full Name", *l.Name)
	// phone_number has no value, so phone is used
	assert.Equal(t, "2", *l.Phone)
	assert.Equal(t, "m", *l.Message)
	assert.Equal(t, "G1", *l.CampaignID)
	assert.Nil(t, l.Email)
}

func TestNormalizeInstagram_OneLeadPerChange(t *testing.T) {
	raw := []byte(`{"entry":[
		{"changes":[{"value":{"leadgen_id":"L1"}},{"value":{"leadgen_id":"L2"}}]},
		{"changes":[{"value":{"leadgen_id":"L3","field_data":[]}}]}]}`)

	leads, err := NormalizeInstagram(raw)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	for i, want := range []string{"L1", "L2", "L3"} {
		assert.Equal(t, want, *leads[i].SourceID)
		assert.Nil(t, leads[i].Name)
		assert.Nil(t, leads[i].CampaignID)
	}
	assert.JSONEq(t, `{"leadgen_id":"L2"}`, string(leads[1].Raw))
}

func TestNormalizeInstagram_Errors(t *testing.T) {
	cases := map[string]string{
		"not an object":     `[1,2]`,
		"missing entry":     `{}`,
		"missing changes":   `{"entry":[{}]}`,
		"missing leadgen":   `{"entry":[{"changes":[{"value":{"ad_id":"x"}}]}]}`,
		"empty leadgen":     `{"entry":[{"changes":[{"value":{"leadgen_id":""}}]}]}`,
		"value not object":  `{"entry":[{"changes":[{"value":"x"}]}]}`,
		"invalid json body": `{"entry":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeInstagram([]byte(body))
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestNormalizeInstagram_EmptyEntry(t *testing.T) {
	leads, err := NormalizeInstagram([]byte(`{"entry":[]}`))
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestNormalizeGoogle(t *testing.T) {
	raw := []byte(`{"lead_id":"G-1","campaign_id":"C1","campaign_name":"Spring","name":"Bob","email":"","phone":"9"}`)

	leads, err := NormalizeGoogle(raw)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, entity.SourceGoogle, l.Source)
	assert.Equal(t, "G-1", *l.SourceID)
	assert.Equal(t, "C1", *l.CampaignID)
	assert.Equal(t, "Spring", *l.CampaignName)
	assert.Equal(t, "Bob", *l.Name)
	assert.Nil(t, l.Email)
	assert.Equal(t, "9", *l.Phone)
	assert.Nil(t, l.Message)
	assert.JSONEq(t, string(raw), string(l.Raw))
}

func TestNormalizeGoogle_EmptyObject(t *testing.T) {
	leads, err := NormalizeGoogle([]byte(`{}`))
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Nil(t, leads[0].SourceID)
	assert.Nil(t, leads[0].Name)
}

func TestNormalizeWebsite(t *testing.T) {
	raw := []byte(`{"name":"Bob","email":"b@x.io","message":"hello","pageUrl":"/pricing","extra":1}`)

	leads, err := NormalizeWebsite(raw)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, entity.SourceWebsite, l.Source)
	assert.Nil(t, l.SourceID)
	assert.Equal(t, "Bob", *l.Name)
	assert.Equal(t, "b@x.io", *l.Email)
	assert.Nil(t, l.Phone)
	assert.Equal(t, "hello", *l.Message)
	assert.Equal(t, "/pricing", *l.PageURL)
}

func TestNormalizeFlat_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `null`, `"x"`, `[]`, `{"name":5}`} {
		_, err := NormalizeWebsite([]byte(body))
		assert.True(t, IsValidationError(err), "website %q", body)

		_, err = NormalizeGoogle([]byte(body))
		assert.True(t, IsValidationError(err), "google %q", body)
	}
}
