package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

func newValidator(t *testing.T) *EnvelopeValidator {
	t.Helper()
	v, err := NewEnvelopeValidator()
	require.NoError(t, err)
	return v
}

func TestEnvelopeValidator_Instagram(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Validate(entity.SourceInstagram, []byte(`{"object":"page","entry":[{"id":"1","changes":[{"field":"leadgen","value":{"leadgen_id":"L1"}}]}]}`)))

	for _, body := range []string{
		`{}`,
		`{"entry":{}}`,
		`{"entry":[{"changes":[{"value":{}}]}]}`,
		`{"entry":[{"changes":[{"value":{"leadgen_id":7}}]}]}`,
		`{"entry":[{"changes":[{"value":{"leadgen_id":"L","field_data":[{"name":"x","values":[1]}]}}]}]}`,
	} {
		err := v.Validate(entity.SourceInstagram, []byte(body))
		require.Error(t, err, body)
		assert.True(t, IsValidationError(err), body)
	}
}

func TestEnvelopeValidator_FlatSources(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Validate(entity.SourceGoogle, []byte(`{}`)))
	assert.NoError(t, v.Validate(entity.SourceWebsite, []byte(`{"name":"a","unknown":{"x":1}}`)))

	assert.Error(t, v.Validate(entity.SourceGoogle, []byte(`[]`)))
	assert.Error(t, v.Validate(entity.SourceWebsite, []byte(`{"email":false}`)))
	assert.Error(t, v.Validate(entity.SourceWebsite, []byte(`not json`)))
}

func TestEnvelopeValidator_UnknownSource(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(entity.SourceOther, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source")
}
