package twitter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseToken_KnownVector(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write([]byte("abc"))
	want := "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	got, err := ResponseToken("s3cr3t", "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, strings.HasPrefix(got, "sha256="))
	assert.Len(t, strings.TrimPrefix(got, "sha256="), 44)
}

func TestResponseToken_RFC4231Vector(t *testing.T) {
	// RFC 4231 test case 2: key "Jefe", data "what do ya want for nothing?".
	got, err := ResponseToken("Jefe", "what do ya want for nothing?")
	require.NoError(t, err)
	assert.Equal(t, "sha256=W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM=", got)
}

func TestResponseToken_MissingSecret(t *testing.T) {
	_, err := ResponseToken("", "abc")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestDecodePayload(t *testing.T) {
	body := `{
		"for_user_id": "42",
		"tweet_create_events": [
			{
				"id_str": "100",
				"text": "hello",
				"user": {"id_str": "7", "screen_name": "socialflow"},
				"includes": {"users": [{"id": "7"}]},
				"matching_rules": [{"id": "r1", "tag": "brand"}],
				"extra_field": true
			},
			{"id_str": "101"}
		]
	}`

	p, err := DecodePayload(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, p.TweetCreateEvents, 2)

	envs := p.Envelopes()
	require.Len(t, envs, 2)

	first := envs[0]
	assert.Equal(t, "100", first.Data.ID)
	assert.Equal(t, "socialflow", first.Data.AuthorHandle())
	assert.Equal(t, "7", first.Data.AuthorID())
	assert.JSONEq(t, `{"users": [{"id": "7"}]}`, string(first.Includes))
	assert.Equal(t, []string{"r1"}, first.RuleIDs())

	second := envs[1]
	assert.Empty(t, second.Data.AuthorHandle())
	assert.Empty(t, second.Includes)
	assert.NotNil(t, second.MatchingRules)
	assert.Empty(t, second.MatchingRules)
}

func TestEnvelope_MarshalKeepsRawData(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"tweet_create_events":[{"id_str":"1","extra_field":"kept"}]}`))
	require.NoError(t, err)

	b, err := json.Marshal(p.Envelopes()[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id_str":"1","extra_field":"kept"},"matching_rules":[]}`, string(b))
}

func TestDecodePayload_Malformed(t *testing.T) {
	_, err := DecodePayload(strings.NewReader(`{"tweet_create_events": [`))
	assert.Error(t, err)

	p, err := DecodePayload(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, p.Envelopes())
}
