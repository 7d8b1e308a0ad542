package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/twitter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crcRequest(token string) *http.Request {
	return httptest.NewRequest("GET", "/webhooks/twitter?"+url.Values{"crc_token": {token}}.Encode(), nil)
}

// =============================================================================
// CRC Challenge
// =============================================================================

func TestHandleCRC_KnownVector(t *testing.T) {
	h := NewWebhookHandler("Jefe", &mockProcessor{}, newTestLogger())

	rec := httptest.NewRecorder()
	h.HandleCRC(rec, crcRequest("what do ya want for nothing?"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response_token":"sha256=W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM="}`, rec.Body.String())
}

func TestHandleCRC_MatchesHMAC(t *testing.T) {
	h := NewWebhookHandler("s3cr3t", &mockProcessor{}, newTestLogger())

	rec := httptest.NewRecorder()
	h.HandleCRC(rec, crcRequest("abc"))

	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write([]byte("abc"))
	want := "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.JSONEq(t, `{"response_token":"`+want+`"}`, rec.Body.String())
}

func TestHandleCRC_MissingSecret(t *testing.T) {
	h := NewWebhookHandler("", &mockProcessor{}, newTestLogger())

	rec := httptest.NewRecorder()
	h.HandleCRC(rec, crcRequest("abc"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Missing TWITTER_CONSUMER_SECRET"}`, rec.Body.String())
}

func TestHandleCRC_CountsResults(t *testing.T) {
	ok := metrics.CRCChallengesTotal.WithLabelValues("ok")
	missing := metrics.CRCChallengesTotal.WithLabelValues("missing_secret")
	failed := metrics.CRCChallengesTotal.WithLabelValues("error")
	okBefore, missingBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(missing), testutil.ToFloat64(failed)

	NewWebhookHandler("Jefe", &mockProcessor{}, newTestLogger()).HandleCRC(httptest.NewRecorder(), crcRequest("abc"))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, missingBefore, testutil.ToFloat64(missing))

	NewWebhookHandler("", &mockProcessor{}, newTestLogger()).HandleCRC(httptest.NewRecorder(), crcRequest("abc"))
	assert.Equal(t, missingBefore+1, testutil.ToFloat64(missing))
	assert.Equal(t, failedBefore, testutil.ToFloat64(failed))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
}

func TestHandleCRC_NoTokenReportsActive(t *testing.T) {
	h := NewWebhookHandler("", &mockProcessor{}, newTestLogger())

	rec := httptest.NewRecorder()
	h.HandleCRC(rec, httptest.NewRequest("GET", "/webhooks/twitter", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Twitter webhook endpoint Active"}`, rec.Body.String())
}

// =============================================================================
// Event Delivery
// =============================================================================

const twoTweets = `{
	"for_user_id": "42",
	"tweet_create_events": [
		{
			"id_str": "1",
			"text": "first",
			"user": {"id_str": "7", "screen_name": "alice"},
			"includes": {"media": []},
			"matching_rules": [{"id": "r1", "tag": "launch"}]
		},
		{"id_str": "2", "text": "second"}
	]
}`

func postEvents(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/twitter", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleEvents(rec, req)
	return rec
}

func TestHandleEvents_ProcessesInOrder(t *testing.T) {
	proc := &mockProcessor{}
	h := NewWebhookHandler("s3cr3t", proc, newTestLogger())

	rec := postEvents(h, twoTweets)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	require.Len(t, proc.seen, 2)
	assert.Equal(t, "1", proc.seen[0].Data.ID)
	assert.Equal(t, []string{"r1"}, proc.seen[0].RuleIDs())
	assert.JSONEq(t, `{"media":[]}`, string(proc.seen[0].Includes))
	assert.Equal(t, "2", proc.seen[1].Data.ID)
	assert.NotNil(t, proc.seen[1].MatchingRules)
	assert.Empty(t, proc.seen[1].MatchingRules)
}

func TestHandleEvents_FirstErrorAbortsBatch(t *testing.T) {
	proc := &mockProcessor{
		ProcessFunc: func(ctx context.Context, env twitter.Envelope) error {
			return errors.New("telegram: chat not found")
		},
	}
	h := NewWebhookHandler("s3cr3t", proc, newTestLogger())

	rec := postEvents(h, twoTweets)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.Len(t, proc.seen, 1)
}

func TestHandleEvents_PanicBecomes500(t *testing.T) {
	proc := &mockProcessor{
		ProcessFunc: func(ctx context.Context, env twitter.Envelope) error {
			panic("nil map")
		},
	}
	h := NewWebhookHandler("s3cr3t", proc, newTestLogger())

	rec := postEvents(h, twoTweets)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestHandleEvents_MalformedJSON(t *testing.T) {
	proc := &mockProcessor{}
	h := NewWebhookHandler("s3cr3t", proc, newTestLogger())

	rec := postEvents(h, `{"tweet_create_events": [`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.Empty(t, proc.seen)
}

func TestHandleEvents_NoTweets(t *testing.T) {
	proc := &mockProcessor{}
	h := NewWebhookHandler("s3cr3t", proc, newTestLogger())

	rec := postEvents(h, `{"for_user_id": "42"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, proc.seen)
}
