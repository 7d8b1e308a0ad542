package twitter

import (
	"encoding/json"
	"fmt"
	"io"
)

// Payload is the subset of an Account Activity delivery this service reads.
// Every field is optional; unknown keys are ignored.
type Payload struct {
	ForUserID         string  `json:"for_user_id,omitempty"`
	TweetCreateEvents []Tweet `json:"tweet_create_events,omitempty"`
}

// Tweet is one entry of tweet_create_events. The fields the pipeline reads
// are decoded; Raw keeps the entry exactly as delivered.
type Tweet struct {
	ID            string          `json:"id_str,omitempty"`
	Text          string          `json:"text,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
	User          *User           `json:"user,omitempty"`
	Includes      json.RawMessage `json:"includes,omitempty"`
	MatchingRules []MatchingRule  `json:"matching_rules,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// User is the author of a tweet.
type User struct {
	ID         string `json:"id_str,omitempty"`
	Name       string `json:"name,omitempty"`
	ScreenName string `json:"screen_name,omitempty"`
}

// MatchingRule identifies the filtered-stream rule an event matched.
type MatchingRule struct {
	ID  string `json:"id,omitempty"`
	Tag string `json:"tag,omitempty"`
}

type plainTweet Tweet

func (t *Tweet) UnmarshalJSON(b []byte) error {
	var p plainTweet
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = Tweet(p)
	t.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON writes the entry as delivered when it was decoded from a
// payload, so archived events keep fields this package does not model.
func (t Tweet) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	return json.Marshal(plainTweet(t))
}

// AuthorHandle returns the tweet author's screen name, or "" when absent.
func (t Tweet) AuthorHandle() string {
	if t.User == nil {
		return ""
	}
	return t.User.ScreenName
}

// AuthorID returns the tweet author's id, or "" when absent.
func (t Tweet) AuthorID() string {
	if t.User == nil {
		return ""
	}
	return t.User.ID
}

// Envelope is what gets handed to the event processor for every tweet.
type Envelope struct {
	Data          Tweet           `json:"data"`
	Includes      json.RawMessage `json:"includes,omitempty"`
	MatchingRules []MatchingRule  `json:"matching_rules"`
}

// RuleIDs lists the ids of the matching rules.
func (e Envelope) RuleIDs() []string {
	ids := make([]string, 0, len(e.MatchingRules))
	for _, r := range e.MatchingRules {
		ids = append(ids, r.ID)
	}
	return ids
}

// Envelopes normalizes every tweet_create_events entry. Entries missing
// includes or matching rules yield empty values, never an error.
func (p *Payload) Envelopes() []Envelope {
	envelopes := make([]Envelope, 0, len(p.TweetCreateEvents))
	for _, tweet := range p.TweetCreateEvents {
		rules := tweet.MatchingRules
		if rules == nil {
			rules = []MatchingRule{}
		}
		envelopes = append(envelopes, Envelope{
			Data:          tweet,
			Includes:      tweet.Includes,
			MatchingRules: rules,
		})
	}
	return envelopes
}

// DecodePayload reads one delivery body.
func DecodePayload(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &p, nil
}
