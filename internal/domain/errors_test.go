package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain error", Invalid("locale.set", "bad locale"), EINVALID},
		{"wrapped domain error", fmt.Errorf("outer: %w", MissingConfig("webhook.crc", "TWITTER_CONSUMER_SECRET")), ECONFIG},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "store.record", "record event")
	assert.Equal(t, "Internal Server Error", ErrorMessage(err))
	assert.Equal(t, "Internal Server Error", ErrorMessage(errors.New("raw")))
	assert.Equal(t, "Missing TWITTER_CONSUMER_SECRET", ErrorMessage(MissingConfig("webhook.crc", "TWITTER_CONSUMER_SECRET")))
}

func TestError_Unwrap(t *testing.T) {
	root := errors.New("root")
	err := Wrap(root, EUNAVAILABLE, "telegram.send", "telegram unavailable")

	assert.ErrorIs(t, err, root)
	assert.Equal(t, "telegram.send: telegram unavailable", err.Error())
	assert.Equal(t, "telegram.send", ErrorOp(err))
}
