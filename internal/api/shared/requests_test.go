package shared

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	ParticipantID string `query:"participantID" validate:"required,max=8"`
	Limit         int    `validate:"gte=1,lte=100"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{name: "valid", req: sampleRequest{ParticipantID: "U1", Limit: 10}},
		{name: "missing participant", req: sampleRequest{Limit: 10}, wantErr: "participantID is required"},
		{name: "participant too long", req: sampleRequest{ParticipantID: "much-too-long", Limit: 10}, wantErr: "participantID must be at most 8"},
		{name: "limit too small", req: sampleRequest{ParticipantID: "U1"}, wantErr: "limit must be at least 1"},
		{name: "limit too large", req: sampleRequest{ParticipantID: "U1", Limit: 101}, wantErr: "limit must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestFirstValue(t *testing.T) {
	t.Run("query aliases", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/claim?userID=U9", nil)
		assert.Equal(t, "U9", FirstValue(r, "participantID", "userID"))
	})

	t.Run("first name wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/claim?participantID=U1&userID=U9", nil)
		assert.Equal(t, "U1", FirstValue(r, "participantID", "userID"))
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"texto": {" AMOR "}}
		r := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, "AMOR", FirstValue(r, "word", "texto"))
	})

	t.Run("blank values skipped", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/claim?participantID=%20&userID=", nil)
		assert.Equal(t, "", FirstValue(r, "participantID", "userID"))
	})
}
