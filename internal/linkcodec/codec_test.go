package linkcodec

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec()

	payloads := []Payload{
		{PolicyID: 1, Email: "e1@x.com", Status: DecisionAck},
		{PolicyID: 42, Email: "someone@example.org", Status: DecisionNak},
		{PolicyID: 9007199254740993, Email: "big@ids.io", Status: DecisionAck},
	}

	for _, p := range payloads {
		token, err := codec.Encode(p)
		require.NoError(t, err)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")

		decoded, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, p, *decoded)
	}
}

func TestCodec_EncodeRejectsBadDecision(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Encode(Payload{PolicyID: 1, Email: "e@x.com", Status: "maybe"})
	assert.Error(t, err)
}

func TestCodec_DecodeRejects(t *testing.T) {
	codec := NewCodec()

	validToken, err := codec.Encode(Payload{PolicyID: 7, Email: "e@x.com", Status: DecisionAck})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"not base64", "%%%not-base64%%%"},
		{"not json", base64.URLEncoding.EncodeToString([]byte("hello"))},
		{"truncated token", validToken[:len(validToken)/2]},
		{"decision maybe", base64.URLEncoding.EncodeToString([]byte(`{"policy_id":1,"email":"e@x.com","status":"maybe"}`))},
		{"missing email", base64.URLEncoding.EncodeToString([]byte(`{"policy_id":1,"status":"ack"}`))},
		{"missing policy id", base64.URLEncoding.EncodeToString([]byte(`{"email":"e@x.com","status":"ack"}`))},
		{"policy id zero", base64.URLEncoding.EncodeToString([]byte(`{"policy_id":0,"email":"e@x.com","status":"ack"}`))},
		{"policy id not a number", base64.URLEncoding.EncodeToString([]byte(`{"policy_id":"1","email":"e@x.com","status":"ack"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := codec.Decode(tt.token)
			assert.Nil(t, p)
			var decErr *DecodeError
			assert.ErrorAs(t, err, &decErr)
		})
	}
}

func TestSigningCodec_RoundTrip(t *testing.T) {
	codec := NewSigningCodec(NewCodec(), []byte("test-key"))

	p := Payload{PolicyID: 3, Email: "e@x.com", Status: DecisionNak}
	token, err := codec.Encode(p)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, p, *decoded)
}

func TestSigningCodec_RejectsTampering(t *testing.T) {
	codec := NewSigningCodec(NewCodec(), []byte("test-key"))

	token, err := codec.Encode(Payload{PolicyID: 3, Email: "e@x.com", Status: DecisionAck})
	require.NoError(t, err)

	// Swap the embedded decision while keeping the old signature.
	forged, err := NewCodec().Encode(Payload{PolicyID: 3, Email: "e@x.com", Status: DecisionNak})
	require.NoError(t, err)
	tampered := forged + token[len(token)-45:]

	p, err := codec.Decode(tampered)
	assert.Nil(t, p)
	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)

	// Unsigned token is rejected outright.
	_, err = codec.Decode(forged)
	assert.ErrorAs(t, err, &decErr)
}
