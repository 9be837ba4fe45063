package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	decoder := NewDecoder()

	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "json nid", payload: `{"nid":"1234567890"}`, want: "1234567890"},
		{name: "json id fallback", payload: `{"id":"40012345"}`, want: "40012345"},
		{name: "json without identifier", payload: `{"name":"x"}`, wantErr: true},
		{name: "vcard style", payload: "N:PEREZ;JUAN\nID:1234567890\n", want: "1234567890"},
		{name: "vcard nid key", payload: "NID: 987654321", want: "987654321"},
		{name: "raw digits", payload: "40012345", want: "40012345"},
		{name: "raw too short", payload: "123", wantErr: true},
		{name: "empty", payload: "   ", wantErr: true},
		{name: "garbage", payload: "hello world", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.Decode(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnreadablePayload)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
