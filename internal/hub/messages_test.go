package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"securechat/internal/chat"
)

func TestEncodeEvent(t *testing.T) {
	cases := []struct {
		name string
		evt  chat.Event
		want string
	}{
		{
			name: "user list",
			evt:  chat.PresentUserList{Users: []string{"alice", "bob"}},
			want: `{"type":"users","users":["alice","bob"]}`,
		},
		{
			name: "join",
			evt:  chat.UserJoined{Username: "bob"},
			want: `{"type":"userJoined","username":"bob"}`,
		},
		{
			name: "leave",
			evt:  chat.UserLeft{Username: "bob"},
			want: `{"type":"userLeft","username":"bob"}`,
		},
		{
			name: "public key",
			evt:  chat.PublicKeyAnnouncement{Key: json.RawMessage(`{"kty":"RSA","n":"abc","e":"AQAB"}`)},
			want: `{"type":"publicKey","key":{"kty":"RSA","n":"abc","e":"AQAB"}}`,
		},
		{
			name: "message",
			evt:  chat.ReceiveMessage{Source: "Server", Payload: "Y2lwaGVy"},
			want: `{"type":"message","source":"Server","payload":"Y2lwaGVy"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := encodeEvent(tc.evt)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(encoded))
		})
	}
}

func TestClient_Send_AfterClose(t *testing.T) {
	req := require.New(t)
	client := NewClient(t.Context(), nil, "h1", nil, nil)

	req.NoError(client.Send([]byte("frame")))

	client.Close()
	req.ErrorIs(client.Send([]byte("frame")), ErrDispatch)
	// Closing twice is harmless.
	client.Close()
}
