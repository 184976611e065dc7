package outbound

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorWireShape(t *testing.T) {
	tests := []struct {
		name string
		in   Descriptor
		want string
	}{
		{
			name: "plain tcp",
			in: Descriptor{
				Name:     "srv1",
				Protocol: ProtocolVMess,
				Endpoint: Endpoint{Address: "a.example", Port: 443, ID: "u-1"},
			},
			want: `{"protocol":"vmess","settings":{"vnext":[{"address":"a.example","port":443,"users":[{"id":"u-1"}]}]},"streamSettings":{}}`,
		},
		{
			name: "ws over tls",
			in: Descriptor{
				Protocol:  ProtocolVMess,
				Endpoint:  Endpoint{Address: "b.example", Port: 8443, ID: "u-2"},
				Transport: WebSocket{Path: "/ws", Host: "cdn.example"},
				Security:  TLS{ServerName: "b.example", ALPN: []string{"h2", "http/1.1"}},
			},
			want: `{"protocol":"vmess","settings":{"vnext":[{"address":"b.example","port":8443,"users":[{"id":"u-2"}]}]},` +
				`"streamSettings":{"security":"tls","tlsSettings":{"serverName":"b.example","alpn":["h2","http/1.1"]},` +
				`"network":"ws","wsSettings":{"path":"/ws","headers":{"Host":"cdn.example"}}}}`,
		},
		{
			name: "empty sub-structures are omitted",
			in: Descriptor{
				Protocol:  ProtocolVMess,
				Endpoint:  Endpoint{Address: "c.example", Port: 80, ID: "u-3"},
				Transport: WebSocket{},
				Security:  TLS{},
			},
			want: `{"protocol":"vmess","settings":{"vnext":[{"address":"c.example","port":80,"users":[{"id":"u-3"}]}]},"streamSettings":{"security":"tls","network":"ws"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestNamedRoundTrip(t *testing.T) {
	in := Named{
		QualifiedName: "3_hk_01",
		Descriptor: Descriptor{
			Name:      "hk_01",
			Protocol:  ProtocolVMess,
			Endpoint:  Endpoint{Address: "hk.example", Port: 443, ID: "id"},
			Transport: WebSocket{Path: "/p"},
			Security:  TLS{ServerName: "hk.example"},
		},
	}

	raw, err := json.Marshal([]Named{in})
	require.NoError(t, err)
	assert.Equal(t, byte('['), raw[1], "each entry is a [name, outbound] pair")

	var out []Named
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestUnmarshalRejectsUnknownLayers(t *testing.T) {
	bad := []string{
		`{"protocol":"vless","settings":{"vnext":[{"address":"a","port":1,"users":[{"id":"x"}]}]}}`,
		`{"protocol":"vmess","settings":{"vnext":[]}}`,
		`{"protocol":"vmess","settings":{"vnext":[{"address":"a","port":1,"users":[{"id":"x"}]}]},"streamSettings":{"security":"reality"}}`,
		`{"protocol":"vmess","settings":{"vnext":[{"address":"a","port":1,"users":[{"id":"x"}]}]},"streamSettings":{"network":"grpc"}}`,
	}
	for _, doc := range bad {
		var d Descriptor
		assert.ErrorIs(t, json.Unmarshal([]byte(doc), &d), ErrInvalidWire, doc)
	}
}

func TestSummaryAndQualifiedName(t *testing.T) {
	assert.Equal(t, "tcp/none", Descriptor{}.Summary())
	assert.Equal(t, "ws/tls", Descriptor{Transport: WebSocket{}, Security: TLS{}}.Summary())
	assert.Equal(t, "0_srv1", QualifiedName(0, "srv1"))
	assert.Equal(t, "12_a_b", QualifiedName(12, "a_b"))
	assert.Equal(t, "a_b", displayName("12_a_b"))
	assert.Equal(t, "x_y", displayName("x_y"))
}
