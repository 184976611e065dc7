package subscribe

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

func TestDecodeLinkSrv1(t *testing.T) {
	link := vmessLink(t, map[string]any{
		"v": "2", "ps": "srv1", "add": "a.example", "port": "443", "id": "u-1",
		"tls": "tls", "sni": "a.example", "net": "ws", "path": "/ws", "host": "a.example",
	})

	d, err := DecodeLink(link)
	require.NoError(t, err)

	assert.Equal(t, outbound.Descriptor{
		Name:      "srv1",
		Protocol:  outbound.ProtocolVMess,
		Endpoint:  outbound.Endpoint{Address: "a.example", Port: 443, ID: "u-1"},
		Transport: outbound.WebSocket{Path: "/ws", Host: "a.example"},
		Security:  outbound.TLS{ServerName: "a.example"},
	}, d)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"protocol":"vmess",
		"settings":{"vnext":[{"address":"a.example","port":443,"users":[{"id":"u-1"}]}]},
		"streamSettings":{"security":"tls","tlsSettings":{"serverName":"a.example"},
			"network":"ws","wsSettings":{"path":"/ws","headers":{"Host":"a.example"}}}}`, string(raw))
}

func TestDecodeLinkOptionalFields(t *testing.T) {
	base := baseRecord("n")

	tests := []struct {
		name      string
		rec       map[string]any
		transport outbound.Transport
		security  outbound.Security
		port      int
	}{
		{name: "minimal", rec: base, port: 443},
		{name: "numeric port", rec: with(base, "port", 8080), port: 8080},
		{name: "none cipher and type", rec: with(base, "scy", "none", "type", "none"), port: 443},
		{name: "empty cipher and type", rec: with(base, "scy", "", "type", ""), port: 443},
		{name: "empty tls and net", rec: with(base, "tls", "", "net", ""), port: 443},
		{name: "falsy tls", rec: with(base, "tls", false), port: 443},
		{name: "zero tls", rec: with(base, "tls", 0), port: 443},
		{
			name:     "alpn split",
			rec:      with(base, "tls", "tls", "alpn", "h2,http/1.1"),
			security: outbound.TLS{ALPN: []string{"h2", "http/1.1"}},
			port:     443,
		},
		{
			name:      "ws without path or host",
			rec:       with(base, "net", "ws", "path", "", "host", ""),
			transport: outbound.WebSocket{},
			port:      443,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecodeLink(vmessLink(t, tt.rec))
			require.NoError(t, err)
			assert.Equal(t, tt.port, d.Endpoint.Port)
			assert.Equal(t, tt.transport, d.Transport)
			assert.Equal(t, tt.security, d.Security)
		})
	}
}

func TestDecodeLinkErrors(t *testing.T) {
	base := baseRecord("n")

	tests := []struct {
		name  string
		link  string
		want  error
		field string
	}{
		{name: "other scheme", link: "vless://abc", want: ErrUnsupportedScheme, field: "scheme"},
		{name: "not base64", link: "vmess://@@@", want: ErrInvalidLink},
		{name: "not json", link: SchemeVMess + base64.StdEncoding.EncodeToString([]byte("nope")), want: ErrInvalidLink},
		{name: "version 1", link: vmessLink(t, with(base, "v", "1")), want: ErrUnsupportedVersion, field: "v"},
		{name: "numeric version", link: vmessLink(t, with(base, "v", 2)), want: ErrUnsupportedVersion, field: "v"},
		{name: "version null", link: vmessLink(t, with(base, "v", nil)), want: ErrMissingField, field: "v"},
		{name: "tls true", link: vmessLink(t, with(base, "tls", true)), want: ErrUnsupportedTLSMode, field: "tls"},
		{name: "tls number", link: vmessLink(t, with(base, "tls", 1)), want: ErrUnsupportedTLSMode, field: "tls"},
		{name: "cipher", link: vmessLink(t, with(base, "scy", "aes-128-gcm")), want: ErrUnsupportedCipher, field: "scy"},
		{name: "header type", link: vmessLink(t, with(base, "type", "http")), want: ErrUnsupportedType, field: "type"},
		{name: "tls mode", link: vmessLink(t, with(base, "tls", "xtls")), want: ErrUnsupportedTLSMode, field: "tls"},
		{name: "transport", link: vmessLink(t, with(base, "net", "grpc")), want: ErrUnsupportedTransport, field: "net"},
		{name: "port text", link: vmessLink(t, with(base, "port", "https")), want: ErrInvalidPort, field: "port"},
		{name: "port zero", link: vmessLink(t, with(base, "port", 0)), want: ErrInvalidPort, field: "port"},
		{name: "port too large", link: vmessLink(t, with(base, "port", "65536")), want: ErrInvalidPort, field: "port"},
		{name: "missing id", link: vmessLink(t, without(base, "id")), want: ErrMissingField, field: "id"},
		{name: "missing ps", link: vmessLink(t, without(base, "ps")), want: ErrMissingField, field: "ps"},
		{name: "missing v", link: vmessLink(t, without(base, "v")), want: ErrMissingField, field: "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLink(tt.link)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var linkErr *LinkError
			require.True(t, errors.As(err, &linkErr))
			if tt.field != "" {
				assert.Equal(t, tt.field, linkErr.Field)
			}
		})
	}
}

func TestDecodeLinkAcceptsBase64Variants(t *testing.T) {
	raw, err := json.Marshal(baseRecord("variant~?"))
	require.NoError(t, err)

	for name, enc := range map[string]*base64.Encoding{
		"std":     base64.StdEncoding,
		"raw std": base64.RawStdEncoding,
		"url":     base64.URLEncoding,
		"raw url": base64.RawURLEncoding,
	} {
		t.Run(name, func(t *testing.T) {
			d, err := DecodeLink(SchemeVMess + enc.EncodeToString(raw) + "\n")
			require.NoError(t, err)
			assert.Equal(t, "variant~?", d.Name)
		})
	}
}

func TestDecodeLinkDeterministic(t *testing.T) {
	link := vmessLink(t, with(baseRecord("d"), "tls", "tls", "net", "ws", "path", "/x"))
	first, err := DecodeLink(link)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := DecodeLink(link)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestReason(t *testing.T) {
	_, err := DecodeLink(vmessLink(t, with(baseRecord("r"), "scy", "auto")))
	assert.Equal(t, "cipher", Reason(err))
	assert.Equal(t, "scheme", Reason(ErrUnsupportedScheme))
	assert.Equal(t, "malformed", Reason(errors.New("other")))
}
