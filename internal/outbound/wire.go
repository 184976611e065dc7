package outbound

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidWire is returned when a stored outbound object cannot be mapped back to a Descriptor.
var ErrInvalidWire = errors.New("invalid outbound object")

// Wire structures mirror the xray/v2ray outbound object.

type wireOutbound struct {
	Protocol       string             `json:"protocol"`
	Settings       wireSettings       `json:"settings"`
	StreamSettings wireStreamSettings `json:"streamSettings"`
}

type wireSettings struct {
	VNext []wireServer `json:"vnext"`
}

type wireServer struct {
	Address string     `json:"address"`
	Port    int        `json:"port"`
	Users   []wireUser `json:"users"`
}

type wireUser struct {
	ID string `json:"id"`
}

type wireStreamSettings struct {
	Security    string           `json:"security,omitempty"`
	TLSSettings *wireTLSSettings `json:"tlsSettings,omitempty"`
	Network     string           `json:"network,omitempty"`
	WSSettings  *wireWSSettings  `json:"wsSettings,omitempty"`
}

type wireTLSSettings struct {
	ServerName string   `json:"serverName,omitempty"`
	ALPN       []string `json:"alpn,omitempty"`
}

type wireWSSettings struct {
	Path    string            `json:"path,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// MarshalJSON 输出代理核心可直接使用的 outbound 对象。
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

// UnmarshalJSON 从 outbound 对象还原描述；未知的 security/network 值视为错误。
// Name 不在线上格式中，由调用方（限定名）补充。
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var w wireOutbound
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := fromWire(w)
	if err != nil {
		return err
	}
	parsed.Name = d.Name
	*d = parsed
	return nil
}

func (d Descriptor) toWire() wireOutbound {
	w := wireOutbound{
		Protocol: string(d.Protocol),
		Settings: wireSettings{VNext: []wireServer{{
			Address: d.Endpoint.Address,
			Port:    d.Endpoint.Port,
			Users:   []wireUser{{ID: d.Endpoint.ID}},
		}}},
	}

	switch s := d.Security.(type) {
	case TLS:
		w.StreamSettings.Security = s.Mode()
		if s.ServerName != "" || s.ALPN != nil {
			w.StreamSettings.TLSSettings = &wireTLSSettings{ServerName: s.ServerName, ALPN: s.ALPN}
		}
	}

	switch t := d.Transport.(type) {
	case WebSocket:
		w.StreamSettings.Network = t.Network()
		ws := &wireWSSettings{Path: t.Path}
		if t.Host != "" {
			ws.Headers = map[string]string{"Host": t.Host}
		}
		if ws.Path != "" || ws.Headers != nil {
			w.StreamSettings.WSSettings = ws
		}
	}
	return w
}

func fromWire(w wireOutbound) (Descriptor, error) {
	if Protocol(w.Protocol) != ProtocolVMess {
		return Descriptor{}, fmt.Errorf("%w: protocol %q", ErrInvalidWire, w.Protocol)
	}
	if len(w.Settings.VNext) == 0 || len(w.Settings.VNext[0].Users) == 0 {
		return Descriptor{}, fmt.Errorf("%w: missing vnext server or user", ErrInvalidWire)
	}
	server := w.Settings.VNext[0]
	d := Descriptor{
		Protocol: ProtocolVMess,
		Endpoint: Endpoint{Address: server.Address, Port: server.Port, ID: server.Users[0].ID},
	}

	switch w.StreamSettings.Security {
	case "", "none":
	case "tls":
		tls := TLS{}
		if s := w.StreamSettings.TLSSettings; s != nil {
			tls.ServerName = s.ServerName
			tls.ALPN = s.ALPN
		}
		d.Security = tls
	default:
		return Descriptor{}, fmt.Errorf("%w: security %q", ErrInvalidWire, w.StreamSettings.Security)
	}

	switch w.StreamSettings.Network {
	case "", "tcp":
	case "ws":
		ws := WebSocket{}
		if s := w.StreamSettings.WSSettings; s != nil {
			ws.Path = s.Path
			ws.Host = s.Headers["Host"]
		}
		d.Transport = ws
	default:
		return Descriptor{}, fmt.Errorf("%w: network %q", ErrInvalidWire, w.StreamSettings.Network)
	}
	return d, nil
}

// MarshalJSON encodes the pair as a two-element array: [qualifiedName, outbound].
func (n Named) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{n.QualifiedName, n.Descriptor})
}

// UnmarshalJSON decodes the two-element array form written by MarshalJSON.
func (n *Named) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected [name, outbound] pair, got %d elements", ErrInvalidWire, len(pair))
	}
	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil {
		return fmt.Errorf("%w: name: %v", ErrInvalidWire, err)
	}
	var d Descriptor
	if err := json.Unmarshal(pair[1], &d); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidWire, name, err)
	}
	d.Name = displayName(name)
	n.QualifiedName = name
	n.Descriptor = d
	return nil
}

// displayName strips the "{index}_" prefix of a qualified name.
func displayName(qualified string) string {
	for i, r := range qualified {
		if r == '_' {
			if i > 0 {
				return qualified[i+1:]
			}
			return qualified
		}
		if r < '0' || r > '9' {
			return qualified
		}
	}
	return qualified
}
