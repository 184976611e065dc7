package subscribe

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

// SchemeVMess 是唯一支持的链接前缀。
const SchemeVMess = "vmess://"

const supportedVersion = "2"

// vmessRecord 是 v2rayN 分享链接（ver 2）中的 JSON 记录。
// 可选字段用指针区分"缺失"与"空值"。
type vmessRecord struct {
	V    *json.RawMessage `json:"v"`
	PS   *string          `json:"ps"`
	Add  *string          `json:"add"`
	Port *flexString      `json:"port"`
	ID   *string          `json:"id"`

	Scy  *string          `json:"scy"`
	Type *string          `json:"type"`
	TLS  *json.RawMessage `json:"tls"`
	SNI  *string          `json:"sni"`
	ALPN *string          `json:"alpn"`
	Net  *string          `json:"net"`
	Path *string          `json:"path"`
	Host *string          `json:"host"`
}

// flexString accepts either a JSON string or a JSON number; used for port only.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// rawString 返回 JSON 字符串的值；非字符串时 ok 为 false。
func rawString(raw *json.RawMessage) (s string, ok bool) {
	if raw == nil {
		return "", false
	}
	if err := json.Unmarshal(*raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// truthy 判断可选字段是否"有值"：null、false、0、空串、空数组与空对象都视为未设置。
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// HasScheme reports whether the line carries a supported link scheme.
func HasScheme(link string) bool {
	return strings.HasPrefix(link, SchemeVMess)
}

// DecodeLink 将一条 vmess:// 链接解码为出站描述。纯函数，无 I/O。
func DecodeLink(link string) (outbound.Descriptor, error) {
	if !HasScheme(link) {
		scheme := link
		if i := strings.Index(link, "://"); i >= 0 {
			scheme = link[:i+3]
		}
		return outbound.Descriptor{}, linkErr(ErrUnsupportedScheme, "scheme", scheme)
	}

	payload, err := decodeBase64(strings.TrimPrefix(link, SchemeVMess))
	if err != nil {
		return outbound.Descriptor{}, linkErr(ErrInvalidLink, "base64", err.Error())
	}

	var rec vmessRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return outbound.Descriptor{}, linkErr(ErrInvalidLink, "json", err.Error())
	}
	return rec.descriptor()
}

func (r *vmessRecord) descriptor() (outbound.Descriptor, error) {
	if err := r.requireFields(); err != nil {
		return outbound.Descriptor{}, err
	}
	// 只接受字符串 "2"，数字 2 同样拒绝
	if v, ok := rawString(r.V); !ok || v != supportedVersion {
		if !ok {
			v = string(*r.V)
		}
		return outbound.Descriptor{}, linkErr(ErrUnsupportedVersion, "v", v)
	}
	if isSet(r.Scy) {
		return outbound.Descriptor{}, linkErr(ErrUnsupportedCipher, "scy", *r.Scy)
	}
	if isSet(r.Type) {
		return outbound.Descriptor{}, linkErr(ErrUnsupportedType, "type", *r.Type)
	}

	port, err := parsePort(string(*r.Port))
	if err != nil {
		return outbound.Descriptor{}, err
	}

	security, err := r.security()
	if err != nil {
		return outbound.Descriptor{}, err
	}
	transport, err := r.transport()
	if err != nil {
		return outbound.Descriptor{}, err
	}

	return outbound.Descriptor{
		Name:     *r.PS,
		Protocol: outbound.ProtocolVMess,
		Endpoint: outbound.Endpoint{
			Address: *r.Add,
			Port:    port,
			ID:      *r.ID,
		},
		Transport: transport,
		Security:  security,
	}, nil
}

func (r *vmessRecord) requireFields() error {
	required := []struct {
		name    string
		present bool
	}{
		{"v", r.V != nil},
		{"ps", r.PS != nil},
		{"add", r.Add != nil},
		{"port", r.Port != nil},
		{"id", r.ID != nil},
	}
	for _, f := range required {
		if !f.present {
			return linkErr(ErrMissingField, f.name, "")
		}
	}
	return nil
}

func (r *vmessRecord) security() (outbound.Security, error) {
	if r.TLS == nil || !truthy(*r.TLS) {
		return nil, nil
	}
	mode, ok := rawString(r.TLS)
	if !ok {
		return nil, linkErr(ErrUnsupportedTLSMode, "tls", string(*r.TLS))
	}
	switch mode {
	case "tls":
		tls := outbound.TLS{}
		if r.SNI != nil {
			tls.ServerName = *r.SNI
		}
		if r.ALPN != nil && *r.ALPN != "" {
			tls.ALPN = strings.Split(*r.ALPN, ",")
		}
		return tls, nil
	default:
		return nil, linkErr(ErrUnsupportedTLSMode, "tls", mode)
	}
}

func (r *vmessRecord) transport() (outbound.Transport, error) {
	if r.Net == nil || *r.Net == "" {
		return nil, nil
	}
	switch *r.Net {
	case "ws":
		ws := outbound.WebSocket{}
		if r.Path != nil {
			ws.Path = *r.Path
		}
		if r.Host != nil {
			ws.Host = *r.Host
		}
		return ws, nil
	default:
		return nil, linkErr(ErrUnsupportedTransport, "net", *r.Net)
	}
}

// isSet reports a field that is present and neither empty nor "none".
func isSet(v *string) bool {
	return v != nil && *v != "" && *v != "none"
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port < 1 || port > 65535 {
		return 0, linkErr(ErrInvalidPort, "port", raw)
	}
	return port, nil
}

// decodeBase64 尝试标准与 URL 安全两种字母表，兼容有无填充。
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
