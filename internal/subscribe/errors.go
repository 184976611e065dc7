package subscribe

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedScheme    = errors.New("unsupported link scheme")
	ErrUnsupportedVersion   = errors.New("unsupported vmess link version")
	ErrUnsupportedCipher    = errors.New("unsupported vmess cipher")
	ErrUnsupportedType      = errors.New("unsupported vmess header type")
	ErrUnsupportedTLSMode   = errors.New("unsupported tls mode")
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrInvalidPort          = errors.New("invalid port")
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidLink          = errors.New("malformed link payload")

	// ErrInvalidEnvelope 表示整个订阅内容不是合法的 base64，属于硬错误。
	ErrInvalidEnvelope = errors.New("invalid subscription envelope")
)

// LinkError 记录解码失败的字段与取值。
type LinkError struct {
	Field string
	Value string
	Err   error
}

func (e *LinkError) Error() string {
	switch {
	case e.Field == "":
		return e.Err.Error()
	case e.Value == "":
		return fmt.Sprintf("%s: %s", e.Err, e.Field)
	default:
		return fmt.Sprintf("%s: %s=%q", e.Err, e.Field, e.Value)
	}
}

func (e *LinkError) Unwrap() error { return e.Err }

// Reason returns a short stable label for the failure, used as a metrics label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedScheme):
		return "scheme"
	case errors.Is(err, ErrUnsupportedVersion):
		return "version"
	case errors.Is(err, ErrUnsupportedCipher):
		return "cipher"
	case errors.Is(err, ErrUnsupportedType):
		return "type"
	case errors.Is(err, ErrUnsupportedTLSMode):
		return "tls"
	case errors.Is(err, ErrUnsupportedTransport):
		return "transport"
	case errors.Is(err, ErrInvalidPort):
		return "port"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "malformed"
	}
}

func linkErr(err error, field, value string) error {
	return &LinkError{Field: field, Value: value, Err: err}
}
