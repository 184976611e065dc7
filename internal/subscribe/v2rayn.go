package subscribe

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseBundle 解析 v2rayN 订阅：整体 base64 解码后逐行解码链接。
// 单行失败只记录告警并跳过；只有外层 base64 非法才返回 ErrInvalidEnvelope。
func ParseBundle(raw []byte, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	decoded, err := decodeBase64(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	bundle := newBundle()
	for i, line := range strings.Split(string(decoded), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !HasScheme(line) {
			logger.Warn("invalid url scheme", "line", i+1, "link", line)
			bundle.Rejected = append(bundle.Rejected, Rejection{Line: i + 1, Link: line, Err: ErrUnsupportedScheme})
			continue
		}

		d, err := DecodeLink(line)
		if err != nil {
			logger.Warn("invalid vmess url", "line", i+1, "link", line, "error", err)
			bundle.Rejected = append(bundle.Rejected, Rejection{Line: i + 1, Link: line, Err: err})
			continue
		}
		if prev, ok := bundle.Get(d.Name); ok {
			logger.Debug("duplicate display name, keeping last", "name", d.Name, "replaced", prev.Endpoint.Address)
		}
		bundle.put(d)
	}
	return bundle, nil
}
