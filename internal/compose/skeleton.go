package compose

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultSkeleton: socks 入站 1080，第二个出站直连，国内与私有 IP 绕过。
const defaultSkeleton = `{
  "inbounds": [{"port": 1080, "protocol": "socks"}],
  "outbounds": [null, {"protocol": "freedom", "tag": "direct"}],
  "routing": {
    "domainStrategy": "IPOnDemand",
    "rules": [
      {"type": "field", "ip": ["geoip:cn", "geoip:private"], "outboundTag": "direct"}
    ]
  }
}`

// DefaultSkeleton returns a fresh copy of the built-in skeleton.
func DefaultSkeleton() []byte {
	return []byte(defaultSkeleton)
}

// LoadSkeleton 读取骨架文件；.yaml/.yml 会转换为 JSON。
// 文件不存在时返回内置骨架，found 为 false。
func LoadSkeleton(path string) (doc []byte, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSkeleton(), false, nil
		}
		return nil, false, fmt.Errorf("read skeleton: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = yamlToJSON(data)
		if err != nil {
			return nil, true, fmt.Errorf("parse skeleton %s: %w", path, err)
		}
		return doc, true, nil
	default:
		if !json.Valid(data) {
			return nil, true, fmt.Errorf("parse skeleton %s: %w", path, ErrInvalidSkeleton)
		}
		return data, true, nil
	}
}

// FindSkeleton loads the first existing skeleton among candidates, else the default.
func FindSkeleton(candidates ...string) ([]byte, string, error) {
	for _, path := range candidates {
		doc, found, err := LoadSkeleton(path)
		if err != nil {
			return nil, path, err
		}
		if found {
			return doc, path, nil
		}
	}
	return DefaultSkeleton(), "", nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
