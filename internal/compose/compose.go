// Package compose merges a selected outbound into a skeleton engine configuration.
package compose

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

var (
	// ErrMissingOutboundSlot 表示骨架中没有可替换的 outbounds[0]。
	ErrMissingOutboundSlot = errors.New("skeleton has no outbound slot")
	ErrInvalidSkeleton     = errors.New("skeleton is not valid JSON")
)

const slotPath = "outbounds.0"

// Compose 将描述写入骨架的第一个 outbound 位置并返回新文档。
// 输入的 skeleton 不会被修改，其余字段原样保留。
func Compose(skeleton []byte, d outbound.Descriptor) ([]byte, error) {
	if !gjson.ValidBytes(skeleton) {
		return nil, ErrInvalidSkeleton
	}
	outbounds := gjson.GetBytes(skeleton, "outbounds")
	if !outbounds.IsArray() || len(outbounds.Array()) == 0 {
		return nil, ErrMissingOutboundSlot
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode outbound: %w", err)
	}

	doc := make([]byte, len(skeleton))
	copy(doc, skeleton)
	doc, err = sjson.SetRawBytes(doc, slotPath, raw)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", slotPath, err)
	}
	return pretty.Pretty(doc), nil
}

// SelectedOutbound returns the raw JSON of the composed slot, or "" if absent.
func SelectedOutbound(config []byte) string {
	return gjson.GetBytes(config, slotPath).Raw
}
