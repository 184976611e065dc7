package service

import "errors"

var (
	// ErrNoConfig 表示尚未生成最终配置。
	ErrNoConfig = errors.New("service: config not generated, run gen first / 尚未生成配置")
	// ErrNoSelection 表示 gen 从未选择过条目。
	ErrNoSelection = errors.New("service: no descriptor selected / 尚未选择节点")
	// ErrAllSourcesFailed 表示所有订阅源都失败，未覆盖已保存的列表。
	ErrAllSourcesFailed = errors.New("service: all subscription sources failed / 全部订阅源失败")
)
