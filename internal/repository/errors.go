package repository

import "errors"

var (
	// ErrNotFound 表示按序号或名称未找到条目。
	ErrNotFound = errors.New("descriptor not found")
	// ErrNoSnapshot 表示尚未执行过 fetch。
	ErrNoSnapshot = errors.New("no subscription snapshot stored, run fetch first")
)
