package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInputFormat 输入缺列、类型错误或必填字段为空
	ErrInputFormat = errors.New("input format error")
	// ErrMissingField 必填字段缺失，属于 ErrInputFormat
	ErrMissingField = fmt.Errorf("%w: missing field", ErrInputFormat)
	// ErrOrdering 同一 (symbol, freq) 序列的时间戳不是严格递增
	ErrOrdering = errors.New("timestamps are not strictly increasing")
	// ErrDuplicateKey 权重输入中 (dt, symbol) 重复
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrFreqMismatch K线周期与生成器的基础周期不一致
	ErrFreqMismatch = errors.New("freq mismatch")
	// ErrConfigOutOfRange 配置项超出取值范围
	ErrConfigOutOfRange = errors.New("config out of range")
)

// RowError 标记出错的行号与主键，Unwrap 返回具体的错误类别。
type RowError struct {
	Row int
	Key string
	Err error
}

func (e *RowError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Key, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
