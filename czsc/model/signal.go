package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SignalKey 信号的键，由三段组成：k1 通常为周期，k2 为参数，k3 为信号名
type SignalKey struct {
	K1, K2, K3 string
}

func (k SignalKey) String() string {
	return k.K1 + "_" + k.K2 + "_" + k.K3
}

// Signal 信号，文本形式为 k1_k2_k3_v1_v2_v3_score
type Signal struct {
	Key   SignalKey
	V1    string
	V2    string
	V3    string
	Score int
}

const anyValue = "任意"

// NewSignal v2/v3 为空时填充“任意”
func NewSignal(key SignalKey, v1, v2, v3 string, score int) Signal {
	if v1 == "" {
		v1 = anyValue
	}
	if v2 == "" {
		v2 = anyValue
	}
	if v3 == "" {
		v3 = anyValue
	}
	return Signal{Key: key, V1: v1, V2: v2, V3: v3, Score: score}
}

func (s Signal) Value() string {
	return fmt.Sprintf("%s_%s_%s_%d", s.V1, s.V2, s.V3, s.Score)
}

func (s Signal) String() string {
	return s.Key.String() + "_" + s.Value()
}

// Match 判断 other 是否命中 s，“任意”可以匹配任何值，分数要求 other.Score >= s.Score
func (s Signal) Match(other Signal) bool {
	if s.Key != other.Key {
		return false
	}
	for _, pair := range [][2]string{{s.V1, other.V1}, {s.V2, other.V2}, {s.V3, other.V3}} {
		if pair[0] != anyValue && pair[0] != pair[1] {
			return false
		}
	}
	return other.Score >= s.Score
}

// ParseSignal 解析 k1_k2_k3_v1_v2_v3_score 形式的信号
func ParseSignal(s string) (Signal, error) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 7 {
		return Signal{}, fmt.Errorf("%w: signal %q must have 7 parts", ErrInputFormat, s)
	}
	score, err := strconv.Atoi(parts[6])
	if err != nil {
		return Signal{}, fmt.Errorf("%w: signal score %q: %v", ErrInputFormat, parts[6], err)
	}
	if score < 0 || score > 100 {
		return Signal{}, fmt.Errorf("%w: signal score %d not in [0, 100]", ErrInputFormat, score)
	}
	return Signal{
		Key:   SignalKey{K1: parts[0], K2: parts[1], K3: parts[2]},
		V1:    parts[3],
		V2:    parts[4],
		V3:    parts[5],
		Score: score,
	}, nil
}
