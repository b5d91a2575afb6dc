package czsc

import (
	"sort"

	"github.com/ezquant/czsc/czsc/model"
)

// SignalsFunc 每次 Update 之后调用，返回的信号写入引擎的信号缓存
type SignalsFunc func(c *CZSC) []model.Signal

// SignalCache 按 SignalKey 存放最新的信号值，归属于单个引擎
type SignalCache struct {
	values map[model.SignalKey]model.Signal
}

func NewSignalCache() *SignalCache {
	return &SignalCache{values: map[model.SignalKey]model.Signal{}}
}

func (s *SignalCache) Set(sig model.Signal) {
	s.values[sig.Key] = sig
}

func (s *SignalCache) Get(key model.SignalKey) (model.Signal, bool) {
	sig, ok := s.values[key]
	return sig, ok
}

func (s *SignalCache) Delete(key model.SignalKey) {
	delete(s.values, key)
}

func (s *SignalCache) Len() int {
	return len(s.values)
}

// Match 缓存中同键的信号是否命中 want
func (s *SignalCache) Match(want model.Signal) bool {
	got, ok := s.values[want.Key]
	return ok && want.Match(got)
}

// All 按键排序返回全部信号
func (s *SignalCache) All() []model.Signal {
	out := make([]model.Signal, 0, len(s.values))
	for _, sig := range s.values {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
