package tools

import (
	"math"

	"github.com/ezquant/czsc/czsc"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/samber/lo"
)

// Condition 在每根基础周期K线后求值
type Condition func(t *czsc.Trader) bool

type WeightCondition struct {
	Condition Condition
	Weight    float64
	Once      bool
}

// Scheduler 按条件切换目标权重，实现 czsc.Strategy。
// 同一根K线上多个条件成立时以最后注册的为准，都不成立时保持上一次的权重。
type Scheduler struct {
	freqs      []model.Freq
	conditions []WeightCondition
	weight     float64
}

func NewScheduler(freqs ...model.Freq) *Scheduler {
	return &Scheduler{freqs: freqs}
}

// When 条件成立时把目标权重设为 weight；once 为 true 时触发一次后移除
func (s *Scheduler) When(weight float64, condition Condition, once bool) {
	s.conditions = append(s.conditions, WeightCondition{Condition: condition, Weight: weight, Once: once})
}

func (s *Scheduler) LongWhen(weight float64, condition Condition) {
	s.When(math.Abs(weight), condition, false)
}

func (s *Scheduler) ShortWhen(weight float64, condition Condition) {
	s.When(-math.Abs(weight), condition, false)
}

func (s *Scheduler) FlatWhen(condition Condition) {
	s.When(0, condition, false)
}

func (s *Scheduler) Freqs() []model.Freq {
	return s.freqs
}

func (s *Scheduler) OnBar(t *czsc.Trader) float64 {
	s.conditions = lo.Filter(s.conditions, func(wc WeightCondition, _ int) bool {
		if wc.Condition(t) {
			s.weight = wc.Weight
			return !wc.Once
		}
		return true
	})
	return s.weight
}

// Pending 尚未移除的条件数量
func (s *Scheduler) Pending() int {
	return len(s.conditions)
}

// SignalIs 指定周期的信号缓存中存在匹配 want 的信号
func SignalIs(freq model.Freq, want model.Signal) Condition {
	return func(t *czsc.Trader) bool {
		c := t.CZSC(freq)
		return c != nil && c.Signals().Match(want)
	}
}

// LastBiIs 指定周期最后一笔的方向
func LastBiIs(freq model.Freq, dir model.Direction) Condition {
	return func(t *czsc.Trader) bool {
		c := t.CZSC(freq)
		if c == nil {
			return false
		}
		bis := c.BiList()
		return len(bis) > 0 && bis[len(bis)-1].Direction == dir
	}
}
