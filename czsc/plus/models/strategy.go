// Package models 策略参数文件。
package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type Parameter struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type,omitempty"`
	Default interface{} `yaml:"default"`
	Min     interface{} `yaml:"min,omitempty"`
	Max     interface{} `yaml:"max,omitempty"`
	Step    interface{} `yaml:"step,omitempty"`
}

// StrategyConfig 策略名称、周期、参数与回测配置
//
//	strategy: bi_follow
//	base: 1分钟
//	freqs: [30分钟]
//	parameters:
//	  - name: sma_period
//	    type: int
//	    default: 20
//	backtest:
//	  fee_rate: 0.0002
type StrategyConfig struct {
	Strategy   string        `yaml:"strategy"`
	Base       model.Freq    `yaml:"base"`
	Freqs      []model.Freq  `yaml:"freqs"`
	Parameters []Parameter   `yaml:"parameters"`
	Backtest   config.Config `yaml:"backtest"`
}

// ReadStrategyConfig 读取策略配置文件，backtest 中未写的项取默认值
func ReadStrategyConfig(path string) (*StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseStrategyConfig(data)
}

func ParseStrategyConfig(data []byte) (*StrategyConfig, error) {
	c := &StrategyConfig{Base: model.F1, Backtest: config.Default()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: 解析策略配置失败: %v", model.ErrInputFormat, err)
	}
	if c.Strategy == "" {
		return nil, fmt.Errorf("%w: strategy", model.ErrMissingField)
	}
	if err := c.Backtest.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *StrategyConfig) param(name string) (Parameter, bool) {
	return lo.Find(c.Parameters, func(p Parameter) bool { return p.Name == name })
}

// Int 取整数参数，不存在或类型不符时返回 def
func (c *StrategyConfig) Int(name string, def int) int {
	p, ok := c.param(name)
	if !ok {
		return def
	}
	switch v := p.Default.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func (c *StrategyConfig) Float(name string, def float64) float64 {
	p, ok := c.param(name)
	if !ok {
		return def
	}
	switch v := p.Default.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (c *StrategyConfig) Bool(name string, def bool) bool {
	p, ok := c.param(name)
	if !ok {
		return def
	}
	if v, ok := p.Default.(bool); ok {
		return v
	}
	return def
}

// Save 写回 YAML，参数优化后保存最优配置
func (c *StrategyConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
