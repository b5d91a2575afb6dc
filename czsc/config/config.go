package config

// 配置层
//
// 读取顺序：默认值 -> YAML 文件 -> .env（可选）-> 环境变量（前缀 CZSC_）-> Validate。
// 引擎与回测只接收 Config 值，不直接读取环境变量。
//
// 环境变量：
//   CZSC_MIN_BI_LEN=6
//   CZSC_CHANGE_TH=-1            # <= 0 表示不启用
//   CZSC_MAX_BI_NUM=50
//   CZSC_MAX_COUNT=5000
//   CZSC_DIGITS=2
//   CZSC_FEE_RATE=0.0002
//   CZSC_WEIGHT_TYPE=ts          # ts|cs
//   CZSC_YEARLY_DAYS=252
//   CZSC_INCLUDE_OPEN_PAIRS=true
//   CZSC_LOG_LEVEL=info
//   CZSC_LOG_JSON=false
//
// 无法解析的环境变量值使 Load 返回 ErrInputFormat，不会静默回退到默认值。
//
// 示例 YAML：
// ---
// min_bi_len: 6
// max_bi_num: 50
// fee_rate: 0.0002
// weight_type: ts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "CZSC_"

const (
	WeightTypeTS = "ts"
	WeightTypeCS = "cs"
)

// Config 全部可识别的配置项，未知字段在解析时直接报错
type Config struct {
	MinBiLen         int     `yaml:"min_bi_len"`         // 成笔最少无包含K线数（含首尾分型）
	ChangeTh         float64 `yaml:"change_th"`          // 成笔最小涨跌幅，<= 0 不启用
	MaxBiNum         int     `yaml:"max_bi_num"`         // 最多保留的笔数量
	MaxCount         int     `yaml:"max_count"`          // K线生成器每个周期保留的K线数量
	Digits           int     `yaml:"digits"`             // 权重保留小数位
	FeeRate          float64 `yaml:"fee_rate"`           // 单边换手费率
	WeightType       string  `yaml:"weight_type"`        // ts|cs
	YearlyDays       int     `yaml:"yearly_days"`        // 年化天数
	IncludeOpenPairs bool    `yaml:"include_open_pairs"` // 是否在交易对中列出未平仓的最后一笔
	LogLevel         string  `yaml:"log_level"`          // debug|info|warn|error
	LogJSON          bool    `yaml:"log_json"`
}

var defaults = Config{
	MinBiLen:         6,
	ChangeTh:         -1,
	MaxBiNum:         50,
	MaxCount:         5000,
	Digits:           2,
	FeeRate:          0.0002,
	WeightType:       WeightTypeTS,
	YearlyDays:       252,
	IncludeOpenPairs: true,
	LogLevel:         "info",
}

// Default 返回默认配置的副本
func Default() Config {
	return defaults
}

// Load 读取 YAML 配置文件，path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := c.decode(b); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Parse 从字节解析配置，不读取环境变量
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := c.decode(b); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: 解析 YAML 失败: %v", model.ErrInputFormat, err)
	}
	return nil
}

// LoadDotEnv 把 .env 文件中的变量加载到进程环境，文件不存在时忽略
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	var errs []string
	if c.MinBiLen < 3 {
		errs = append(errs, fmt.Sprintf("min_bi_len 必须 >= 3，当前 %d", c.MinBiLen))
	}
	if c.MaxBiNum <= 0 {
		errs = append(errs, fmt.Sprintf("max_bi_num 必须 > 0，当前 %d", c.MaxBiNum))
	}
	if c.MaxCount <= 0 {
		errs = append(errs, fmt.Sprintf("max_count 必须 > 0，当前 %d", c.MaxCount))
	}
	if c.Digits < 0 || c.Digits > 8 {
		errs = append(errs, fmt.Sprintf("digits 必须在 [0, 8] 之间，当前 %d", c.Digits))
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("fee_rate 必须在 [0, 1) 之间，当前 %v", c.FeeRate))
	}
	if c.WeightType != WeightTypeTS && c.WeightType != WeightTypeCS {
		errs = append(errs, fmt.Sprintf("weight_type 只能是 ts 或 cs，当前 %q", c.WeightType))
	}
	if c.YearlyDays <= 0 {
		errs = append(errs, fmt.Sprintf("yearly_days 必须 > 0，当前 %d", c.YearlyDays))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", model.ErrConfigOutOfRange, strings.Join(errs, "; "))
	}
	return nil
}

// ChangeThEnabled 是否启用成笔涨跌幅阈值
func (c Config) ChangeThEnabled() bool {
	return c.ChangeTh > 0
}

// applyEnv 用环境变量覆盖配置，无法解析的值返回 ErrInputFormat
func (c *Config) applyEnv(prefix string) error {
	r := &envReader{prefix: prefix}
	c.MinBiLen = r.getInt("MIN_BI_LEN", c.MinBiLen)
	c.ChangeTh = r.getFloat("CHANGE_TH", c.ChangeTh)
	c.MaxBiNum = r.getInt("MAX_BI_NUM", c.MaxBiNum)
	c.MaxCount = r.getInt("MAX_COUNT", c.MaxCount)
	c.Digits = r.getInt("DIGITS", c.Digits)
	c.FeeRate = r.getFloat("FEE_RATE", c.FeeRate)
	c.WeightType = strings.ToLower(r.getStr("WEIGHT_TYPE", c.WeightType))
	c.YearlyDays = r.getInt("YEARLY_DAYS", c.YearlyDays)
	c.IncludeOpenPairs = r.getBool("INCLUDE_OPEN_PAIRS", c.IncludeOpenPairs)
	c.LogLevel = r.getStr("LOG_LEVEL", c.LogLevel)
	c.LogJSON = r.getBool("LOG_JSON", c.LogJSON)
	if len(r.bad) > 0 {
		return fmt.Errorf("%w: 环境变量无法解析: %s", model.ErrInputFormat, strings.Join(r.bad, "; "))
	}
	return nil
}

type envReader struct {
	prefix string
	bad    []string
}

func (r *envReader) lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(r.prefix + name))
	return v, v != ""
}

func (r *envReader) fail(name, v string) {
	r.bad = append(r.bad, fmt.Sprintf("%s%s=%q", r.prefix, name, v))
}

func (r *envReader) getStr(name, cur string) string {
	if v, ok := r.lookup(name); ok {
		return v
	}
	return cur
}

func (r *envReader) getInt(name string, cur int) int {
	v, ok := r.lookup(name)
	if !ok {
		return cur
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, v)
		return cur
	}
	return n
}

func (r *envReader) getFloat(name string, cur float64) float64 {
	v, ok := r.lookup(name)
	if !ok {
		return cur
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(name, v)
		return cur
	}
	return f
}

func (r *envReader) getBool(name string, cur bool) bool {
	v, ok := r.lookup(name)
	if !ok {
		return cur
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(name, v)
		return cur
	}
	return b
}
