package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ezquant/czsc/czsc"
	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/calendar"
	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/dataio"
	"github.com/ezquant/czsc/czsc/generator"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/plus/localkv"
	"github.com/ezquant/czsc/czsc/plus/models"
	"github.com/ezquant/czsc/czsc/storage"
	"github.com/ezquant/czsc/czsc/tools/log"
	"github.com/ezquant/czsc/examples/backtesting"
	"github.com/ezquant/czsc/examples/optimizer"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:     "czsc",
		HelpName: "czsc",
		Usage:    "缠论K线分析与权重回测",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "eg. ./.env",
			},
		},
		Before: func(c *cli.Context) error {
			if env := c.String("env"); env != "" {
				return config.LoadDotEnv(env)
			}
			return config.LoadDotEnv()
		},
		Commands: []*cli.Command{
			{
				Name:     "analyze",
				HelpName: "analyze",
				Usage:    "识别分型与笔",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "eg. ./000001.SH-1m.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "freq",
						Aliases: []string{"f"},
						Usage:   "先合成到该周期再分析, eg. 30分钟",
					},
					&cli.StringFlag{
						Name:    "market",
						Aliases: []string{"m"},
						Usage:   "ashare|futures|crypto, 默认根据K线时间推断",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "eg. ./czsc.yml",
					},
				},
				Action: analyze,
			},
			{
				Name:     "resample",
				HelpName: "resample",
				Usage:    "把低级别K线合成为高级别K线",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "freq",
						Aliases:  []string{"f"},
						Usage:    "eg. 日线",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "eg. ./000001.SH-1d.parquet",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "market",
						Aliases: []string{"m"},
					},
				},
				Action: resample,
			},
			{
				Name:     "backtest",
				HelpName: "backtest",
				Usage:    "回测持仓权重，或用策略回放K线后回测",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "策略配置, eg. ./user_data/bi_follow.yml",
					},
					&cli.StringFlag{
						Name:    "bars",
						Aliases: []string{"b"},
						Usage:   "基础周期K线文件，需要同时指定 --config",
					},
					&cli.StringFlag{
						Name:    "weights",
						Aliases: []string{"w"},
						Usage:   "持仓权重文件 (dt,symbol,weight,price)",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "保存结果的 sqlite 文件, eg. ./user_data/czsc.db",
					},
					&cli.StringFlag{
						Name:  "cache",
						Usage: "缓存目录, eg. ./user_data/cache",
					},
					&cli.StringFlag{
						Name:  "pairs",
						Usage: "交易对输出文件 (csv|parquet)",
					},
					&cli.StringFlag{
						Name:  "daily",
						Usage: "日收益输出文件 (csv|parquet)",
					},
				},
				Action: runBacktest,
			},
			{
				Name:     "optimize",
				HelpName: "optimize",
				Usage:    "在参数网格上回测策略，输出最优参数",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "bars",
						Aliases:  []string{"b"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "top",
						Value: 5,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "保存最优参数, eg. ./user_data/bi_follow_optimized.yml",
					},
				},
				Action: optimize,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := log.Configure(cfg.LogLevel, cfg.LogJSON); err != nil {
		return nil, err
	}
	return cfg, nil
}

func format(path string) (dataio.Format, error) {
	f := dataio.FormatOf(path)
	if f == nil {
		return nil, fmt.Errorf("不支持的文件格式: %s (使用 csv 或 parquet)", path)
	}
	return f, nil
}

func readBars(path string) ([]model.RawBar, error) {
	f, err := format(path)
	if err != nil {
		return nil, err
	}
	return f.ReadBars(path)
}

func market(name string, bars []model.RawBar) (calendar.Market, error) {
	if name != "" {
		return calendar.ParseMarket(name)
	}
	return calendar.InferMarket(lo.Map(bars, func(b model.RawBar, _ int) time.Time { return b.Dt })), nil
}

// resampleTo 合成到目标周期，target 为空时原样返回
func resampleTo(bars []model.RawBar, target, marketName string) ([]model.RawBar, error) {
	if target == "" || len(bars) == 0 {
		return bars, nil
	}
	f, err := model.ParseFreq(target)
	if err != nil {
		return nil, err
	}
	m, err := market(marketName, bars)
	if err != nil {
		return nil, err
	}
	return generator.ResampleBars(bars, f, m)
}

func analyze(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	bars, err := readBars(c.String("input"))
	if err != nil {
		return err
	}
	if bars, err = resampleTo(bars, c.String("freq"), c.String("market")); err != nil {
		return err
	}

	engine, err := czsc.NewCZSC(bars, czsc.WithConfig(*cfg))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"方向", "开始", "结束", "高", "低", "长度", "涨跌幅", "R²"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, bi := range engine.BiList() {
		table.Append([]string{
			bi.Direction.String(),
			bi.Sdt().Format("2006-01-02 15:04"),
			bi.Edt().Format("2006-01-02 15:04"),
			strconv.FormatFloat(bi.High(), 'f', -1, 64),
			strconv.FormatFloat(bi.Low(), 'f', -1, 64),
			strconv.Itoa(bi.Length()),
			fmt.Sprintf("%.2f %%", bi.Change()*100),
			fmt.Sprintf("%.2f", bi.Rsq()),
		})
	}
	table.Render()

	fmt.Printf("%s %s: K线 %d, 无包含K线 %d, 分型 %d, 笔 %d\n",
		engine.Symbol(), engine.Freq(), len(bars), len(engine.BarsUBI()), len(engine.FxList()), len(engine.BiList()))
	if ubi, ok := engine.UBI(); ok {
		fmt.Printf("未完成笔: %s, 高 %v, 低 %v, K线 %d\n", ubi.Direction, ubi.High, ubi.Low, len(ubi.RawBars))
	}
	return nil
}

func resample(c *cli.Context) error {
	bars, err := readBars(c.String("input"))
	if err != nil {
		return err
	}
	out, err := resampleTo(bars, c.String("freq"), c.String("market"))
	if err != nil {
		return err
	}
	f, err := format(c.String("output"))
	if err != nil {
		return err
	}
	if err := f.WriteBars(c.String("output"), out); err != nil {
		return err
	}
	log.Infof("resampled %d bars into %d %s bars", len(bars), len(out), c.String("freq"))
	return nil
}

func runBacktest(c *cli.Context) error {
	var options []backtesting.Option
	if path := c.String("db"); path != "" {
		db, err := storage.FromFile(path)
		if err != nil {
			return err
		}
		defer db.Close()
		options = append(options, backtesting.WithStorage(db))
	}
	if dir := c.String("cache"); dir != "" {
		kv, err := localkv.NewLocalKV(&dir)
		if err != nil {
			return err
		}
		defer kv.Close()
		options = append(options, backtesting.WithCache(kv))
	}

	var (
		res *backtest.Result
		err error
	)
	switch {
	case c.String("weights") != "":
		res, err = backtestWeights(c, options)
	case c.String("bars") != "" && c.String("config") != "":
		res, err = backtestStrategy(c, options)
	default:
		return fmt.Errorf("需要 --weights，或同时指定 --bars 与 --config")
	}
	if err != nil {
		return err
	}

	res.Summary(os.Stdout)
	if path := c.String("pairs"); path != "" {
		f, err := format(path)
		if err != nil {
			return err
		}
		if err := f.WritePairs(path, res.Pairs); err != nil {
			return err
		}
	}
	if path := c.String("daily"); path != "" {
		f, err := format(path)
		if err != nil {
			return err
		}
		if err := f.WriteDaily(path, res.DailyReturns); err != nil {
			return err
		}
	}
	return nil
}

func backtestWeights(c *cli.Context, options []backtesting.Option) (*backtest.Result, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	path := c.String("weights")
	f, err := format(path)
	if err != nil {
		return nil, err
	}
	rows, err := f.ReadWeights(path)
	if err != nil {
		return nil, err
	}
	return backtesting.Evaluate(path, rows, backtest.OptionsFromConfig(*cfg), options...)
}

func backtestStrategy(c *cli.Context, options []backtesting.Option) (*backtest.Result, error) {
	strategyConfig, err := models.ReadStrategyConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}
	if err := log.Configure(strategyConfig.Backtest.LogLevel, strategyConfig.Backtest.LogJSON); err != nil {
		return nil, err
	}
	bars, err := readBars(c.String("bars"))
	if err != nil {
		return nil, err
	}
	options = append(options, backtesting.WithProgress(true))
	return backtesting.Run(c.Context, strategyConfig, bars, options...)
}

func optimize(c *cli.Context) error {
	strategyConfig, err := models.ReadStrategyConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}
	if err := log.Configure(strategyConfig.Backtest.LogLevel, strategyConfig.Backtest.LogJSON); err != nil {
		return err
	}
	bars, err := readBars(c.String("bars"))
	if err != nil {
		return err
	}

	o := optimizer.NewOptimizer(strategyConfig, bars, optimizer.WithWorkers(c.Int("workers")))
	results, err := o.Optimize(c.Context)
	if err != nil {
		return err
	}
	optimizer.PrintTop(os.Stdout, results, c.Int("top"))

	if path := c.String("output"); path != "" {
		if err := o.Best(results).Save(path); err != nil {
			return fmt.Errorf("保存优化后的配置失败: %w", err)
		}
		log.Infof("优化后的配置已保存到: %s", path)
	}
	return nil
}
