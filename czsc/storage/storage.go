// Package storage 把回测结果保存到 sqlite。
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run 一次回测的参数与主要指标
type Run struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string `gorm:"index"`
	Digest    string `gorm:"index"`

	Digits     int
	FeeRate    float64
	WeightType string
	YearlyDays int

	Symbols        int
	StartDate      time.Time
	EndDate        time.Time
	AbsoluteReturn float64
	AnnualReturn   float64
	Sharpe         float64
	MaxDrawdown    float64
	Calmar         float64
	Trades         int
	PairPnl        float64
	PairWinRate    float64
}

type PairRecord struct {
	ID         uint `gorm:"primaryKey"`
	RunID      uint `gorm:"index"`
	Symbol     string
	Direction  string
	OpenDt     time.Time
	CloseDt    time.Time
	OpenPrice  float64
	ClosePrice float64
	BarCount   int
	EventSeq   string
	HoldDays   int
	PnlBp      float64
	Open       bool
}

type DailyRecord struct {
	ID    uint      `gorm:"primaryKey"`
	RunID uint      `gorm:"index"`
	Date  time.Time `gorm:"index"`
	Total float64
	Long  float64
	Short float64
}

type Storage struct {
	db *gorm.DB
}

// FromFile 打开（或创建）sqlite 文件
func FromFile(path string) (*Storage, error) {
	return open(sqlite.Open(path))
}

// FromMemory 内存数据库，进程退出即丢弃
func FromMemory() (*Storage, error) {
	return open(sqlite.Open(":memory:"))
}

func open(dialector gorm.Dialector) (*Storage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 内存库按连接隔离
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &PairRecord{}, &DailyRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun 在一个事务里保存回测概要、交易对与日收益
func (s *Storage) SaveRun(name, digest string, res *backtest.Result) (*Run, error) {
	if res == nil {
		return nil, errors.New("result cannot be nil")
	}
	st := res.Stats
	run := &Run{
		Name:           name,
		Digest:         digest,
		Digits:         res.Options.Digits,
		FeeRate:        res.Options.FeeRate,
		WeightType:     res.Options.WeightType,
		YearlyDays:     res.Options.YearlyDays,
		Symbols:        st.Symbols,
		StartDate:      st.StartDate,
		EndDate:        st.EndDate,
		AbsoluteReturn: st.AbsoluteReturn,
		AnnualReturn:   st.AnnualReturn,
		Sharpe:         st.Sharpe,
		MaxDrawdown:    st.MaxDrawdown,
		Calmar:         st.Calmar,
		Trades:         st.Trades,
		PairPnl:        st.PairPnl,
		PairWinRate:    st.PairWinRate,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		pairs := lo.Map(res.Pairs, func(p backtest.Pair, _ int) PairRecord {
			return PairRecord{
				RunID: run.ID, Symbol: p.Symbol, Direction: p.Direction,
				OpenDt: p.OpenDt, CloseDt: p.CloseDt, OpenPrice: p.OpenPrice, ClosePrice: p.ClosePrice,
				BarCount: p.BarCount, EventSeq: p.EventSeq, HoldDays: p.HoldDays, PnlBp: p.PnlBp, Open: p.Open,
			}
		})
		if len(pairs) > 0 {
			if err := tx.CreateInBatches(pairs, 500).Error; err != nil {
				return err
			}
		}
		daily := lo.Map(res.DailyReturns, func(d backtest.DailyReturn, _ int) DailyRecord {
			return DailyRecord{RunID: run.ID, Date: d.Date, Total: d.Total, Long: d.Long, Short: d.Short}
		})
		if len(daily) > 0 {
			return tx.CreateInBatches(daily, 500).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("保存回测结果失败: %w", err)
	}
	return run, nil
}

// Runs 按创建顺序返回全部回测
func (s *Storage) Runs() ([]Run, error) {
	var runs []Run
	err := s.db.Order("id").Find(&runs).Error
	return runs, err
}

// FindRun 按输入摘要查找最近一次回测，不存在时返回 nil, nil
func (s *Storage) FindRun(digest string) (*Run, error) {
	var run Run
	err := s.db.Where("digest = ?", digest).Order("id desc").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Storage) Pairs(runID uint) ([]backtest.Pair, error) {
	var records []PairRecord
	if err := s.db.Where("run_id = ?", runID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return lo.Map(records, func(r PairRecord, _ int) backtest.Pair {
		return backtest.Pair{
			Symbol: r.Symbol, Direction: r.Direction, OpenDt: r.OpenDt, CloseDt: r.CloseDt,
			OpenPrice: r.OpenPrice, ClosePrice: r.ClosePrice, BarCount: r.BarCount,
			EventSeq: r.EventSeq, HoldDays: r.HoldDays, PnlBp: r.PnlBp, Open: r.Open,
		}
	}), nil
}

// DailyReturns 组合日收益，不含分品种明细
func (s *Storage) DailyReturns(runID uint) ([]backtest.DailyReturn, error) {
	var records []DailyRecord
	if err := s.db.Where("run_id = ?", runID).Order("date").Find(&records).Error; err != nil {
		return nil, err
	}
	return lo.Map(records, func(r DailyRecord, _ int) backtest.DailyReturn {
		return backtest.DailyReturn{Date: r.Date, Total: r.Total, Long: r.Long, Short: r.Short}
	}), nil
}

// DeleteRun 删除回测及其明细
func (s *Storage) DeleteRun(runID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&PairRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", runID).Delete(&DailyRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Run{}, runID).Error
	})
}
