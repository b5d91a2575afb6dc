package backtest

import (
	"math"
	"strings"
	"time"

	"github.com/ezquant/czsc/czsc/metrics"
)

const (
	Long  = "多头"
	Short = "空头"
)

// Pair 一次完整的开平仓
type Pair struct {
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

	// Open 序列结束时仍未平仓，CloseDt/ClosePrice 取最后一行，不参与统计
	Open bool
}

type lot struct {
	qty   int64
	price float64
}

// position 持仓中的交易对，权重按 10^-digits 拆成整数手，减仓时后进先出
type position struct {
	dir       int64
	openIdx   int
	open      row
	lots      []lot
	events    []string
	realized  float64 // Σ q·dir·(pc/po − 1)
	closedQty int64
}

func (p *position) qty() int64 {
	var n int64
	for _, l := range p.lots {
		n += l.qty
	}
	return n
}

func (p *position) event(action string) {
	side := "多"
	if p.dir < 0 {
		side = "空"
	}
	p.events = append(p.events, action+side)
}

// reduce 按后进先出平掉 n 手
func (p *position) reduce(n int64, price float64) {
	for n > 0 && len(p.lots) > 0 {
		last := &p.lots[len(p.lots)-1]
		q := min(n, last.qty)
		p.realized += float64(q*p.dir) * (price/last.price - 1)
		p.closedQty += q
		last.qty -= q
		n -= q
		if last.qty == 0 {
			p.lots = p.lots[:len(p.lots)-1]
		}
	}
}

func (p *position) finish(symbol string, idx int, r row, fee float64, open bool) Pair {
	dir := Long
	if p.dir < 0 {
		dir = Short
	}
	var pnl float64
	if p.closedQty > 0 {
		pnl = p.realized/float64(p.closedQty)*10000 - 2*fee*10000
	}
	return Pair{
		Symbol:     symbol,
		Direction:  dir,
		OpenDt:     p.open.Dt,
		CloseDt:    r.Dt,
		OpenPrice:  p.open.Price,
		ClosePrice: r.Price,
		BarCount:   idx - p.openIdx + 1,
		EventSeq:   strings.Join(p.events, " -> "),
		HoldDays:   int(r.Dt.Sub(p.open.Dt).Hours() / 24),
		PnlBp:      metrics.Round(pnl, 2),
		Open:       open,
	}
}

func sign(x int64) int64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// extractPairs 权重由 0 变为非 0 时开仓，回到 0 或反向时平仓，反向同时开出新的交易对
func extractPairs(symbol string, rows []row, digits int, fee float64) []Pair {
	scale := math.Pow10(digits)
	var (
		out []Pair
		pos *position
	)
	for i, r := range rows {
		target := int64(math.Round(r.Weight * scale))

		if pos != nil && sign(target) != pos.dir {
			pos.reduce(pos.qty(), r.Price)
			pos.event("平")
			out = append(out, pos.finish(symbol, i, r, fee, false))
			pos = nil
		}
		if target == 0 {
			continue
		}

		size := target * sign(target)
		if pos == nil {
			pos = &position{dir: sign(target), openIdx: i, open: r, lots: []lot{{qty: size, price: r.Price}}}
			pos.event("开")
			continue
		}
		switch held := pos.qty(); {
		case size > held:
			pos.lots = append(pos.lots, lot{qty: size - held, price: r.Price})
			pos.event("加")
		case size < held:
			pos.reduce(held-size, r.Price)
			pos.event("减")
		}
	}
	if pos != nil {
		last := rows[len(rows)-1]
		pos.reduce(pos.qty(), last.Price)
		out = append(out, pos.finish(symbol, len(rows)-1, last, fee, true))
	}
	return out
}
