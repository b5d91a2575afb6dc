package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ezquant/czsc/czsc/model"
)

// RollingPerformance 滚动窗口 [Sdt, Edt] 内的绩效，Sdt = Edt - windowDays，与是否有数据无关
type RollingPerformance struct {
	Sdt time.Time
	Edt time.Time
	Performance
}

// RollingDailyPerformance 以每个日期为窗口终点，回看 windowDays 个自然日计算绩效，
// 前 minPeriods 个点不作为终点
func RollingDailyPerformance(points []Point, windowDays, minPeriods int, opts ...Option) ([]RollingPerformance, error) {
	if windowDays <= 0 || minPeriods < 0 {
		return nil, fmt.Errorf("%w: window=%d min_periods=%d", model.ErrConfigOutOfRange, windowDays, minPeriods)
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	vs := values(sorted)

	var out []RollingPerformance
	left := 0
	for i := minPeriods; i < len(sorted); i++ {
		edt := sorted[i].Date
		bound := edt.AddDate(0, 0, -windowDays)
		for left < i && sorted[left].Date.Before(bound) {
			left++
		}
		out = append(out, RollingPerformance{
			Sdt:         bound,
			Edt:         edt,
			Performance: dailyPerformance(vs[left:i+1], o),
		})
	}
	return out, nil
}
