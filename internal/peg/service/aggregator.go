package service

// PointInput 保存请求中的一个价格点
type PointInput struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Channel string  `json:"channel"`
	URL     string  `json:"url"`
	Price   float64 `json:"price"`
	Qty     int     `json:"qty"`
	Weight  float64 `json:"weight"`
}

// ModifierInput 保存请求中的一个修正项
type ModifierInput struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// AggregateResult 聚合计算结果
type AggregateResult struct {
	BasePrice     float64 `json:"base_price"`
	RawAverage    float64 `json:"raw_average"`
	ModifierTotal float64 `json:"modifier_total"`
	AdjustedPrice float64 `json:"adjusted_price"`
}

// Aggregate 计算加权peg价格。
// weight <= 0 的点按权重1参与（不剔除）；没有任何点时全部结果为0，
// 读端永远能渲染出一个数字。
func Aggregate(points []PointInput, modifiers []ModifierInput) AggregateResult {
	var res AggregateResult

	var weighted, totalWeight, sum float64
	for _, p := range points {
		w := p.Weight
		if w <= 0 {
			w = 1
		}
		weighted += p.Price * w
		totalWeight += w
		sum += p.Price
	}

	if totalWeight > 0 {
		res.BasePrice = weighted / totalWeight
	}
	if len(points) > 0 {
		res.RawAverage = sum / float64(len(points))
	}

	for _, m := range modifiers {
		res.ModifierTotal += m.Amount
	}
	res.AdjustedPrice = res.BasePrice + res.ModifierTotal

	return res
}

// BuyBand 由调整价与margin百分比推出买入价区间。
// margin是普通百分比（80 表示 80%），high 固定为 low 的 1.05 倍。
func BuyBand(adjustedPrice, marginPercent float64) (low, high float64) {
	low = adjustedPrice * marginPercent / 100
	high = low * 1.05
	return low, high
}
