package game

import (
	"crypto/rand"
	"math/big"
)

// RouletteSector - сектор рулетки с призом в звездах
type RouletteSector struct {
	ID          int     `json:"id"`
	PrizeStars  int64   `json:"prize_stars"`
	Probability float64 `json:"probability"` // 0.0 - 1.0
	Label       string  `json:"label"`
}

// Roulette - рулетка с фиксированной ценой вращения
type Roulette struct {
	SpinCost  int64            `json:"spin_cost"`
	Sectors   []RouletteSector `json:"sectors"`
	Result    *RouletteSector  `json:"result"`
	SpinAngle float64          `json:"spin_angle"` // финальный угол для анимации на фронтенде
}

// стандартная конфигурация секторов
func DefaultSectors() []RouletteSector {
	return []RouletteSector{
		{ID: 1, PrizeStars: 0, Probability: 0.428, Label: "пусто"},
		{ID: 2, PrizeStars: 5, Probability: 0.25, Label: "5 ⭐"},
		{ID: 3, PrizeStars: 10, Probability: 0.18, Label: "10 ⭐"},
		{ID: 4, PrizeStars: 25, Probability: 0.08, Label: "25 ⭐"},
		{ID: 5, PrizeStars: 50, Probability: 0.05, Label: "50 ⭐"},
		{ID: 6, PrizeStars: 100, Probability: 0.01, Label: "100 ⭐"},
		{ID: 7, PrizeStars: 500, Probability: 0.002, Label: "500 ⭐"},
	}
}

// создает рулетку со стандартными секторами
func NewRoulette(spinCost int64) *Roulette {
	return &Roulette{
		SpinCost: spinCost,
		Sectors:  DefaultSectors(),
	}
}

// Spin выбирает выигрышный сектор криптографически безопасным рандомом
func (r *Roulette) Spin() *RouletteSector {
	max := big.NewInt(1000000) // точность 0.000001
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		n = big.NewInt(500000)
	}

	random := float64(n.Int64()) / 1000000.0

	cumulative := 0.0
	for i := range r.Sectors {
		cumulative += r.Sectors[i].Probability
		if random < cumulative {
			r.Result = &r.Sectors[i]
			break
		}
	}

	// запасной вариант: последний сектор если вероятности не добили до 1
	if r.Result == nil {
		r.Result = &r.Sectors[len(r.Sectors)-1]
	}

	// угол для анимации: несколько полных оборотов плюс смещение внутри сектора
	sectorAngle := 360.0 / float64(len(r.Sectors))
	baseAngle := float64(r.Result.ID-1) * sectorAngle

	offsetMax := big.NewInt(int64(sectorAngle * 100))
	offsetN, _ := rand.Int(rand.Reader, offsetMax)
	offset := float64(offsetN.Int64()) / 100.0

	rotations := 5
	r.SpinAngle = float64(rotations*360) + baseAngle + offset

	return r.Result
}

// детали вращения для meta записи ledger
func (r *Roulette) ToDetails() map[string]interface{} {
	details := map[string]interface{}{
		"spin_angle": r.SpinAngle,
		"spin_cost":  r.SpinCost,
	}
	if r.Result != nil {
		details["sector_id"] = r.Result.ID
		details["prize_stars"] = r.Result.PrizeStars
		details["label"] = r.Result.Label
	}
	return details
}

// ожидаемый возврат рулетки в звездах на одно вращение
func (r *Roulette) ExpectedReturn() float64 {
	expected := 0.0
	for _, s := range r.Sectors {
		expected += s.Probability * float64(s.PrizeStars)
	}
	return expected
}
