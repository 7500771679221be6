package game

import (
	"math"
	"testing"
)

func TestDefaultSectors_ProbabilityMass(t *testing.T) {
	total := 0.0
	for _, s := range DefaultSectors() {
		if s.Probability <= 0 {
			t.Fatalf("сектор %d с неположительной вероятностью", s.ID)
		}
		total += s.Probability
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("вероятности должны давать 1.0, получили %v", total)
	}
}

func TestSpin_AlwaysReturnsSector(t *testing.T) {
	r := NewRoulette(10)
	for i := 0; i < 1000; i++ {
		r.Result = nil
		sector := r.Spin()
		if sector == nil {
			t.Fatalf("Spin обязан вернуть сектор")
		}
		if sector.PrizeStars < 0 {
			t.Fatalf("приз не может быть отрицательным")
		}
		if r.SpinAngle < 5*360 {
			t.Fatalf("угол должен включать минимум 5 оборотов, получили %v", r.SpinAngle)
		}
	}
}

func TestExpectedReturn_BelowSpinCost(t *testing.T) {
	r := NewRoulette(10)
	// рулетка не должна быть планово убыточной для платформы
	if er := r.ExpectedReturn(); er >= float64(r.SpinCost) {
		t.Fatalf("ожидаемый возврат %v не должен превышать цену вращения %d", er, r.SpinCost)
	}
}

func TestToDetails(t *testing.T) {
	r := NewRoulette(10)
	r.Spin()

	details := r.ToDetails()
	if _, ok := details["sector_id"]; !ok {
		t.Fatalf("в деталях должен быть sector_id")
	}
	if details["spin_cost"] != int64(10) {
		t.Fatalf("в деталях должна быть цена вращения")
	}
}
