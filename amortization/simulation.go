package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Display conventions for the three scenarios.
const (
	BaseScenarioName = "Base Payment"

	ColorBlue   = "#3B82F6"
	ColorGreen  = "#22C55E"
	ColorOrange = "#F97316"
)

// SimulationName labels an extra-payment scenario with its amount.
func SimulationName(extra decimal.Decimal) string {
	return fmt.Sprintf("+%s Extra", extra.StringFixed(2))
}

// Simulate evaluates the base plan and both extra-payment simulations.
// The base payment is computed once and shared; each scenario is
// scheduled independently, so scenarios with the same extra amount are
// identical apart from name and color.
func Simulate(in LoanInput) (SimulationResult, error) {
	if err := in.Validate(); err != nil {
		return SimulationResult{}, err
	}

	rate := in.MonthlyRate()
	basePayment := MonthlyPayment(in.Principal, rate, in.TermInMonths())

	params := func(extra decimal.Decimal, name, color string) ScenarioParams {
		return ScenarioParams{
			Principal:    in.Principal,
			MonthlyRate:  rate,
			BasePayment:  basePayment,
			ExtraPayment: extra,
			StartDate:    in.StartDate,
			Name:         name,
			Color:        color,
		}
	}

	extra1, extra2 := in.Extra(0), in.Extra(1)
	return SimulationResult{
		BasePayment: basePayment,
		Base:        BuildScenario(params(decimal.Zero, BaseScenarioName, ColorBlue)),
		Simulation1: BuildScenario(params(extra1, SimulationName(extra1), ColorGreen)),
		Simulation2: BuildScenario(params(extra2, SimulationName(extra2), ColorOrange)),
	}, nil
}
