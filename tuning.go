package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixed engine constants. These define the rules of the simulation and are
// deliberately not tunable.
const (
	bankruptcyGoldFloor  = -50
	authorityCap         = 999.999
	declineCooldownTicks = 5
	duelDieSides         = 6

	fireCrisisThreshold   = 70 // fireRisk above this triggers the fire crisis
	healthCrisisThreshold = 30 // health below this triggers the disease crisis
	unrestCrisisThreshold = 30 // satisfaction below this triggers unrest
)

// Tuning carries the numeric knobs with sane defaults, overridable from an
// optional YAML file.
type Tuning struct {
	StartGold         int     `yaml:"start_gold"`
	StartSatisfaction int     `yaml:"start_satisfaction"`
	StartHealth       int     `yaml:"start_health"`
	StartFireRisk     int     `yaml:"start_fire_risk"`
	StartFarmers      int     `yaml:"start_farmers"`
	StartLandForces   int     `yaml:"start_land_forces"`
	StartAuthority    float64 `yaml:"start_authority"`

	// Baseline economy: goldIncome = floor(taxRate * farmers *
	// (satisfaction - taxSatisfactionOffset) / 100) per advanced tick,
	// farmerGrowth = floor((health - growthHealthOffset) / growthDivisor).
	TaxRate               float64 `yaml:"tax_rate"`
	TaxSatisfactionOffset int     `yaml:"tax_satisfaction_offset"`
	GrowthHealthOffset    int     `yaml:"growth_health_offset"`
	GrowthDivisor         int     `yaml:"growth_divisor"`

	BreadBonusChance    float64 `yaml:"bread_bonus_chance"`
	FirewoodHalveChance float64 `yaml:"firewood_halve_chance"`
	WellHealChance      float64 `yaml:"well_heal_chance"`
}

func defaultTuning() Tuning {
	return Tuning{
		StartGold:         50,
		StartSatisfaction: 60,
		StartHealth:       60,
		StartFireRisk:     20,
		StartFarmers:      20,
		StartLandForces:   5,
		StartAuthority:    20,

		TaxRate:               0.1,
		TaxSatisfactionOffset: 10,
		GrowthHealthOffset:    25,
		GrowthDivisor:         20,

		BreadBonusChance:    0.10,
		FirewoodHalveChance: 0.25,
		WellHealChance:      0.50,
	}
}

// loadTuning reads an override file on top of the defaults. A missing file
// is not an error; a malformed one is.
func loadTuning(path string) (Tuning, error) {
	t := defaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.GrowthDivisor <= 0 {
		return t, fmt.Errorf("tuning: growth_divisor must be positive")
	}
	return t, nil
}
