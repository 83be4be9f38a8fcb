// Package prefs holds the user's risk preferences (investment and leverage).
package prefs

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"CycleSentinel/internal/model"
)

const (
	DefaultInvestment = 1000.0
	DefaultLeverage   = 1.0
)

var ErrInvalidRisk = errors.New("invalid risk parameters")

// Store keeps the current risk parameters, persisted to a JSON state file.
// An empty file path keeps them in memory only.
type Store struct {
	mu       sync.Mutex
	params   model.RiskParams
	filePath string
}

// NewStore creates a Store, loading saved values from disk. Missing or invalid
// saved values fall back to investment and leverage, then to the package defaults.
func NewStore(filePath string, investment, leverage float64) (*Store, error) {
	saved := &model.RiskParams{}
	if filePath != "" {
		var err error
		saved, err = LoadState(filePath)
		if err != nil {
			log.Printf("[WARN] unreadable risk state %s, using defaults: %v", filePath, err)
			saved = &model.RiskParams{}
		}
	}

	s := &Store{filePath: filePath}
	s.params.Investment = pick(saved.Investment, investment, DefaultInvestment)
	s.params.Leverage = pick(saved.Leverage, leverage, DefaultLeverage)
	s.params.UpdatedAt = saved.UpdatedAt

	if err := s.save(); err != nil {
		log.Printf("[WARN] cannot write risk state %s, keeping preferences in memory: %v", filePath, err)
	}
	return s, nil
}

// pick returns the first valid candidate.
func pick(candidates ...float64) float64 {
	for _, v := range candidates {
		if valid(v) {
			return v
		}
	}
	return 0
}

func valid(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Get returns a copy of the current risk parameters.
func (s *Store) Get() model.RiskParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Set replaces the risk parameters. Both values must be positive and finite.
func (s *Store) Set(investment, leverage float64) error {
	if !valid(investment) || !valid(leverage) {
		return fmt.Errorf("%w: investment=%v leverage=%v", ErrInvalidRisk, investment, leverage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.params.Investment = investment
	s.params.Leverage = leverage
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save risk state: %v", err)
	}
	return nil
}

// SetText parses user input such as "2,500" and "10" and applies it.
func (s *Store) SetText(investment, leverage string) (model.RiskParams, error) {
	inv, err := ParseAmount(investment)
	if err != nil {
		return model.RiskParams{}, fmt.Errorf("investment: %w", err)
	}
	lev, err := ParseAmount(leverage)
	if err != nil {
		return model.RiskParams{}, fmt.Errorf("leverage: %w", err)
	}
	if err := s.Set(inv, lev); err != nil {
		return model.RiskParams{}, err
	}
	return s.Get(), nil
}

// ParseAmount parses a decimal number, ignoring thousands separators and a leading '$'.
func ParseAmount(text string) (float64, error) {
	clean := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(text), ",", ""), "$")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRisk, text)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidRisk, text)
	}
	return d.InexactFloat64(), nil
}

func (s *Store) save() error {
	if s.filePath == "" {
		return nil
	}
	return SaveState(s.filePath, &s.params)
}
