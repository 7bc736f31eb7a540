package oddsmath

import (
	"fmt"
	"math"
)

// Limites de clamp antes de operar em espaço de log-odds
const (
	logitProbMin = 0.001
	logitProbMax = 0.999
)

// AmericanToDecimal converte odds americanas para decimais.
// +150 -> 2.50, -150 -> 1.67. Zero não é odd americana válida
// (odds válidas são sempre <= -100 ou >= +100) e retorna erro.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid american odds: cannot be 0")
	}

	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// DecimalToAmerican converte odds decimais para americanas.
// 2.50 -> +150, 1.67 -> -150.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal < 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be >= 1.0")
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// DecimalToImplied converte odds decimais em probabilidade implícita (1/d)
func DecimalToImplied(decimal float64) (float64, error) {
	if decimal <= 0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 0")
	}
	return 1.0 / decimal, nil
}

// ImpliedToDecimal converte probabilidade em odds decimais (1/p)
func ImpliedToDecimal(prob float64) (float64, error) {
	if prob <= 0 || prob >= 1 {
		return 0, fmt.Errorf("invalid probability: must be between 0 and 1")
	}
	return 1.0 / prob, nil
}

// ProbToLogit leva a probabilidade para espaço de log-odds.
// O clamp em [0.001, 0.999] evita infinitos no logaritmo.
func ProbToLogit(prob float64) float64 {
	p := clampProb(prob)
	return math.Log(p / (1.0 - p))
}

// LogitToProb é a inversa de ProbToLogit
func LogitToProb(logit float64) float64 {
	return 1.0 / (1.0 + math.Exp(-logit))
}

func clampProb(p float64) float64 {
	if p < logitProbMin {
		return logitProbMin
	}
	if p > logitProbMax {
		return logitProbMax
	}
	return p
}
