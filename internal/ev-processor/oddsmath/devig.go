package oddsmath

// DevigTwoSided remove a margem de um mercado de duas saídas dividindo cada
// probabilidade pela soma. Quando a soma já é <= 1 (não acontece com preços
// reais com vig) a entrada é devolvida intacta.
func DevigTwoSided(p1, p2 float64) (float64, float64) {
	total := p1 + p2
	if total <= 1.0 {
		return p1, p2
	}
	return p1 / total, p2 / total
}

// NormalizeMultiWay remove a margem de um mercado de n saídas dividindo cada
// probabilidade pela soma de todas. No-op quando a soma é <= 1.
func NormalizeMultiWay(probs []float64) []float64 {
	out := make([]float64, len(probs))
	copy(out, probs)

	total := 0.0
	for _, p := range probs {
		total += p
	}
	if total <= 1.0 {
		return out
	}

	for i := range out {
		out[i] /= total
	}
	return out
}
