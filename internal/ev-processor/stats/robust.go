package stats

import (
	"fmt"
	"math"
	"sort"
)

// Constante que torna o MAD comparável a um desvio padrão sob normalidade
const madScale = 1.4826

// DefaultOutlierThreshold é a razão MAD padrão para marcar um valor como outlier
const DefaultOutlierThreshold = 3.5

// Median retorna a mediana; erro apenas para entrada vazia (violação de contrato)
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("median: empty input")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0, nil
}

// Mean retorna a média aritmética; erro apenas para entrada vazia
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("mean: empty input")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// MAD retorna a Median Absolute Deviation: mediana dos desvios absolutos da mediana
func MAD(values []float64) (float64, error) {
	med, err := Median(values)
	if err != nil {
		return 0, err
	}
	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - med)
	}
	return Median(devs)
}

// OutlierResult carrega os índices marcados e o slice booleano paralelo à entrada
type OutlierResult struct {
	Indices []int
	Flags   []bool
}

// DetectOutliers marca valores cuja razão |x - mediana| / (MAD * 1.4826)
// excede o threshold.
//
// Política deliberada: com menos de 3 valores não há painel suficiente para
// julgar outliers, e com MAD zero (valores idênticos) não existe dispersão —
// nos dois casos nada é marcado.
func DetectOutliers(values []float64, threshold float64) OutlierResult {
	flags := make([]bool, len(values))
	if len(values) < 3 {
		return OutlierResult{Flags: flags}
	}

	med, _ := Median(values) // entrada não vazia garantida acima
	mad, _ := MAD(values)
	if mad == 0 {
		return OutlierResult{Flags: flags}
	}

	scaled := mad * madScale
	var indices []int
	for i, v := range values {
		if math.Abs(v-med)/scaled > threshold {
			flags[i] = true
			indices = append(indices, i)
		}
	}
	return OutlierResult{Indices: indices, Flags: flags}
}

// TrimmedMean calcula a média dos valores não marcados como outliers.
// Com menos de 3 valores devolve a média simples; se todos forem marcados
// (caso degenerado) cai para a mediana de todos em vez de falhar.
func TrimmedMean(values []float64, threshold float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("trimmed mean: empty input")
	}
	if len(values) < 3 {
		return Mean(values)
	}

	res := DetectOutliers(values, threshold)
	kept := make([]float64, 0, len(values))
	for i, v := range values {
		if !res.Flags[i] {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Median(values)
	}
	return Mean(kept)
}
