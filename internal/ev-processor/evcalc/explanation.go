package evcalc

import (
	"fmt"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/estimator"
	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"
)

// GenerateExplanation monta o texto legível do "porquê" da oportunidade.
// Formatação pura, sem lógica de decisão; a ordem das linhas é fixa:
//
//  1. EV percentual e book vencedor
//  2. método de estimação e fair odds
//  3. (condicional) quantos books foram cortados como outliers
func GenerateExplanation(opp *events.EVOpportunity) []string {
	if opp == nil || opp.BestEV == nil {
		return nil
	}
	best := opp.BestEV

	lines := []string{
		fmt.Sprintf("%.2f%% expected value at %s (odds %.2f)", best.EVPercent, best.BookName, best.OfferedOdds),
		fmt.Sprintf("fair odds %.2f (%.1f%% probability) estimated via %s",
			best.FairOdds, best.FairProbability*100, estimator.Method(best.Method).DisplayName()),
	}

	if fair, ok := opp.FairOdds[best.Method]; ok && fair.BooksExcluded > 0 {
		lines = append(lines, fmt.Sprintf("%d sportsbook(s) excluded from the panel as outliers", fair.BooksExcluded))
	}
	return lines
}
