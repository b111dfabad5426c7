package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

var (
	searchAge   string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <consulta>",
	Short: "Busca protocolos por texto libre",
	Long: `Busca protocolos de primeros auxilios con recuperación híbrida:
coincidencias exactas de frases de intención primero, similitud semántica
después.

Examples:
  conrumbo search "no respira"
  conrumbo search "se ha quemado con aceite" --edad adulto
  conrumbo search atragantamiento --limit 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchAge, "edad", "", "filtrar por edad (adulto, niño, lactante)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "número máximo de resultados")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	if verdict := svc.Guardrails().CheckQuery(query); !verdict.Allowed {
		fmt.Println(verdict.Response)
		if verdict.ShouldEscalate {
			fmt.Println(verdict.EscalationMessage)
		}
		return nil
	}

	var sctx *models.SearchContext
	if searchAge != "" {
		sctx = &models.SearchContext{Age: searchAge}
	}

	results := svc.Search(ctx, query, sctx, searchLimit)
	if len(results) == 0 {
		fmt.Println("No se encontraron protocolos.")
		return nil
	}

	fmt.Printf("Encontrados %d protocolos:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. %s [%s] (%.2f)\n", i+1, r.Title, r.ProtocolID, r.RelevanceScore)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
	}
	fmt.Printf("\n%s\n", svc.Guardrails().GeneralDisclaimer())
	return nil
}
