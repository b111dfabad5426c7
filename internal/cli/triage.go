package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

var triageSignals models.TriageSignals

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Evalúa el riesgo de una situación",
	Long: `Evalúa señales estructuradas (estado de conciencia, respiración,
sangrado...) y devuelve el nivel de riesgo, el protocolo recomendado y la
acción inmediata.

Examples:
  conrumbo triage --intent rcp --conciencia inconsciente
  conrumbo triage --intent hemorragia --sangrado moderado --lugar via_publica
  conrumbo triage --intent atragantamiento --edad lactante`,
	RunE: runTriage,
}

func init() {
	triageCmd.Flags().StringVar(&triageSignals.Intent, "intent", "", "intención detectada (rcp, atragantamiento...)")
	triageCmd.Flags().StringVar(&triageSignals.Age, "edad", "", "edad de la persona (adulto, niño, lactante)")
	triageCmd.Flags().StringVar(&triageSignals.Consciousness, "conciencia", "", "estado de conciencia")
	triageCmd.Flags().StringVar(&triageSignals.Breathing, "respiracion", "", "estado de la respiración")
	triageCmd.Flags().StringVar(&triageSignals.Bleeding, "sangrado", "", "intensidad del sangrado")
	triageCmd.Flags().StringVar(&triageSignals.Location, "lugar", "", "lugar (domicilio, via_publica, lugar_aislado)")
	triageCmd.Flags().StringVar(&triageSignals.HelpPresent, "ayuda", "", "hay más personas ayudando (si/no)")
	triageCmd.Flags().StringVar(&triageSignals.HasDefibrillator, "dea", "", "hay desfibrilador disponible (si/no)")
}

func runTriage(cmd *cobra.Command, args []string) error {
	result := svc.Triage(context.Background(), triageSignals)

	fmt.Printf("Nivel de riesgo:  %s\n", strings.ToUpper(result.Risk))
	fmt.Printf("Protocolo:        %s (confianza %.1f)\n", result.ProtocolID, result.Confidence)
	fmt.Printf("Acción inmediata: %s\n", result.ImmediateAction)
	if len(result.Recommendations) > 0 {
		fmt.Printf("Recomendaciones:  %s\n", strings.Join(result.Recommendations, ", "))
	}
	if result.EscalateToEmergency {
		fmt.Println("\n🚨 LLAMA AL 112 AHORA MISMO")
	}
	return nil
}
