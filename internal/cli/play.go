package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/player"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/triage"
)

var playAge string

var playCmd = &cobra.Command{
	Use:   "play <protocolo>",
	Short: "Reproduce un protocolo paso a paso",
	Long: `Recorre un protocolo de forma interactiva. Tras cada paso puedes
pulsar Enter para continuar o escribir lo que observas ("no respira",
"el objeto salió"...) para que el recorrido se adapte.

Examples:
  conrumbo play pa_rcp_adulto_v1
  conrumbo play pa_rcp_adulto_v1 --edad lactante
  conrumbo play pa_asfixia_adulto_v1`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playAge, "edad", "", "adapta el protocolo por edad (niño, lactante)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	protocolID := args[0]
	if playAge != "" {
		protocolID = triage.AdaptForAge(protocolID, strings.ToLower(playAge))
	}

	p, err := svc.GetProtocol(protocolID)
	if err != nil {
		return err
	}

	fmt.Printf("=== %s ===\n", p.Title)
	fmt.Println("Pulsa Enter para avanzar, escribe lo que observas para responder,")
	fmt.Println("o escribe 'salir' para terminar.")
	fmt.Println()

	sessionID := uuid.NewString()
	scanner := bufio.NewScanner(os.Stdin)
	current := -1
	feedback := ""

	for {
		resp := svc.NextStep(player.NextRequest{
			SessionID:   sessionID,
			ProtocolID:  protocolID,
			CurrentStep: current,
			Feedback:    feedback,
		})

		fmt.Printf("▶ %s\n", resp.Say)
		if resp.SafetyAlert != "" {
			fmt.Printf("⚠ %s\n", resp.SafetyAlert)
		}
		if bpm, ok := resp.UI["metronome_bpm"]; ok {
			fmt.Printf("♪ Ritmo: %v por minuto\n", bpm)
		}
		if dur, ok := resp.UI["timer_duration"]; ok {
			fmt.Printf("⏱ Temporizador: %v segundos\n", dur)
		}

		if resp.IsFinal {
			return nil
		}
		if id, ok := resp.UI["step_id"].(int); ok {
			current = id
		}

		fmt.Print("\n> ")
		if !scanner.Scan() {
			svc.ResetSession(sessionID)
			return scanner.Err()
		}
		feedback = strings.TrimSpace(scanner.Text())
		if strings.EqualFold(feedback, "salir") {
			svc.ResetSession(sessionID)
			fmt.Println("Protocolo interrumpido. Ante cualquier duda, llama al 112.")
			return nil
		}
		fmt.Println()
	}
}
