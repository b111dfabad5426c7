package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols [id]",
	Short: "Lista los protocolos cargados",
	Long: `Lista los protocolos disponibles en el corpus, o muestra el detalle
de uno concreto.

Examples:
  conrumbo protocols
  conrumbo protocols pa_rcp_adulto_v1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProtocols,
}

func runProtocols(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showProtocol(args[0])
	}

	summaries := svc.ListProtocols()
	if len(summaries) == 0 {
		fmt.Println("No hay protocolos cargados.")
		return nil
	}

	fmt.Printf("%d protocolos cargados:\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %-24s %s (%d pasos", s.ID, s.Title, s.StepCount)
		if s.Age != "" {
			fmt.Printf(", %s", s.Age)
		}
		fmt.Println(")")
	}
	return nil
}

func showProtocol(id string) error {
	p, err := svc.GetProtocol(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, versión %s)\n\n", p.Title, p.ID, p.Version)
	for i := range p.Steps {
		step := &p.Steps[i]
		fmt.Printf("%2d. %s\n", step.ID, step.Text())
	}
	if p.Triage != nil && len(p.Triage.RedFlags) > 0 {
		fmt.Println("\nSeñales de alarma:")
		for _, f := range p.Triage.RedFlags {
			fmt.Printf("  - %s\n", f)
		}
	}
	if p.EmergencyAction != "" {
		fmt.Printf("\nEn caso de emergencia: %s\n", p.EmergencyAction)
	}
	fmt.Printf("\n%s\n", svc.Guardrails().GeneralDisclaimer())
	return nil
}
