package cmd

import (
	"github.com/spf13/cobra"

	"github.com/taneryldrm/bugless-crm-sub000/internal/report"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print agreed, paid and remaining amounts per client",
	Long: `Attribute income to clients and print each client's position.

Income linked to a project counts for that project's client. Otherwise the
payer name is compared with client names; a name shared by several clients
is reported as ambiguous and counted for nobody.`,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		r, err := a.engine.Balances(cmd.Context())
		if err != nil {
			return err
		}
		return report.Balances(cmd.OutOrStdout(), r)
	}),
}
