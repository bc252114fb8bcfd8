package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telemetrydp/dprelease/internal/registry"
)

func NewRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Show the declared queries, sensitivities, and metric types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRegistry(cmd)
		},
	}
	return cmd
}

func printRegistry(cmd *cobra.Command) error {
	reg := registry.Default()
	out := cmd.OutOrStdout()

	for _, id := range reg.IDs() {
		desc, err := reg.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Query %02d  %s\n", desc.ID, desc.Filename)
		fmt.Fprintf(out, "  metric type : %s\n", desc.Metric.Type)
		fmt.Fprintf(out, "  group by    : %s\n", strings.Join(desc.GroupColumns, ", "))
		if len(desc.NoiseColumns) == 0 {
			fmt.Fprintf(out, "  noise cols  : none (pass-through)\n")
		} else {
			fmt.Fprintf(out, "  noise cols  : %d\n", len(desc.NoiseColumns))
			for _, col := range desc.NoiseColumns {
				fmt.Fprintf(out, "    %-45s sensitivity %g\n", col, desc.Sensitivity[col])
			}
		}
		fmt.Fprintf(out, "  L1 norm     : %g\n", desc.L1Sensitivity())
		fmt.Fprintf(out, "  L2 norm     : %.4f\n", desc.L2Sensitivity())
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d queries registered\n", reg.Len())
	return nil
}
