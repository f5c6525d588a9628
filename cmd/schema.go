package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/compliance-tracker/internal/threshold"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and validate income tier schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available schemas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTIERS\tVACANCY\tDESCRIPTION")
		for _, name := range reg.Names() {
			s, err := reg.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", s.Name, len(s.Tiers), s.Vacancy, s.Description)
		}
		return tw.Flush()
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a schema's bucket labels and ceilings by household size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		s, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		return printSchema(cmd, s)
	},
}

var schemaValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Load and validate a YAML schema file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := threshold.LoadFile(args[0])
		if err != nil {
			return err
		}
		for _, s := range schemas {
			fmt.Fprintf(cmd.OutOrStdout(), "ok  %s (%d tiers, %d household sizes)\n", s.Name, len(s.Tiers), len(s.Table.Sizes()))
		}
		return nil
	},
}

func printSchema(cmd *cobra.Command, s *threshold.Schema) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", s.Name, s.Description)
	fmt.Fprintf(out, "buckets: %v\n\n", s.Labels())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "SIZE")
	for _, t := range s.Tiers {
		fmt.Fprintf(tw, "\t%s", t.Label)
	}
	fmt.Fprintln(tw)

	for _, size := range s.Table.Sizes() {
		ceilings, err := s.Ceilings(size)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d", size)
		for _, c := range ceilings {
			fmt.Fprintf(tw, "\t%.2f", c.Amount)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sizes := s.Table.Sizes()
	if len(sizes) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nhouseholds larger than %d use the size-%d ceilings\n", sizes[len(sizes)-1], sizes[len(sizes)-1])
	return nil
}

func init() {
	schemaCmd.AddCommand(schemaListCmd, schemaShowCmd, schemaValidateCmd)
	rootCmd.AddCommand(schemaCmd)
}
