package main

import (
	"github.com/spf13/cobra"

	"github.com/birdayz/kgraph/kdag"
	"github.com/birdayz/kgraph/kmanifest"
)

var (
	printPipeline bool
	printName     string
)

var printCmd = &cobra.Command{
	Use:   "print FILE",
	Short: "Print a graph document as a mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrint,
}

func init() {
	printCmd.Flags().BoolVar(&printPipeline, "pipeline", false, "Print the schedule as a single chain")
	printCmd.Flags().StringVar(&printName, "name", "", "Wrap the chart in a named subgraph")
	printCmd.Flags().StringArrayVar(&compileVars, "var", nil, "HCL variable as name=value, repeatable")
}

func runPrint(cmd *cobra.Command, args []string) error {
	vars, err := kmanifest.ParseVars(compileVars)
	if err != nil {
		return err
	}
	doc, err := kmanifest.LoadFile(args[0], vars)
	if err != nil {
		return err
	}
	d, err := doc.Build()
	if err != nil {
		return err
	}

	if printPipeline {
		return kdag.WriteMermaidPipeline(cmd.OutOrStdout(), d, printName)
	}
	return kdag.WriteMermaid(cmd.OutOrStdout(), d, printName)
}
