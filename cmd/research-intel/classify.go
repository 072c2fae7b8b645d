// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [title...]",
	Short: "Assign one paper to a branch and sub-cluster",
	Long: `Classify asks the AI generator to place a paper into exactly one branch of
the taxonomy with a short sub-cluster label. After the configured number of
failed attempts it falls back to keyword scoring, so it always answers.

The paper comes from --from/--index (a saved search) or from the title and
paper flags.`,
	RunE: runClassify,
}

func init() {
	addRecordFlags(classifyCmd)
	addAIFlags(classifyCmd)
	classifyCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	r, err := recordFromFlags(cmd, args)
	if err != nil {
		return err
	}
	branches, err := branchesFromFlags(cmd)
	if err != nil {
		return err
	}
	gen, err := generatorFromFlags(cmd)
	if err != nil {
		return err
	}
	c, err := state.classifier(gen)
	if err != nil {
		return err
	}

	res, err := c.Classify(cmd.Context(), r, branches)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if done, err := encode(state.out, format, res); done {
		return err
	}
	printClassification(state.out, r, res)
	return nil
}
