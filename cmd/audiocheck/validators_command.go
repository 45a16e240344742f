package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidatorsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validators",
		Aliases: []string{"validator"},
		Short:   "List validators and change which ones run",
	}
	cmd.AddCommand(newValidatorsListCommand(ctx))
	cmd.AddCommand(newValidatorsToggleCommand(ctx, "enable", "Enable validators for future runs", true))
	cmd.AddCommand(newValidatorsToggleCommand(ctx, "disable", "Disable validators for future runs", false))
	cmd.AddCommand(newValidatorsResetCommand(ctx))
	return cmd
}

type validatorRow struct {
	ID         string `json:"id"`
	Strictness string `json:"strictness"`
	Enabled    bool   `json:"enabled"`
	Default    bool   `json:"default_enabled"`
	Runs       bool   `json:"runs"`
}

func newValidatorsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every validator with its strictness and enable state",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := ctx.registry()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd.Context())
			var items []validatorRow
			for _, entry := range reg.Entries() {
				enabled, err := reg.Enabled(runCtx, entry.Descriptor.ID)
				if err != nil {
					return err
				}
				items = append(items, validatorRow{
					ID:         entry.Descriptor.ID,
					Strictness: entry.Strictness.String(),
					Enabled:    enabled,
					Default:    entry.Descriptor.DefaultEnabled,
					Runs:       enabled && !entry.Excluded,
				})
			}
			if jsonOutput {
				return writeJSON(cmd, items)
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.ID, it.Strictness, yesNo(it.Enabled), yesNo(it.Default), yesNo(it.Runs)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Validator", "Strictness", "Enabled", "Default", "Runs"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newValidatorsToggleCommand(ctx *commandContext, verb, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := ctx.registry()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd.Context())
			for _, id := range args {
				if err := reg.SetEnabled(runCtx, id, enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd\n", id, verb)
			}
			return nil
		},
	}
}

func newValidatorsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>...",
		Short: "Forget the stored enable state so validators follow their default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := ctx.registry()
			if err != nil {
				return err
			}
			st, err := ctx.storeValue()
			if err != nil {
				return err
			}
			known := make(map[string]bool)
			for _, entry := range reg.Entries() {
				known[entry.Descriptor.ID] = true
			}
			runCtx := commandCtx(cmd.Context())
			for _, id := range args {
				if !known[id] {
					return fmt.Errorf("unknown validator %q", id)
				}
				if err := st.ResetValidator(runCtx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: reset\n", id)
			}
			return nil
		},
	}
}
