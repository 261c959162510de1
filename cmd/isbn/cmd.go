package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"booksearch/internal/app"
	"booksearch/internal/book"
	"booksearch/internal/config"
	"booksearch/internal/isbn"
	"booksearch/internal/resolver"
	"booksearch/internal/source"
)

const flagDirect = "direct"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "isbn",
		Short:             "Validate ISBNs and resolve them to book metadata",
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
		},
	}
	root.AddCommand(newValidateCmd(), newLookupCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <isbn>",
		Short: "Check an ISBN-10 or ISBN-13 checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := isbn.Normalize(args[0])
			if !isbn.Valid(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\n", id)
				return fmt.Errorf("invalid ISBN %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tvalid\n", id)
			return nil
		},
	}
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <isbn>",
		Short: "Resolve an ISBN through the cache, the store and the providers",
		Long: `Resolve an ISBN exactly as the API does and print the record as JSON.

With --direct the providers are queried in order without touching the
database or the cache, and nothing is recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direct, err := cmd.Flags().GetBool(flagDirect)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))

			if direct {
				return lookupDirect(cmd.Context(), cmd.OutOrStdout(), app.Adapters(cfg, log), args[0])
			}
			return lookup(cmd.Context(), cmd.OutOrStdout(), cfg, log, args[0])
		},
	}
	cmd.Flags().Bool(flagDirect, false, "query providers only, bypassing the store and cache")
	return cmd
}

func lookup(ctx context.Context, out io.Writer, cfg config.Config, log *slog.Logger, raw string) error {
	deps, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	res, err := deps.Resolver.Resolve(ctx, raw)
	if err != nil {
		return err
	}
	return printRecord(out, res.Source, res.Book)
}

func lookupDirect(ctx context.Context, out io.Writer, adapters []source.Adapter, raw string) error {
	id := isbn.Normalize(raw)
	if !isbn.Valid(id) {
		return fmt.Errorf("invalid ISBN %q", raw)
	}
	for _, a := range adapters {
		res := a.Fetch(ctx, id)
		if res.Status == source.StatusFound {
			res.Record.ISBN = id
			return printRecord(out, a.Name(), res.Record)
		}
	}
	return resolver.ErrNotFound
}

func printRecord(out io.Writer, from string, rec *book.Record) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Source string       `json:"source"`
		Book   *book.Record `json:"book"`
	}{from, rec})
}
