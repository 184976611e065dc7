package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
)

// listEntry 是 json/yaml 输出的一行。
type listEntry struct {
	Index    int            `json:"index" yaml:"index"`
	Name     string         `json:"name" yaml:"name"`
	Outbound map[string]any `json:"outbound" yaml:"outbound"`
}

func init() {
	var (
		format string
		wide   bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "Show the stored descriptors",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			snapshot, err := app.Subscriptions.List(cmd.Context())
			if err != nil {
				return err
			}
			current, err := app.Store.Selection(cmd.Context())
			if err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), snapshot, current, format, wide)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table, json or yaml")
	cmd.Flags().BoolVarP(&wide, "wide", "w", false, "show the raw streamSettings in table output")
	rootCmd.AddCommand(cmd)
}

func printSnapshot(w io.Writer, snapshot *repository.Snapshot, current, format string, wide bool) error {
	switch format {
	case "", "table":
		return printTable(w, snapshot.Entries, current, wide)
	case "json":
		entries, err := toListEntries(snapshot.Entries)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		entries, err := toListEntries(snapshot.Entries)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (table, json, yaml)", format)
	}
}

func printTable(w io.Writer, entries []outbound.Named, current string, wide bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tADDRESS\tSTREAM")
	for i, e := range entries {
		stream := e.Descriptor.Summary()
		if wide {
			raw, err := json.Marshal(e.Descriptor)
			if err != nil {
				return fmt.Errorf("encode %s: %w", e.QualifiedName, err)
			}
			stream = gjson.GetBytes(raw, "streamSettings").Raw
		}
		marker := ""
		if e.QualifiedName == current {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%s:%d\t%s\n", i, e.QualifiedName, marker,
			e.Descriptor.Endpoint.Address, e.Descriptor.Endpoint.Port, stream)
	}
	return tw.Flush()
}

func toListEntries(entries []outbound.Named) ([]listEntry, error) {
	out := make([]listEntry, 0, len(entries))
	for i, e := range entries {
		raw, err := json.Marshal(e.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.QualifiedName, err)
		}
		var wire map[string]any
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		out = append(out, listEntry{Index: i, Name: e.QualifiedName, Outbound: wire})
	}
	return out, nil
}
