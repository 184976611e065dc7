package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/service"
	"github.com/creamcroissant/v2mng/internal/tui"
)

func init() {
	var (
		name  string
		noTUI bool
	)
	cmd := &cobra.Command{
		Use:     "gen [index]",
		Aliases: []string{"g"},
		Short:   "Write config.json for one stored descriptor",
		Long:    "Without an index, gen opens an interactive picker on a terminal, or lists the entries and reads the index from stdin.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			var result *service.GenerateResult
			switch {
			case name != "":
				result, err = app.Subscriptions.GenerateByName(ctx, name)
			case len(args) == 1:
				index, convErr := strconv.Atoi(args[0])
				if convErr != nil {
					return fmt.Errorf("invalid index %q", args[0])
				}
				result, err = app.Subscriptions.Generate(ctx, index)
			default:
				var index int
				index, err = chooseIndex(cmd, app.Subscriptions, app.Store, noTUI)
				if err != nil {
					if errors.Is(err, tui.ErrCancelled) {
						fmt.Fprintln(cmd.ErrOrStderr(), "cancelled")
						return nil
					}
					return err
				}
				result, err = app.Subscriptions.Generate(ctx, index)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d %s\n", result.ConfigPath, result.Index, result.Entry.QualifiedName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "select by qualified name instead of index")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "always use the plain prompt")
	rootCmd.AddCommand(cmd)
}

func chooseIndex(cmd *cobra.Command, subs service.SubscriptionService, selections repository.SelectionRepository, noTUI bool) (int, error) {
	ctx := cmd.Context()
	snapshot, err := subs.List(ctx)
	if err != nil {
		return -1, err
	}
	current, err := selections.Selection(ctx)
	if err != nil {
		return -1, err
	}

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	if !noTUI && isTerminal(in) && isTerminal(out) && len(snapshot.Entries) > 0 {
		return tui.Pick(snapshot.Entries, current, in, out)
	}

	if err := printTable(out, snapshot.Entries, current, false); err != nil {
		return -1, err
	}
	return promptIndex(in, out)
}

func promptIndex(in io.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, "select: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return -1, fmt.Errorf("read selection: %w", err)
	}
	index, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return -1, fmt.Errorf("invalid index %q", strings.TrimSpace(line))
	}
	return index, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
