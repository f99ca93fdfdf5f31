package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadec/internal/diagfmt"
	"shadec/internal/dialect"
	"shadec/internal/intrinsic"
)

var overloadsCmd = &cobra.Command{
	Use:   "overloads [flags] [name]",
	Short: "List the overloads of a dialect",
	Long: `List the overloads of every intrinsic in a dialect, grouped by namespace.
An optional name keeps intrinsics whose name contains it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOverloads,
}

func init() {
	overloadsCmd.Flags().String("dialect", "core", "dialect (core|hlsl)")
	overloadsCmd.Flags().StringSlice("kind", nil, "namespaces to list (builtin|unary|binary|ctor_conv)")
	overloadsCmd.Flags().String("flag", "", "keep overloads carrying this flag (must_use|deprecated|member_function|vertex|fragment|compute|...)")
	overloadsCmd.Flags().Bool("source", false, "print the dialect's definition documents instead")
}

func parseFlagName(name string) (intrinsic.OverloadFlags, error) {
	if name == "" {
		return 0, nil
	}
	for bit := intrinsic.OverloadFlags(1); bit != 0; bit <<= 1 {
		if bit.String() == name {
			return bit, nil
		}
	}
	return 0, fmt.Errorf("unknown overload flag %q", name)
}

func runOverloads(cmd *cobra.Command, args []string) error {
	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	dialectName, err := cmd.Flags().GetString("dialect")
	if err != nil {
		return fmt.Errorf("failed to get dialect flag: %w", err)
	}
	kindNames, err := cmd.Flags().GetStringSlice("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}
	flagName, err := cmd.Flags().GetString("flag")
	if err != nil {
		return fmt.Errorf("failed to get flag flag: %w", err)
	}
	source, err := cmd.Flags().GetBool("source")
	if err != nil {
		return fmt.Errorf("failed to get source flag: %w", err)
	}

	k, err := dialect.ParseKind(dialectName)
	if err != nil {
		return err
	}
	if source {
		docs, err := dialect.Documents(k.String())
		if err != nil {
			return err
		}
		for i, doc := range docs {
			src, err := dialect.Source(dialectKindOf(doc.Dialect, k))
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", doc.Dialect, src)
		}
		return nil
	}

	filter := diagfmt.OverloadFilter{}
	if len(args) > 0 {
		filter.Name = args[0]
	}
	for _, name := range kindNames {
		kind, ok := intrinsic.ParseKind(name)
		if !ok {
			return fmt.Errorf("unknown namespace %q", name)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if filter.Flag, err = parseFlagName(flagName); err != nil {
		return err
	}

	table, err := dialect.LoadContext(cmd.Context(), k)
	if err != nil {
		return err
	}
	n := diagfmt.OverloadTable(cmd.OutOrStdout(), table, filter, diagfmt.PrettyOpts{Color: useColor(s.Color, os.Stdout)})
	if n == 0 && !s.Quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "no overloads match")
	}
	return nil
}

// dialectKindOf maps a document's dialect name back to its Kind.
func dialectKindOf(name string, fallback dialect.Kind) dialect.Kind {
	if k, err := dialect.ParseKind(name); err == nil {
		return k
	}
	return fallback
}
