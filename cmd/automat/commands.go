package automat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/automat/internal/version"
	"github.com/arthur-debert/automat/pkg/config"
	"github.com/arthur-debert/automat/pkg/engine"
	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/feedback"
	"github.com/arthur-debert/automat/pkg/logging"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/trigger"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		cfgFile   string
	)

	rootCmd := &cobra.Command{
		Use:     "automat",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newTriggersCmd(&cfgFile))
	rootCmd.AddCommand(newHandlersCmd(&cfgFile))
	rootCmd.AddCommand(newRecordsCmd(&cfgFile))
	rootCmd.AddCommand(newCreateCmd(&cfgFile))
	rootCmd.AddCommand(newFireCmd(&cfgFile))
	rootCmd.AddCommand(newGenconfigCmd(&cfgFile))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("automat version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

// newEngine builds an engine for one command invocation, with terminal
// feedback so guarded actions surface their warnings
func newEngine(cfgFile string) (*engine.Engine, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, engine.WithFeedback(feedback.NewTerm()))
}

func newTriggersCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "triggers",
		Short: MsgTriggersShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			decls := e.Triggers()
			if len(decls) == 0 {
				fmt.Println(MsgNoTriggers)
				return nil
			}

			rows := pterm.TableData{{"PHASE", "EVENTS", "KIND", "NAMESPACE", "HANDLER"}}
			for _, d := range decls {
				events := make([]string, len(d.Events))
				for i, ev := range d.Events {
					events[i] = string(ev)
				}
				rows = append(rows, []string{
					string(d.Phase),
					strings.Join(events, ","),
					orAny(d.Kind),
					orAny(d.Namespace),
					d.Handler,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func newHandlersCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: MsgHandlersShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			rows := pterm.TableData{{"NAME", "DESCRIPTION"}}
			for _, h := range e.Handlers().All() {
				rows = append(rows, []string{h.Name(), h.Description()})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func newRecordsCmd(cfgFile *string) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: MsgRecordsShort,
	}

	var filter string
	listCmd := &cobra.Command{
		Use:   "list <kind>",
		Short: MsgListShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			recs, err := e.Store().FindMany(cmd.Context(), filter, args[0])
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println(MsgNoRecords)
				return nil
			}

			rows := pterm.TableData{{"ID", "NAMESPACE", "CREATED AT", "UPDATED AT"}}
			for _, r := range recs {
				rows = append(rows, []string{
					r.ID,
					r.Namespace,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
	listCmd.Flags().StringVar(&filter, "filter", "", MsgFlagFilter)

	getCmd := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: MsgGetShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			rec, err := e.Store().FindByID(cmd.Context(), args[1], args[0])
			if err != nil {
				return err
			}
			printRecord(rec)
			return nil
		},
	}

	recordsCmd.AddCommand(listCmd)
	recordsCmd.AddCommand(getCmd)
	return recordsCmd
}

func newCreateCmd(cfgFile *string) *cobra.Command {
	var (
		namespace string
		sets      []string
	)
	createCmd := &cobra.Command{
		Use:   "create <kind>",
		Short: MsgCreateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			rec := record.New(args[0], namespace)
			for _, s := range sets {
				field, value, err := splitAssignment(s)
				if err != nil {
					return err
				}
				rec.Set(field, value)
			}

			saved, err := e.FireAndSave(cmd.Context(), trigger.EventCreate, rec)
			if err != nil {
				return err
			}
			fmt.Printf(MsgCreated, saved.Kind, saved.ID)
			printRecord(saved)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&namespace, "namespace", "n", "crm", MsgFlagNamespace)
	createCmd.Flags().StringArrayVar(&sets, "set", nil, MsgFlagSet)
	return createCmd
}

func newFireCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fire <handler> <kind> <id>",
		Short: MsgFireShort,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(*cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			rec, err := e.Store().FindByID(cmd.Context(), args[2], args[1])
			if err != nil {
				return err
			}
			return e.Invoke(cmd.Context(), args[0], rec)
		},
	}
}

func newGenconfigCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: MsgGenconfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *config.Config
				err error
			)
			if *cfgFile != "" {
				cfg, err = config.LoadFile(*cfgFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			out, err := cfg.TOML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

// splitAssignment parses a Field=Value argument
func splitAssignment(s string) (string, string, error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", "", errors.Newf(errors.ErrInvalidInput, "expected Field=Value, got %q", s)
	}
	return field, value, nil
}

// printRecord writes one record's metadata and field values
func printRecord(rec *record.Record) {
	fmt.Printf("%s %s/%s\n", rec.Kind, rec.Namespace, rec.ID)
	if rec.CreatedBy != "" {
		fmt.Printf("  created by %s\n", rec.CreatedBy)
	}
	fmt.Printf("  created %s, updated %s\n",
		rec.CreatedAt.Format("2006-01-02 15:04:05"),
		rec.UpdatedAt.Format("2006-01-02 15:04:05"))

	fields := make([]string, 0, len(rec.Values))
	for f := range rec.Values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Printf("  %s = %s\n", f, rec.String(f))
	}
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
