package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
	"github.com/de-tools/turbo-critical/pkg/runtime/terminal/console"
	"github.com/de-tools/turbo-critical/pkg/runtime/terminal/export"
	"github.com/de-tools/turbo-critical/pkg/services/config"
	"github.com/de-tools/turbo-critical/pkg/services/critical"
	"github.com/de-tools/turbo-critical/pkg/services/groupsync"
	"github.com/de-tools/turbo-critical/pkg/services/ranking"
	"github.com/de-tools/turbo-critical/pkg/store/client"
)

// FatalError wraps an error that has already been reported to the user
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

type Dependencies struct {
	Logger zerolog.Logger
	Prompt PasswordPrompt
	// ProfilePath is the ini file holding credential profiles
	ProfilePath string
}

type LimitCmd struct {
	reasonCommodity string
	fileName        string
	numSorted       int
	groupName       string

	target                string
	username              string
	encodedCreds          string
	insecure              bool
	ignoreInsecureWarning bool
	profile               string
	configPath            string
	entityType            string

	quiet  bool
	trace  bool
	noWarn bool
	dryRun bool

	deps Dependencies
}

func NewLimitCmd(deps Dependencies) *cobra.Command {
	lc := &LimitCmd{deps: deps}
	cmd := &cobra.Command{
		Use:   "limit-critical",
		Short: "Limit critical resize actions to a ranked static group",
		Long: `Ranks the critical resize actions of one reason commodity, keeps the top entries,
carries over entities of the previous run still awaiting external approval,
writes them to a CSV file and synchronizes the static group on Turbonomic.`,
		Args: cobra.NoArgs,
		RunE: lc.run,
	}

	cmd.Flags().StringVarP(&lc.reasonCommodity, "reason-commodity", "r", "", "Reason commodity of the critical actions (e.g. VCPU, VMem)")
	cmd.Flags().StringVarP(&lc.fileName, "file-name", "f", "", "Name of the csv file to create, without extension")
	cmd.Flags().IntVarP(&lc.numSorted, "num-sorted", "n", 0, "Number of ranked critical entities to keep")
	cmd.Flags().StringVarP(&lc.groupName, "group-name", "g", "", "Name of the static group on Turbonomic")

	cmd.Flags().StringVarP(&lc.target, "target", "t", config.DefaultTarget, "Turbonomic server address")
	cmd.Flags().StringVarP(&lc.username, "username", "u", "", "Turbonomic username, the password is prompted")
	cmd.Flags().StringVar(&lc.encodedCreds, "encoded-creds", "", "Base64 encoded user:password credentials")
	cmd.Flags().BoolVar(&lc.insecure, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVar(&lc.ignoreInsecureWarning, "ignore-insecure-warning", false,
		"Skip TLS certificate verification without warning about it")
	cmd.Flags().StringVar(&lc.profile, "profile", "", "Credential profile to read from the profile file")
	cmd.Flags().StringVar(&lc.configPath, "config", "", "Path to a YAML settings file")
	cmd.Flags().StringVar(&lc.entityType, "entity-type", domain.ClassVirtualMachine, "Class of the entities to rank, empty for all")

	cmd.Flags().BoolVarP(&lc.quiet, "quiet", "q", false, "Only print errors")
	cmd.Flags().BoolVar(&lc.trace, "trace", false, "Log debug events and error chains")
	cmd.Flags().BoolVar(&lc.noWarn, "no-warn", false, "Do not print warnings")
	cmd.Flags().BoolVar(&lc.dryRun, "dry-run", false, "Compute group changes without applying them")

	_ = cmd.MarkFlagRequired("reason-commodity")
	_ = cmd.MarkFlagRequired("file-name")
	_ = cmd.MarkFlagRequired("num-sorted")
	_ = cmd.MarkFlagRequired("group-name")

	cmd.AddCommand(NewProfilesCmd(deps))

	return cmd
}

func (lc *LimitCmd) run(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	logger := lc.deps.Logger
	if lc.trace {
		logger = logger.Level(zerolog.DebugLevel)
	}
	ctx := logger.WithContext(cmd.Context())
	reporter := console.NewReporter(cmd.OutOrStdout(), logger, console.ReporterOptions{
		Quiet: lc.quiet,
		Trace: lc.trace,
		Warn:  !lc.noWarn,
	})

	err := lc.limit(ctx, cmd, reporter)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		reporter.Interrupted()
		return nil
	default:
		reporter.Fatal(err)
		return &FatalError{Err: err}
	}
}

func (lc *LimitCmd) limit(ctx context.Context, cmd *cobra.Command, reporter *console.Reporter) error {
	settings, err := config.LoadSettings(lc.configPath)
	if err != nil {
		return err
	}

	rankings, err := ranking.NewRegistryWithOverrides(settings.Ranking)
	if err != nil {
		return err
	}
	if _, err := rankings.Lookup(lc.reasonCommodity); err != nil {
		return err
	}
	if lc.numSorted < 0 {
		return fmt.Errorf("num-sorted must not be negative, got %d", lc.numSorted)
	}

	cfg, err := lc.clientConfig(ctx, cmd, settings, reporter)
	if err != nil {
		return err
	}
	turbo, err := client.NewClient(cfg)
	if err != nil {
		return err
	}
	if err := turbo.Login(ctx); err != nil {
		return err
	}

	entityType := settings.EntityType
	if cmd.Flags().Changed("entity-type") {
		entityType = lc.entityType
	}
	service := critical.NewService(turbo, rankings, critical.Settings{EntityType: entityType})

	previous, err := service.PreviousCriticalList(ctx, lc.groupName)
	if err != nil {
		return err
	}
	list, err := service.CurrentCriticalList(ctx, lc.reasonCommodity, lc.numSorted, previous)
	if err != nil {
		return err
	}
	for _, e := range list.Carried() {
		reporter.Info("Adding previous entity %s to the current list", e.UUID)
	}
	for _, e := range list {
		if e.NegativeDelta {
			reporter.Warn("%s action for %s proposes a decrease of %g", lc.reasonCommodity, e.DisplayName, -e.RankScore)
		}
	}

	path, err := export.WriteFile(lc.fileName, list, lc.groupName)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("entities", len(list)).Msg("critical list exported")

	summary, err := groupsync.NewSyncer(turbo).SyncFile(ctx, path, groupsync.Options{
		GroupHeaders: []string{export.ColumnDepartment},
		Groups:       []string{lc.groupName},
		Verbose:      true,
		Quiet:        lc.quiet,
		DryRun:       lc.dryRun,
		Output:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	return reporter.Summary(summary)
}

// clientConfig resolves credentials from flags, environment, settings file and profile, in that order
func (lc *LimitCmd) clientConfig(
	ctx context.Context,
	cmd *cobra.Command,
	settings *config.Settings,
	reporter *console.Reporter,
) (client.Config, error) {
	flags := domain.Credentials{Username: lc.username, EncodedCreds: lc.encodedCreds}
	if cmd.Flags().Changed("target") {
		flags.Target = lc.target
	}

	var profile domain.Credentials
	if lc.profile != "" {
		if lc.deps.ProfilePath == "" {
			return client.Config{}, fmt.Errorf("no profile file to read profile %s from", lc.profile)
		}
		registry, err := config.NewRegistry(lc.deps.ProfilePath)
		if err != nil {
			return client.Config{}, fmt.Errorf("failed to read profiles: %w", err)
		}
		p, err := registry.GetProfile(ctx, lc.profile)
		if err != nil {
			return client.Config{}, err
		}
		profile = p.Credentials
	}

	creds := config.ResolveCredentials(flags, settings.Credentials(), profile)
	if creds.EncodedCreds == "" {
		if creds.Username == "" {
			creds.Username = config.DefaultUsername
		}
		if creds.Password == "" {
			if lc.deps.Prompt == nil {
				return client.Config{}, fmt.Errorf("no password for %s and no terminal to prompt on", creds.Username)
			}
			password, err := lc.deps.Prompt(ctx, creds.Username)
			if err != nil {
				return client.Config{}, err
			}
			creds.Password = password
		}
	}

	cfg := client.DefaultConfig(creds.Target)
	cfg.Username = creds.Username
	cfg.Password = creds.Password
	cfg.EncodedCreds = creds.EncodedCreds
	cfg.Insecure = lc.insecure || lc.ignoreInsecureWarning || settings.Insecure
	if settings.Timeout > 0 {
		cfg.Timeout = settings.Timeout
	}
	cfg.RetryCount = settings.RetryCount

	if cfg.Insecure && !lc.ignoreInsecureWarning {
		reporter.Warn("TLS certificate verification is disabled for %s", creds.Target)
	}
	return cfg, nil
}
