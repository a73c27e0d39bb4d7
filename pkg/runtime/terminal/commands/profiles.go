package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/turbo-critical/pkg/services/config"
)

type ProfilesCmd struct {
	profilePath string
}

func NewProfilesCmd(deps Dependencies) *cobra.Command {
	pc := &ProfilesCmd{}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the credential profiles and their targets",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.profilePath, "profile-file", deps.ProfilePath, "Path to the credential profile file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := config.NewRegistry(pc.profilePath)
	if err != nil {
		return fmt.Errorf("failed to read profiles from %s: %w", pc.profilePath, err)
	}

	names, err := registry.GetProfiles(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No profiles found in %s\n", pc.profilePath)
		return nil
	}

	for _, name := range names {
		profile, err := registry.GetProfile(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), profile.String())
	}
	return nil
}
