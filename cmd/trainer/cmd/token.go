package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vocabtrainer/backend/internal/auth"
	"github.com/vocabtrainer/backend/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "issue-token <learner-id>",
	Short: "Issue an access token for a learner",
	Long: `Issue an access token signed with JWT_SECRET, for use as LEARNER_TOKEN.

The progress server must share the same JWT_SECRET.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jwtCfg, err := config.LoadJWT()
		if err != nil {
			return err
		}
		token, err := auth.NewTokenGenerator(jwtCfg.Secret, jwtCfg.AccessTokenExpiry).GenerateAccessToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
