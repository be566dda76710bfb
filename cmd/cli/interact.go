package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/eventrec/internal/domain/model"
)

func newInteractCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interact",
		Short: "Forward a user interaction and print the learned preferences.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userFlag, _ := cmd.Flags().GetString("user")
			eventFlag, _ := cmd.Flags().GetString("event")
			typeFlag, _ := cmd.Flags().GetString("type")
			strength, _ := cmd.Flags().GetFloat64("strength")
			idFlag, _ := cmd.Flags().GetString("id")

			user, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			eventID, err := uuid.Parse(eventFlag)
			if err != nil {
				return fmt.Errorf("invalid --event: %w", err)
			}
			interaction := model.UserInteraction{
				Strength:  strength,
				Timestamp: time.Now().UTC(),
			}
			if err := interaction.Type.UnmarshalText([]byte(typeFlag)); err != nil {
				return err
			}
			if idFlag != "" {
				if interaction.ID, err = uuid.Parse(idFlag); err != nil {
					return fmt.Errorf("invalid --id: %w", err)
				}
			}

			r, err := st.build(cmd.Context())
			if err != nil {
				return err
			}
			ev, err := r.event(eventID)
			if err != nil {
				return err
			}
			if err := r.engine.RecordUserInteraction(cmd.Context(), user, ev, interaction); err != nil {
				return err
			}

			learned, err := r.store.LearnedPreferences(cmd.Context(), user)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), learned)
		},
	}

	cmd.Flags().StringP("user", "u", "", "user ID")
	cmd.Flags().StringP("event", "e", "", "event ID")
	cmd.Flags().StringP("type", "t", "View", "interaction type (View, Click, Register, Attend, Rate, Share, Bookmark, Skip)")
	cmd.Flags().Float64("strength", 0, "interaction strength in [0,1], used by Rate")
	cmd.Flags().String("id", "", "interaction ID; duplicates are forwarded once")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}
