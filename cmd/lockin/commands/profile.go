package commands

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/benvon/lockin/internal/store"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	var goal, beat string
	var clearBeat bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your goal and focus beat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update store.ProfileUpdate
			if cmd.Flags().Changed("goal") {
				update.MainGoal = &goal
			}
			if cmd.Flags().Changed("beat") {
				update.LockInBeat = &beat
			}
			if clearBeat {
				empty := ""
				update.LockInBeat = &empty
			}

			profile := a.profile
			if update.MainGoal != nil || update.LockInBeat != nil {
				updated, err := a.backend.UpdateProfile(cmd.Context(), update)
				if err != nil {
					return err
				}
				profile = updated
			}
			if profile == nil {
				return fmt.Errorf("no profile returned by the API")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email:  %s\n", profile.Email)
			fmt.Fprintf(out, "Goal:   %s\n", orDash(profile.MainGoal))
			fmt.Fprintf(out, "Beat:   %s\n", orDash(profile.LockInBeat))
			return nil
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "", "Set your main goal")
	cmd.Flags().StringVar(&beat, "beat", "", "Set the focus beat URL")
	cmd.Flags().BoolVar(&clearBeat, "clear-beat", false, "Remove the focus beat")
	cmd.MarkFlagsMutuallyExclusive("beat", "clear-beat")
	return cmd
}

func newBeatCmd(a *app) *cobra.Command {
	beat := &cobra.Command{
		Use:   "beat",
		Short: "Manage the focus beat",
	}
	beat.AddCommand(&cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Upload an audio file and use it as your focus beat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			contentType := audioContentType(path)
			if contentType == "" {
				return fmt.Errorf("%s does not look like an audio file", filepath.Base(path))
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open beat: %w", err)
			}
			defer func() { _ = f.Close() }()

			url, err := a.backend.UploadBeat(cmd.Context(), filepath.Base(path), contentType, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Focus beat set: %s\n", url)
			return nil
		},
	})
	return beat
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

// audioContentType guesses the content type from the extension, or "".
func audioContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); strings.HasPrefix(ct, "audio/") {
		return ct
	}
	return ""
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
