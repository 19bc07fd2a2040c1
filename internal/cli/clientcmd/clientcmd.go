package clientcmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuihairu/keeperhub/pkg/sdk"
)

// New returns `keeperhub client`, a command line stand-in for the game's
// file-sharing client.
func New() *cobra.Command {
	var server string
	var timeout time.Duration
	cmd := &cobra.Command{Use: "client", Short: "Talk to a running hub the way the game does"}
	cmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "hub base URL")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout for listing calls")
	client := func() *sdk.Client { return sdk.NewClient(sdk.ClientConfig{BaseURL: server, Timeout: timeout}) }

	upload := func(use, short string, fn func(*sdk.Client, context.Context, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <file>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return fn(client(), cmd.Context(), args[0])
			},
		}
	}
	cmd.AddCommand(
		upload("upload", "Upload a retired game (.ret)", (*sdk.Client).Upload),
		upload("upload-site", "Upload a retired site (.sit)", (*sdk.Client).UploadSite),
		upload("upload-scores", "Upload a pre-formatted score file", (*sdk.Client).UploadScores),
		upload("upload-highscores", "Upload a raw highscore file", (*sdk.Client).UploadHighscores),
	)

	var version int
	versionFlag := func(c *cobra.Command) {
		c.Flags().IntVar(&version, "version", 0, "only entries for this game version")
	}
	versionPtr := func(c *cobra.Command) *int {
		if c.Flags().Changed("version") {
			return &version
		}
		return nil
	}

	games := &cobra.Command{
		Use:   "games",
		Short: "List retired games",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().ListGames(cmd.Context(), versionPtr(cmd))
			if err != nil {
				return err
			}
			printGames(cmd.OutOrStdout(), list)
			return nil
		},
	}
	versionFlag(games)

	sites := &cobra.Command{
		Use:   "sites",
		Short: "List retired sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().ListSites(cmd.Context(), versionPtr(cmd))
			if err != nil {
				return err
			}
			printSites(cmd.OutOrStdout(), list)
			return nil
		},
	}
	versionFlag(sites)

	highscores := &cobra.Command{
		Use:   "highscores",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().Highscores(cmd.Context(), versionPtr(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, h := range list {
				fmt.Fprintf(out, "%3d. %-20s %-20s %6d pts %5d turns  %s\n", i+1, h.PlayerName, h.WorldName, h.Points, h.Turns, h.GameResult)
			}
			return nil
		},
	}
	versionFlag(highscores)

	messages := &cobra.Command{
		Use:   "messages <boardId>",
		Short: "Print a message board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("boardId: %w", err)
			}
			list, err := client().Messages(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, m := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Author, m.Text)
			}
			return nil
		},
	}

	event := &cobra.Command{
		Use:   "event <eventType> [key=value...]",
		Short: "Send a game event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			return client().Event(cmd.Context(), args[0], fields)
		},
	}

	var dir string
	download := &cobra.Command{
		Use:   "download <filename>",
		Short: "Download a stored game or site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := client().Download(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	download.Flags().StringVar(&dir, "dir", ".", "destination directory")

	cmd.AddCommand(games, sites, highscores, messages, event, download)
	return cmd
}

func parseFields(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("field %q: want key=value", a)
		}
		fields[k] = v
	}
	return fields, nil
}

func printGames(w io.Writer, list []sdk.GameInfo) {
	for _, g := range list {
		fmt.Fprintf(w, "%-30s %-30s v%-4d won %d/%d  %s\n", g.Filename, g.DisplayName, g.Version, g.WonGames, g.TotalGames, g.UploadTime.Format(time.DateTime))
	}
}

func printSites(w io.Writer, list []sdk.SiteInfo) {
	for _, s := range list {
		fmt.Fprintf(w, "%-30s v%-4d won %d/%d  %s\n", s.Filename, s.Version, s.WonGames, s.TotalGames, s.UploadTime.Format(time.DateTime))
		if s.SaveInfo != "" {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(s.SaveInfo, "\n", "\n    "))
		}
	}
}
