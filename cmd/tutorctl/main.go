// Command tutorctl exercises the search parser, seeds snapshot databases and
// broadcasts announcements from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"peertutor/internal/bootstrap"
	"peertutor/internal/cache"
	"peertutor/internal/config"
	"peertutor/internal/models"
	"peertutor/internal/notifications"
	"peertutor/internal/search"
	"peertutor/internal/seed"
	"peertutor/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	fakeTutors  int
	fakeTutees  int
	fakeSeed    int64
	filterModes bool
)

var rootCmd = &cobra.Command{
	Use:   "tutorctl",
	Short: "PeerTutor maintenance tool",
}

// fixtureStore loads the demo catalog into a fresh store, plus any
// requested generated users.
func fixtureStore() (*store.Store, error) {
	f, err := seed.LoadFixtures()
	if err != nil {
		return nil, err
	}
	s := store.New()
	if err := seed.Apply(s, f, bcrypt.MinCost); err != nil {
		return nil, fmt.Errorf("applying fixtures: %w", err)
	}
	if fakeTutors > 0 || fakeTutees > 0 {
		if err := seed.NewFactory(fakeSeed).Populate(s, fakeTutors, fakeTutees); err != nil {
			return nil, fmt.Errorf("generating users: %w", err)
		}
	}
	return s, nil
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Show how a search phrase is parsed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := fixtureStore()
		if err != nil {
			return err
		}
		q := search.Parse(strings.Join(args, " "), s.GetAllSubjects())
		out, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Run a tutor search against the demo catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := fixtureStore()
		if err != nil {
			return err
		}
		q := search.Parse(strings.Join(args, " "), s.GetAllSubjects())
		tutors := s.SearchTutors(q, search.Options{FilterMode: filterModes})
		return printTutors(cmd, tutors)
	},
}

func printTutors(cmd *cobra.Command, tutors []models.TutorProfile) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRATE\tSUBJECTS")
	for _, t := range tutors {
		names := make([]string, 0, len(t.Subjects))
		for _, sub := range t.Subjects {
			names = append(names, sub.Name+" ("+sub.Level+")")
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", t.ID, t.Name, t.HourlyRate, strings.Join(names, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d tutor(s)\n", len(tutors))
	return nil
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo catalog to the snapshot database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.DBDriver == "" {
			return errors.New("DB_DRIVER is not set; nothing to seed")
		}

		ctx := context.Background()
		rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedFixtures: true, SkipRedis: true})
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		if fakeTutors > 0 || fakeTutees > 0 {
			if err := seed.NewFactory(fakeSeed).Populate(rt.Store, fakeTutors, fakeTutees); err != nil {
				return fmt.Errorf("generating users: %w", err)
			}
			if err := rt.Snapshots.Save(ctx, rt.Store.Snapshot()); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}
		}

		st := rt.Store.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot holds %d tutors, %d tutees, %d subjects\n", st.Tutors, st.Tutees, st.Subjects)
		return nil
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce <message>",
	Short: "Push an announcement to every connected client through Redis",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		rdb, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis client: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}

		payload, err := notifications.Event{
			Type:    notifications.EventAnnouncement,
			Payload: map[string]string{"message": strings.Join(args, " ")},
		}.Encode()
		if err != nil {
			return err
		}
		if err := notifications.NewNotifier(rdb).PublishBroadcast(ctx, payload); err != nil {
			return fmt.Errorf("publishing announcement: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "announcement published")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, parseCmd, seedCmd} {
		c.Flags().IntVar(&fakeTutors, "fake-tutors", 0, "Number of generated tutors to add")
		c.Flags().IntVar(&fakeTutees, "fake-tutees", 0, "Number of generated tutees to add")
		c.Flags().Int64Var(&fakeSeed, "fake-seed", 1, "Seed for generated users")
	}
	searchCmd.Flags().BoolVar(&filterModes, "filter-modes", false, "Drop tutors whose modes exclude the parsed mode")

	rootCmd.AddCommand(parseCmd, searchCmd, seedCmd, announceCmd)
}
