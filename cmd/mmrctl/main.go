// Command mmrctl is a thin harness around internal/driver: it reads a
// JSON contest log, replays it sequentially through a named rating
// system, and prints the resulting leaderboard. The core itself exposes
// no CLI (spec.md 6) — this binary is just one caller of it.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ratingcore/internal/driver"
	"ratingcore/internal/ingest"
	"ratingcore/internal/obslog"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warnc(s string) string { return c(colYellow, s) }
func cyan(s string) string { return c(colCyan, s) }

func section(title string) { fmt.Printf("\n%s %s %s\n", dim("──"), bold(title), dim("──")) }

func main() {
	_ = godotenv.Load()
	useColor = os.Getenv("NO_COLOR") == ""

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mmrctl",
		Short: "Replay a contest log through a Bayesian rating system",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		contestPath string
		systemName  string
		muNoob      float64
		sigmaNoob   float64
		minHistory  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a JSON contest log and print the resulting leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), contestPath, systemName, muNoob, sigmaNoob, minHistory)
		},
	}

	cmd.Flags().StringVarP(&contestPath, "contest", "c", "", "path to a JSON contest log (required)")
	cmd.Flags().StringVarP(&systemName, "system", "s", "glicko", "rating system: bar, glicko, cfsys, tcsys, trueskill, mmx, mmx-fast, mmr, mmr-fast")
	cmd.Flags().Float64Var(&muNoob, "mu-noob", 1500, "default mu for a newly seen handle")
	cmd.Flags().Float64Var(&sigmaNoob, "sigma-noob", 350, "default sigma for a newly seen handle")
	cmd.Flags().IntVar(&minHistory, "min-history", 1, "minimum contest count to appear in the leaderboard")
	cmd.MarkFlagRequired("contest")

	return cmd
}

func runReplay(ctx context.Context, contestPath, systemName string, muNoob, sigmaNoob float64, minHistory int) error {
	log := obslog.New(logrus.InfoLevel)

	f, err := os.Open(contestPath)
	if err != nil {
		return fmt.Errorf("mmrctl: opening contest log: %w", err)
	}
	defer f.Close()

	source, err := ingest.NewJSONSource(f)
	if err != nil {
		return fmt.Errorf("mmrctl: reading contest log: %w", err)
	}
	contests, err := source.Contests()
	if err != nil {
		return fmt.Errorf("mmrctl: listing contests: %w", err)
	}

	sys, err := driver.GetRatingSystemByName(systemName, log)
	if err != nil {
		return err
	}

	players := make(driver.PlayersByName)
	var lastStandings []driver.ContestStanding
	var report driver.PerformanceReport
	for _, contest := range contests {
		if err := driver.SimulateContest(players, contest, sys, muNoob, sigmaNoob, log); err != nil {
			return fmt.Errorf("mmrctl: contest %q: %w", contest.Name, err)
		}
		report.Add(driver.ComputeContestMetrics(players, contest.Standings))
		lastStandings = contest.Standings
	}

	section(fmt.Sprintf("Leaderboard (%s, %d contests)", systemName, len(contests)))
	printLeaderboard(players, lastStandings, minHistory)

	section("Evaluation metrics")
	fmt.Println(dim(report.String()))
	return nil
}

func printLeaderboard(players driver.PlayersByName, lastStandings []driver.ContestStanding, minHistory int) {
	ratings := driver.GetParticipantRatings(players, lastStandings, minHistory)
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].Rating.Mu > ratings[j].Rating.Mu })

	for i, r := range ratings {
		place := fmt.Sprintf("%3d.", i+1)
		fmt.Printf("%s %s  %s %s\n",
			dim(place),
			bold(r.Handle),
			good(fmt.Sprintf("mu=%.0f", r.Rating.Mu)),
			cyan(fmt.Sprintf("sigma=%.0f", r.Rating.Sigma)))
	}
	if len(ratings) == 0 {
		fmt.Println(warnc("no participants met min-history"))
	}
}
