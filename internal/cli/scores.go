package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"quiz-event-service/internal/config"
	"quiz-event-service/internal/domain"
	pgstore "quiz-event-service/internal/infra/postgres"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewScoresCmd prints the participant score table.
func NewScoresCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Print participants ordered by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScores(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	}
}

func runScores(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dsn := cfg.PostgresDSN()
	if dsn == "" {
		return fmt.Errorf("postgres not configured")
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	participants, err := pgstore.NewParticipantStore(pool).ListParticipants(ctx)
	if err != nil {
		return err
	}
	renderScores(out, participants)
	return nil
}

func renderScores(out io.Writer, participants []domain.Participant) {
	if len(participants) == 0 {
		color.New(color.FgRed).Fprintln(out, "No participants registered yet.")
		return
	}

	color.New(color.FgYellow).Fprintf(out, "\nScores (%d participants)\n", len(participants))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Rank", "ID", "Name", "Class", "Email", "Score", "Played At"})

	rank := 1
	for _, p := range participants {
		score, playedAt, rankCell := "-", "-", "-"
		if p.Score != nil {
			score = strconv.Itoa(*p.Score)
			rankCell = strconv.Itoa(rank)
			rank++
		}
		if p.SubmittedAt != nil {
			playedAt = p.SubmittedAt.Local().Format(time.DateTime)
		}
		table.Append([]string{
			rankCell,
			strconv.FormatInt(p.ID, 10),
			p.Identity.Name,
			p.Identity.ClassName,
			p.Identity.Email,
			score,
			playedAt,
		})
	}
	table.Render()
}

