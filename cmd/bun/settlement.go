package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	competitionqueue "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/queue"
	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/urfave/cli/v2"
)

var compactClock = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// parseSettleTime accepts RFC 3339 or natural language such as
// "tomorrow at 6pm". Results in the past are rejected.
func parseSettleTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("settlement time is required")
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		if t.Before(now) {
			return time.Time{}, fmt.Errorf("settlement time %s is in the past", t.Format(time.RFC3339))
		}
		return t.UTC(), nil
	}

	normalized := strings.ToLower(input)
	normalized = compactClock.ReplaceAllString(normalized, "$1:$2 $3")

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(normalized, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not recognize time %q", input)
	}
	if r.Time.Before(now) {
		return time.Time{}, fmt.Errorf("settlement time %s is in the past", r.Time.Format(time.RFC3339))
	}
	return r.Time.UTC(), nil
}

var competitionFlag = &cli.StringFlag{Name: "competition", Usage: "competition ID", Required: true}

func competitionArg(c *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String("competition"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --competition: %w", err)
	}
	return id, nil
}

// schedulerFactory opens the queue the settlement commands run against.
type schedulerFactory func(ctx context.Context) (competitionqueue.QueueService, error)

func newSettlementCommand(open schedulerFactory) *cli.Command {
	withQueue := func(fn func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			competitionID, err := competitionArg(c)
			if err != nil {
				return err
			}
			q, err := open(c.Context)
			if err != nil {
				return err
			}
			defer func() { _ = q.Stop(context.WithoutCancel(c.Context)) }()
			return fn(c, q, competitionID)
		}
	}

	enqueue := func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID, at time.Time) error {
		jobID, err := q.ScheduleSettlement(c.Context, competitionID, at)
		if err != nil {
			return err
		}
		runAt := "as soon as a worker is free"
		if !at.IsZero() {
			runAt = at.Format(time.RFC3339)
		}
		fmt.Fprintf(c.App.Writer, "Settlement job %d for competition %s runs %s\n", jobID, competitionID, runAt)
		return nil
	}

	return &cli.Command{
		Name:  "settlement",
		Usage: "settlement jobs",
		Subcommands: []*cli.Command{
			{
				Name:  "schedule",
				Usage: "schedule settlement for a competition",
				Flags: []cli.Flag{
					competitionFlag,
					&cli.StringFlag{Name: "at", Usage: `when to settle, RFC 3339 or e.g. "sunday at 11:59pm"`, Required: true},
				},
				Action: func(c *cli.Context) error {
					at, err := parseSettleTime(c.String("at"), time.Now())
					if err != nil {
						return err
					}
					return withQueue(func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID) error {
						return enqueue(c, q, competitionID, at)
					})(c)
				},
			},
			{
				Name:  "run",
				Usage: "enqueue settlement for immediate execution",
				Flags: []cli.Flag{competitionFlag},
				Action: withQueue(func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID) error {
					return enqueue(c, q, competitionID, time.Time{})
				}),
			},
			{
				Name:  "cancel",
				Usage: "cancel settlement jobs that have not run yet",
				Flags: []cli.Flag{competitionFlag},
				Action: withQueue(func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID) error {
					cancelled, err := q.CancelSettlement(c.Context, competitionID)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Cancelled %d settlement job(s) for competition %s\n", cancelled, competitionID)
					return nil
				}),
			},
			{
				Name:  "jobs",
				Usage: "list settlement jobs for a competition",
				Flags: []cli.Flag{competitionFlag},
				Action: withQueue(func(c *cli.Context, q competitionqueue.QueueService, competitionID uuid.UUID) error {
					jobs, err := q.GetScheduledJobs(c.Context, competitionID)
					if err != nil {
						return err
					}
					if len(jobs) == 0 {
						fmt.Fprintln(c.App.Writer, "No settlement jobs")
					}
					for _, j := range jobs {
						fmt.Fprintf(c.App.Writer, "%d\t%s\tscheduled=%s\tattempt=%d/%d\n", j.ID, j.State, j.ScheduledAt, j.Attempt, j.MaxAttempts)
					}
					return nil
				}),
			},
		},
	}
}
