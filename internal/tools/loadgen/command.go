package loadgen

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	baseURL     string
	profile     string
	duration    time.Duration
	rps         int
	concurrency int
	seed        int64
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Generate traffic for observability validation"}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:4000", "API base URL")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "mixed", "traffic profile: auth|mixed|error-heavy")
	cmd.PersistentFlags().DurationVar(&opts.duration, "duration", 15*time.Second, "traffic duration")
	cmd.PersistentFlags().IntVar(&opts.rps, "rps", 20, "requests per second")
	cmd.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 6, "concurrent workers")
	cmd.PersistentFlags().Int64Var(&opts.seed, "seed", 42, "random seed")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := Run(cmd.Context(), Config{
				BaseURL:     opts.baseURL,
				Profile:     opts.profile,
				Duration:    opts.duration,
				RPS:         opts.rps,
				Concurrency: opts.concurrency,
				Seed:        opts.seed,
			})
			if err != nil {
				return err
			}
			cmd.Println(fmt.Sprintf("total_requests=%d failures=%d status_2xx=%d status_4xx=%d status_5xx=%d",
				res.TotalRequests, res.Failures, res.Status2xx, res.Status4xx, res.Status5xx))
			return nil
		},
	}
}
