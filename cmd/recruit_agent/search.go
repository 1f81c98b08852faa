package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-search/internal/fetch"
	"github.com/jonathan/recruit-search/internal/ingestion"
	"github.com/jonathan/recruit-search/internal/session"
	"github.com/jonathan/recruit-search/internal/types"
)

type searchOptions struct {
	jdFile     string
	jdURL      string
	render     bool
	suggest    bool
	page       int
	experience int
	location   string
	skills     []string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search candidates",
		Long:  "Search candidates with a free-text query, a job description file or a job posting URL, optionally narrowed by filters.",
		Example: `  recruit_agent search "Senior React Developer" --experience 5 --skills React,TypeScript
  recruit_agent search --jd-file job.txt --page 2
  recruit_agent search --jd-url https://jobs.lever.co/acme/123 --render`,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		return runSearch(cmd, args, rt, opts)
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.jdFile, "jd-file", "", "Build the query from a job description text file")
	flags.StringVar(&opts.jdURL, "jd-url", "", "Build the query from a job posting URL")
	flags.BoolVar(&opts.render, "render", false, "Render script-heavy job pages in headless Chrome")
	flags.BoolVar(&opts.suggest, "suggest", false, "List suggested queries and exit")
	flags.IntVarP(&opts.page, "page", "p", 1, "Result page")
	flags.IntVar(&opts.experience, "experience", 0, "Minimum years of experience")
	flags.StringVar(&opts.location, "location", "", "Location filter")
	flags.StringSliceVar(&opts.skills, "skills", nil, "Required skills, comma separated")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, rt *runtime, opts *searchOptions) error {
	if opts.suggest {
		rt.printer.PrintSuggestions(ingestion.Suggestions)
		return nil
	}

	query, err := resolveQuery(cmd, args, rt, opts)
	if err != nil {
		return err
	}

	filters := types.SearchFilters{Location: opts.location, Skills: opts.skills}
	if cmd.Flags().Changed("experience") {
		years := opts.experience
		filters.Experience = &years
	}

	store := rt.newStore()
	unsubscribe := store.Subscribe(stageReporter(cmd.ErrOrStderr()))
	defer unsubscribe()

	if err := store.SubmitSearch(cmd.Context(), query, filters, opts.page); err != nil {
		rt.printer.PrintNotice(store.Snapshot().Notice)
		return err
	}

	rt.printer.PrintResults(store.Snapshot())
	return nil
}

// resolveQuery picks the query from exactly one of the arguments, --jd-file and --jd-url.
func resolveQuery(cmd *cobra.Command, args []string, rt *runtime, opts *searchOptions) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, opts.jdFile != "", opts.jdURL != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return "", errors.New("provide a query, --jd-file or --jd-url (or --suggest for ideas)")
	case sources > 1:
		return "", errors.New("a query, --jd-file and --jd-url are mutually exclusive; provide only one")
	}

	var q *ingestion.Query
	var err error
	switch {
	case opts.jdFile != "":
		q, err = ingestion.FromFile(opts.jdFile)
	case opts.jdURL != "":
		cfg := &fetch.FetcherConfig{Logger: rt.logger}
		if opts.render {
			cfg.Renderer = fetch.NewChromeRenderer(rt.logger)
		}
		q, err = ingestion.FromURL(cmd.Context(), fetch.NewFetcher(cfg), opts.jdURL)
	default:
		return strings.Join(args, " "), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	if q.Metadata.Truncated {
		rt.logger.Sugar().Infof("job description truncated from %d to %d characters", q.Metadata.Length, ingestion.MaxQueryLength)
	}
	return q.Text, nil
}

// stageReporter prints each stage as it becomes active.
func stageReporter(w io.Writer) func(session.State) {
	var mu sync.Mutex
	last := ""
	return func(state session.State) {
		mu.Lock()
		defer mu.Unlock()
		if !state.Loading {
			last = ""
			return
		}
		if active := state.ActiveStage(); active != "" && active != last {
			last = active
			_, _ = fmt.Fprintf(w, "… %s\n", active)
		}
	}
}
