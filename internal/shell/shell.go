// Package shell is an interactive command loop over one search session.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/recruit-search/internal/ingestion"
	"github.com/jonathan/recruit-search/internal/observability"
	"github.com/jonathan/recruit-search/internal/session"
	"github.com/jonathan/recruit-search/internal/types"
)

// Prompt is printed before every command.
const Prompt = "recruit> "

// ErrUnknownCommand is returned for a command the shell does not know.
var ErrUnknownCommand = errors.New("unknown command")

const helpText = `Commands:
  search <query>              run a search with the current filters
  filter [experience=N] [location=TEXT] [skills=A,B]
  filter clear                remove all filters
  page <n> | next | prev      move between result pages
  candidate <id>              show a full profile
  unlock <id>                 reveal contact details (costs credits)
  shortlist <id> [unlike]     like or unlike a candidate
  shortlisted                 list shortlisted candidates
  credits                     show the credit balance
  dismiss                     clear the last error
  suggest                     show example queries
  reset                       start a new session, keeping credits
  help                        show this text
  quit                        leave the shell`

// Shell reads commands from in and drives a session.Store.
type Shell struct {
	store   *session.Store
	out     io.Writer
	printer *observability.Printer
	logger  *zap.Logger

	// mu serializes output from commands and progress updates.
	mu        sync.Mutex
	lastStage string
}

// New creates a shell writing to out. A nil printer writes plain text to out.
func New(store *session.Store, out io.Writer, printer *observability.Printer, logger *zap.Logger) *Shell {
	if printer == nil {
		printer = observability.NewPrinter(out)
		printer.SetColor(false)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shell{store: store, out: out, printer: printer, logger: logger}
}

// Run reads commands until quit, EOF or ctx is cancelled.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	unsubscribe := sh.store.Subscribe(sh.onState)
	defer unsubscribe()

	scanner := bufio.NewScanner(in)
	for {
		sh.write(Prompt)
		if !scanner.Scan() {
			sh.write("\n")
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		quit, err := sh.Exec(ctx, scanner.Text())
		if err != nil {
			sh.report(err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports true when the shell should exit.
func (sh *Shell) Exec(ctx context.Context, line string) (bool, error) {
	name, rest := splitCommand(line)
	switch name {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		sh.writeln(helpText)
	case "search":
		return false, sh.search(ctx, rest)
	case "filter":
		return false, sh.filter(rest)
	case "page":
		page, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("page: %q is not a number", rest)
		}
		return false, sh.afterSearch(sh.store.ChangePage(ctx, page))
	case "next":
		return false, sh.afterSearch(sh.store.NextPage(ctx))
	case "prev":
		return false, sh.afterSearch(sh.store.PrevPage(ctx))
	case "candidate":
		return false, sh.candidate(ctx, rest)
	case "unlock":
		return false, sh.unlock(ctx, rest)
	case "shortlist":
		return false, sh.shortlist(ctx, rest)
	case "shortlisted":
		list, err := sh.store.Shortlisted(ctx)
		if err != nil {
			return false, err
		}
		sh.locked(func() { sh.printer.PrintShortlisted(list) })
	case "credits":
		credits := sh.store.Credits()
		sh.locked(func() { sh.printer.PrintCredits(credits) })
	case "dismiss":
		sh.store.DismissError()
	case "suggest":
		sh.locked(func() { sh.printer.PrintSuggestions(ingestion.Suggestions) })
	case "reset":
		sh.store.Reset()
		sh.writeln("Session reset.")
	default:
		return false, fmt.Errorf("%w %q, type help for a list", ErrUnknownCommand, name)
	}
	return false, nil
}

func (sh *Shell) search(ctx context.Context, query string) error {
	sh.store.SetQuery(query)
	snap := sh.store.Snapshot()
	return sh.afterSearch(sh.store.SubmitSearch(ctx, query, snap.Filters, 1))
}

// afterSearch prints the results of a completed search.
func (sh *Shell) afterSearch(err error) error {
	if err != nil {
		return err
	}
	snap := sh.store.Snapshot()
	sh.locked(func() { sh.printer.PrintResults(snap) })
	return nil
}

func (sh *Shell) filter(args string) error {
	if strings.TrimSpace(args) == "clear" {
		return sh.store.SetFilters(types.SearchFilters{})
	}
	filters, err := ParseFilters(sh.store.Snapshot().Filters, args)
	if err != nil {
		return err
	}
	return sh.store.SetFilters(filters)
}

func (sh *Shell) candidate(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("candidate: id required")
	}
	c, err := sh.store.Candidate(ctx, id)
	if err != nil {
		return err
	}
	sh.locked(func() { sh.printer.PrintCandidate(c) })
	return nil
}

func (sh *Shell) unlock(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("unlock: id required")
	}
	info, err := sh.store.UnlockContact(ctx, id)
	if err != nil {
		return err
	}
	credits := sh.store.Credits()
	sh.locked(func() { sh.printer.PrintContact(id, info, &credits) })
	return nil
}

func (sh *Shell) shortlist(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return errors.New("shortlist: id required")
	}
	liked := !(len(fields) > 1 && fields[1] == "unlike")
	if err := sh.store.Shortlist(ctx, fields[0], liked); err != nil {
		return err
	}
	if liked {
		sh.writeln(fmt.Sprintf("Shortlisted %s.", fields[0]))
	} else {
		sh.writeln(fmt.Sprintf("Removed %s from the shortlist.", fields[0]))
	}
	return nil
}

// report prints an error, preferring the session notice when one was set.
func (sh *Shell) report(err error) {
	sh.logger.Debug("command failed", zap.Error(err))
	if notice := sh.store.Snapshot().Notice; notice != nil {
		var verr *session.ValidationError
		if !errors.As(err, &verr) {
			sh.locked(func() { sh.printer.PrintNotice(notice) })
			return
		}
	}
	sh.writeln("error: " + err.Error())
}

// onState prints each stage as it becomes active while a search runs.
func (sh *Shell) onState(state session.State) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if !state.Loading {
		sh.lastStage = ""
		return
	}
	active := state.ActiveStage()
	if active == "" || active == sh.lastStage {
		return
	}
	sh.lastStage = active
	_, _ = fmt.Fprintf(sh.out, "  … %s\n", active)
}

func (sh *Shell) locked(fn func()) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn()
}

func (sh *Shell) write(s string) {
	sh.locked(func() { _, _ = io.WriteString(sh.out, s) })
}

func (sh *Shell) writeln(s string) {
	sh.write(s + "\n")
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// ParseFilters applies key=value pairs to base. Keys are experience,
// location and skills; an empty value clears that filter.
func ParseFilters(base types.SearchFilters, args string) (types.SearchFilters, error) {
	out := base.Clone()
	for _, pair := range splitPairs(args) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return base, fmt.Errorf("filter: expected key=value, got %q", pair)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "experience", "exp":
			if value == "" {
				out.Experience = nil
				continue
			}
			years, err := strconv.Atoi(value)
			if err != nil {
				return base, fmt.Errorf("filter: experience %q is not a number", value)
			}
			out.Experience = &years
		case "location", "loc":
			out.Location = value
		case "skills":
			out.Skills = nil
			for _, s := range strings.Split(value, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out.Skills = append(out.Skills, s)
				}
			}
		default:
			return base, fmt.Errorf("filter: unknown key %q", key)
		}
	}
	return out, nil
}

// splitPairs splits on spaces that precede a new key=value pair, so values
// may contain spaces: location=New York skills=Go.
func splitPairs(args string) []string {
	var pairs []string
	for _, field := range strings.Fields(args) {
		if strings.Contains(field, "=") || len(pairs) == 0 {
			pairs = append(pairs, field)
			continue
		}
		pairs[len(pairs)-1] += " " + field
	}
	return pairs
}
