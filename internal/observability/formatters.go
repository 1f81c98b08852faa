// Package observability renders session state and API payloads as text
// for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/recruit-search/internal/campaigns"
	"github.com/jonathan/recruit-search/internal/session"
	"github.com/jonathan/recruit-search/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxSkillsToShow caps the skills listed per result row
	maxSkillsToShow = 5
)

// bandColors maps a match band to its display color.
var bandColors = map[types.MatchBand]color.Attribute{
	types.MatchStrong: color.FgGreen,
	types.MatchGood:   color.FgBlue,
	types.MatchFair:   color.FgYellow,
}

// Printer writes human-readable output.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer that writes to out. Color follows the
// terminal detection of fatih/color.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: !color.NoColor}
}

// SetColor enables or disables ANSI colors.
func (p *Printer) SetColor(enabled bool) {
	p.color = enabled
}

// line is one row of a box with an optional color.
type line struct {
	text string
	attr []color.Attribute
}

func plain(format string, args ...any) line {
	return line{text: fmt.Sprintf(format, args...)}
}

func (p *Printer) paint(text string, attrs ...color.Attribute) string {
	if !p.color || len(attrs) == 0 {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// printBox prints a box with a title. Lines are padded before coloring so
// escape codes do not break alignment.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, lines []line) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", p.paint(pad(title), color.Bold))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, l := range lines {
		fmt.Fprintf(p.out, "│ %s │\n", p.paint(pad(l.text), l.attr...))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad fits text to the inner box width by rune count.
func pad(text string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(text)
	if n > width {
		return string([]rune(text)[:width-3]) + "..."
	}
	return text + strings.Repeat(" ", width-n)
}

// PrintStages outputs the stage progression of an in-flight search.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStages(state session.State) {
	for _, st := range state.Stages {
		switch st.Status {
		case session.StageCompleted:
			fmt.Fprintf(p.out, "  %s %s\n", p.paint("[✓]", color.FgGreen), st.Label)
		case session.StageActive:
			fmt.Fprintf(p.out, "  %s %s\n", p.paint("[▶]", color.FgCyan), p.paint(st.Label, color.Bold))
		default:
			fmt.Fprintf(p.out, "  [ ] %s\n", st.Label)
		}
	}
}

// PrintResults outputs the current page of results.
func (p *Printer) PrintResults(state session.State) {
	if !state.HasResults {
		p.printBox("SEARCH RESULTS", []line{plain("No search yet.")})
		return
	}

	pg := state.Pagination
	lines := []line{
		plain("Query:    %s", firstLine(state.SubmittedQuery)),
		plain("Page:     %d of %d (%d candidates)", pg.Page, pg.TotalPages, pg.Total),
		plain("Credits:  %d", state.Credits),
	}
	if !state.SubmittedFilters.IsZero() {
		lines = append(lines, plain("Filters:  %s", describeFilters(state.SubmittedFilters)))
	}
	lines = append(lines, plain(""))

	if len(state.Results) == 0 {
		lines = append(lines, plain("No candidates matched."))
	}
	for i, c := range state.Results {
		n := (pg.Page-1)*pg.Limit + i + 1
		lines = append(lines, plain("#%d  %s (%s)", n, c.Name, c.ID))
		lines = append(lines, plain("    %s", roleLine(c)))
		if ml, ok := p.matchLine(c); ok {
			lines = append(lines, ml)
		}
		if len(c.Skills) > 0 {
			lines = append(lines, plain("    Skills: %s", joinLimited(c.Skills, maxSkillsToShow)))
		}
		if c.HasContact() {
			lines = append(lines, line{text: "    Contact: " + contactSummary(c), attr: []color.Attribute{color.FgGreen}})
		}
		if i < len(state.Results)-1 {
			lines = append(lines, plain(""))
		}
	}

	p.printBox("SEARCH RESULTS", lines)
}

// PrintCandidate outputs the full profile of one candidate.
func (p *Printer) PrintCandidate(c types.Candidate) {
	lines := []line{
		plain("%s (%s)", c.Name, c.ID),
		plain("%s", roleLine(c)),
	}
	if ml, ok := p.matchLine(c); ok {
		ml.text = strings.TrimSpace(ml.text)
		lines = append(lines, ml)
	}
	if c.Availability != "" {
		lines = append(lines, plain("Availability: %s", c.Availability))
	}
	if c.Verdict != "" {
		lines = append(lines, plain(""), plain("Verdict: %s", c.Verdict))
	}
	lines = appendList(lines, "Strengths:", c.Strengths)
	lines = appendList(lines, "Areas to probe:", c.AreasToProbe)
	if len(c.Skills) > 0 {
		lines = append(lines, plain(""), plain("Skills: %s", strings.Join(c.Skills, ", ")))
	}
	if len(c.WorkHistory) > 0 {
		lines = append(lines, plain(""), plain("Work history:"))
		for _, w := range c.WorkHistory {
			end := w.EndDate
			if end == "" {
				end = "present"
			}
			lines = append(lines, plain("  • %s, %s (%s to %s)", w.Title, w.Company, w.StartDate, end))
		}
	}
	if len(c.Education) > 0 {
		lines = append(lines, plain(""), plain("Education:"))
		for _, e := range c.Education {
			lines = append(lines, plain("  • %s, %s %s", e.Degree, e.Institution, e.Year))
		}
	}
	if c.About != "" {
		lines = append(lines, plain(""), plain("About:"))
		for _, l := range wrap(c.About, boxWidth-6) {
			lines = append(lines, plain("  %s", l))
		}
	}
	lines = append(lines, plain(""))
	if c.HasContact() {
		lines = append(lines,
			line{text: "Email:    " + c.Email, attr: []color.Attribute{color.FgGreen}},
			line{text: "Phone:    " + c.Phone, attr: []color.Attribute{color.FgGreen}},
			line{text: "LinkedIn: " + c.LinkedIn, attr: []color.Attribute{color.FgGreen}},
		)
	} else {
		lines = append(lines, plain("Contact locked. Unlock with: unlock %s", c.ID))
	}

	p.printBox("CANDIDATE DETAIL", lines)
}

// PrintContact outputs a freshly unlocked contact block. The balance line
// is omitted when credits is nil.
func (p *Printer) PrintContact(id string, info types.ContactInfo, credits *int) {
	lines := []line{
		plain("Candidate: %s", id),
		plain("Email:     %s", info.Email),
		plain("Phone:     %s", info.Phone),
		plain("LinkedIn:  %s", info.LinkedIn),
	}
	if credits != nil {
		lines = append(lines, plain(""), plain("Credits remaining: %d", *credits))
	}
	p.printBox("CONTACT UNLOCKED", lines)
}

// PrintShortlisted outputs the shortlisted candidates.
func (p *Printer) PrintShortlisted(list []types.Candidate) {
	if len(list) == 0 {
		p.printBox("SHORTLIST", []line{plain("No shortlisted candidates.")})
		return
	}
	lines := make([]line, 0, len(list))
	for _, c := range list {
		lines = append(lines, plain("• %s (%s), %s", c.Name, c.ID, c.Title))
	}
	p.printBox("SHORTLIST", lines)
}

// PrintNotice outputs an error notice.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNotice(n *session.Notice) {
	if n == nil {
		return
	}
	attr := color.FgRed
	if n.Kind == session.NoticeInsufficientCredits {
		attr = color.FgYellow
	}
	fmt.Fprintf(p.out, "%s %s\n", p.paint("⚠", attr), n.Message)
	if n.Detail != "" {
		fmt.Fprintf(p.out, "  %s\n", n.Detail)
	}
}

// PrintCredits outputs the credit balance.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCredits(credits int) {
	fmt.Fprintf(p.out, "Credits remaining: %d\n", credits)
}

// PrintSuggestions outputs suggested queries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSuggestions(suggestions []string) {
	fmt.Fprintln(p.out, "Try searching for:")
	for _, s := range suggestions {
		fmt.Fprintf(p.out, "  • %s\n", s)
	}
}

// PrintCampaigns outputs a campaign list with its overview.
func (p *Printer) PrintCampaigns(list []types.Campaign, overview campaigns.Overview) {
	title := "CAMPAIGNS"
	if overview.Type != "" {
		title = fmt.Sprintf("CAMPAIGNS (%s)", strings.ToUpper(overview.Type))
	}
	lines := []line{
		plain("Campaigns: %d (%d active)", overview.Campaigns, overview.Active),
		plain("Sent:      %d", overview.TotalSent),
		plain("Open rate: %.1f%%   Reply rate: %.1f%%", overview.AvgOpenRate, overview.AvgReplyRate),
	}
	if len(list) > 0 {
		lines = append(lines, plain(""))
	}
	for _, c := range list {
		status := line{text: fmt.Sprintf("• %s [%s] %s, %d steps", c.Name, c.Status, c.Type, len(c.Steps))}
		if c.Status == types.CampaignStatusActive {
			status.attr = []color.Attribute{color.FgGreen}
		}
		lines = append(lines, status, plain("  id %s", c.ID))
	}
	p.printBox(title, lines)
}

// PrintAnalytics outputs the analytics of one campaign.
func (p *Printer) PrintAnalytics(a types.CampaignAnalytics) {
	s := a.Stats
	p.printBox("CAMPAIGN ANALYTICS", []line{
		plain("Campaign:  %s", a.CampaignID),
		plain("Sent:      %d", s.Sent),
		plain("Opened:    %d (%.1f%%)", s.Opened, s.OpenRate),
		plain("Replied:   %d (%.1f%%)", s.Replied, s.ReplyRate),
		plain("Delivered: %.1f%%", s.DeliveryRate),
	})
}

func (p *Printer) matchLine(c types.Candidate) (line, bool) {
	if c.MatchScore == nil {
		return line{}, false
	}
	band := types.BandForScore(*c.MatchScore)
	return line{
		text: fmt.Sprintf("    Match: %d%% (%s)", *c.MatchScore, band),
		attr: []color.Attribute{bandColors[band]},
	}, true
}

func roleLine(c types.Candidate) string {
	parts := []string{c.Title}
	if c.Company != "" {
		parts[0] = fmt.Sprintf("%s at %s", c.Title, c.Company)
	}
	if c.Experience > 0 {
		parts = append(parts, fmt.Sprintf("%d yrs", c.Experience))
	}
	if c.Location != "" {
		parts = append(parts, c.Location)
	}
	return strings.Join(parts, " · ")
}

func contactSummary(c types.Candidate) string {
	var parts []string
	for _, v := range []string{c.Email, c.Phone} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return c.LinkedIn
	}
	return strings.Join(parts, ", ")
}

func describeFilters(f types.SearchFilters) string {
	var parts []string
	if f.Experience != nil {
		parts = append(parts, fmt.Sprintf("%d+ yrs", *f.Experience))
	}
	if f.Location != "" {
		parts = append(parts, f.Location)
	}
	if len(f.Skills) > 0 {
		parts = append(parts, strings.Join(f.Skills, ", "))
	}
	return strings.Join(parts, "; ")
}

func appendList(lines []line, heading string, items []string) []line {
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, plain(""), plain("%s", heading))
	for _, item := range items {
		lines = append(lines, plain("  • %s", item))
	}
	return lines
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(items[:limit], ", "), len(items)-limit)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}
	return s
}

// wrap splits text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var out []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+1+utf8.RuneCountInString(word) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
