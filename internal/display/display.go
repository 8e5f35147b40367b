// Package display pretty prints archive documents for the console.
package display

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/davidleitw/msgarchive/internal/archive"
)

type Printer struct {
	w io.Writer

	headingStyle lipgloss.Style
	labelStyle   lipgloss.Style
	authorStyle  lipgloss.Style
	subTypeStyle lipgloss.Style
}

// NewPrinter styles output for w; colors are dropped when w is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:            w,
		headingStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#45f")),
		labelStyle:   r.NewStyle().Foreground(lipgloss.Color("#888")),
		authorStyle:  r.NewStyle().Foreground(lipgloss.Color("#ff8")),
		subTypeStyle: r.NewStyle().Foreground(lipgloss.Color("#8f8")),
	}
}

func Print(w io.Writer, doc *archive.Document) error {
	return NewPrinter(w).Print(doc)
}

func (p *Printer) Print(doc *archive.Document) error {
	var sb strings.Builder
	for _, service := range doc.Services {
		p.service(&sb, service)
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p *Printer) field(sb *strings.Builder, indent int, label, value string) {
	pad := strings.Repeat(" ", indent)
	value = strings.ReplaceAll(strings.TrimSpace(value), "\n", "\n"+pad+"  ")
	fmt.Fprintf(sb, "%s%s %s\n", pad, p.labelStyle.Render(label+":"), value)
}

func (p *Printer) heading(sb *strings.Builder, indent int, text string) {
	fmt.Fprintf(sb, "%s%s\n", strings.Repeat(" ", indent), p.headingStyle.Render(text))
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

func (p *Printer) service(sb *strings.Builder, service *archive.Service) {
	p.heading(sb, 0, fmt.Sprintf("Service Entry %d: %s", service.Entry, service.Name))
	if service.Info != "" {
		p.field(sb, 0, "Info", service.Info)
	}
	p.field(sb, 0, "Interactions", strings.Join(service.Interactions, ", "))
	p.field(sb, 0, "Status", strings.Join(service.Status, ", "))
	for _, group := range service.Categorization {
		p.field(sb, 0, group.Name, strings.Join(group.Levels, ", "))
	}

	p.heading(sb, 0, "Category List")
	for _, category := range service.Categories {
		p.field(sb, 2, "Type", fmt.Sprintf("%s, Level: %s", orNA(category.Type), orNA(category.Level)))
		p.field(sb, 2, "ID", strconv.Itoa(category.ID))
		p.field(sb, 2, "InSub", strconv.Itoa(category.InSub))
		p.field(sb, 2, "Headline", category.Headline)
		p.field(sb, 2, "Description", category.Description)
		sb.WriteString("\n")
	}

	p.heading(sb, 0, "User List")
	ids := make([]int, 0, len(service.Users))
	for id := range service.Users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		user := service.Users[id]
		p.field(sb, 2, "User ID", strconv.Itoa(id))
		p.field(sb, 4, "Name", user.Name)
		p.field(sb, 4, "Handle", user.Handle)
		p.field(sb, 4, "Location", orNA(user.Location))
		p.field(sb, 4, "Joined", orNA(user.Joined))
		p.field(sb, 4, "Birthday", orNA(user.Birthday))
		p.field(sb, 4, "Bio", user.Bio)
		sb.WriteString("\n")
	}

	p.heading(sb, 0, "Message Threads")
	for i, thread := range service.MessageThreads {
		p.thread(sb, i+1, thread)
	}
}

func (p *Printer) thread(sb *strings.Builder, num int, thread *archive.MessageThread) {
	p.heading(sb, 2, fmt.Sprintf("--- Message Thread %d ---", num))
	if thread.Title != "" {
		p.field(sb, 4, "Title", thread.Title)
	}
	if len(thread.Category) > 0 {
		p.field(sb, 4, "Category", strings.Join(thread.Category, ", "))
	}
	if len(thread.Forum) > 0 {
		p.field(sb, 4, "Forum", strings.Join(thread.Forum, ", "))
	}
	if thread.Type != "" {
		p.field(sb, 4, "Type", thread.Type)
	}
	if thread.State != "" {
		p.field(sb, 4, "State", thread.State)
	}

	for _, message := range thread.Messages {
		subType := message.SubType
		if subType == "" {
			subType = archive.DefaultSubType(message.Post, message.Nested)
		}
		fmt.Fprintf(sb, "    %s (%s on %s): %s Post ID: %d Nested: %d\n",
			p.authorStyle.Render(orNA(message.Author)), orNA(message.Time), orNA(message.Date),
			p.subTypeStyle.Render("["+subType+"]"), message.Post, message.Nested)
		body := strings.ReplaceAll(strings.TrimSpace(message.Message), "\n", "\n      ")
		fmt.Fprintf(sb, "      %s\n", body)

		if len(message.Polls) > 0 {
			p.heading(sb, 6, "Polls")
			for _, poll := range message.Polls {
				p.poll(sb, poll)
			}
		}
	}
	sb.WriteString("\n")
}

func (p *Printer) poll(sb *strings.Builder, poll *archive.Poll) {
	results := make([]string, len(poll.Results))
	for i, result := range poll.Results {
		results[i] = strconv.Itoa(result)
	}
	percentages := make([]string, len(poll.Percentage))
	for i, percentage := range poll.Percentage {
		percentages[i] = strconv.FormatFloat(percentage, 'f', 2, 64)
	}

	fmt.Fprintf(sb, "        Poll %d:\n", poll.Num)
	p.field(sb, 10, "Question", orNA(poll.Question))
	p.field(sb, 10, "Answers", strings.Join(poll.Answers, ", "))
	p.field(sb, 10, "Results", strings.Join(results, ", "))
	p.field(sb, 10, "Percentage", strings.Join(percentages, ", "))
	p.field(sb, 10, "Votes", strconv.Itoa(poll.Votes))
}
