package writer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/fileio"
	"github.com/sirupsen/logrus"
)

type LineEnding string

const (
	LF   LineEnding = "lf"
	CR   LineEnding = "cr"
	CRLF LineEnding = "crlf"
)

var separators = map[LineEnding]string{
	LF:   "\n",
	CR:   "\r",
	CRLF: "\r\n",
}

func ParseLineEnding(name string) (LineEnding, error) {
	ending := LineEnding(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := separators[ending]; !ok {
		return "", fmt.Errorf("unknown line ending '%s', expected lf, cr or crlf", name)
	}
	return ending, nil
}

func (e LineEnding) Separator() string {
	if sep, ok := separators[e]; ok {
		return sep
	}
	return separators[LF]
}

// Serialize renders doc in the archive text format. Every line, the last one
// included, is terminated by ending.
func Serialize(doc *archive.Document, ending LineEnding) string {
	w := &lineWriter{}
	for _, service := range doc.Services {
		w.service(service)
	}
	sep := ending.Separator()
	if len(w.lines) == 0 {
		return ""
	}
	return strings.Join(w.lines, sep) + sep
}

func WriteFile(doc *archive.Document, path string, ending LineEnding) error {
	if err := fileio.WriteFile(path, []byte(Serialize(doc, ending))); err != nil {
		logrus.WithError(err).WithField("path", path).Error("fileio.WriteFile failed")
		return err
	}
	return nil
}

type lineWriter struct {
	lines []string
}

func (w *lineWriter) add(line string) {
	w.lines = append(w.lines, line)
}

func (w *lineWriter) start(name string) {
	w.add("--- Start " + name + " ---")
}

func (w *lineWriter) end(name string) {
	w.add("--- End " + name + " ---")
}

func (w *lineWriter) key(key, value string) {
	if value == "" {
		w.add(key + ":")
		return
	}
	w.add(key + ": " + value)
}

// optional writes key only when value is set, so minimal hand written
// documents survive a round trip unchanged.
func (w *lineWriter) optional(key, value string) {
	if value != "" {
		w.key(key, value)
	}
}

func (w *lineWriter) integer(key string, value int) {
	w.key(key, strconv.Itoa(value))
}

func (w *lineWriter) list(key string, values []string) {
	if len(values) > 0 {
		w.key(key, strings.Join(values, ", "))
	}
}

// body wraps text in its body markers, one physical line per embedded newline.
func (w *lineWriter) body(name, text string) {
	if text == "" {
		return
	}
	w.start(name)
	w.lines = append(w.lines, strings.Split(text, "\n")...)
	w.end(name)
}

func (w *lineWriter) service(service *archive.Service) {
	w.start("Archive Service")
	w.integer("Entry", service.Entry)
	w.key("Service", service.Name)
	w.body("Info Body", service.Info)

	if len(service.Categorization) > 0 {
		w.start("Categorization List")
		for _, group := range service.Categorization {
			w.key(group.Name, strings.Join(group.Levels, ", "))
		}
		w.end("Categorization List")
	}

	for _, category := range service.Categories {
		w.category(category)
	}

	if len(service.Users) > 0 {
		w.start("User List")
		ids := make([]int, 0, len(service.Users))
		for id := range service.Users {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			w.user(id, service.Users[id])
		}
		w.end("User List")
	}

	if len(service.Interactions) > 0 || len(service.Status) > 0 || len(service.MessageThreads) > 0 {
		w.start("Message List")
		w.list("Interactions", service.Interactions)
		w.list("Status", service.Status)
		for _, thread := range service.MessageThreads {
			w.thread(thread)
		}
		w.end("Message List")
	}

	w.end("Archive Service")
}

func (w *lineWriter) category(category *archive.Category) {
	kind := category.Kind
	if kind == "" {
		kind = category.Type + ", " + category.Level
	}
	w.start("Category List")
	w.key("Kind", kind)
	w.integer("ID", category.ID)
	w.integer("InSub", category.InSub)
	w.optional("Headline", category.Headline)
	w.body("Description Body", category.Description)
	w.end("Category List")
}

func (w *lineWriter) user(id int, user *archive.User) {
	w.start("User Info")
	w.integer("User", id)
	w.key("Name", user.Name)
	w.key("Handle", user.Handle)
	w.optional("Location", user.Location)
	w.optional("Joined", user.Joined)
	w.optional("Birthday", user.Birthday)
	w.body("Bio Body", user.Bio)
	w.end("User Info")
}

func (w *lineWriter) thread(thread *archive.MessageThread) {
	w.start("Message Thread")
	w.integer("Thread", thread.ID)
	w.optional("Title", thread.Title)
	w.list("Category", thread.Category)
	w.list("Forum", thread.Forum)
	w.optional("Type", thread.Type)
	w.optional("State", thread.State)
	for _, message := range thread.Messages {
		w.message(message)
	}
	w.end("Message Thread")
}

func (w *lineWriter) message(message *archive.Message) {
	w.start("Message Post")
	w.optional("Author", message.Author)
	w.optional("Time", message.Time)
	w.optional("Date", message.Date)
	w.optional("Type", message.Type)
	w.optional("SubType", message.SubType)
	w.integer("Post", message.Post)
	w.integer("Nested", message.Nested)
	w.body("Message Body", message.Message)

	if len(message.Polls) > 0 {
		w.start("Poll List")
		for _, poll := range message.Polls {
			w.poll(poll)
		}
		w.end("Poll List")
	}
	w.end("Message Post")
}

func (w *lineWriter) poll(poll *archive.Poll) {
	w.start("Poll Body")
	w.integer("Num", poll.Num)
	w.optional("Question", poll.Question)
	w.list("Answers", poll.Answers)

	if len(poll.Results) > 0 {
		results := make([]string, len(poll.Results))
		for i, result := range poll.Results {
			results[i] = strconv.Itoa(result)
		}
		w.list("Results", results)
	}
	if len(poll.Percentage) > 0 {
		percentages := make([]string, len(poll.Percentage))
		for i, percentage := range poll.Percentage {
			percentages[i] = strconv.FormatFloat(percentage, 'f', -1, 64)
		}
		w.list("Percentage", percentages)
	}
	w.integer("Votes", poll.Votes)
	w.end("Poll Body")
}
