package archive

import (
	"strings"
)

const (
	SubTypePost  = "Post"
	SubTypeReply = "Reply"

	GroupCategories = "Categories"
	GroupForums     = "Forums"
)

type Document struct {
	Services []*Service `json:"services" yaml:"services"`
}

type CategoryGroup struct {
	Name   string   `json:"name" yaml:"name" xml:"name,attr"`
	Levels []string `json:"levels" yaml:"levels,omitempty" xml:"Level"`
}

type Service struct {
	Entry int    `json:"entry" yaml:"entry"`
	Name  string `json:"service" yaml:"service"`
	Info  string `json:"info,omitempty" yaml:"info,omitempty"`

	Interactions   []string         `json:"interactions,omitempty" yaml:"interactions,omitempty"`
	Status         []string         `json:"status,omitempty" yaml:"status,omitempty"`
	Categorization []*CategoryGroup `json:"categorization,omitempty" yaml:"categorization,omitempty"`

	Categories     []*Category      `json:"categories,omitempty" yaml:"categories,omitempty"`
	Users          map[int]*User    `json:"users" yaml:"users"`
	MessageThreads []*MessageThread `json:"message_threads,omitempty" yaml:"message_threads,omitempty"`
}

type Category struct {
	Kind        string `json:"kind" yaml:"kind" xml:"Kind"`
	Type        string `json:"type" yaml:"type" xml:"Type"`
	Level       string `json:"level" yaml:"level" xml:"Level"`
	ID          int    `json:"id" yaml:"id" xml:"ID"`
	InSub       int    `json:"insub" yaml:"insub" xml:"InSub"`
	Headline    string `json:"headline,omitempty" yaml:"headline,omitempty" xml:"Headline,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" xml:"Description,omitempty"`
}

type User struct {
	ID       int    `json:"id" yaml:"id" xml:"id,attr"`
	Name     string `json:"name" yaml:"name" xml:"Name"`
	Handle   string `json:"handle" yaml:"handle" xml:"Handle"`
	Location string `json:"location,omitempty" yaml:"location,omitempty" xml:"Location,omitempty"`
	Joined   string `json:"joined,omitempty" yaml:"joined,omitempty" xml:"Joined,omitempty"`
	Birthday string `json:"birthday,omitempty" yaml:"birthday,omitempty" xml:"Birthday,omitempty"`
	Bio      string `json:"bio" yaml:"bio" xml:"Bio"`
}

type MessageThread struct {
	ID       int        `json:"thread" yaml:"thread" xml:"Thread"`
	Title    string     `json:"title" yaml:"title" xml:"Title"`
	Category []string   `json:"category,omitempty" yaml:"category,omitempty" xml:"Category,omitempty"`
	Forum    []string   `json:"forum,omitempty" yaml:"forum,omitempty" xml:"Forum,omitempty"`
	Type     string     `json:"type,omitempty" yaml:"type,omitempty" xml:"Type,omitempty"`
	State    string     `json:"state,omitempty" yaml:"state,omitempty" xml:"State,omitempty"`
	Messages []*Message `json:"messages" yaml:"messages,omitempty" xml:"Messages>Message"`
}

type Message struct {
	Author  string  `json:"author,omitempty" yaml:"author,omitempty" xml:"Author,omitempty"`
	Time    string  `json:"time,omitempty" yaml:"time,omitempty" xml:"Time,omitempty"`
	Date    string  `json:"date,omitempty" yaml:"date,omitempty" xml:"Date,omitempty"`
	Type    string  `json:"type,omitempty" yaml:"type,omitempty" xml:"Type,omitempty"`
	SubType string  `json:"subtype,omitempty" yaml:"subtype,omitempty" xml:"SubType,omitempty"`
	Post    int     `json:"post" yaml:"post" xml:"Post"`
	Nested  int     `json:"nested" yaml:"nested" xml:"Nested"`
	Message string  `json:"message" yaml:"message" xml:"Message"`
	Polls   []*Poll `json:"polls,omitempty" yaml:"polls,omitempty" xml:"Polls>Poll,omitempty"`
}

type Poll struct {
	Num        int       `json:"num" yaml:"num" xml:"Num"`
	Question   string    `json:"question" yaml:"question" xml:"Question"`
	Answers    []string  `json:"answers,omitempty" yaml:"answers,omitempty" xml:"Answers>Answer,omitempty"`
	Results    []int     `json:"results,omitempty" yaml:"results,omitempty" xml:"Results>Result,omitempty"`
	Percentage []float64 `json:"percentage,omitempty" yaml:"percentage,omitempty" xml:"Percentage>Value,omitempty"`
	Votes      int       `json:"votes" yaml:"votes" xml:"Votes"`
}

// SplitKind splits a "Type, Level" composite on its first comma.
func SplitKind(kind string) (string, string) {
	typ, level, _ := strings.Cut(kind, ",")
	return strings.TrimSpace(typ), strings.TrimSpace(level)
}

// DefaultSubType is the sub type assumed for a post that does not declare one.
func DefaultSubType(post, nested int) string {
	if post == 1 || nested == 0 {
		return SubTypePost
	}
	return SubTypeReply
}

// SplitList splits a comma separated value, trimming each item. An empty value yields nil.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func (s *Service) Group(name string) *CategoryGroup {
	for _, group := range s.Categorization {
		if group.Name == name {
			return group
		}
	}
	return nil
}

// SetGroup declares a categorization group, replacing the levels of an existing one.
func (s *Service) SetGroup(name string, levels []string) {
	if group := s.Group(name); group != nil {
		group.Levels = levels
		return
	}
	s.Categorization = append(s.Categorization, &CategoryGroup{Name: name, Levels: levels})
}

// MergeDeclarations adds the categorization levels, interactions and status
// values of other that s does not declare yet. Existing order is kept.
func (s *Service) MergeDeclarations(other *Service) {
	for _, group := range other.Categorization {
		declared := s.Group(group.Name)
		if declared == nil {
			s.SetGroup(group.Name, append([]string(nil), group.Levels...))
			continue
		}
		declared.Levels = appendMissing(declared.Levels, group.Levels)
	}
	s.Interactions = appendMissing(s.Interactions, other.Interactions)
	s.Status = appendMissing(s.Status, other.Status)
}

func appendMissing(values, more []string) []string {
	for _, value := range more {
		if !contains(values, value) {
			values = append(values, value)
		}
	}
	return values
}

func (s *Service) HasInteraction(name string) bool {
	return contains(s.Interactions, name)
}

func (s *Service) HasStatus(name string) bool {
	return contains(s.Status, name)
}

func (s *Service) Thread(id int) *MessageThread {
	for _, thread := range s.MessageThreads {
		if thread.ID == id {
			return thread
		}
	}
	return nil
}

func (t *MessageThread) Post(id int) *Message {
	for _, message := range t.Messages {
		if message.Post == id {
			return message
		}
	}
	return nil
}

func (d *Document) Service(entry int) *Service {
	for _, service := range d.Services {
		if service.Entry == entry {
			return service
		}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
