package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/sirupsen/logrus"
)

// builder consumes the lines of one source and grows its document. Open
// sections are tracked on an explicit stack; marker pairs never interleave,
// so the innermost section alone decides how a line is read.
type builder struct {
	p    *Parser
	name string
	base string
	cur  *line

	// chain lists the files being parsed, this one last.
	chain []string

	doc   *archive.Document
	stack []section
	refs  *references

	service  *archive.Service
	user     *archive.User
	category *archive.Category
	thread   *archive.MessageThread
	message  *archive.Message
	poll     *archive.Poll

	hasPost  bool
	nextPost int

	body     []string
	includes []string
	included []*archive.Service
}

func newBuilder(p *Parser, name, base string, chain []string) *builder {
	return &builder{
		p:     p,
		name:  name,
		base:  base,
		chain: chain,
		doc:   archive.NewDocument(),
	}
}

func (b *builder) top() section {
	if len(b.stack) == 0 {
		return secNone
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) trace(format string, args ...interface{}) {
	entry := b.p.logger.WithFields(logrus.Fields{"file": b.name, "line": b.cur.num})
	if b.p.verbose {
		entry.Infof(format, args...)
		return
	}
	entry.Debugf(format, args...)
}

func (b *builder) formatError(field, format string, args ...interface{}) error {
	return &archive.FormatError{Line: b.cur.num, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (b *builder) consume(ln *line) error {
	switch top := b.top(); top.kind() {
	case kindComment:
		if ln.text == endMarker(top) {
			return b.close(top)
		}
		b.trace("comment: %s", ln.text)
		return nil
	case kindBody:
		if ln.text == endMarker(top) {
			return b.close(top)
		}
		b.body = append(b.body, ln.text)
		return nil
	case kindInclude:
		if ln.text == endMarker(top) {
			return b.close(top)
		}
		if ln.text != "" {
			b.includes = append(b.includes, ln.text)
			b.trace("include reference: %s", ln.text)
		}
		return nil
	}

	if ln.text == "" {
		return nil
	}
	tok := classify(ln.text)
	switch tok.kind {
	case tokenMarker:
		if tok.marker.open {
			return b.open(tok.marker.section)
		}
		return b.close(tok.marker.section)
	case tokenKeyValue:
		return b.handleKey(tok.key, tok.value)
	default:
		b.trace("ignored text: %s", ln.text)
		return nil
	}
}

func (b *builder) open(sec section) error {
	parent := b.top()
	if !sec.allowedIn(parent) {
		return b.formatError(sec.String(), "'%s' is not allowed inside %s", startMarker(sec), parent)
	}
	b.stack = append(b.stack, sec)
	b.trace("start %s", sec)

	switch sec {
	case secArchiveService:
		b.service = archive.NewService(0, "", "")
		b.refs = newReferences()
		b.included = nil
	case secUserInfo:
		b.user = nil
	case secCategoryList:
		b.category = &archive.Category{}
	case secCategorizationList:
		b.service.Categorization = nil
	case secMessageThread:
		b.thread = &archive.MessageThread{}
		b.refs.resetThread()
		b.nextPost = 1
	case secMessagePost:
		b.message = &archive.Message{}
		b.hasPost = false
	case secPollBody:
		b.poll = &archive.Poll{}
	case secBioBody:
		if b.user == nil {
			return b.formatError("Bio", "'User' must be set before the bio body")
		}
		b.body = b.body[:0]
	case secInfoBody, secDescriptionBody, secMessageBody:
		b.body = b.body[:0]
	case secIncludeService, secIncludeUsers, secIncludeMessages, secIncludeCategories:
		b.includes = nil
	}
	return nil
}

func (b *builder) close(sec section) error {
	if top := b.top(); top != sec {
		if top == secNone {
			return b.formatError(sec.String(), "'%s' without a matching start", endMarker(sec))
		}
		return b.formatError(sec.String(), "'%s' while inside %s", endMarker(sec), top)
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.trace("end %s", sec)

	switch sec {
	case secArchiveService:
		for _, included := range b.included {
			b.service.MergeDeclarations(included)
		}
		b.doc.Services = append(b.doc.Services, b.service)
		b.service = nil
		b.refs = nil
		b.included = nil
	case secUserInfo:
		if b.user == nil {
			return b.formatError("User", "user info section without a 'User' id")
		}
		b.service.Users[b.user.ID] = b.user
		b.user = nil
	case secBioBody:
		b.user.Bio = b.takeBody()
	case secInfoBody:
		b.service.Info = b.takeBody()
	case secDescriptionBody:
		b.category.Description = b.takeBody()
	case secMessageBody:
		b.message.Message = b.takeBody()
	case secCategoryList:
		return b.closeCategory()
	case secMessageThread:
		b.service.MessageThreads = append(b.service.MessageThreads, b.thread)
		b.thread = nil
	case secMessagePost:
		return b.closePost()
	case secPollBody:
		b.message.Polls = append(b.message.Polls, b.poll)
		b.poll = nil
	case secIncludeService, secIncludeUsers, secIncludeMessages, secIncludeCategories:
		refs := b.includes
		b.includes = nil
		docs, err := b.include(refs)
		if err != nil {
			return err
		}
		b.mergeIncludes(sec, docs)
	}
	return nil
}

func (b *builder) takeBody() string {
	text := strings.Join(b.body, "\n")
	b.body = b.body[:0]
	return text
}

func (b *builder) closeCategory() error {
	category := b.category
	b.category = nil
	if *category == (archive.Category{}) {
		return nil
	}

	category.Type, category.Level = archive.SplitKind(category.Kind)
	if err := b.refs.checkCategory(b.service, b.cur.num, category); err != nil {
		return err
	}
	b.service.Categories = append(b.service.Categories, category)
	b.refs.registerCategory(category)
	return nil
}

func (b *builder) closePost() error {
	message := b.message
	b.message = nil

	if !b.hasPost {
		message.Post = b.nextPost
	}
	if err := b.refs.registerPost(b.cur.num, message.Post); err != nil {
		return err
	}
	if message.SubType == "" {
		message.SubType = archive.DefaultSubType(message.Post, message.Nested)
	}
	b.nextPost = message.Post + 1
	b.thread.Messages = append(b.thread.Messages, message)
	return nil
}

func (b *builder) finish() error {
	if top := b.top(); top != secNone {
		return b.formatError(top.String(), "unterminated section, expected '%s'", endMarker(top))
	}
	return nil
}

func (b *builder) handleKey(key, value string) error {
	if b.service == nil {
		b.trace("ignored key outside a service: %s", key)
		return nil
	}

	var handled bool
	var err error
	switch b.top() {
	case secPollBody:
		handled, err = b.pollKey(key, value)
	case secCategoryList:
		handled, err = b.categoryKey(key, value)
	case secCategorizationList:
		b.service.SetGroup(key, archive.SplitList(value))
		return nil
	case secUserInfo:
		handled, err = b.userKey(key, value)
	case secMessagePost:
		handled, err = b.postKey(key, value)
	case secMessageThread:
		handled, err = b.threadKey(key, value)
	}
	if handled || err != nil {
		return err
	}
	return b.serviceKey(key, value)
}

func (b *builder) serviceKey(key, value string) error {
	switch key {
	case "Entry":
		entry, err := b.integer(key, value)
		if err != nil {
			return err
		}
		b.service.Entry = entry
	case "Service":
		b.service.Name = value
	case "Info":
		if value != "" {
			b.service.Info = value
			return nil
		}
		// A bare "Info:" opens a body closed by the Info Body end marker.
		return b.open(secInfoBody)
	case archive.GroupCategories, archive.GroupForums:
		b.service.SetGroup(key, archive.SplitList(value))
	case "Interactions":
		b.service.Interactions = archive.SplitList(value)
	case "Status":
		b.service.Status = archive.SplitList(value)
	default:
		b.trace("ignored key: %s", key)
	}
	return nil
}

func (b *builder) categoryKey(key, value string) (bool, error) {
	var err error
	switch key {
	case "Kind":
		b.category.Kind = value
	case "ID":
		b.category.ID, err = b.integer(key, value)
	case "InSub":
		b.category.InSub, err = b.integer(key, value)
	case "Headline":
		b.category.Headline = value
	case "Description":
		b.category.Description = value
	default:
		return false, nil
	}
	return true, err
}

func (b *builder) userKey(key, value string) (bool, error) {
	switch key {
	case "User":
		id, err := b.integer(key, value)
		if err != nil {
			return true, err
		}
		b.user = &archive.User{ID: id}
		return true, nil
	case "Name", "Handle", "Location", "Joined", "Birthday":
	default:
		return false, nil
	}

	if b.user == nil {
		return true, b.formatError(key, "'User' must be set before '%s'", key)
	}
	switch key {
	case "Name":
		b.user.Name = value
	case "Handle":
		b.user.Handle = value
	case "Location":
		b.user.Location = value
	case "Joined":
		b.user.Joined = value
	case "Birthday":
		b.user.Birthday = value
	}
	return true, nil
}

func (b *builder) threadKey(key, value string) (bool, error) {
	var err error
	switch key {
	case "Thread":
		b.thread.ID, err = b.integer(key, value)
	case "Title":
		b.thread.Title = value
	case "Category":
		b.thread.Category = archive.SplitList(value)
	case "Forum":
		b.thread.Forum = archive.SplitList(value)
	case "Type":
		b.thread.Type = value
	case "State":
		if err = b.refs.checkState(b.service, b.cur.num, value); err == nil {
			b.thread.State = value
		}
	default:
		return false, nil
	}
	return true, err
}

func (b *builder) postKey(key, value string) (bool, error) {
	var err error
	switch key {
	case "Author":
		b.message.Author = value
	case "Time":
		b.message.Time = value
	case "Date":
		b.message.Date = value
	case "Type":
		if err = b.refs.checkMessageType(b.service, b.cur.num, value); err == nil {
			b.message.Type = value
		}
	case "SubType":
		b.message.SubType = value
	case "Post":
		if b.message.Post, err = b.integer(key, value); err == nil {
			b.hasPost = true
		}
	case "Nested":
		var nested int
		if nested, err = b.integer(key, value); err == nil {
			if err = b.refs.checkNested(b.cur.num, nested); err == nil {
				b.message.Nested = nested
			}
		}
	default:
		return false, nil
	}
	return true, err
}

func (b *builder) pollKey(key, value string) (bool, error) {
	var err error
	switch key {
	case "Num":
		b.poll.Num, err = b.integer(key, value)
	case "Question":
		b.poll.Question = value
	case "Answers":
		b.poll.Answers = archive.SplitList(value)
	case "Results":
		b.poll.Results, err = b.integers(key, value)
	case "Percentage":
		b.poll.Percentage, err = b.floats(key, value)
	case "Votes":
		b.poll.Votes, err = b.integer(key, value)
	default:
		return false, nil
	}
	return true, err
}

// integer parses a field that must hold a non-negative integer.
func (b *builder) integer(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, b.formatError(field, "invalid integer '%s'", value)
	}
	if n < 0 {
		return 0, &archive.ValidationError{Line: b.cur.num, Field: field, Msg: fmt.Sprintf("negative value '%d'", n)}
	}
	return n, nil
}

func (b *builder) integers(field, value string) ([]int, error) {
	items := archive.SplitList(value)
	if items == nil {
		return nil, nil
	}
	values := make([]int, 0, len(items))
	for _, item := range items {
		n, err := b.integer(field, item)
		if err != nil {
			return nil, err
		}
		values = append(values, n)
	}
	return values, nil
}

func (b *builder) floats(field, value string) ([]float64, error) {
	items := archive.SplitList(value)
	if items == nil {
		return nil, nil
	}
	values := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, b.formatError(field, "invalid number '%s'", item)
		}
		values = append(values, f)
	}
	return values, nil
}
