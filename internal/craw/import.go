package craw

import (
	"github.com/davidleitw/msgarchive/internal/archive"
)

const (
	TypeTopic   = "Topic"
	TypeReply   = "Reply"
	TypeComment = "Comment"
)

// Import is a forum thread converted to the archive model. Floors keep their
// floor number as post id; comments are numbered after the last floor and
// nest under the floor they were left on.
type Import struct {
	Thread *archive.MessageThread
	Users  []archive.User
}

func handle(authorId string) string {
	if authorId == "" {
		return ""
	}
	return "@" + authorId
}

func BuildImport(threadID int, title string, floors []*Floor) (*Import, error) {
	scratch := archive.NewService(0, "", "")
	scratch.Interactions = []string{TypeTopic, TypeReply, TypeComment}

	thread, err := scratch.AddThread(archive.MessageThread{ID: threadID, Title: title, Type: TypeTopic})
	if err != nil {
		return nil, err
	}

	imp := &Import{Thread: thread}
	seen := make(map[string]bool)
	addUser := func(name, authorId string) {
		if authorId == "" || seen[authorId] {
			return
		}
		seen[authorId] = true
		imp.Users = append(imp.Users, archive.User{ID: len(imp.Users) + 1, Name: name, Handle: handle(authorId)})
	}

	next := 1
	for _, floor := range floors {
		if floor.Index >= next {
			next = floor.Index + 1
		}
	}

	for _, floor := range floors {
		if thread.Post(floor.Index) != nil {
			continue
		}
		typ := TypeReply
		if floor.Index == 1 {
			typ = TypeTopic
		}
		if _, err := scratch.AddPost(threadID, archive.Message{
			Author:  handle(floor.AuthorId),
			Time:    floor.Time,
			Date:    floor.Date,
			Type:    typ,
			SubType: archive.SubTypePost,
			Post:    floor.Index,
			Message: floor.Content,
		}); err != nil {
			return nil, err
		}
		addUser(floor.AuthorName, floor.AuthorId)

		for _, reply := range floor.Replies {
			if _, err := scratch.AddPost(threadID, archive.Message{
				Author:  handle(reply.AuthorId),
				Type:    TypeComment,
				SubType: archive.SubTypeReply,
				Post:    next,
				Nested:  floor.Index,
				Message: reply.Content,
			}); err != nil {
				return nil, err
			}
			next++
			addUser(reply.AuthorName, reply.AuthorId)
		}
	}
	return imp, nil
}

// Service wraps the import into a service that declares the interactions
// and users it refers to.
func (imp *Import) Service(entry int, name string) (*archive.Service, error) {
	doc := archive.NewDocument()
	service, err := doc.AddService(entry, name, "")
	if err != nil {
		return nil, err
	}
	service.Interactions = []string{TypeTopic, TypeReply, TypeComment}
	for _, user := range imp.Users {
		if _, err := service.AddUser(user); err != nil {
			return nil, err
		}
	}
	service.MessageThreads = append(service.MessageThreads, imp.Thread)
	return service, nil
}
