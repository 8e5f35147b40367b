package archive

import (
	"fmt"
)

func NewDocument() *Document {
	return &Document{}
}

func NewService(entry int, name, info string) *Service {
	return &Service{
		Entry: entry,
		Name:  name,
		Info:  info,
		Users: make(map[int]*User),
	}
}

func (d *Document) AddService(entry int, name, info string) (*Service, error) {
	if err := nonNegative("Entry", entry); err != nil {
		return nil, err
	}
	service := NewService(entry, name, info)
	d.Services = append(d.Services, service)
	return service, nil
}

func (d *Document) RemoveService(entry int) error {
	for i, service := range d.Services {
		if service.Entry == entry {
			d.Services = append(d.Services[:i], d.Services[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("service entry %d: %w", entry, ErrNotFound)
}

// AddUser stores a copy of user under its ID, replacing any previous user with that ID.
func (s *Service) AddUser(user User) (*User, error) {
	if err := nonNegative("User", user.ID); err != nil {
		return nil, err
	}
	if s.Users == nil {
		s.Users = make(map[int]*User)
	}
	stored := user
	s.Users[user.ID] = &stored
	return &stored, nil
}

func (s *Service) RemoveUser(id int) error {
	if _, ok := s.Users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	delete(s.Users, id)
	return nil
}

// AddCategory appends a category of the given group and level, declaring the
// level in the service categorization when it is new.
func (s *Service) AddCategory(group, level string, id, insub int, headline, description string) (*Category, error) {
	if err := nonNegative("ID", id); err != nil {
		return nil, err
	}
	if err := nonNegative("InSub", insub); err != nil {
		return nil, err
	}
	if s.Category(group, id) != nil {
		return nil, &ValidationError{Field: "ID", Msg: fmt.Sprintf("duplicate %s id %d", group, id)}
	}
	if insub != 0 && s.Category(group, insub) == nil {
		return nil, &ValidationError{Field: "InSub", Msg: fmt.Sprintf("InSub value '%d' does not match any existing %s ID", insub, group)}
	}

	declared := s.Group(group)
	if declared == nil {
		s.SetGroup(group, nil)
		declared = s.Group(group)
	}
	if !contains(declared.Levels, level) {
		declared.Levels = append(declared.Levels, level)
	}

	category := &Category{
		Kind:        group + ", " + level,
		Type:        group,
		Level:       level,
		ID:          id,
		InSub:       insub,
		Headline:    headline,
		Description: description,
	}
	s.Categories = append(s.Categories, category)
	return category, nil
}

func (s *Service) Category(typ string, id int) *Category {
	for _, category := range s.Categories {
		if category.Type == typ && category.ID == id {
			return category
		}
	}
	return nil
}

func (s *Service) RemoveCategory(typ string, id int) error {
	for i, category := range s.Categories {
		if category.Type == typ && category.ID == id {
			s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s category %d: %w", typ, id, ErrNotFound)
}

func (s *Service) AddThread(thread MessageThread) (*MessageThread, error) {
	if err := nonNegative("Thread", thread.ID); err != nil {
		return nil, err
	}
	if s.Thread(thread.ID) != nil {
		return nil, &ValidationError{Field: "Thread", Msg: fmt.Sprintf("duplicate thread id %d", thread.ID)}
	}
	if thread.State != "" && len(s.Status) > 0 && !s.HasStatus(thread.State) {
		return nil, &ValidationError{Field: "State", Msg: fmt.Sprintf("unexpected thread state '%s', expected one of %v", thread.State, s.Status)}
	}
	stored := thread
	s.MessageThreads = append(s.MessageThreads, &stored)
	return &stored, nil
}

func (s *Service) RemoveThread(id int) error {
	for i, thread := range s.MessageThreads {
		if thread.ID == id {
			s.MessageThreads = append(s.MessageThreads[:i], s.MessageThreads[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("thread %d: %w", id, ErrNotFound)
}

// AddPost appends message to the thread, applying the same checks as the
// parser: declared type, unique post id and a nested reference to an earlier post.
func (s *Service) AddPost(threadID int, message Message) (*Message, error) {
	thread := s.Thread(threadID)
	if thread == nil {
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	if err := nonNegative("Post", message.Post); err != nil {
		return nil, err
	}
	if err := nonNegative("Nested", message.Nested); err != nil {
		return nil, err
	}
	if message.Type != "" && !s.HasInteraction(message.Type) {
		return nil, &ValidationError{Field: "Type", Msg: fmt.Sprintf("unexpected message type '%s', expected one of %v", message.Type, s.Interactions)}
	}
	if thread.Post(message.Post) != nil {
		return nil, &ValidationError{Field: "Post", Msg: fmt.Sprintf("duplicate post id %d in thread %d", message.Post, threadID)}
	}
	if message.Nested != 0 && thread.Post(message.Nested) == nil {
		return nil, &ValidationError{Field: "Nested", Msg: fmt.Sprintf("Nested value '%d' does not match any existing Post in thread %d", message.Nested, threadID)}
	}
	if message.SubType == "" {
		message.SubType = DefaultSubType(message.Post, message.Nested)
	}

	stored := message
	thread.Messages = append(thread.Messages, &stored)
	return &stored, nil
}

func (s *Service) RemovePost(threadID, postID int) error {
	thread := s.Thread(threadID)
	if thread == nil {
		return fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	for i, message := range thread.Messages {
		if message.Post == postID {
			thread.Messages = append(thread.Messages[:i], thread.Messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("post %d in thread %d: %w", postID, threadID, ErrNotFound)
}

func (s *Service) AddPoll(threadID, postID int, poll Poll) (*Poll, error) {
	thread := s.Thread(threadID)
	if thread == nil {
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	message := thread.Post(postID)
	if message == nil {
		return nil, fmt.Errorf("post %d in thread %d: %w", postID, threadID, ErrNotFound)
	}
	stored := poll
	message.Polls = append(message.Polls, &stored)
	return &stored, nil
}

func nonNegative(field string, value int) error {
	if value < 0 {
		return &ValidationError{Field: field, Msg: fmt.Sprintf("negative value '%d'", value)}
	}
	return nil
}
