package exchange

import (
	"encoding/xml"
	"sort"

	"github.com/davidleitw/msgarchive/internal/archive"
)

// encoding/xml cannot encode maps, so services travel through these mirror
// types with users flattened into a list ordered by id.
type xmlDocument struct {
	XMLName  xml.Name      `xml:"Archive"`
	Services []*xmlService `xml:"Service"`
}

type xmlService struct {
	Entry          int                      `xml:"entry,attr"`
	Name           string                   `xml:"Name"`
	Info           string                   `xml:"Info,omitempty"`
	Interactions   []string                 `xml:"Interactions>Interaction,omitempty"`
	Status         []string                 `xml:"Status>State,omitempty"`
	Categorization []*archive.CategoryGroup `xml:"Categorization>Group,omitempty"`
	Categories     []*archive.Category      `xml:"Categories>Category,omitempty"`
	Users          []*archive.User          `xml:"Users>User,omitempty"`
	MessageThreads []*archive.MessageThread `xml:"Threads>Thread,omitempty"`
}

func marshalXML(doc *archive.Document) ([]byte, error) {
	out := xmlDocument{Services: make([]*xmlService, 0, len(doc.Services))}
	for _, service := range doc.Services {
		users := make([]*archive.User, 0, len(service.Users))
		for id, user := range service.Users {
			stored := *user
			stored.ID = id
			users = append(users, &stored)
		}
		sort.Slice(users, func(i, j int) bool {
			return users[i].ID < users[j].ID
		})
		if len(users) == 0 {
			users = nil
		}

		out.Services = append(out.Services, &xmlService{
			Entry:          service.Entry,
			Name:           service.Name,
			Info:           service.Info,
			Interactions:   service.Interactions,
			Status:         service.Status,
			Categorization: service.Categorization,
			Categories:     service.Categories,
			Users:          users,
			MessageThreads: service.MessageThreads,
		})
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func unmarshalXML(data []byte) (*archive.Document, error) {
	var in xmlDocument
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	doc := archive.NewDocument()
	for _, s := range in.Services {
		service := archive.NewService(s.Entry, s.Name, s.Info)
		service.Interactions = s.Interactions
		service.Status = s.Status
		service.Categorization = s.Categorization
		service.Categories = s.Categories
		service.MessageThreads = s.MessageThreads
		for _, user := range s.Users {
			service.Users[user.ID] = user
		}
		doc.Services = append(doc.Services, service)
	}
	return doc, nil
}
