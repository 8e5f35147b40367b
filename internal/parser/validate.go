package parser

import (
	"fmt"
	"sort"

	"github.com/davidleitw/msgarchive/internal/archive"
)

// references is the running registry the builder checks cross references
// against. Everything is checked in a single forward pass, so a reference
// to something declared later in the file is always rejected.
type references struct {
	categoryIDs map[string]map[int]struct{}
	postIDs     map[int]struct{}
}

func newReferences() *references {
	return &references{categoryIDs: make(map[string]map[int]struct{})}
}

func (r *references) resetThread() {
	r.postIDs = make(map[int]struct{})
}

func (r *references) registerCategory(category *archive.Category) {
	ids, ok := r.categoryIDs[category.Type]
	if !ok {
		ids = make(map[int]struct{})
		r.categoryIDs[category.Type] = ids
	}
	ids[category.ID] = struct{}{}
}

func (r *references) hasCategory(typ string, id int) bool {
	_, ok := r.categoryIDs[typ][id]
	return ok
}

func (r *references) checkCategory(service *archive.Service, lineNum int, category *archive.Category) error {
	if service.Group(category.Type) == nil {
		groups := make([]string, 0, len(service.Categorization))
		for _, group := range service.Categorization {
			groups = append(groups, group.Name)
		}
		return &archive.ValidationError{
			Line:  lineNum,
			Field: "Kind",
			Msg:   fmt.Sprintf("invalid 'Type' value '%s', expected one of %v", category.Type, groups),
		}
	}
	if r.hasCategory(category.Type, category.ID) {
		return &archive.ValidationError{
			Line:  lineNum,
			Field: "ID",
			Msg:   fmt.Sprintf("duplicate %s ID '%d'", category.Type, category.ID),
		}
	}
	if category.InSub != 0 && !r.hasCategory(category.Type, category.InSub) {
		return &archive.ValidationError{
			Line:  lineNum,
			Field: "InSub",
			Msg:   fmt.Sprintf("InSub value '%d' does not match any existing %s ID values", category.InSub, category.Type),
		}
	}
	return nil
}

func (r *references) checkMessageType(service *archive.Service, lineNum int, typ string) error {
	if service.HasInteraction(typ) {
		return nil
	}
	return &archive.ValidationError{
		Line:  lineNum,
		Field: "Type",
		Msg:   fmt.Sprintf("unexpected message type '%s', expected one of %v", typ, service.Interactions),
	}
}

func (r *references) checkState(service *archive.Service, lineNum int, state string) error {
	if len(service.Status) == 0 || service.HasStatus(state) {
		return nil
	}
	return &archive.ValidationError{
		Line:  lineNum,
		Field: "State",
		Msg:   fmt.Sprintf("unexpected thread state '%s', expected one of %v", state, service.Status),
	}
}

func (r *references) checkNested(lineNum, nested int) error {
	if nested == 0 {
		return nil
	}
	if _, ok := r.postIDs[nested]; ok {
		return nil
	}
	return &archive.ValidationError{
		Line:  lineNum,
		Field: "Nested",
		Msg: fmt.Sprintf("Nested value '%d' does not match any existing Post values in the current thread, existing Post IDs: %v",
			nested, r.knownPosts()),
	}
}

func (r *references) registerPost(lineNum, post int) error {
	if _, ok := r.postIDs[post]; ok {
		return &archive.ValidationError{
			Line:  lineNum,
			Field: "Post",
			Msg:   fmt.Sprintf("duplicate Post value '%d' in the current thread", post),
		}
	}
	r.postIDs[post] = struct{}{}
	return nil
}

func (r *references) knownPosts() []int {
	ids := make([]int, 0, len(r.postIDs))
	for id := range r.postIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
