package parser

import (
	"fmt"
)

type section int

const (
	secNone section = iota
	secArchiveService
	secUserList
	secUserInfo
	secBioBody
	secMessageList
	secMessageThread
	secMessagePost
	secMessageBody
	secPollList
	secPollBody
	secCategoryList
	secDescriptionBody
	secCategorizationList
	secInfoBody
	secCommentSection
	secIncludeService
	secIncludeUsers
	secIncludeMessages
	secIncludeCategories
)

type sectionKind int

const (
	kindBlock sectionKind = iota
	kindBody
	kindComment
	kindInclude
)

type sectionInfo struct {
	name    string
	kind    sectionKind
	parents []section // nil means any parent outside of bodies and includes
	start   string
	end     string
}

var sections = map[section]*sectionInfo{
	secArchiveService:     {name: "Archive Service", parents: []section{secNone}},
	secUserList:           {name: "User List", parents: []section{secArchiveService}},
	secUserInfo:           {name: "User Info", parents: []section{secUserList}},
	secBioBody:            {name: "Bio Body", kind: kindBody, parents: []section{secUserInfo}},
	secMessageList:        {name: "Message List", parents: []section{secArchiveService}},
	secMessageThread:      {name: "Message Thread", parents: []section{secMessageList}},
	secMessagePost:        {name: "Message Post", parents: []section{secMessageThread}},
	secMessageBody:        {name: "Message Body", kind: kindBody, parents: []section{secMessagePost}},
	secPollList:           {name: "Poll List", parents: []section{secMessagePost}},
	secPollBody:           {name: "Poll Body", parents: []section{secPollList}},
	secCategoryList:       {name: "Category List", parents: []section{secArchiveService}},
	secDescriptionBody:    {name: "Description Body", kind: kindBody, parents: []section{secCategoryList}},
	secCategorizationList: {name: "Categorization List", parents: []section{secArchiveService}},
	secInfoBody:           {name: "Info Body", kind: kindBody, parents: []section{secArchiveService}},
	secCommentSection:     {name: "Comment Section", kind: kindComment},
	secIncludeService:     {name: "Service", kind: kindInclude, parents: []section{secNone, secArchiveService}},
	secIncludeUsers:       {name: "Users", kind: kindInclude, parents: []section{secArchiveService, secUserList}},
	secIncludeMessages:    {name: "Messages", kind: kindInclude, parents: []section{secArchiveService, secMessageList}},
	secIncludeCategories:  {name: "Categories", kind: kindInclude, parents: []section{secArchiveService}},
}

type marker struct {
	section section
	open    bool
}

// markers maps every reserved marker line to the section it opens or closes.
var markers = map[string]marker{}

func init() {
	for sec, info := range sections {
		if info.kind == kindInclude {
			info.start = fmt.Sprintf("--- Include %s Start ---", info.name)
			info.end = fmt.Sprintf("--- Include %s End ---", info.name)
		} else {
			info.start = fmt.Sprintf("--- Start %s ---", info.name)
			info.end = fmt.Sprintf("--- End %s ---", info.name)
		}
		markers[info.start] = marker{section: sec, open: true}
		markers[info.end] = marker{section: sec, open: false}
	}
}

func (s section) info() *sectionInfo {
	return sections[s]
}

func (s section) kind() sectionKind {
	if s == secNone {
		return kindBlock
	}
	return s.info().kind
}

func (s section) String() string {
	if s == secNone {
		return "top level"
	}
	info := s.info()
	if info.kind == kindInclude {
		return "Include " + info.name
	}
	return info.name
}

func (s section) allowedIn(parent section) bool {
	parents := s.info().parents
	if parents == nil {
		return true
	}
	for _, allowed := range parents {
		if allowed == parent {
			return true
		}
	}
	return false
}

func startMarker(s section) string {
	return s.info().start
}

func endMarker(s section) string {
	return s.info().end
}
