package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/fileio"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type ArchiveDB interface {
	Open() error
	Close() error

	// SaveDocument stores doc under name, replacing an archive previously
	// saved under the same name, and returns the new archive id.
	SaveDocument(name string, doc *archive.Document) (string, error)
	LoadDocument(id string) (*archive.Document, error)

	ArchiveId(name string) (string, error)
	Archives() ([]*ArchiveRecord, error)
}

type ArchiveDb struct {
	path   string
	driver *sql.DB
}

var _ ArchiveDB = (*ArchiveDb)(nil)

func NewArchiveDb(path string) ArchiveDB {
	return &ArchiveDb{path: path}
}

var (
	tableCreateStatements = []string{
		`CREATE TABLE IF NOT EXISTS archive_record (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS service_record (
			id TEXT PRIMARY KEY,
			aid TEXT NOT NULL,
			position INTEGER NOT NULL,
			entry INTEGER NOT NULL,
			name TEXT NOT NULL,
			info TEXT NOT NULL,
			interactions TEXT NOT NULL,
			status TEXT NOT NULL,
			FOREIGN KEY (aid) REFERENCES archive_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS group_record (
			sid TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			levels TEXT NOT NULL,
			PRIMARY KEY (sid, position),
			FOREIGN KEY (sid) REFERENCES service_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS category_record (
			sid TEXT NOT NULL,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			type TEXT NOT NULL,
			level TEXT NOT NULL,
			cid INTEGER NOT NULL,
			insub INTEGER NOT NULL,
			headline TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (sid, position),
			FOREIGN KEY (sid) REFERENCES service_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS user_record (
			sid TEXT NOT NULL,
			uid INTEGER NOT NULL,
			name TEXT NOT NULL,
			handle TEXT NOT NULL,
			location TEXT NOT NULL,
			joined TEXT NOT NULL,
			birthday TEXT NOT NULL,
			bio TEXT NOT NULL,
			PRIMARY KEY (sid, uid),
			FOREIGN KEY (sid) REFERENCES service_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS thread_record (
			id TEXT PRIMARY KEY,
			sid TEXT NOT NULL,
			position INTEGER NOT NULL,
			tid INTEGER NOT NULL,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			forum TEXT NOT NULL,
			type TEXT NOT NULL,
			state TEXT NOT NULL,
			FOREIGN KEY (sid) REFERENCES service_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS post_record (
			id TEXT PRIMARY KEY,
			thid TEXT NOT NULL,
			position INTEGER NOT NULL,
			author TEXT NOT NULL,
			time TEXT NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			subtype TEXT NOT NULL,
			post INTEGER NOT NULL,
			nested INTEGER NOT NULL,
			message TEXT NOT NULL,
			FOREIGN KEY (thid) REFERENCES thread_record(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS poll_record (
			pid TEXT NOT NULL,
			position INTEGER NOT NULL,
			num INTEGER NOT NULL,
			question TEXT NOT NULL,
			answers TEXT NOT NULL,
			results TEXT NOT NULL,
			percentage TEXT NOT NULL,
			votes INTEGER NOT NULL,
			PRIMARY KEY (pid, position),
			FOREIGN KEY (pid) REFERENCES post_record(id) ON DELETE CASCADE
		);`,
	}
)

func (db *ArchiveDb) Open() error {
	dbPath, err := filepath.Abs(db.path)
	if err != nil {
		logrus.WithError(err).Error("filepath.Abs failed")
		return err
	}
	if err := fileio.EnsureDirectoryExists(dbPath); err != nil {
		logrus.WithError(err).Error("fileio.EnsureDirectoryExists failed")
		return err
	}

	driver, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		logrus.WithError(err).Error("sql.Open failed")
		return err
	}
	// sqlite allows one writer; monitor loops share this handle.
	driver.SetMaxOpenConns(1)
	db.driver = driver
	logrus.WithField("ArchiveDbPath", dbPath).Debug("sql.Open success")

	for _, statement := range tableCreateStatements {
		if _, err := db.driver.Exec(statement); err != nil {
			logrus.WithError(err).Error("db.driver.Exec failed")
			db.driver.Close()
			db.driver = nil
			return err
		}
	}
	return nil
}

func (db *ArchiveDb) Close() error {
	if db.driver == nil {
		return nil
	}
	err := db.driver.Close()
	db.driver = nil
	return err
}

func encodeList(values interface{}) string {
	data, err := json.Marshal(values)
	if err != nil {
		return "null"
	}
	return string(data)
}

func decodeList(data string, values interface{}) error {
	return json.Unmarshal([]byte(data), values)
}

func (db *ArchiveDb) SaveDocument(name string, doc *archive.Document) (string, error) {
	tx, err := db.driver.Begin()
	if err != nil {
		logrus.WithError(err).Error("db.driver.Begin failed")
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM archive_record WHERE name = ?;`, name); err != nil {
		logrus.WithError(err).Error("delete archive_record failed")
		return "", err
	}

	aid := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO archive_record (id, name, created_at) VALUES (?, ?, ?);`,
		aid, name, time.Now().UnixNano()); err != nil {
		logrus.WithError(err).Error("insert archive_record failed")
		return "", err
	}
	for position, service := range doc.Services {
		if err := saveService(tx, aid, position, service); err != nil {
			logrus.WithError(err).WithField("entry", service.Entry).Error("saveService failed")
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		logrus.WithError(err).Error("tx.Commit failed")
		return "", err
	}
	return aid, nil
}

func saveService(tx *sql.Tx, aid string, position int, service *archive.Service) error {
	sid := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO service_record (id, aid, position, entry, name, info, interactions, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		sid, aid, position, service.Entry, service.Name, service.Info,
		encodeList(service.Interactions), encodeList(service.Status)); err != nil {
		return err
	}

	for i, group := range service.Categorization {
		if _, err := tx.Exec(`INSERT INTO group_record (sid, position, name, levels) VALUES (?, ?, ?, ?);`,
			sid, i, group.Name, encodeList(group.Levels)); err != nil {
			return err
		}
	}
	for i, c := range service.Categories {
		if _, err := tx.Exec(`INSERT INTO category_record (sid, position, kind, type, level, cid, insub, headline, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			sid, i, c.Kind, c.Type, c.Level, c.ID, c.InSub, c.Headline, c.Description); err != nil {
			return err
		}
	}
	for uid, u := range service.Users {
		if _, err := tx.Exec(`INSERT INTO user_record (sid, uid, name, handle, location, joined, birthday, bio) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			sid, uid, u.Name, u.Handle, u.Location, u.Joined, u.Birthday, u.Bio); err != nil {
			return err
		}
	}
	for i, thread := range service.MessageThreads {
		if err := saveThread(tx, sid, i, thread); err != nil {
			return err
		}
	}
	return nil
}

func saveThread(tx *sql.Tx, sid string, position int, thread *archive.MessageThread) error {
	thid := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO thread_record (id, sid, position, tid, title, category, forum, type, state) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		thid, sid, position, thread.ID, thread.Title,
		encodeList(thread.Category), encodeList(thread.Forum), thread.Type, thread.State); err != nil {
		return err
	}

	for i, m := range thread.Messages {
		pid := uuid.NewString()
		if _, err := tx.Exec(`INSERT INTO post_record (id, thid, position, author, time, date, type, subtype, post, nested, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			pid, thid, i, m.Author, m.Time, m.Date, m.Type, m.SubType, m.Post, m.Nested, m.Message); err != nil {
			return err
		}
		for j, poll := range m.Polls {
			if _, err := tx.Exec(`INSERT INTO poll_record (pid, position, num, question, answers, results, percentage, votes) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
				pid, j, poll.Num, poll.Question, encodeList(poll.Answers),
				encodeList(poll.Results), encodeList(poll.Percentage), poll.Votes); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *ArchiveDb) ArchiveId(name string) (string, error) {
	query := `SELECT id FROM archive_record WHERE name = ?;`

	var id string
	if err := db.driver.QueryRow(query, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("archive '%s': %w", name, archive.ErrNotFound)
		}
		logrus.WithError(err).Error("db.driver.QueryRow.Scan failed")
		return "", err
	}
	return id, nil
}

// Archives lists stored archives, newest first.
func (db *ArchiveDb) Archives() ([]*ArchiveRecord, error) {
	query := `SELECT a.id, a.name, a.created_at, COUNT(s.id)
		FROM archive_record a LEFT JOIN service_record s ON s.aid = a.id
		GROUP BY a.id ORDER BY a.created_at DESC;`

	rows, err := db.driver.Query(query)
	if err != nil {
		logrus.WithError(err).Error("db.driver.Query failed")
		return nil, err
	}
	defer rows.Close()

	var records []*ArchiveRecord
	for rows.Next() {
		record := &ArchiveRecord{}
		var createdAt int64
		if err := rows.Scan(&record.Id, &record.Name, &createdAt, &record.Services); err != nil {
			logrus.WithError(err).Error("rows.Scan failed")
			return nil, err
		}
		record.CreatedAt = time.Unix(0, createdAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (db *ArchiveDb) LoadDocument(id string) (*archive.Document, error) {
	var exists int
	if err := db.driver.QueryRow(`SELECT COUNT(*) FROM archive_record WHERE id = ?;`, id).Scan(&exists); err != nil {
		logrus.WithError(err).Error("db.driver.QueryRow.Scan failed")
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("archive id %s: %w", id, archive.ErrNotFound)
	}

	rows, err := db.driver.Query(`SELECT id, entry, name, info, interactions, status FROM service_record WHERE aid = ? ORDER BY position;`, id)
	if err != nil {
		logrus.WithError(err).Error("db.driver.Query failed")
		return nil, err
	}
	var sids []string
	doc := archive.NewDocument()
	for rows.Next() {
		var sid, interactions, status string
		service := archive.NewService(0, "", "")
		if err := rows.Scan(&sid, &service.Entry, &service.Name, &service.Info, &interactions, &status); err != nil {
			rows.Close()
			return nil, err
		}
		if err := decodeList(interactions, &service.Interactions); err != nil {
			rows.Close()
			return nil, err
		}
		if err := decodeList(status, &service.Status); err != nil {
			rows.Close()
			return nil, err
		}
		sids = append(sids, sid)
		doc.Services = append(doc.Services, service)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, sid := range sids {
		if err := db.loadService(sid, doc.Services[i]); err != nil {
			logrus.WithError(err).WithField("sid", sid).Error("loadService failed")
			return nil, err
		}
	}
	return doc, nil
}

func (db *ArchiveDb) loadService(sid string, service *archive.Service) error {
	groups, err := db.driver.Query(`SELECT name, levels FROM group_record WHERE sid = ? ORDER BY position;`, sid)
	if err != nil {
		return err
	}
	for groups.Next() {
		group := &archive.CategoryGroup{}
		var levels string
		if err := groups.Scan(&group.Name, &levels); err != nil {
			groups.Close()
			return err
		}
		if err := decodeList(levels, &group.Levels); err != nil {
			groups.Close()
			return err
		}
		service.Categorization = append(service.Categorization, group)
	}
	groups.Close()

	categories, err := db.driver.Query(`SELECT kind, type, level, cid, insub, headline, description FROM category_record WHERE sid = ? ORDER BY position;`, sid)
	if err != nil {
		return err
	}
	for categories.Next() {
		c := &archive.Category{}
		if err := categories.Scan(&c.Kind, &c.Type, &c.Level, &c.ID, &c.InSub, &c.Headline, &c.Description); err != nil {
			categories.Close()
			return err
		}
		service.Categories = append(service.Categories, c)
	}
	categories.Close()

	users, err := db.driver.Query(`SELECT uid, name, handle, location, joined, birthday, bio FROM user_record WHERE sid = ?;`, sid)
	if err != nil {
		return err
	}
	for users.Next() {
		u := &archive.User{}
		if err := users.Scan(&u.ID, &u.Name, &u.Handle, &u.Location, &u.Joined, &u.Birthday, &u.Bio); err != nil {
			users.Close()
			return err
		}
		service.Users[u.ID] = u
	}
	users.Close()

	return db.loadThreads(sid, service)
}

func (db *ArchiveDb) loadThreads(sid string, service *archive.Service) error {
	rows, err := db.driver.Query(`SELECT id, tid, title, category, forum, type, state FROM thread_record WHERE sid = ? ORDER BY position;`, sid)
	if err != nil {
		return err
	}
	var thids []string
	for rows.Next() {
		var thid, category, forum string
		thread := &archive.MessageThread{}
		if err := rows.Scan(&thid, &thread.ID, &thread.Title, &category, &forum, &thread.Type, &thread.State); err != nil {
			rows.Close()
			return err
		}
		if err := decodeList(category, &thread.Category); err != nil {
			rows.Close()
			return err
		}
		if err := decodeList(forum, &thread.Forum); err != nil {
			rows.Close()
			return err
		}
		thids = append(thids, thid)
		service.MessageThreads = append(service.MessageThreads, thread)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, thid := range thids {
		if err := db.loadPosts(thid, service.MessageThreads[i]); err != nil {
			return err
		}
	}
	return nil
}

func (db *ArchiveDb) loadPosts(thid string, thread *archive.MessageThread) error {
	rows, err := db.driver.Query(`SELECT id, author, time, date, type, subtype, post, nested, message FROM post_record WHERE thid = ? ORDER BY position;`, thid)
	if err != nil {
		return err
	}
	var pids []string
	for rows.Next() {
		var pid string
		m := &archive.Message{}
		if err := rows.Scan(&pid, &m.Author, &m.Time, &m.Date, &m.Type, &m.SubType, &m.Post, &m.Nested, &m.Message); err != nil {
			rows.Close()
			return err
		}
		pids = append(pids, pid)
		thread.Messages = append(thread.Messages, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, pid := range pids {
		polls, err := db.loadPolls(pid)
		if err != nil {
			return err
		}
		thread.Messages[i].Polls = polls
	}
	return nil
}

func (db *ArchiveDb) loadPolls(pid string) ([]*archive.Poll, error) {
	rows, err := db.driver.Query(`SELECT num, question, answers, results, percentage, votes FROM poll_record WHERE pid = ? ORDER BY position;`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*archive.Poll
	for rows.Next() {
		poll := &archive.Poll{}
		var answers, results, percentage string
		if err := rows.Scan(&poll.Num, &poll.Question, &answers, &results, &percentage, &poll.Votes); err != nil {
			return nil, err
		}
		if err := decodeList(answers, &poll.Answers); err != nil {
			return nil, err
		}
		if err := decodeList(results, &poll.Results); err != nil {
			return nil, err
		}
		if err := decodeList(percentage, &poll.Percentage); err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}
