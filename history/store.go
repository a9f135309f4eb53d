// Package history persists conversation transcripts in SQLite so an ended
// process does not lose what was said.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

// Record is one persisted message of a conversation.
type Record struct {
	ID             int64        `json:"id"`
	ConversationID string       `json:"conversation_id"`
	AgentID        core.AgentID `json:"agent_id"`
	Role           string       `json:"role"`
	Content        string       `json:"content"`
	CreatedAt      time.Time    `json:"created_at"`
}

type writeOp struct {
	record Record
	clear  string
	done   chan struct{}
}

// Store appends conversation messages to SQLite. Writes go through a single
// goroutine so arrival order is preserved without SQLITE_BUSY churn; Append
// is fire-and-forget, persistence failures are logged and never surfaced to
// the conversation.
type Store struct {
	db     *sql.DB
	writes chan writeOp
	closed chan struct{}
	logger logging.Logger
}

// NewStore opens (or creates) the database at dbPath.
func NewStore(dbPath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:     db,
		writes: make(chan writeOp, 256),
		closed: make(chan struct{}),
		logger: logger,
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	go s.writeLoop()
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) writeLoop() {
	for op := range s.writes {
		switch {
		case op.clear != "":
			if _, err := s.db.Exec(`DELETE FROM messages WHERE conversation_id = ?`, op.clear); err != nil {
				s.logger.Error("failed to clear conversation", "conversation_id", op.clear, "error", err)
			}
		case op.record.ConversationID != "":
			_, err := s.db.Exec(
				`INSERT INTO messages (conversation_id, agent_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
				op.record.ConversationID, string(op.record.AgentID),
				op.record.Role, op.record.Content, op.record.CreatedAt.Unix(),
			)
			if err != nil {
				s.logger.Error("failed to persist message",
					"conversation_id", op.record.ConversationID, "error", err)
			}
		}
		if op.done != nil {
			close(op.done)
		}
	}
	close(s.closed)
}

// Append enqueues one message for persistence. It never blocks the caller on
// disk; a full queue drops the message with an error log.
func (s *Store) Append(conversationID string, agentID core.AgentID, role, content string) {
	op := writeOp{record: Record{
		ConversationID: conversationID,
		AgentID:        agentID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}}
	select {
	case s.writes <- op:
	default:
		s.logger.Error("history queue full, dropping message", "conversation_id", conversationID)
	}
}

// Clear removes every message of a conversation, ordered after any pending
// appends for it.
func (s *Store) Clear(conversationID string) {
	select {
	case s.writes <- writeOp{clear: conversationID}:
	default:
		s.logger.Error("history queue full, dropping clear", "conversation_id", conversationID)
	}
}

// Flush blocks until every write enqueued before the call has been applied.
func (s *Store) Flush() {
	done := make(chan struct{})
	s.writes <- writeOp{done: done}
	<-done
}

// Messages returns a conversation's transcript in insertion order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, agent_id, role, content, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var agentID string
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.ConversationID, &agentID, &r.Role, &r.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		r.AgentID = core.AgentID(agentID)
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return records, nil
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	close(s.writes)
	<-s.closed
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
