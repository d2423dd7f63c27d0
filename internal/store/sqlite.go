// Package store provides SQLite persistence for sessions, rounds,
// responses, validation results, feedback and the round event journal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

// SQLiteStore implements persistence using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database, runs migrations and seeds the
// default agent panel.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := store.seedAgents(); err != nil {
		// Not fatal; the registry can be filled over the API.
		slog.Warn("failed to seed default agents", "error", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			max_rounds INTEGER NOT NULL DEFAULT 5,
			current_round INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			model TEXT,
			instructions TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS session_agents (
			session_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (session_id, agent_id),
			FOREIGN KEY (session_id) REFERENCES sessions(session_id),
			FOREIGN KEY (agent_id) REFERENCES agents(agent_id)
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			round_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			status TEXT NOT NULL,
			task TEXT NOT NULL,
			enrichment TEXT,
			error TEXT,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id),
			UNIQUE (session_id, round_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, round_number)`,
		`CREATE TABLE IF NOT EXISTS agent_responses (
			response_id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			agent_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			sentiment TEXT NOT NULL,
			reasoning TEXT,
			evidence TEXT,
			status TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (round_id) REFERENCES rounds(round_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_round ON agent_responses(round_id, position)`,
		`CREATE TABLE IF NOT EXISTS validation_results (
			result_id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL,
			claim TEXT NOT NULL,
			is_valid INTEGER NOT NULL,
			confidence INTEGER NOT NULL,
			evidence TEXT,
			fallacies TEXT,
			supporting_facts TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (round_id) REFERENCES rounds(round_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_round ON validation_results(round_id, position)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			feedback_id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL,
			response_id TEXT,
			verdict TEXT NOT NULL,
			comment TEXT,
			priority INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (round_id) REFERENCES rounds(round_id),
			FOREIGN KEY (response_id) REFERENCES agent_responses(response_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_round ON feedback(round_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS round_events (
			event_id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (round_id) REFERENCES rounds(round_id),
			UNIQUE (round_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_round ON round_events(round_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Columns added after the initial schema (SQLite has limited ALTER TABLE support).
	if err := s.ensureColumn("rounds", "recommend_continue", "ALTER TABLE rounds ADD COLUMN recommend_continue INTEGER"); err != nil {
		return err
	}
	if err := s.ensureColumn("validation_results", "selected", "ALTER TABLE validation_results ADD COLUMN selected INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// seedAgents inserts the default panel so a fresh deployment can run a
// round without registering agents first.
func (s *SQLiteStore) seedAgents() error {
	ctx := context.Background()
	agents := []domain.Agent{
		{AgentID: "agt_analyst", Name: "Analyst", Role: domain.AgentRoleAnalyst, CreatedAt: time.Now()},
		{AgentID: "agt_critic", Name: "Critic", Role: domain.AgentRoleCritic, CreatedAt: time.Now()},
		{AgentID: "agt_synth", Name: "Synthesizer", Role: domain.AgentRoleSynthesizer, CreatedAt: time.Now()},
	}

	for _, a := range agents {
		if err := s.CreateAgent(ctx, &a); err != nil {
			// Ignore if exists
			if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return err
			}
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, query, status, max_rounds, current_round, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.UserID, session.Query, session.Status,
		session.MaxRounds, session.CurrentRound, session.CreatedAt, session.UpdatedAt)
	return err
}

// GetSession retrieves a session by ID, including its agent assignments.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, query, status, max_rounds, current_round, created_at, updated_at
		 FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.Query, &session.Status,
		&session.MaxRounds, &session.CurrentRound, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id FROM session_agents WHERE session_id = ? ORDER BY position ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var agentID string
		if err := rows.Scan(&agentID); err != nil {
			return nil, err
		}
		session.AgentIDs = append(session.AgentIDs, agentID)
	}
	return &session, rows.Err()
}

// AssignAgents records the ordered agent panel for a session.
func (s *SQLiteStore) AssignAgents(ctx context.Context, sessionID string, agentIDs []string) error {
	for i, agentID := range agentIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO session_agents (session_id, agent_id, position) VALUES (?, ?, ?)`,
			sessionID, agentID, i); err != nil {
			return err
		}
	}
	return nil
}

// UpdateSessionStatus updates the status of a session.
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE session_id = ?`,
		status, time.Now(), sessionID)
	return err
}

// UpdateSessionRound updates the current round counter of a session.
func (s *SQLiteStore) UpdateSessionRound(ctx context.Context, sessionID string, currentRound int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET current_round = ?, updated_at = ? WHERE session_id = ?`,
		currentRound, time.Now(), sessionID)
	return err
}

// CreateAgent creates a new agent.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *domain.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, name, role, model, instructions, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		agent.AgentID, agent.Name, agent.Role, nullString(agent.Model), nullString(agent.Instructions), agent.CreatedAt)
	return err
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	var agent domain.Agent
	var model, instructions sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_id, name, role, model, instructions, created_at FROM agents WHERE agent_id = ?`,
		agentID).Scan(&agent.AgentID, &agent.Name, &agent.Role, &model, &instructions, &agent.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	agent.Model = model.String
	agent.Instructions = instructions.String
	return &agent, nil
}

// ListAgents retrieves all registered agents.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, name, role, model, instructions, created_at FROM agents ORDER BY created_at ASC, agent_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		var model, instructions sql.NullString
		if err := rows.Scan(&agent.AgentID, &agent.Name, &agent.Role, &model, &instructions, &agent.CreatedAt); err != nil {
			return nil, err
		}
		agent.Model = model.String
		agent.Instructions = instructions.String
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// GetSessionAgents retrieves a session's agent panel in assignment order.
func (s *SQLiteStore) GetSessionAgents(ctx context.Context, sessionID string) ([]domain.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.agent_id, a.name, a.role, a.model, a.instructions, a.created_at
		 FROM agents a
		 JOIN session_agents sa ON sa.agent_id = a.agent_id
		 WHERE sa.session_id = ?
		 ORDER BY sa.position ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		var model, instructions sql.NullString
		if err := rows.Scan(&agent.AgentID, &agent.Name, &agent.Role, &model, &instructions, &agent.CreatedAt); err != nil {
			return nil, err
		}
		agent.Model = model.String
		agent.Instructions = instructions.String
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// CreateRound creates a new round. The UNIQUE(session_id, round_number)
// constraint rejects a second concurrent start for the same slot.
func (s *SQLiteStore) CreateRound(ctx context.Context, round *domain.Round) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (round_id, session_id, round_number, status, task, enrichment, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		round.RoundID, round.SessionID, round.RoundNumber, round.Status,
		round.Task, nullString(round.Enrichment), round.StartedAt)
	return err
}

// GetRound retrieves a round by ID.
func (s *SQLiteStore) GetRound(ctx context.Context, roundID string) (*domain.Round, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT round_id, session_id, round_number, status, task, enrichment, recommend_continue, error, started_at, ended_at
		 FROM rounds WHERE round_id = ?`, roundID)
	return scanRound(row)
}

// GetActiveRound retrieves the session's non-terminal round, if any.
func (s *SQLiteStore) GetActiveRound(ctx context.Context, sessionID string) (*domain.Round, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT round_id, session_id, round_number, status, task, enrichment, recommend_continue, error, started_at, ended_at
		 FROM rounds WHERE session_id = ? AND status NOT IN (?, ?)
		 ORDER BY round_number DESC LIMIT 1`,
		sessionID, domain.RoundStatusCompleted, domain.RoundStatusError)
	return scanRound(row)
}

// ListRounds retrieves all rounds of a session in round order.
func (s *SQLiteStore) ListRounds(ctx context.Context, sessionID string) ([]domain.Round, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round_id, session_id, round_number, status, task, enrichment, recommend_continue, error, started_at, ended_at
		 FROM rounds WHERE session_id = ? ORDER BY round_number ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []domain.Round
	for rows.Next() {
		round, err := scanRoundRows(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

// UpdateRoundStatus updates the status of a round.
func (s *SQLiteStore) UpdateRoundStatus(ctx context.Context, roundID string, status domain.RoundStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET status = ? WHERE round_id = ?`,
		status, roundID)
	return err
}

// UpdateRoundCompleted moves a round to a terminal status with an end
// timestamp and optional error detail.
func (s *SQLiteStore) UpdateRoundCompleted(ctx context.Context, roundID string, status domain.RoundStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET status = ?, ended_at = ?, error = ? WHERE round_id = ?`,
		status, time.Now(), nullString(errMsg), roundID)
	return err
}

// SetRoundRecommendation records the validation continuation recommendation.
func (s *SQLiteStore) SetRoundRecommendation(ctx context.Context, roundID string, recommendContinue bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET recommend_continue = ? WHERE round_id = ?`,
		recommendContinue, roundID)
	return err
}

// CreateAgentResponse creates a new agent response.
func (s *SQLiteStore) CreateAgentResponse(ctx context.Context, resp *domain.AgentResponse, position int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_responses (response_id, round_id, agent_id, agent_name, content, confidence, sentiment, reasoning, evidence, status, position, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ResponseID, resp.RoundID, resp.AgentID, resp.AgentName, resp.Content,
		resp.Confidence, resp.Sentiment, marshalStrings(resp.Reasoning), marshalStrings(resp.Evidence),
		resp.Status, position, resp.DurationMs, resp.CreatedAt)
	return err
}

// GetAgentResponse retrieves an agent response by ID.
func (s *SQLiteStore) GetAgentResponse(ctx context.Context, responseID string) (*domain.AgentResponse, error) {
	var resp domain.AgentResponse
	var reasoning, evidence sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT response_id, round_id, agent_id, agent_name, content, confidence, sentiment, reasoning, evidence, status, duration_ms, created_at
		 FROM agent_responses WHERE response_id = ?`,
		responseID).Scan(&resp.ResponseID, &resp.RoundID, &resp.AgentID, &resp.AgentName, &resp.Content,
		&resp.Confidence, &resp.Sentiment, &reasoning, &evidence, &resp.Status, &resp.DurationMs, &resp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Reasoning = unmarshalStrings(reasoning)
	resp.Evidence = unmarshalStrings(evidence)
	return &resp, nil
}

// ListRoundResponses retrieves a round's responses in invocation order.
func (s *SQLiteStore) ListRoundResponses(ctx context.Context, roundID string) ([]domain.AgentResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT response_id, round_id, agent_id, agent_name, content, confidence, sentiment, reasoning, evidence, status, duration_ms, created_at
		 FROM agent_responses WHERE round_id = ? ORDER BY position ASC`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []domain.AgentResponse
	for rows.Next() {
		var resp domain.AgentResponse
		var reasoning, evidence sql.NullString
		if err := rows.Scan(&resp.ResponseID, &resp.RoundID, &resp.AgentID, &resp.AgentName, &resp.Content,
			&resp.Confidence, &resp.Sentiment, &reasoning, &evidence, &resp.Status, &resp.DurationMs, &resp.CreatedAt); err != nil {
			return nil, err
		}
		resp.Reasoning = unmarshalStrings(reasoning)
		resp.Evidence = unmarshalStrings(evidence)
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// UpdateResponseStatus updates the status of an agent response.
func (s *SQLiteStore) UpdateResponseStatus(ctx context.Context, responseID string, status domain.ResponseStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agent_responses SET status = ? WHERE response_id = ?`,
		status, responseID)
	return err
}

// MarkRoundResponsesValidated advances all SUBMITTED responses of a
// round to VALIDATED. ERROR responses are left untouched.
func (s *SQLiteStore) MarkRoundResponsesValidated(ctx context.Context, roundID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agent_responses SET status = ? WHERE round_id = ? AND status = ?`,
		domain.ResponseStatusValidated, roundID, domain.ResponseStatusSubmitted)
	return err
}

// CreateValidationResult creates a new validation result.
func (s *SQLiteStore) CreateValidationResult(ctx context.Context, res *domain.ValidationResult, position int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO validation_results (result_id, round_id, claim, is_valid, confidence, evidence, fallacies, supporting_facts, selected, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ResultID, res.RoundID, res.Claim, res.IsValid, res.Confidence,
		nullString(res.Evidence), marshalStrings(res.Fallacies), marshalStrings(res.SupportingFacts),
		res.Selected, position, res.CreatedAt)
	return err
}

// GetValidationResult retrieves a validation result by ID.
func (s *SQLiteStore) GetValidationResult(ctx context.Context, resultID string) (*domain.ValidationResult, error) {
	var res domain.ValidationResult
	var evidence, fallacies, facts sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT result_id, round_id, claim, is_valid, confidence, evidence, fallacies, supporting_facts, selected, created_at
		 FROM validation_results WHERE result_id = ?`,
		resultID).Scan(&res.ResultID, &res.RoundID, &res.Claim, &res.IsValid, &res.Confidence,
		&evidence, &fallacies, &facts, &res.Selected, &res.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.Evidence = evidence.String
	res.Fallacies = unmarshalStrings(fallacies)
	res.SupportingFacts = unmarshalStrings(facts)
	return &res, nil
}

// ListRoundValidationResults retrieves a round's validation results in
// synthesis order.
func (s *SQLiteStore) ListRoundValidationResults(ctx context.Context, roundID string) ([]domain.ValidationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result_id, round_id, claim, is_valid, confidence, evidence, fallacies, supporting_facts, selected, created_at
		 FROM validation_results WHERE round_id = ? ORDER BY position ASC`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ValidationResult
	for rows.Next() {
		var res domain.ValidationResult
		var evidence, fallacies, facts sql.NullString
		if err := rows.Scan(&res.ResultID, &res.RoundID, &res.Claim, &res.IsValid, &res.Confidence,
			&evidence, &fallacies, &facts, &res.Selected, &res.CreatedAt); err != nil {
			return nil, err
		}
		res.Evidence = evidence.String
		res.Fallacies = unmarshalStrings(fallacies)
		res.SupportingFacts = unmarshalStrings(facts)
		results = append(results, res)
	}
	return results, rows.Err()
}

// UpdateValidationSelected toggles the user-curation flag on a result.
func (s *SQLiteStore) UpdateValidationSelected(ctx context.Context, resultID string, selected bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE validation_results SET selected = ? WHERE result_id = ?`,
		selected, resultID)
	return err
}

// CreateFeedback creates a new feedback record.
func (s *SQLiteStore) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (feedback_id, round_id, response_id, verdict, comment, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.FeedbackID, fb.RoundID, nullString(fb.ResponseID), fb.Verdict,
		nullString(fb.Comment), fb.Priority, fb.CreatedAt)
	return err
}

// ListRoundFeedback retrieves a round's feedback in submission order.
func (s *SQLiteStore) ListRoundFeedback(ctx context.Context, roundID string) ([]domain.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT feedback_id, round_id, response_id, verdict, comment, priority, created_at
		 FROM feedback WHERE round_id = ? ORDER BY created_at ASC, feedback_id ASC`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		var responseID, comment sql.NullString
		if err := rows.Scan(&fb.FeedbackID, &fb.RoundID, &responseID, &fb.Verdict, &comment, &fb.Priority, &fb.CreatedAt); err != nil {
			return nil, err
		}
		fb.ResponseID = responseID.String
		fb.Comment = comment.String
		items = append(items, fb)
	}
	return items, rows.Err()
}

// CountRoundFeedback counts feedback items recorded for a round.
func (s *SQLiteStore) CountRoundFeedback(ctx context.Context, roundID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback WHERE round_id = ?`, roundID).Scan(&count)
	return count, err
}

// CreateRoundEvent appends an event to the round journal.
func (s *SQLiteStore) CreateRoundEvent(ctx context.Context, event *domain.RoundEvent) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO round_events (event_id, round_id, seq, ts, type, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID, event.RoundID, event.Seq, event.Ts, event.Type, payload)
	return err
}

// ListRoundEvents retrieves journal events for a round after a sequence
// watermark, in sequence order.
func (s *SQLiteStore) ListRoundEvents(ctx context.Context, roundID string, afterSeq int64, limit int) ([]domain.RoundEvent, error) {
	query := `SELECT event_id, round_id, seq, ts, type, payload FROM round_events WHERE round_id = ?`
	args := []interface{}{roundID}

	if afterSeq > 0 {
		query += ` AND seq > ?`
		args = append(args, afterSeq)
	}

	query += ` ORDER BY seq ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.RoundEvent
	for rows.Next() {
		var event domain.RoundEvent
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.RoundID, &event.Seq, &event.Ts, &event.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanRound(row *sql.Row) (*domain.Round, error) {
	var round domain.Round
	var enrichment, errMsg sql.NullString
	var recommend sql.NullBool
	var endedAt sql.NullTime
	err := row.Scan(&round.RoundID, &round.SessionID, &round.RoundNumber, &round.Status,
		&round.Task, &enrichment, &recommend, &errMsg, &round.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	applyRoundNulls(&round, enrichment, errMsg, recommend, endedAt)
	return &round, nil
}

func scanRoundRows(rows *sql.Rows) (*domain.Round, error) {
	var round domain.Round
	var enrichment, errMsg sql.NullString
	var recommend sql.NullBool
	var endedAt sql.NullTime
	if err := rows.Scan(&round.RoundID, &round.SessionID, &round.RoundNumber, &round.Status,
		&round.Task, &enrichment, &recommend, &errMsg, &round.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	applyRoundNulls(&round, enrichment, errMsg, recommend, endedAt)
	return &round, nil
}

func applyRoundNulls(round *domain.Round, enrichment, errMsg sql.NullString, recommend sql.NullBool, endedAt sql.NullTime) {
	round.Enrichment = enrichment.String
	round.Error = errMsg.String
	if recommend.Valid {
		v := recommend.Bool
		round.RecommendContinue = &v
	}
	if endedAt.Valid {
		round.EndedAt = &endedAt.Time
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func marshalStrings(vals []string) sql.NullString {
	if len(vals) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(vals)
	return sql.NullString{String: string(b), Valid: true}
}

func unmarshalStrings(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(ns.String), &vals); err != nil {
		return nil
	}
	return vals
}
