package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"StockPilot/internal/briefing"
	"StockPilot/internal/model"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read history while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			source       TEXT,
			ticker       TEXT NOT NULL,
			name         TEXT,
			close        REAL,
			rsi          REAL,
			macd         REAL,
			ma20         REAL,
			score        INTEGER,
			action       TEXT,
			regime       TEXT,
			buy_price    INTEGER,
			target_price INTEGER,
			stop_price   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker_ts ON analyses(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS briefings (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			kind      TEXT,
			verdict   TEXT,
			score     INTEGER,
			picks     INTEGER,
			body      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefings_ts ON briefings(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an unavailable reading to SQL NULL.
func nullable(rd model.Reading) sql.NullFloat64 {
	return sql.NullFloat64{Float64: rd.Value, Valid: rd.Ready}
}

// RecordAnalysis stores an analysis with a result; analyses without data are skipped.
func (r *SQLiteRecorder) RecordAnalysis(runID, source string, a *model.Analysis) error {
	if !a.Available() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, res := a.Snapshot, a.Result
	_, err := r.db.Exec(`INSERT INTO analyses
		(run_id, timestamp, source, ticker, name, close, rsi, macd, ma20,
		 score, action, regime, buy_price, target_price, stop_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), source, a.Ticker, a.Name, s.Close,
		nullable(s.RSI), nullable(s.MACD), nullable(s.MA20),
		res.Score, string(res.Action), string(res.Regime),
		res.BuyPrice, res.TargetPrice, res.StopPrice,
	)
	return err
}

// RecordBriefing stores a briefing with its full JSON body.
func (r *SQLiteRecorder) RecordBriefing(runID string, b *briefing.Briefing) error {
	if b == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	var verdict string
	var score int
	if b.Regime != nil {
		verdict, score = string(b.Regime.Verdict), b.Regime.Score
	}
	_, err = r.db.Exec(`INSERT INTO briefings
		(run_id, timestamp, kind, verdict, score, picks, body)
		VALUES (?,?,?,?,?,?,?)`,
		runID, b.At.Unix(), string(b.Kind), verdict, score, len(b.Picks), string(body),
	)
	return err
}

// History returns the latest records of ticker, newest first.
func (r *SQLiteRecorder) History(ticker string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT run_id, timestamp, source, ticker, name, close, score,
		action, regime, buy_price, target_price, stop_price
		FROM analyses WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		model.NormalizeTicker(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		var ts int64
		var action, regime string
		if err := rows.Scan(&rec.RunID, &ts, &rec.Source, &rec.Ticker, &rec.Name, &rec.Close,
			&rec.Score, &action, &regime, &rec.Buy, &rec.Target, &rec.Stop); err != nil {
			return nil, err
		}
		rec.At = time.Unix(ts, 0)
		rec.Action, rec.Regime = model.Action(action), model.Regime(regime)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
