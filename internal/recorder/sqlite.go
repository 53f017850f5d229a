package recorder

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"SwapSentinel/internal/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteRecorder persists records to a SQLite database.
type SQLiteRecorder struct {
	db  *sqlx.DB
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time
}

type analysisRow struct {
	ID               int64   `db:"id"`
	Timestamp        int64   `db:"timestamp"`
	InstID           string  `db:"inst_id"`
	CurrentPrice     float64 `db:"current_price"`
	Recommendation   string  `db:"recommendation"`
	Confidence       float64 `db:"confidence"`
	Summary          string  `db:"analysis_summary"`
	Reasoning        string  `db:"reasoning"`
	SupportLevels    string  `db:"support_levels"`
	ResistanceLevels string  `db:"resistance_levels"`
	MarketDataJSON   string  `db:"market_data_json"`
	RawResponse      string  `db:"raw_response"`
	EmailSent        bool    `db:"email_sent"`
}

type alertRow struct {
	Timestamp      int64   `db:"timestamp"`
	InstID         string  `db:"inst_id"`
	Recommendation string  `db:"recommendation"`
	Confidence     float64 `db:"confidence"`
	CurrentPrice   float64 `db:"current_price"`
	Message        string  `db:"message"`
	Success        bool    `db:"sent_successfully"`
}

// NewSQLiteRecorder opens (or creates) the SQLite database and applies the
// embedded migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	log = log.Named("recorder")

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers and keeps per-connection pragmas.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db.DB, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return &SQLiteRecorder{db: db, log: log, now: time.Now}, nil
}

func runMigrations(db *sql.DB, log *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get migration version: %w", err)
	}
	if dirty {
		log.Warn("database is in dirty state, forcing version", zap.Uint("version", version))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("schema up to date", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	newVersion, _, _ := m.Version()
	log.Info("migrations applied", zap.Uint("old_version", version), zap.Uint("new_version", newVersion))
	return nil
}

// SaveAnalysis inserts rec and returns the new row id.
func (r *SQLiteRecorder) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	row := analysisRow{
		Timestamp:        rec.CreatedAt.Unix(),
		InstID:           rec.InstID,
		CurrentPrice:     rec.CurrentPrice,
		Recommendation:   string(rec.Recommendation.Action),
		Confidence:       rec.Recommendation.Confidence,
		Summary:          rec.Recommendation.Summary,
		Reasoning:        rec.Recommendation.Reasoning,
		SupportLevels:    encodeLevels(rec.Recommendation.SupportLevels),
		ResistanceLevels: encodeLevels(rec.Recommendation.ResistanceLevels),
		MarketDataJSON:   rec.MarketDataJSON,
		RawResponse:      rec.RawResponse,
	}

	res, err := r.db.NamedExecContext(ctx, `INSERT INTO analysis_records
		(timestamp, inst_id, current_price, recommendation, confidence,
		 analysis_summary, reasoning, support_levels, resistance_levels,
		 market_data_json, raw_response, email_sent)
		VALUES (:timestamp, :inst_id, :current_price, :recommendation, :confidence,
		 :analysis_summary, :reasoning, :support_levels, :resistance_levels,
		 :market_data_json, :raw_response, FALSE)`, row)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("analysis id: %w", err)
	}
	r.log.Debug("analysis saved", zap.Int64("id", id))
	return id, nil
}

// SaveEmailAlert inserts one alert attempt.
func (r *SQLiteRecorder) SaveEmailAlert(ctx context.Context, alert *model.AlertRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = r.now()
	}
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO email_alerts
		(timestamp, inst_id, recommendation, confidence, current_price, message, sent_successfully)
		VALUES (:timestamp, :inst_id, :recommendation, :confidence, :current_price, :message, :sent_successfully)`,
		alertRow{
			Timestamp:      alert.CreatedAt.Unix(),
			InstID:         alert.InstID,
			Recommendation: string(alert.Action),
			Confidence:     alert.Confidence,
			CurrentPrice:   alert.Price,
			Message:        alert.Message,
			Success:        alert.Success,
		})
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("alert id: %w", err)
	}
	r.log.Debug("alert saved", zap.Int64("id", id), zap.Bool("success", alert.Success))
	return id, nil
}

// MarkSent sets alert_sent on analysis id, or returns ErrNotFound.
func (r *SQLiteRecorder) MarkSent(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `UPDATE analysis_records SET email_sent = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark sent %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetAnalysis loads analysis id, or returns ErrNotFound.
func (r *SQLiteRecorder) GetAnalysis(ctx context.Context, id int64) (*model.AnalysisRecord, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, `SELECT id, timestamp, inst_id, current_price, recommendation,
		confidence, analysis_summary, reasoning, support_levels, resistance_levels,
		market_data_json, raw_response, email_sent
		FROM analysis_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	return &model.AnalysisRecord{
		ID:           row.ID,
		CreatedAt:    time.Unix(row.Timestamp, 0),
		InstID:       row.InstID,
		CurrentPrice: row.CurrentPrice,
		Recommendation: model.Recommendation{
			Action:           model.Action(row.Recommendation),
			Confidence:       row.Confidence,
			Summary:          row.Summary,
			Reasoning:        row.Reasoning,
			SupportLevels:    decodeLevels(row.SupportLevels),
			ResistanceLevels: decodeLevels(row.ResistanceLevels),
			Raw:              row.RawResponse,
		},
		MarketDataJSON: row.MarketDataJSON,
		RawResponse:    row.RawResponse,
		AlertSent:      row.EmailSent,
	}, nil
}

// Stats aggregates analyses and alerts created at or after since.
func (r *SQLiteRecorder) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	var byAction []struct {
		Action string `db:"recommendation"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &byAction, `SELECT recommendation, COUNT(*) AS n
		FROM analysis_records WHERE timestamp >= ? GROUP BY recommendation`, since.Unix()); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	var byOutcome []struct {
		Success bool `db:"sent_successfully"`
		N       int  `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &byOutcome, `SELECT sent_successfully, COUNT(*) AS n
		FROM email_alerts WHERE timestamp >= ? GROUP BY sent_successfully`, since.Unix()); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	s := &Stats{}
	for _, a := range byAction {
		s.count(model.Action(a.Action), a.N)
	}
	for _, o := range byOutcome {
		if o.Success {
			s.AlertsSent += o.N
		} else {
			s.AlertsFailed += o.N
		}
	}
	return s, nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func encodeLevels(levels []float64) string {
	if levels == nil {
		levels = []float64{}
	}
	b, err := json.Marshal(levels)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeLevels(s string) []float64 {
	var levels []float64
	if s == "" {
		return levels
	}
	if err := json.Unmarshal([]byte(s), &levels); err != nil {
		return nil
	}
	return levels
}
