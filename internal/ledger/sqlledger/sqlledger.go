// Package sqlledger implements internal/ledger.Ledger on top of Dolt
// (github.com/dolthub/driver for embedded access, github.com/go-sql-driver/mysql
// for server mode), grounded on the teacher's internal/storage/dolt.Store:
// same embedded-vs-server connection modes, same exponential-backoff retry
// around transient connection errors (github.com/cenkalti/backoff/v4).
package sqlledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	embedded "github.com/dolthub/driver"
	_ "github.com/go-sql-driver/mysql"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// Config selects and parameterizes the connection mode.
type Config struct {
	// Path is the embedded database directory. Ignored in server mode.
	Path string

	// ServerMode, when true, connects via the MySQL protocol to a running
	// dolt sql-server instead of opening an embedded engine.
	ServerMode bool
	ServerHost string
	ServerPort int
	ServerUser string
	Database   string
}

// Ledger is the Dolt-backed implementation of ledger.Ledger.
type Ledger struct {
	db            *sql.DB
	schemaVersion string
}

var _ ledger.Ledger = (*Ledger)(nil)

// Open connects (embedded or server mode per cfg.ServerMode), creates the
// schema if absent, and returns a ready Ledger at schemaVersion.
func Open(ctx context.Context, cfg Config, schemaVersion string) (*Ledger, error) {
	var db *sql.DB
	var err error
	if cfg.ServerMode {
		db, err = openServer(ctx, cfg)
	} else {
		db, err = openEmbedded(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	l := &Ledger{db: db, schemaVersion: schemaVersion}
	if err := l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func openEmbedded(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file://%s?commitname=ettlectl&commitemail=ettlectl@local&database=ettlectl", cfg.Path)
	dcfg, err := embedded.ParseDSN(dsn)
	if err != nil {
		return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: parse embedded dsn")
	}
	connector, err := embedded.NewConnector(dcfg)
	if err != nil {
		return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: open embedded connector")
	}
	db := sql.OpenDB(connector)
	if err := pingWithBackoff(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openServer(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cfg.ServerUser, cfg.ServerHost, cfg.ServerPort, cfg.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: open server connection")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := pingWithBackoff(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func pingWithBackoff(ctx context.Context, db *sql.DB) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	err := backoff.Retry(func() error {
		pingErr := db.PingContext(ctx)
		if pingErr != nil && isRetryable(pingErr) {
			return pingErr
		}
		if pingErr != nil {
			return backoff.Permanent(pingErr)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return errtax.Wrap(errtax.Persistence, err, "sqlledger: database unreachable")
	}
	return nil
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unknown database") ||
		strings.Contains(msg, "try again")
}

func (l *Ledger) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ettles (
			id VARCHAR(128) PRIMARY KEY,
			title TEXT NOT NULL,
			parent_id VARCHAR(128) NOT NULL DEFAULT '',
			ep_ids_json TEXT NOT NULL,
			metadata_json TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS eps (
			id VARCHAR(128) PRIMARY KEY,
			ettle_id VARCHAR(128) NOT NULL,
			ordinal INT NOT NULL,
			child_ettle_id VARCHAR(128) NOT NULL DEFAULT '',
			normative BOOLEAN NOT NULL DEFAULT FALSE,
			why TEXT,
			what TEXT,
			how TEXT,
			content_digest VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_metadata (
			k VARCHAR(128) PRIMARY KEY,
			v TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_id VARCHAR(128) PRIMARY KEY,
			manifest_digest VARCHAR(64) NOT NULL,
			semantic_manifest_digest VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL,
			policy_ref VARCHAR(256) NOT NULL,
			profile_ref VARCHAR(256) NOT NULL DEFAULT '',
			leaf_ep_id VARCHAR(128) NOT NULL,
			parent_snapshot_id VARCHAR(128) NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return errtax.Wrap(errtax.Persistence, err, "sqlledger: init schema")
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func wrapDBError(kind errtax.Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errtax.New(errtax.NotFound, format, args...)
	}
	return errtax.Wrap(kind, err, format, args...)
}

func (l *Ledger) PersistEttle(ctx context.Context, e *model.Ettle) error {
	epIDs, err := marshalStrings(e.EPIDs)
	if err != nil {
		return errtax.Wrap(errtax.Serialization, err, "sqlledger: marshal ep_ids for %s", e.ID)
	}
	meta, err := marshalMetadata(e.Metadata)
	if err != nil {
		return errtax.Wrap(errtax.Serialization, err, "sqlledger: marshal metadata for %s", e.ID)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO ettles (id, title, parent_id, ep_ids_json, metadata_json, created_at, updated_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title), parent_id = VALUES(parent_id), ep_ids_json = VALUES(ep_ids_json),
			metadata_json = VALUES(metadata_json), updated_at = VALUES(updated_at), deleted = VALUES(deleted)`,
		e.ID, e.Title, e.ParentID, epIDs, meta, e.CreatedAt, e.UpdatedAt, e.Deleted)
	return wrapDBError(errtax.Persistence, err, "sqlledger: persist ettle %s", e.ID)
}

func (l *Ledger) PersistEP(ctx context.Context, p *model.EP) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO eps (id, ettle_id, ordinal, child_ettle_id, normative, why, what, how, content_digest, created_at, updated_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			ettle_id = VALUES(ettle_id), ordinal = VALUES(ordinal), child_ettle_id = VALUES(child_ettle_id),
			normative = VALUES(normative), why = VALUES(why), what = VALUES(what), how = VALUES(how),
			content_digest = VALUES(content_digest), updated_at = VALUES(updated_at), deleted = VALUES(deleted)`,
		p.ID, p.EttleID, p.Ordinal, p.ChildEttleID, p.Normative, p.Why, p.What, p.How, p.ContentDigest, p.CreatedAt, p.UpdatedAt, p.Deleted)
	return wrapDBError(errtax.Persistence, err, "sqlledger: persist ep %s", p.ID)
}

func (l *Ledger) HydrateAll(ctx context.Context) (*store.Store, error) {
	s := store.New()

	ettleRows, err := l.db.QueryContext(ctx, `SELECT id, title, parent_id, ep_ids_json, metadata_json, created_at, updated_at FROM ettles WHERE deleted = FALSE`)
	if err != nil {
		return nil, wrapDBError(errtax.Persistence, err, "sqlledger: query ettles")
	}
	defer ettleRows.Close()
	for ettleRows.Next() {
		var e model.Ettle
		var epIDsJSON string
		var metaJSON sql.NullString
		if err := ettleRows.Scan(&e.ID, &e.Title, &e.ParentID, &epIDsJSON, &metaJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: scan ettle")
		}
		ids, err := unmarshalStrings(epIDsJSON)
		if err != nil {
			return nil, errtax.Wrap(errtax.Serialization, err, "sqlledger: unmarshal ep_ids for %s", e.ID)
		}
		e.EPIDs = ids
		if metaJSON.Valid {
			meta, err := unmarshalMetadata(metaJSON.String)
			if err != nil {
				return nil, errtax.Wrap(errtax.Serialization, err, "sqlledger: unmarshal metadata for %s", e.ID)
			}
			e.Metadata = meta
		}
		s.PutEttle(&e)
	}
	if err := ettleRows.Err(); err != nil {
		return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: iterate ettles")
	}

	epRows, err := l.db.QueryContext(ctx, `SELECT id, ettle_id, ordinal, child_ettle_id, normative, why, what, how, content_digest, created_at, updated_at FROM eps WHERE deleted = FALSE`)
	if err != nil {
		return nil, wrapDBError(errtax.Persistence, err, "sqlledger: query eps")
	}
	defer epRows.Close()
	for epRows.Next() {
		var p model.EP
		if err := epRows.Scan(&p.ID, &p.EttleID, &p.Ordinal, &p.ChildEttleID, &p.Normative, &p.Why, &p.What, &p.How, &p.ContentDigest, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: scan ep")
		}
		s.PutEP(&p)
	}
	if err := epRows.Err(); err != nil {
		return nil, errtax.Wrap(errtax.Persistence, err, "sqlledger: iterate eps")
	}

	return s, nil
}

func (l *Ledger) GetSchemaVersion(_ context.Context) (string, error) {
	return l.schemaVersion, nil
}

func (l *Ledger) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := l.db.QueryRowContext(ctx, `SELECT v FROM ledger_metadata WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errtax.Wrap(errtax.Persistence, err, "sqlledger: get metadata %s", key)
	}
	return v, true, nil
}

// SetMetadata is a seeding helper; the core never writes ledger metadata.
func (l *Ledger) SetMetadata(ctx context.Context, key, value string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ledger_metadata (k, v) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v)`, key, value)
	return wrapDBError(errtax.Persistence, err, "sqlledger: set metadata %s", key)
}

func (l *Ledger) GetHeadSnapshot(ctx context.Context) (*model.Snapshot, bool, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT snapshot_id, manifest_digest, semantic_manifest_digest, created_at, policy_ref, profile_ref, leaf_ep_id, parent_snapshot_id
		FROM snapshots ORDER BY snapshot_id DESC LIMIT 1`)
	var s model.Snapshot
	err := row.Scan(&s.SnapshotID, &s.ManifestDigest, &s.SemanticManifestDigest, &s.CreatedAt, &s.PolicyRef, &s.ProfileRef, &s.LeafEpID, &s.ParentSnapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errtax.Wrap(errtax.Persistence, err, "sqlledger: get head snapshot")
	}
	return &s, true, nil
}

func (l *Ledger) FindSnapshotBySemanticDigest(ctx context.Context, digestHex string) (*model.Snapshot, bool, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT snapshot_id, manifest_digest, semantic_manifest_digest, created_at, policy_ref, profile_ref, leaf_ep_id, parent_snapshot_id
		FROM snapshots WHERE semantic_manifest_digest = ? ORDER BY snapshot_id ASC LIMIT 1`, digestHex)
	var s model.Snapshot
	err := row.Scan(&s.SnapshotID, &s.ManifestDigest, &s.SemanticManifestDigest, &s.CreatedAt, &s.PolicyRef, &s.ProfileRef, &s.LeafEpID, &s.ParentSnapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errtax.Wrap(errtax.Persistence, err, "sqlledger: find snapshot by semantic digest")
	}
	return &s, true, nil
}

func (l *Ledger) InsertSnapshot(ctx context.Context, row *model.Snapshot) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errtax.Wrap(errtax.Persistence, err, "sqlledger: begin snapshot insert")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (snapshot_id, manifest_digest, semantic_manifest_digest, created_at, policy_ref, profile_ref, leaf_ep_id, parent_snapshot_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SnapshotID, row.ManifestDigest, row.SemanticManifestDigest, row.CreatedAt, row.PolicyRef, row.ProfileRef, row.LeafEpID, row.ParentSnapshotID)
	if err != nil {
		_ = tx.Rollback()
		return wrapDBError(errtax.Persistence, err, "sqlledger: insert snapshot %s", row.SnapshotID)
	}
	if err := tx.Commit(); err != nil {
		return errtax.Wrap(errtax.Persistence, err, "sqlledger: commit snapshot insert")
	}
	return nil
}
