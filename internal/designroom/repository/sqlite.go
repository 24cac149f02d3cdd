package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"design-room/internal/designroom/models"
)

// ============================================================
// SQLite Repository
// ============================================================

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграции по порядку имён файлов.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// SceneRecord: сохранённый снапшот сцены.
type SceneRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Snapshot  []byte `json:"-"`
	Revision  string `json:"revision"`
	Objects   int    `json:"objects"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SaveScene пишет снапшот. Если ревизия не изменилась, запись
// пропускается и возвращается false.
func (r *Repository) SaveScene(ctx context.Context, rec SceneRecord) (bool, error) {
	var current string
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM scenes WHERE id = ?`, rec.ID).Scan(&current)
	switch {
	case err == nil && current == rec.Revision:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("read revision: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO scenes (id, name, snapshot, revision, objects)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            snapshot = excluded.snapshot,
            revision = excluded.revision,
            objects = excluded.objects,
            updated_at = CURRENT_TIMESTAMP
    `, rec.ID, rec.Name, rec.Snapshot, rec.Revision, rec.Objects)
	if err != nil {
		return false, fmt.Errorf("save scene: %w", err)
	}
	log.Printf("[REPO] scene %s saved (revision %.12s, %d bytes)", rec.ID, rec.Revision, len(rec.Snapshot))
	return true, nil
}

func (r *Repository) LoadScene(ctx context.Context, id string) (*SceneRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, snapshot, revision, objects, created_at, updated_at
        FROM scenes
        WHERE id = ?
    `, id)

	var rec SceneRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Snapshot, &rec.Revision, &rec.Objects, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scene %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// ListScenes возвращает сцены без снапшотов, свежие первыми.
func (r *Repository) ListScenes(ctx context.Context) ([]SceneRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, revision, objects, created_at, updated_at
        FROM scenes
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SceneRecord{}
	for rows.Next() {
		var rec SceneRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Revision, &rec.Objects, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ============================================================
// Asset catalog
// ============================================================

func (r *Repository) CreateAsset(ctx context.Context, a models.Asset) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO assets (id, title, file_url, mime_type, width, height)
        VALUES (?, ?, ?, ?, ?, ?)
    `, a.ID, a.Title, a.FileURL, a.MimeType, a.Width, a.Height)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, title, file_url, mime_type, width, height
        FROM assets
        WHERE id = ?
    `, id)

	var a models.Asset
	if err := row.Scan(&a.ID, &a.Title, &a.FileURL, &a.MimeType, &a.Width, &a.Height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, title, file_url, mime_type, width, height
        FROM assets
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Asset{}
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Title, &a.FileURL, &a.MimeType, &a.Width, &a.Height); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	files, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
