package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"design-room/internal/designroom/codec"
	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/repository"
)

// ============================================================
// Scenes
// ============================================================

// SceneRepository: хранилище снапшотов сцен.
type SceneRepository interface {
	SaveScene(ctx context.Context, rec repository.SceneRecord) (bool, error)
	LoadScene(ctx context.Context, id string) (*repository.SceneRecord, error)
}

// Scenes связывает сессии редактирования с хранилищем.
type Scenes struct {
	repo     SceneRepository
	sessions *SessionManager
}

func NewScenes(repo SceneRepository, sessions *SessionManager) *Scenes {
	return &Scenes{repo: repo, sessions: sessions}
}

// SaveResult: итог сохранения.
type SaveResult struct {
	Revision string `json:"revision"`
	Saved    bool   `json:"saved"`
}

// Create заводит пустую сцену, сохраняет её и открывает сессию.
func (s *Scenes) Create(ctx context.Context, name string) (*editor.Editor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	id := s.sessions.NewSceneID()
	ed := s.sessions.New(id, name)
	if _, err := s.save(ctx, ed); err != nil {
		ed.Close()
		return nil, err
	}
	ed, _ = s.sessions.Attach(ed)
	log.Printf("[SCENE] created %s (%q)", id, name)
	return ed, nil
}

// Open возвращает сессию сцены; если её нет, поднимает снапшот из хранилища.
func (s *Scenes) Open(ctx context.Context, id string) (*editor.Editor, error) {
	if ed, err := s.sessions.Get(id); err == nil {
		return ed, nil
	}

	rec, err := s.repo.LoadScene(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := codec.Decode(rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}

	// сессия становится видна другим запросам только заполненной
	ed := s.sessions.New(id, rec.Name)
	skipped := ed.LoadDocument(doc)
	current, attached := s.sessions.Attach(ed)
	if !attached {
		ed.Close()
		return current, nil
	}
	log.Printf("[SCENE] opened %s: %d objects, %d skipped", id, len(doc.Objects), skipped)
	return ed, nil
}

// Session: только уже открытая сессия.
func (s *Scenes) Session(id string) (*editor.Editor, error) {
	return s.sessions.Get(id)
}

// OpenIDs: идентификаторы сцен с живыми сессиями.
func (s *Scenes) OpenIDs() []string {
	return s.sessions.IDs()
}

// Save пишет снапшот открытой сессии.
func (s *Scenes) Save(ctx context.Context, id string) (SaveResult, error) {
	ed, err := s.sessions.Get(id)
	if err != nil {
		return SaveResult{}, err
	}
	return s.save(ctx, ed)
}

// Close сохраняет и закрывает сессию.
func (s *Scenes) Close(ctx context.Context, id string) (SaveResult, error) {
	res, err := s.Save(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	s.sessions.Close(id)
	log.Printf("[SCENE] closed %s", id)
	return res, nil
}

// CloseAll сохраняет и закрывает все открытые сессии (остановка сервиса).
func (s *Scenes) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.sessions.IDs() {
		if _, err := s.Close(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scenes) save(ctx context.Context, ed *editor.Editor) (SaveResult, error) {
	doc := ed.Document()
	data, rev, err := codec.Encode(doc)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode scene %s: %w", ed.ID(), err)
	}
	saved, err := s.repo.SaveScene(ctx, repository.SceneRecord{
		ID:       doc.ID,
		Name:     doc.Name,
		Snapshot: data,
		Revision: rev,
		Objects:  len(doc.Objects),
	})
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Revision: rev, Saved: saved}, nil
}
