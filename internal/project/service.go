package project

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/inamate/timeline/backend-go/internal/collab"
	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidName = errors.New("invalid project name")
)

const maxNameLength = 120

// Rooms is the slice of the collaboration hub the project service drives.
type Rooms interface {
	Open(projectID string) *collab.Room
	Lookup(projectID string) (*collab.Room, bool)
	Close(projectID string) bool
	Submit(projectID, userID string, op command.Operation) (int64, command.Result, error)
	ClientCount(projectID string) int
}

// Service keeps project metadata in memory. Each project owns one
// collaboration room holding its timeline.
type Service struct {
	mu       sync.RWMutex
	projects map[string]*Project
	rooms    Rooms
	now      func() time.Time
}

func NewService(rooms Rooms) *Service {
	return &Service{
		projects: make(map[string]*Project),
		rooms:    rooms,
		now:      time.Now,
	}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	Clients   int    `json:"clients"`
}

// StateView is a timeline snapshot with the sequence number it reflects.
type StateView struct {
	State     engine.State `json:"state"`
	ServerSeq int64        `json:"serverSeq"`
}

type OpResult struct {
	OperationID string         `json:"operationId"`
	ServerSeq   int64          `json:"serverSeq"`
	Result      command.Result `json:"result"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return s.register(typeid.NewProjectID(), name, ownerID), nil
}

// Ensure registers a project with a fixed id, such as the shared
// playground. Existing projects are returned unchanged.
func (s *Service) Ensure(projectID, name string) *Project {
	s.mu.RLock()
	p, ok := s.projects[projectID]
	s.mu.RUnlock()
	if ok {
		return s.view(p)
	}
	return s.register(projectID, name, "")
}

func (s *Service) register(projectID, name, ownerID string) *Project {
	p := &Project{
		ID:        projectID,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	if existing, ok := s.projects[projectID]; ok {
		p = existing
	} else {
		s.projects[projectID] = p
	}
	s.mu.Unlock()

	s.rooms.Open(projectID)
	return s.view(p)
}

// view copies p and fills in live fields.
func (s *Service) view(p *Project) *Project {
	out := *p
	out.Clients = s.rooms.ClientCount(p.ID)
	return &out
}

func (s *Service) List(ctx context.Context) []*Project {
	s.mu.RLock()
	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, s.view(p))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Project) int {
		if c := strings.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Service) Get(ctx context.Context, projectID string) (*Project, error) {
	s.mu.RLock()
	p, ok := s.projects[projectID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", projectID, ErrNotFound)
	}
	return s.view(p), nil
}

// Delete removes a project and disconnects its collaborators. Only the
// owner may delete; ownerless projects cannot be deleted.
func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	s.mu.Lock()
	p, ok := s.projects[projectID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", projectID, ErrNotFound)
	}
	if p.OwnerID == "" || p.OwnerID != userID {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", projectID, ErrForbidden)
	}
	delete(s.projects, projectID)
	s.mu.Unlock()

	s.rooms.Close(projectID)
	return nil
}

func (s *Service) State(ctx context.Context, projectID string) (*StateView, error) {
	room, err := s.room(projectID)
	if err != nil {
		return nil, err
	}
	st, seq := room.State().Snapshot()
	return &StateView{State: st, ServerSeq: seq}, nil
}

// Apply submits op to the project's timeline on behalf of userID. Engine
// rejections are returned as-is.
func (s *Service) Apply(ctx context.Context, projectID, userID string, op command.Operation) (*OpResult, error) {
	if _, err := s.room(projectID); err != nil {
		return nil, err
	}
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	seq, res, err := s.rooms.Submit(projectID, userID, op)
	if err != nil {
		if errors.Is(err, collab.ErrUnknownProject) {
			return nil, fmt.Errorf("%s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}
	return &OpResult{OperationID: op.ID, ServerSeq: seq, Result: res}, nil
}

func (s *Service) Suggestions(ctx context.Context, projectID string, in []document.Suggestion) ([]engine.PlacedSuggestion, error) {
	room, err := s.room(projectID)
	if err != nil {
		return nil, err
	}
	return room.State().PositionSuggestions(in), nil
}

func (s *Service) room(projectID string) (*collab.Room, error) {
	s.mu.RLock()
	_, ok := s.projects[projectID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", projectID, ErrNotFound)
	}
	room, ok := s.rooms.Lookup(projectID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", projectID, ErrNotFound)
	}
	return room, nil
}
