package store

import (
	"path/filepath"
	"sync"

	"forgecd.dev/core/model"
)

// PipelineStore is the JSON-file-backed home of every Pipeline, plus the
// in-memory indexes spec.md §6 requires to resolve a webhook hit or a
// manual-run call in O(1) instead of scanning every file.
type PipelineStore struct {
	dir string

	mu          sync.RWMutex
	byToken     map[string]string // webhook_token -> pipeline_id
	locks       map[string]*sync.Mutex
}

// NewPipelineStore loads the pipelines/ directory under dataDir and
// builds its webhook-token index.
func NewPipelineStore(dataDir string) (*PipelineStore, error) {
	s := &PipelineStore{
		dir:     filepath.Join(dataDir, "pipelines"),
		byToken: make(map[string]string),
		locks:   make(map[string]*sync.Mutex),
	}
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var p model.Pipeline
		if err := readJSON(s.path(id), &p); err != nil {
			continue
		}
		if p.WebhookToken != "" {
			s.byToken[p.WebhookToken] = p.PipelineID
		}
	}
	return s, nil
}

func (s *PipelineStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *PipelineStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Get loads one pipeline by id.
func (s *PipelineStore) Get(id string) (*model.Pipeline, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var p model.Pipeline
	if err := readJSON(s.path(id), &p); err != nil {
		return nil, model.Wrap(model.KindNotFound, "pipeline not found: "+id, err)
	}
	return &p, nil
}

// GetByWebhookToken resolves the pipeline whose webhook_token matches
// token, spec.md §4.5 step 1.
func (s *PipelineStore) GetByWebhookToken(token string) (*model.Pipeline, error) {
	s.mu.RLock()
	id, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok {
		return nil, model.NewError(model.KindNotFound, "no pipeline for webhook token")
	}
	return s.Get(id)
}

// List returns every pipeline, in no particular order; callers that
// need pagination/filtering should go through the sqlite index instead.
func (s *PipelineStore) List() ([]*model.Pipeline, error) {
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Pipeline, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Create persists a new pipeline, enforcing the unique-webhook-token
// invariant from spec.md §3.
func (s *PipelineStore) Create(p *model.Pipeline) error {
	l := s.lockFor(p.PipelineID)
	l.Lock()
	defer l.Unlock()

	if p.WebhookToken != "" {
		s.mu.Lock()
		if existing, ok := s.byToken[p.WebhookToken]; ok && existing != p.PipelineID {
			s.mu.Unlock()
			return model.NewError(model.KindConflict, "webhook_token already in use")
		}
		s.mu.Unlock()
	}

	if err := writeJSONAtomic(s.path(p.PipelineID), p); err != nil {
		return model.Wrap(model.KindInternal, "writing pipeline", err)
	}

	if p.WebhookToken != "" {
		s.mu.Lock()
		s.byToken[p.WebhookToken] = p.PipelineID
		s.mu.Unlock()
	}
	return nil
}

// Update overwrites an existing pipeline's record, re-indexing its
// webhook token if it changed.
func (s *PipelineStore) Update(p *model.Pipeline) error {
	l := s.lockFor(p.PipelineID)
	l.Lock()
	defer l.Unlock()

	var old model.Pipeline
	oldToken := ""
	if readJSON(s.path(p.PipelineID), &old) == nil {
		oldToken = old.WebhookToken
	}

	if err := writeJSONAtomic(s.path(p.PipelineID), p); err != nil {
		return model.Wrap(model.KindInternal, "writing pipeline", err)
	}

	s.mu.Lock()
	if oldToken != "" && oldToken != p.WebhookToken && s.byToken[oldToken] == p.PipelineID {
		delete(s.byToken, oldToken)
	}
	if p.WebhookToken != "" {
		s.byToken[p.WebhookToken] = p.PipelineID
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a pipeline's record and its webhook-token index entry.
func (s *PipelineStore) Delete(id string) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var p model.Pipeline
	if err := readJSON(s.path(id), &p); err == nil && p.WebhookToken != "" {
		s.mu.Lock()
		delete(s.byToken, p.WebhookToken)
		s.mu.Unlock()
	}

	if err := removeIfExists(s.path(id)); err != nil {
		return model.Wrap(model.KindInternal, "deleting pipeline", err)
	}
	return nil
}
