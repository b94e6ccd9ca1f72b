package store

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"forgecd.dev/core/model"
)

// BuildTaskStore persists BuildTasks as build-tasks/{id}.json plus an
// append-only build-tasks/{id}.log file for the streamed build output,
// matching spec.md §6's split between "task record" and "task log".
type BuildTaskStore struct {
	dir string

	mu         sync.RWMutex
	byPipeline map[string][]string // pipeline_id -> task ids, oldest first
	locks      map[string]*sync.Mutex

	// index, when set, is kept in sync with every Create/Update so the
	// sqlite secondary index never drifts from the canonical JSON files.
	index *Index
}

// SetIndex attaches the secondary query index; called once at boot
// after the index has been rebuilt from disk.
func (s *BuildTaskStore) SetIndex(idx *Index) { s.index = idx }

// NewBuildTaskStore loads the build-tasks/ directory and builds the
// pipeline_id index, ordering each pipeline's tasks by queued_at.
func NewBuildTaskStore(dataDir string) (*BuildTaskStore, error) {
	s := &BuildTaskStore{
		dir:        filepath.Join(dataDir, "build-tasks"),
		byPipeline: make(map[string][]string),
		locks:      make(map[string]*sync.Mutex),
	}
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	type ordered struct {
		id        string
		pipeline  string
		queuedAt  time.Time
	}
	var all []ordered
	for _, id := range ids {
		var t model.BuildTask
		if err := readJSON(s.path(id), &t); err != nil {
			continue
		}
		all = append(all, ordered{id: t.TaskID, pipeline: t.PipelineID, queuedAt: t.QueuedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].queuedAt.Before(all[j].queuedAt) })
	for _, o := range all {
		s.byPipeline[o.pipeline] = append(s.byPipeline[o.pipeline], o.id)
	}
	return s, nil
}

func (s *BuildTaskStore) path(id string) string    { return filepath.Join(s.dir, id+".json") }
func (s *BuildTaskStore) logPath(id string) string  { return filepath.Join(s.dir, id+".log") }

func (s *BuildTaskStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Get loads one build task by id.
func (s *BuildTaskStore) Get(id string) (*model.BuildTask, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var t model.BuildTask
	if err := readJSON(s.path(id), &t); err != nil {
		return nil, model.Wrap(model.KindNotFound, "build task not found: "+id, err)
	}
	t.LogPath = s.logPath(id)
	return &t, nil
}

// Create persists a new build task and indexes it under its pipeline.
func (s *BuildTaskStore) Create(t *model.BuildTask) error {
	l := s.lockFor(t.TaskID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(t.TaskID), t); err != nil {
		return model.Wrap(model.KindInternal, "writing build task", err)
	}

	s.mu.Lock()
	s.byPipeline[t.PipelineID] = append(s.byPipeline[t.PipelineID], t.TaskID)
	s.mu.Unlock()

	if s.index != nil {
		_ = s.index.Upsert(t)
	}
	return nil
}

// Update overwrites an existing build task's record in place. The
// pipeline_id index never changes after Create since a task never
// moves between pipelines.
func (s *BuildTaskStore) Update(t *model.BuildTask) error {
	l := s.lockFor(t.TaskID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(t.TaskID), t); err != nil {
		return model.Wrap(model.KindInternal, "writing build task", err)
	}
	if s.index != nil {
		_ = s.index.Upsert(t)
	}
	return nil
}

// ListByPipeline returns up to limit task ids for pipelineID, newest
// first, starting after offset, from the in-memory pipeline_id index.
// The HTTP task listing (GET /pipelines/{id}/tasks) is served from the
// sqlite Index instead.
func (s *BuildTaskStore) ListByPipeline(pipelineID string, offset, limit int) ([]string, int, error) {
	s.mu.RLock()
	all := s.byPipeline[pipelineID]
	s.mu.RUnlock()

	total := len(all)
	// all is oldest-first; present newest-first.
	reversed := make([]string, total)
	for i, id := range all {
		reversed[total-1-i] = id
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return reversed[offset:end], total, nil
}

// AppendLog appends a chunk of build output to the task's log file,
// creating it on first write.
func (s *BuildTaskStore) AppendLog(taskID string, chunk []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.logPath(taskID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(chunk)
	return err
}

// ReadLog returns the full accumulated log body for a task.
func (s *BuildTaskStore) ReadLog(taskID string) ([]byte, error) {
	return os.ReadFile(s.logPath(taskID))
}

// TailLog streams a task's log to w line by line, stopping once it has
// been fully read; callers that want to follow a running build pair
// this with wsstream instead.
func (s *BuildTaskStore) TailLog(taskID string, w func(line string) error) error {
	f, err := os.Open(s.logPath(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := w(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// All loads every build task on disk, used once at boot to rebuild the
// sqlite secondary index after SweepStale has run.
func (s *BuildTaskStore) All() ([]*model.BuildTask, error) {
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*model.BuildTask, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(id)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// SweepStale marks every task still StatusRunning or StatusPending as
// StatusFailed with KindInternal, to be called once at boot: such a
// task found on disk means the previous process died mid-build (or
// never got to dispatch it) and nothing will ever resume it, per
// spec.md §4.3/§4.4's crash-recovery contract.
func (s *BuildTaskStore) SweepStale() (int, error) {
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		t, err := s.Get(id)
		if err != nil || (t.Status != model.StatusRunning && t.Status != model.StatusPending) {
			continue
		}
		now := time.Now()
		t.Status = model.StatusFailed
		t.ErrorKind = model.KindInternal
		t.ErrorMessage = "process restarted while build was running"
		t.CompletedAt = &now
		if err := s.Update(t); err == nil {
			swept++
		}
	}
	return swept, nil
}
