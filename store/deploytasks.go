package store

import (
	"path/filepath"
	"sort"
	"sync"

	"forgecd.dev/core/model"
)

// DeployTaskStore persists DeployTasks as deploy-tasks/{id}.json, plus a
// per-target message log at deploy-tasks/{id}.{host_id}.log so a long
// multi-step deploy's per-host output doesn't bloat the task record
// itself, the same split BuildTaskStore uses for build output.
type DeployTaskStore struct {
	dir string

	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

// NewDeployTaskStore opens the deploy-tasks/ directory under dataDir.
func NewDeployTaskStore(dataDir string) (*DeployTaskStore, error) {
	return &DeployTaskStore{
		dir:   filepath.Join(dataDir, "deploy-tasks"),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *DeployTaskStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *DeployTaskStore) targetLogPath(id, hostID string) string {
	return filepath.Join(s.dir, id+"."+hostID+".log")
}

func (s *DeployTaskStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Get loads one deploy task by id.
func (s *DeployTaskStore) Get(id string) (*model.DeployTask, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var t model.DeployTask
	if err := readJSON(s.path(id), &t); err != nil {
		return nil, model.Wrap(model.KindNotFound, "deploy task not found: "+id, err)
	}
	return &t, nil
}

// Create persists a new deploy task.
func (s *DeployTaskStore) Create(t *model.DeployTask) error {
	l := s.lockFor(t.TaskID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(t.TaskID), t); err != nil {
		return model.Wrap(model.KindInternal, "writing deploy task", err)
	}
	return nil
}

// Update overwrites an existing deploy task's record.
func (s *DeployTaskStore) Update(t *model.DeployTask) error {
	l := s.lockFor(t.TaskID)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONAtomic(s.path(t.TaskID), t); err != nil {
		return model.Wrap(model.KindInternal, "writing deploy task", err)
	}
	return nil
}

// List returns every deploy task, newest first.
func (s *DeployTaskStore) List() ([]*model.DeployTask, error) {
	ids, err := listJSONFiles(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*model.DeployTask, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(id)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.After(out[j].QueuedAt) })
	return out, nil
}

// AppendTargetMessage appends one line of per-host progress output,
// used by deployexec to record command-by-command status.
func (s *DeployTaskStore) AppendTargetMessage(taskID, hostID, message string) error {
	return appendLine(s.targetLogPath(taskID, hostID), message)
}

// ReadTargetMessages returns every recorded line for one host's
// execution of a deploy task.
func (s *DeployTaskStore) ReadTargetMessages(taskID, hostID string) ([]string, error) {
	return readLines(s.targetLogPath(taskID, hostID))
}

// Delete removes a deploy task's record and any per-target log files.
func (s *DeployTaskStore) Delete(id string) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if err := removeIfExists(s.path(id)); err != nil {
		return model.Wrap(model.KindInternal, "deleting deploy task", err)
	}
	logs, _ := filepath.Glob(filepath.Join(s.dir, id+".*.log"))
	for _, logPath := range logs {
		if err := removeIfExists(logPath); err != nil {
			return model.Wrap(model.KindInternal, "deleting deploy task log", err)
		}
	}
	return nil
}

// SweepStale marks every task still StatusRunning as StatusFailed, the
// deploy-task analog of BuildTaskStore.SweepStale.
func (s *DeployTaskStore) SweepStale() (int, error) {
	tasks, err := s.List()
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, t := range tasks {
		if t.Status != model.StatusRunning {
			continue
		}
		for i := range t.Targets {
			if t.Targets[i].Status == model.StatusRunning || t.Targets[i].Status == model.StatusPending {
				t.Targets[i].Status = model.StatusFailed
				t.Targets[i].ErrorKind = model.KindInternal
				t.Targets[i].Error = "process restarted while deploy was running"
			}
		}
		t.Status = model.AggregateStatus(t.Targets)
		if err := s.Update(t); err == nil {
			swept++
		}
	}
	return swept, nil
}
