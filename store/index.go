package store

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"forgecd.dev/core/model"
)

// buildTaskRow is the sqlite-indexed projection of a BuildTask, used
// only for paginated/filtered listing (GET /pipelines/{id}/tasks with
// status and trigger_source filters). The JSON file under build-tasks/ remains the
// source of truth; this row is rebuilt from it at boot and kept in
// sync on every store write, the way db/db.go wires gorm as a plain
// queryable store rather than the system of record.
type buildTaskRow struct {
	TaskID      string `gorm:"primaryKey"`
	PipelineID  string `gorm:"index"`
	Status      string `gorm:"index"`
	TriggerType string
	QueuedAt    time.Time `gorm:"index"`
	CompletedAt *time.Time
}

// Index is the secondary sqlite query layer over the canonical JSON
// store. It exists purely to answer "give me page 3 of failed builds
// for pipeline X" without scanning every file on every request.
type Index struct {
	db *gorm.DB
}

// OpenIndex opens (or creates) the sqlite file at dataDir/index.db and
// ensures its schema is current.
func OpenIndex(dataDir string) (*Index, error) {
	db, err := gorm.Open(sqlite.Open(dataDir+"/index.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "opening index database", err)
	}
	if err := db.AutoMigrate(&buildTaskRow{}); err != nil {
		return nil, model.Wrap(model.KindInternal, "migrating index schema", err)
	}
	return &Index{db: db}, nil
}

// Rebuild truncates and repopulates the index from the canonical
// build-task JSON files, called once at boot after SweepStale.
func (idx *Index) Rebuild(tasks []*model.BuildTask) error {
	return idx.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM build_task_rows").Error; err != nil {
			return err
		}
		for _, t := range tasks {
			if err := tx.Create(rowFromTask(t)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert reflects a single task's current state into the index;
// BuildTaskStore.Update/Create call this right after a successful
// JSON write so the index never drifts far from the canonical record.
func (idx *Index) Upsert(t *model.BuildTask) error {
	row := rowFromTask(t)
	return idx.db.Save(row).Error
}

func rowFromTask(t *model.BuildTask) *buildTaskRow {
	return &buildTaskRow{
		TaskID:      t.TaskID,
		PipelineID:  t.PipelineID,
		Status:      string(t.Status),
		TriggerType: string(t.Trigger.Type),
		QueuedAt:    t.QueuedAt,
		CompletedAt: t.CompletedAt,
	}
}

// ListBuildTasks returns task ids for pipelineID matching an optional
// status and trigger_source filter (empty = any), newest first, paginated,
// per spec.md §6's GET /pipelines/{id}/tasks?trigger_source=&status=.
func (idx *Index) ListBuildTasks(pipelineID, status, triggerSource string, offset, limit int) ([]string, int64, error) {
	q := idx.db.Model(&buildTaskRow{}).Where("pipeline_id = ?", pipelineID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if triggerSource != "" {
		q = q.Where("trigger_type = ?", triggerSource)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []buildTaskRow
	if err := q.Order("queued_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.TaskID
	}
	return ids, total, nil
}
