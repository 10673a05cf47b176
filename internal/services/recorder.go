package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder is the audit and notification side-effect pipeline. The
// contract it enforces centrally: the audit write joins the mutation
// transaction and must never be skipped, while notification dispatch
// happens after commit and must never roll back the primary mutation.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

// AuditEntry describes one state-changing action to be recorded.
type AuditEntry struct {
	OrganizationID uint64
	UserID         *uint64 // nil for system actions
	Action         models.AuditAction
	ContentType    string
	ObjectID       uint64
	ObjectName     string
	Changes        models.ChangeSet
}

// Record appends the audit row on the caller's transaction handle.
// Updates whose change set is empty are skipped; everything else
// produces exactly one row.
func (r *Recorder) Record(tx *gorm.DB, entry AuditEntry) error {
	if entry.Action == models.AuditUpdate && len(entry.Changes) == 0 {
		return nil
	}

	row := &models.AuditLog{
		OrganizationID: entry.OrganizationID,
		UserID:         entry.UserID,
		Action:         entry.Action,
		ContentType:    entry.ContentType,
		ObjectID:       entry.ObjectID,
		ObjectName:     entry.ObjectName,
		Changes:        entry.Changes,
	}
	if err := repository.NewAuditLogRepository(tx).Create(row); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Notify dispatches notifications best-effort after the mutation has
// committed. Failures are logged and swallowed; the primary result is
// already decided.
func (r *Recorder) Notify(db *gorm.DB, notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}
	if err := repository.NewNotificationRepository(db).CreateBatch(notifications); err != nil {
		r.logger.Error("notification dispatch failed",
			zap.Int("count", len(notifications)),
			zap.Error(err),
		)
	}
}

// Change set helpers. Services diff only the fields a caller actually
// provided; identical values never enter the set.

func diffStr(cs models.ChangeSet, field, oldVal, newVal string) {
	if oldVal != newVal {
		cs[field] = models.FieldChange{oldVal, newVal}
	}
}

func diffInt(cs models.ChangeSet, field string, oldVal, newVal int) {
	diffStr(cs, field, strconv.Itoa(oldVal), strconv.Itoa(newVal))
}

func diffTimePtr(cs models.ChangeSet, field string, oldVal, newVal *time.Time) {
	diffStr(cs, field, formatTimePtr(oldVal), formatTimePtr(newVal))
}

func diffUintPtr(cs models.ChangeSet, field string, oldVal, newVal *uint64) {
	diffStr(cs, field, formatUintPtr(oldVal), formatUintPtr(newVal))
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatUintPtr(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}
