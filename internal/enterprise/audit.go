package enterprise

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/infrastructure/redaction"
	"github.com/R3E-Network/aivcs/internal/digest"
)

// AuditOutcome classifies the result of an audited action.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeDenied  AuditOutcome = "denied"
	AuditOutcomeError   AuditOutcome = "error"
)

// AuditEvent is a single compliance-grade record of an action taken against
// the system.
type AuditEvent struct {
	EventID     string                 `json:"event_id"`
	Timestamp   time.Time              `json:"timestamp"`
	TenantID    string                 `json:"tenant_id"`
	PrincipalID string                 `json:"principal_id"`
	Action      string                 `json:"action"`
	Resource    string                 `json:"resource"`
	Outcome     AuditOutcome           `json:"outcome"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// AuditLog accumulates audit events for later query and export.
type AuditLog struct {
	events []AuditEvent
}

// NewAuditLog constructs an empty log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Record appends event to the log.
func (l *AuditLog) Record(event AuditEvent) {
	l.events = append(l.events, event)
}

// Len returns the number of recorded events.
func (l *AuditLog) Len() int { return len(l.events) }

// IsEmpty reports whether the log holds no events.
func (l *AuditLog) IsEmpty() bool { return len(l.events) == 0 }

// Query returns tenantID's events whose timestamp falls within [from, to],
// either bound optional.
func (l *AuditLog) Query(tenantID string, from, to *time.Time) []AuditEvent {
	var out []AuditEvent
	for _, e := range l.events {
		if e.TenantID != tenantID {
			continue
		}
		if from != nil && e.Timestamp.Before(*from) {
			continue
		}
		if to != nil && e.Timestamp.After(*to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// QueryByOutcome returns every event with the given outcome, e.g. all
// denied actions for a security review.
func (l *AuditLog) QueryByOutcome(outcome AuditOutcome) []AuditEvent {
	var out []AuditEvent
	for _, e := range l.events {
		if e.Outcome == outcome {
			out = append(out, e)
		}
	}
	return out
}

// ExportJSON renders tenantID's events as compliance-ready JSON. Event
// metadata is scrubbed through the standard redactor before serialization,
// so secrets accidentally captured in a caller-supplied metadata map never
// reach the export file on disk.
func (l *AuditLog) ExportJSON(tenantID string) ([]byte, error) {
	redactor := redaction.NewRedactor(redaction.DefaultConfig())

	var tenantEvents []AuditEvent
	for _, e := range l.events {
		if e.TenantID != tenantID {
			continue
		}
		if e.Metadata != nil {
			e.Metadata = redactor.RedactMap(e.Metadata)
		}
		tenantEvents = append(tenantEvents, e)
	}
	if tenantEvents == nil {
		tenantEvents = []AuditEvent{}
	}
	raw, err := json.MarshalIndent(tenantEvents, "", "  ")
	if err != nil {
		return nil, aerr.Serialization(err)
	}
	return raw, nil
}

// AuditExportReceipt records where a compliance export landed and its
// integrity digest.
type AuditExportReceipt struct {
	Path        string
	Digest      string
	EventCount  int
	ExportedAt  time.Time
}

// WriteAuditExport persists events (already JSON-encoded) under
// <dir>/<tenant_id>/audit-export-<timestamp>.json, alongside a companion
// .digest file, for tamper detection.
func WriteAuditExport(tenantID string, events []byte, dir string, now time.Time) (AuditExportReceipt, error) {
	exportDir := filepath.Join(dir, tenantID)
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return AuditExportReceipt{}, aerr.IO("mkdir", err)
	}

	timestamp := now.UTC().Format("20060102T150405Z")
	filename := fmt.Sprintf("audit-export-%s.json", timestamp)
	path := filepath.Join(exportDir, filename)
	digestPath := filepath.Join(exportDir, filename+".digest")

	eventDigest := digest.FromBytes(events).String()
	if err := os.WriteFile(path, events, 0o644); err != nil {
		return AuditExportReceipt{}, aerr.IO("write_audit_export", err)
	}
	if err := os.WriteFile(digestPath, []byte(eventDigest), 0o644); err != nil {
		return AuditExportReceipt{}, aerr.IO("write_audit_digest", err)
	}

	var parsed []json.RawMessage
	count := 0
	if err := json.Unmarshal(events, &parsed); err == nil {
		count = len(parsed)
	}

	return AuditExportReceipt{
		Path:       path,
		Digest:     eventDigest,
		EventCount: count,
		ExportedAt: now,
	}, nil
}

// VerifyAuditExport recomputes the digest of the export at path and
// compares it against its companion .digest file.
func VerifyAuditExport(path string) (bool, error) {
	digestPath := path + ".digest"
	if _, err := os.Stat(digestPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, aerr.IO("stat_audit_digest", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, aerr.IO("read_audit_export", err)
	}
	expected, err := os.ReadFile(digestPath)
	if err != nil {
		return false, aerr.IO("read_audit_digest", err)
	}

	actual := digest.FromBytes(data).String()
	return strings.TrimSpace(string(expected)) == actual, nil
}
