package domain

import "time"

// CloneMode selects how the point-in-time of a clone is chosen.
type CloneMode string

const (
	// ModeZeroCopy clones the object as of now.
	ModeZeroCopy CloneMode = "ZERO_COPY"
	// ModeAtTime clones the object as of an explicit timestamp.
	ModeAtTime CloneMode = "AT_TIME"
)

// CloneRequest describes a single clone operation. Source and Target are
// caller-owned and read-only to the engine; Target may be partial and is
// completed via ResolveTarget before execution.
type CloneRequest struct {
	Level  ObjectLevel
	Source ObjectPath
	Target ObjectPath
	Mode   CloneMode
	// AtTime is the timestamp literal for ModeAtTime requests. Callers
	// resolve any configured default before building the request; the
	// engine rejects ModeAtTime with an empty AtTime.
	AtTime string
}

// CloneOutcome records the result of one clone request. Outcomes are
// immutable once produced and appended to a run report in execution order.
type CloneOutcome struct {
	// Seq is the position of the request within its run, unique per run.
	// Two requests resolving to the same target keep distinct outcomes.
	Seq       int         `json:"seq"`
	Level     ObjectLevel `json:"level"`
	Source    string      `json:"source"`
	Target    string      `json:"target"`
	Succeeded bool        `json:"succeeded"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// CloneSet is a declarative batch of clone requests. The lists are executed
// in fixed order (databases, then schemas, then tables); ordering inside each
// list is the caller's responsibility.
type CloneSet struct {
	Databases []CloneRequest
	Schemas   []CloneRequest
	Tables    []CloneRequest
}

// Size returns the total number of requests in the set.
func (s CloneSet) Size() int {
	return len(s.Databases) + len(s.Schemas) + len(s.Tables)
}

// BulkSummary aggregates outcome counts for one bulk run.
type BulkSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BulkRunReport is the full record of one bulk clone run. Outcomes holds one
// entry per request in execution order; Summary counts always match the
// partition sizes of Outcomes.
type BulkRunReport struct {
	OperationID string         `json:"operation_id"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Outcomes    []CloneOutcome `json:"outcomes"`
	Summary     BulkSummary    `json:"summary"`
}

// OutcomesAt returns the outcomes recorded for one level, preserving order.
func (r *BulkRunReport) OutcomesAt(level ObjectLevel) []CloneOutcome {
	var out []CloneOutcome
	for _, o := range r.Outcomes {
		if o.Level == level {
			out = append(out, o)
		}
	}
	return out
}

// CloneRecord is one edge of recorded clone lineage, as reported by the
// warehouse's native clone-history listing.
type CloneRecord struct {
	SourceObject string `json:"source_object"`
	CloneObject  string `json:"clone_object"`
	CreatedOn    string `json:"created_on"`
	CloneType    string `json:"clone_type"`
}

// ValidationStatus is the overall verdict of a clone validation.
type ValidationStatus string

const (
	ValidationSuccess ValidationStatus = "SUCCESS"
	ValidationFailed  ValidationStatus = "FAILED"
)

// CloneChecks holds the three independent checks of a clone validation.
// A check that could not be queried counts as not passed.
type CloneChecks struct {
	SourceAccessible  bool `json:"source_accessible"`
	TargetExists      bool `json:"target_exists"`
	CloneRelationship bool `json:"clone_relationship"`
}

// CloneValidation is the result of validating a single source/target pair.
// Status is SUCCESS iff every check passed; the individual flags are retained
// for diagnosis.
type CloneValidation struct {
	Source    string           `json:"source"`
	Target    string           `json:"target"`
	Checks    CloneChecks      `json:"checks"`
	Status    ValidationStatus `json:"overall_status"`
	CheckedAt time.Time        `json:"checked_at"`
}
