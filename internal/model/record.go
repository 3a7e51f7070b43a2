package model

import "time"

// DuplicateStatus is the terminal classification of a response within its
// organization's duplicate group.
type DuplicateStatus int

const (
	StatusKeep      DuplicateStatus = 0 // authoritative response, full weight
	StatusDuplicate DuplicateStatus = 1 // known duplicate, not individually resolved
	StatusDrop      DuplicateStatus = 2 // explicitly excluded
)

func (s DuplicateStatus) String() string {
	switch s {
	case StatusKeep:
		return "keep"
	case StatusDuplicate:
		return "duplicate"
	case StatusDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// RoleCategory classifies the respondent's role within the organization.
type RoleCategory string

const (
	RoleLeadClergy RoleCategory = "lead_clergy"
	RolePresident  RoleCategory = "president"
	RoleExecutive  RoleCategory = "executive"
	RoleOther      RoleCategory = "other"
)

// SurveyRecord is one submitted questionnaire. PostalCode and OrgBucket are
// nil when the respondent left them blank or the ingest sentinel was
// present; a record missing either cannot be grouped with others.
type SurveyRecord struct {
	RecordID    string            `json:"record_id"`
	PostalCode  *int              `json:"postal_code,omitempty"`
	OrgBucket   *int              `json:"org_bucket,omitempty"`
	RawRoleCode int               `json:"raw_role_code"`
	Extra       map[string]string `json:"extra,omitempty"` // passthrough survey fields, opaque here
}

// Resolution holds the fields the engine derives for a record.
type Resolution struct {
	IdentityKey  *int64          `json:"identity_key,omitempty"`
	RoleCategory RoleCategory    `json:"role_category"`
	RoleRank     int             `json:"role_rank"`
	Status       DuplicateStatus `json:"status"`
	Weight       float64         `json:"weight"`
}

// ResolvedRecord pairs a record with its resolution output.
type ResolvedRecord struct {
	SurveyRecord
	Resolution
}

// RunStatus represents the state of a resolution run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the audit record for one resolution run over a record set.
type Run struct {
	ID               string    `json:"id"`
	Status           RunStatus `json:"status"`
	OverridesVersion string    `json:"overrides_version"`
	Total            int       `json:"total"`
	Kept             int       `json:"kept"`
	Duplicates       int       `json:"duplicates"`
	Dropped          int       `json:"dropped"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
