package models

import "time"

const (
	SyncStatusPending    = "pending"
	SyncStatusInFlight   = "in_flight"
	SyncStatusOK         = "ok"
	SyncStatusFailed     = "failed"
	SyncStatusSuperseded = "superseded"
)

// Mirror operation kinds recorded in the outbox.
const (
	MirrorUpsertUser       = "upsert_user"
	MirrorDeleteUser       = "delete_user"
	MirrorClearProgress    = "clear_progress"
	MirrorInsertResponse   = "insert_response"
	MirrorUpsertCompletion = "upsert_completion"
	MirrorUpsertCert       = "upsert_certificate"
	MirrorInsertReview     = "insert_review"
	MirrorUpsertCatalog    = "upsert_catalog"
)

// OutboxEntry is one recorded mirror write. Email is the owning user, empty for
// entries that belong to no user (the catalog).
type OutboxEntry struct {
	Seq       int64      `json:"seq"`
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Email     string     `json:"email,omitempty"`
	Key       string     `json:"key"`
	Payload   string     `json:"payload"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
}

// OutboxMatch selects older unsynced entries to supersede. Empty fields match anything.
type OutboxMatch struct {
	Email string
	Key   string
	Kinds []string
}

type Dashboard struct {
	Users         int `json:"users"`
	Responses     int `json:"responses"`
	Completions   int `json:"completions"`
	Certificates  int `json:"certificates"`
	Reviews       int `json:"reviews"`
	OutboxPending int `json:"outbox_pending"`
	OutboxFailed  int `json:"outbox_failed"`
	MirrorQueued  int `json:"mirror_queued"`
}

type UserData struct {
	User         User                `json:"user"`
	Responses    []QuestionResponse  `json:"responses"`
	Completions  []SectionCompletion `json:"completions"`
	Certificates []CertificateRecord `json:"certificates"`
	Reviews      []Review            `json:"reviews"`
}

// ResyncResult reports one replay pass over the outbox.
// Skipped counts entries another worker holds, entries superseded meanwhile, and
// entries waiting on an older write for the same user.
type ResyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CatalogSnapshot is the payload mirrored for MirrorUpsertCatalog.
type CatalogSnapshot struct {
	Sections  []Section  `json:"sections"`
	Questions []Question `json:"questions"`
}

// EmailKey is the payload for user-scoped deletes.
type EmailKey struct {
	Email string `json:"email"`
}
