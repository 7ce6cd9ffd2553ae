package domain

// Status is the lifecycle state of a report. Rejection is not a stored
// status: a rejected report returns to draft carrying a rejection reason.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusValidated, StatusArchived:
		return true
	}
	return false
}

// Tier is the production stage of a report, independent of its status.
// Tiers only ever increase, one step at a time.
type Tier int

const (
	TierSignal Tier = iota
	TierPracticeNote
	TierFullReview
)

var tierNames = map[Tier]string{
	TierSignal:       "signal",
	TierPracticeNote: "practice-note",
	TierFullReview:   "full-review",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseTier maps a wire name back to a Tier.
func ParseTier(name string) (Tier, bool) {
	for t, n := range tierNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Role is the closed set of actor roles.
type Role string

const (
	RoleMember     Role = "member"
	RoleValidator  Role = "validator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleValidator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanValidate reports whether the role may approve or reject pending reports.
func (r Role) CanValidate() bool {
	return r == RoleValidator || r == RoleAdmin || r == RoleSuperAdmin
}

// IsAdmin reports whether the role carries admin privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityMajor       Severity = "major"
	SeveritySignificant Severity = "significant"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeveritySignificant:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityOrg      Visibility = "org-only"
	VisibilityInterOrg Visibility = "inter-org"
	VisibilityPublic   Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityOrg, VisibilityInterOrg, VisibilityPublic:
		return true
	}
	return false
}

// Report is an incident/practice write-up moving through the lifecycle.
type Report struct {
	ID           string     `json:"id"`
	AuthorID     string     `json:"author_id"`
	OrgID        string     `json:"org_id"`
	Status       Status     `json:"status" enum:"draft,pending,validated,archived"`
	Tier         string     `json:"tier" enum:"signal,practice-note,full-review"`
	IncidentType string     `json:"incident_type,omitempty"`
	Severity     Severity   `json:"severity" enum:"critical,major,significant"`
	Visibility   Visibility `json:"visibility" enum:"org-only,inter-org,public"`

	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Context        string   `json:"context,omitempty"`
	MeansDeployed  string   `json:"means_deployed,omitempty"`
	Difficulties   string   `json:"difficulties,omitempty"`
	LessonsLearned string   `json:"lessons_learned,omitempty"`
	ThematicTags   []string `json:"thematic_tags,omitempty"`

	ValidatedBy     *string `json:"validated_by,omitempty"`
	ValidatedAt     *string `json:"validated_at,omitempty" format:"date-time"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	// Display-only counters maintained outside the lifecycle engine.
	ViewCount     int `json:"view_count"`
	FavoriteCount int `json:"favorite_count"`

	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// TierValue returns the report's tier as its ordered type.
func (r Report) TierValue() Tier {
	if t, ok := ParseTier(r.Tier); ok {
		return t
	}
	return TierSignal
}

// Actor is a resolved identity: who is calling, with which role, in which org.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role" enum:"member,validator,admin,super-admin"`
	OrgID string `json:"org_id"`
}

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Notification is a computed fan-out payload. The engine persists and
// dispatches these best-effort; delivery never gates a state change.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	Link        string `json:"link,omitempty"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	OrgID      string `json:"org_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
