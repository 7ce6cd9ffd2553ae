package server

import (
	"encoding/json"

	"rexline/internal/domain"
)

// Request payloads

type CreateReportRequest struct {
	ID             *string  `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	IncidentType   string   `json:"incident_type,omitempty"`
	Severity       string   `json:"severity,omitempty" enum:"critical,major,significant"`
	Visibility     string   `json:"visibility,omitempty" enum:"org-only,inter-org,public"`
	Context        string   `json:"context,omitempty"`
	MeansDeployed  string   `json:"means_deployed,omitempty"`
	Difficulties   string   `json:"difficulties,omitempty"`
	LessonsLearned string   `json:"lessons_learned,omitempty"`
	ThematicTags   []string `json:"thematic_tags,omitempty"`
}

type UpdateReportRequest struct {
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	IncidentType   *string  `json:"incident_type,omitempty"`
	Severity       *string  `json:"severity,omitempty" enum:"critical,major,significant"`
	Visibility     *string  `json:"visibility,omitempty" enum:"org-only,inter-org,public"`
	Context        *string  `json:"context,omitempty"`
	MeansDeployed  *string  `json:"means_deployed,omitempty"`
	Difficulties   *string  `json:"difficulties,omitempty"`
	LessonsLearned *string  `json:"lessons_learned,omitempty"`
	ThematicTags   []string `json:"thematic_tags,omitempty"`
}

type RejectReportRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PromoteReportRequest struct {
	Tier string `json:"tier" enum:"practice-note,full-review"`
}

type CreateUserRequest struct {
	ID    *string `json:"id,omitempty"`
	Name  string  `json:"name"`
	Role  string  `json:"role,omitempty" enum:"member,validator,admin,super-admin"`
	OrgID string  `json:"org_id,omitempty"`
}

type RoleChangeRequest struct {
	Role string `json:"role" enum:"member,validator,admin,super-admin"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
	OrgID   string `json:"org_id"`
}

// Response payloads

type ReportResponse struct {
	ID              string   `json:"id"`
	AuthorID        string   `json:"author_id"`
	OrgID           string   `json:"org_id"`
	Status          string   `json:"status" enum:"draft,pending,validated,archived"`
	Tier            string   `json:"tier" enum:"signal,practice-note,full-review"`
	IncidentType    string   `json:"incident_type,omitempty"`
	Severity        string   `json:"severity" enum:"critical,major,significant"`
	Visibility      string   `json:"visibility" enum:"org-only,inter-org,public"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Context         string   `json:"context,omitempty"`
	MeansDeployed   string   `json:"means_deployed,omitempty"`
	Difficulties    string   `json:"difficulties,omitempty"`
	LessonsLearned  string   `json:"lessons_learned,omitempty"`
	ThematicTags    []string `json:"thematic_tags"`
	ValidatedBy     *string  `json:"validated_by,omitempty"`
	ValidatedAt     *string  `json:"validated_at,omitempty" format:"date-time"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	ViewCount       int      `json:"view_count"`
	FavoriteCount   int      `json:"favorite_count"`
	CreatedAt       string   `json:"created_at" format:"date-time"`
	UpdatedAt       string   `json:"updated_at" format:"date-time"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role" enum:"member,validator,admin,super-admin"`
	OrgID string `json:"org_id"`
}

type OrgResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Link      string `json:"link,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	OrgID      string         `json:"org_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	OrgID   string `json:"org_id"`
	Source  string `json:"source"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type paginatedReports struct {
	Items      []ReportResponse `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func reportResponse(rep domain.Report) ReportResponse {
	return ReportResponse{
		ID:              rep.ID,
		AuthorID:        rep.AuthorID,
		OrgID:           rep.OrgID,
		Status:          string(rep.Status),
		Tier:            rep.Tier,
		IncidentType:    rep.IncidentType,
		Severity:        string(rep.Severity),
		Visibility:      string(rep.Visibility),
		Title:           rep.Title,
		Description:     rep.Description,
		Context:         rep.Context,
		MeansDeployed:   rep.MeansDeployed,
		Difficulties:    rep.Difficulties,
		LessonsLearned:  rep.LessonsLearned,
		ThematicTags:    nonNilSlice(rep.ThematicTags),
		ValidatedBy:     rep.ValidatedBy,
		ValidatedAt:     rep.ValidatedAt,
		RejectionReason: rep.RejectionReason,
		ViewCount:       rep.ViewCount,
		FavoriteCount:   rep.FavoriteCount,
		CreatedAt:       rep.CreatedAt,
		UpdatedAt:       rep.UpdatedAt,
	}
}

func mapReports(items []domain.Report) []ReportResponse {
	res := make([]ReportResponse, 0, len(items))
	for _, rep := range items {
		res = append(res, reportResponse(rep))
	}
	return res
}

func userResponse(u domain.Actor) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Role: string(u.Role), OrgID: u.OrgID}
}

func notificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Content:   n.Content,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		OrgID:      e.OrgID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
