package server

import (
	"encoding/json"
	"time"

	"ataa/internal/domain"
)

// Request payloads. Responses reuse the domain records directly since they
// already carry the wire tags; events are the one exception because the
// stored payload is a raw JSON string.

type EmployeeUpsertRequest struct {
	ID                 string               `json:"id,omitempty"`
	Name               string               `json:"name"`
	Position           string               `json:"position,omitempty"`
	Skills             []domain.SkillLevel  `json:"skills,omitempty"`
	CurrentWorkload    float64              `json:"current_workload,omitempty" minimum:"0" maximum:"100"`
	Availability       float64              `json:"availability,omitempty" minimum:"0" maximum:"100"`
	PerformanceScore   float64              `json:"performance_score,omitempty" minimum:"0" maximum:"100"`
	BurnoutScore       float64              `json:"burnout_score,omitempty" minimum:"0" maximum:"100"`
	StressLevel        float64              `json:"stress_level,omitempty" minimum:"0" maximum:"100"`
	RecentSuccess      int                  `json:"recent_success,omitempty" minimum:"0"`
	RecentFailures     int                  `json:"recent_failures,omitempty" minimum:"0"`
	PreferredTaskTypes []string             `json:"preferred_task_types,omitempty"`
	WorkingHours       *domain.WorkingHours `json:"working_hours,omitempty"`
	Timezone           string               `json:"timezone,omitempty"`
}

func (r EmployeeUpsertRequest) profile() domain.EmployeeProfile {
	p := domain.EmployeeProfile{
		ID:                 r.ID,
		Name:               r.Name,
		Position:           r.Position,
		Skills:             r.Skills,
		CurrentWorkload:    r.CurrentWorkload,
		Availability:       r.Availability,
		PerformanceScore:   r.PerformanceScore,
		BurnoutScore:       r.BurnoutScore,
		StressLevel:        r.StressLevel,
		RecentSuccess:      r.RecentSuccess,
		RecentFailures:     r.RecentFailures,
		PreferredTaskTypes: r.PreferredTaskTypes,
		Timezone:           r.Timezone,
	}
	if r.WorkingHours != nil {
		p.WorkingHours = *r.WorkingHours
	}
	return p
}

type TaskCreateRequest struct {
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	Priority       string     `json:"priority,omitempty" enum:"low,medium,high,urgent"`
	EstimatedHours float64    `json:"estimated_hours,omitempty" minimum:"0"`
	Difficulty     string     `json:"difficulty,omitempty" enum:"easy,medium,hard,expert"`
	RequiredSkills []string   `json:"required_skills,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

func (r TaskCreateRequest) task() domain.TaskToDistribute {
	t := domain.TaskToDistribute{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Category:       r.Category,
		Priority:       r.Priority,
		EstimatedHours: r.EstimatedHours,
		Difficulty:     r.Difficulty,
		RequiredSkills: r.RequiredSkills,
		Tags:           r.Tags,
	}
	if r.Deadline != nil {
		t.Deadline = *r.Deadline
	}
	return t
}

type InfluencerUpsertRequest struct {
	ID                    string                       `json:"id,omitempty"`
	Name                  string                       `json:"name"`
	Platform              string                       `json:"platform,omitempty" enum:"instagram,twitter,youtube,tiktok,snapchat,multi"`
	Category              string                       `json:"category,omitempty"`
	Followers             int                          `json:"followers,omitempty" minimum:"0"`
	Engagement            *domain.EngagementMetrics    `json:"engagement,omitempty"`
	HistoricalPerformance []domain.CampaignPerformance `json:"historical_performance,omitempty"`
	Audience              *domain.AudienceData         `json:"audience,omitempty"`
	ContentQuality        float64                      `json:"content_quality,omitempty" minimum:"0" maximum:"100"`
	Reliability           float64                      `json:"reliability,omitempty" minimum:"0" maximum:"100"`
	LastUpdated           *time.Time                   `json:"last_updated,omitempty"`
}

func (r InfluencerUpsertRequest) influencer() domain.InfluencerData {
	inf := domain.InfluencerData{
		ID:                    r.ID,
		Name:                  r.Name,
		Platform:              r.Platform,
		Category:              r.Category,
		Followers:             r.Followers,
		HistoricalPerformance: r.HistoricalPerformance,
		ContentQuality:        r.ContentQuality,
		Reliability:           r.Reliability,
	}
	if r.Engagement != nil {
		inf.Engagement = *r.Engagement
	}
	if r.Audience != nil {
		inf.Audience = *r.Audience
	}
	if r.LastUpdated != nil {
		inf.LastUpdated = *r.LastUpdated
	}
	return inf
}

type SuccessCaseRequest struct {
	ID                string              `json:"id,omitempty"`
	Title             string              `json:"title"`
	Type              string              `json:"type,omitempty" enum:"campaign,project,event,initiative"`
	Category          string              `json:"category,omitempty"`
	ExecutedBy        *domain.Executor    `json:"executed_by,omitempty"`
	StartDate         *time.Time          `json:"start_date,omitempty"`
	EndDate           *time.Time          `json:"end_date,omitempty"`
	Budget            float64             `json:"budget,omitempty" minimum:"0"`
	ActualSpent       float64             `json:"actual_spent,omitempty" minimum:"0"`
	Goals             []domain.CaseGoal   `json:"goals,omitempty"`
	Strategy          string              `json:"strategy,omitempty"`
	Execution         []string            `json:"execution,omitempty"`
	Challenges        []domain.Challenge  `json:"challenges,omitempty"`
	Solutions         []domain.Solution   `json:"solutions,omitempty"`
	Results           []domain.CaseResult `json:"results,omitempty"`
	KeyLearnings      []string            `json:"key_learnings,omitempty"`
	BestPracticesUsed []string            `json:"best_practices_used,omitempty"`
	Rating            float64             `json:"rating,omitempty" minimum:"0" maximum:"5"`
	Featured          bool                `json:"featured,omitempty"`
	Visibility        string              `json:"visibility,omitempty" enum:"public,internal,restricted"`
}

func (r SuccessCaseRequest) successCase() domain.SuccessCase {
	c := domain.SuccessCase{
		ID:                r.ID,
		Title:             r.Title,
		Type:              r.Type,
		Category:          r.Category,
		Budget:            r.Budget,
		ActualSpent:       r.ActualSpent,
		Goals:             r.Goals,
		Strategy:          r.Strategy,
		Execution:         r.Execution,
		Challenges:        r.Challenges,
		Solutions:         r.Solutions,
		Results:           r.Results,
		KeyLearnings:      r.KeyLearnings,
		BestPracticesUsed: r.BestPracticesUsed,
		Rating:            r.Rating,
		Featured:          r.Featured,
		Visibility:        r.Visibility,
	}
	if r.ExecutedBy != nil {
		c.ExecutedBy = *r.ExecutedBy
	}
	if r.StartDate != nil {
		c.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		c.EndDate = *r.EndDate
	}
	return c
}

type FailCaseRequest struct {
	ID                 string               `json:"id,omitempty"`
	Title              string               `json:"title"`
	Type               string               `json:"type,omitempty" enum:"campaign,project,event,initiative"`
	Category           string               `json:"category,omitempty"`
	ExecutedBy         *domain.Executor     `json:"executed_by,omitempty"`
	StartDate          *time.Time           `json:"start_date,omitempty"`
	EndDate            *time.Time           `json:"end_date,omitempty"`
	Budget             float64              `json:"budget,omitempty" minimum:"0"`
	ActualSpent        float64              `json:"actual_spent,omitempty" minimum:"0"`
	OriginalGoals      []domain.CaseGoal    `json:"original_goals,omitempty"`
	WhatWentWrong      []domain.WrongFactor `json:"what_went_wrong,omitempty"`
	RootCauses         []string             `json:"root_causes,omitempty"`
	LessonsLearned     []string             `json:"lessons_learned,omitempty"`
	Recommendations    []string             `json:"recommendations,omitempty"`
	PreventiveMeasures []string             `json:"preventive_measures,omitempty"`
	Severity           string               `json:"severity,omitempty" enum:"minor,moderate,major,critical"`
	Visibility         string               `json:"visibility,omitempty" enum:"public,internal,restricted"`
}

func (r FailCaseRequest) failCase() domain.FailCase {
	c := domain.FailCase{
		ID:                 r.ID,
		Title:              r.Title,
		Type:               r.Type,
		Category:           r.Category,
		Budget:             r.Budget,
		ActualSpent:        r.ActualSpent,
		OriginalGoals:      r.OriginalGoals,
		WhatWentWrong:      r.WhatWentWrong,
		RootCauses:         r.RootCauses,
		LessonsLearned:     r.LessonsLearned,
		Recommendations:    r.Recommendations,
		PreventiveMeasures: r.PreventiveMeasures,
		Severity:           r.Severity,
		Visibility:         r.Visibility,
	}
	if r.ExecutedBy != nil {
		c.ExecutedBy = *r.ExecutedBy
	}
	if r.StartDate != nil {
		c.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		c.EndDate = *r.EndDate
	}
	return c
}

type PredictCampaignRequest struct {
	Budget         float64  `json:"budget" minimum:"0"`
	CampaignType   string   `json:"campaign_type" enum:"sponsored-post,story,video,live,collaboration"`
	TargetAudience []string `json:"target_audience,omitempty"`
}

type CompareInfluencersRequest struct {
	InfluencerIDs  []string `json:"influencer_ids,omitempty"`
	Budget         float64  `json:"budget" minimum:"0"`
	CampaignType   string   `json:"campaign_type" enum:"sponsored-post,story,video,live,collaboration"`
	TargetAudience []string `json:"target_audience,omitempty"`
}

type RejectDecisionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type DecisionOutcomeRequest struct {
	Outcome string `json:"outcome" enum:"success,partial,failure"`
	Notes   string `json:"notes,omitempty"`
}

type InstantiateWorkflowRequest struct {
	TemplateID string `json:"template_id"`
}

type AttachStepFileRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty" minimum:"0"`
	URL      string `json:"url,omitempty"`
	Required bool   `json:"required,omitempty"`
}

type CreatePracticeRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category" enum:"marketing,sales,design,development,management,communication,customer-service"`
	Author      domain.Author         `json:"author"`
	Steps       []domain.PracticeStep `json:"steps,omitempty"`
}

type PracticeReviewRequest struct {
	UserID   string  `json:"user_id"`
	UserName string  `json:"user_name,omitempty"`
	Rating   float64 `json:"rating" minimum:"0" maximum:"5"`
	Comment  string  `json:"comment,omitempty"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

type DevLoginResponse struct {
	Token   string `json:"token"`
	ActorID string `json:"actor_id"`
}

type CreateAPIKeyRequest struct {
	ID      string `json:"id,omitempty"`
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
	Key     string `json:"key"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		ActorID:   k.ActorID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	}
}

type MeResponse struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles"`
	Source  string   `json:"source"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload" jsonschema:"type=object,additionalProperties=true"`
}

func eventResponse(e domain.Event) EventResponse {
	payload := map[string]any{}
	if e.Payload != "" {
		_ = json.Unmarshal([]byte(e.Payload), &payload)
	}
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    payload,
	}
}

func mapEvents(items []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, eventResponse(e))
	}
	return out
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
