package domain

import "time"

// Employee and task records consumed by the scoring engines. All percentage
// fields are kept in [0,100] by their producers.

type SkillLevel struct {
	Skill          string    `json:"skill"`
	Level          float64   `json:"level"`
	LastUsed       time.Time `json:"last_used"`
	Certifications []string  `json:"certifications,omitempty"`
}

type WorkingHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type EmployeeProfile struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Position           string       `json:"position,omitempty"`
	Skills             []SkillLevel `json:"skills,omitempty"`
	CurrentWorkload    float64      `json:"current_workload"`
	Availability       float64      `json:"availability"`
	PerformanceScore   float64      `json:"performance_score"`
	BurnoutScore       float64      `json:"burnout_score"`
	StressLevel        float64      `json:"stress_level"`
	RecentSuccess      int          `json:"recent_success"`
	RecentFailures     int          `json:"recent_failures"`
	PreferredTaskTypes []string     `json:"preferred_task_types,omitempty"`
	WorkingHours       WorkingHours `json:"working_hours"`
	Timezone           string       `json:"timezone,omitempty"`
}

type TaskToDistribute struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	Priority       string    `json:"priority" enum:"low,medium,high,urgent"`
	EstimatedHours float64   `json:"estimated_hours"`
	Difficulty     string    `json:"difficulty" enum:"easy,medium,hard,expert"`
	RequiredSkills []string  `json:"required_skills,omitempty"`
	Deadline       time.Time `json:"deadline"`
	Tags           []string  `json:"tags,omitempty"`
	AssigneeID     *string   `json:"assignee_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RAGScore is a per (employee, task) readiness/availability/growth triple.
// Computed fresh on every call, never persisted by the engine.
type RAGScore struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Readiness    float64 `json:"readiness"`
	Availability float64 `json:"availability"`
	Growth       float64 `json:"growth"`
	Overall      float64 `json:"overall"`
	Color        string  `json:"color" enum:"red,amber,green"`
}

type AlternativeAssignment struct {
	Employee EmployeeProfile `json:"employee"`
	Score    float64         `json:"score"`
	Reason   string          `json:"reason"`
}

type DistributionResult struct {
	TaskID                  string                  `json:"task_id"`
	TaskTitle               string                  `json:"task_title"`
	SelectedEmployee        EmployeeProfile         `json:"selected_employee"`
	Score                   float64                 `json:"score"`
	Reasoning               []string                `json:"reasoning"`
	Alternatives            []AlternativeAssignment `json:"alternatives"`
	EstimatedCompletionDate time.Time               `json:"estimated_completion_date"`
	SuccessProbability      float64                 `json:"success_probability"`
	RiskFactors             []string                `json:"risk_factors"`
	Recommendations         []string                `json:"recommendations"`
}

// Burnout analysis records.

type WorkData struct {
	WeeklyHours         float64 `json:"weekly_hours"`
	TasksCompleted      float64 `json:"tasks_completed"`
	TasksOverdue        float64 `json:"tasks_overdue"`
	ErrorRate           float64 `json:"error_rate"`
	FocusScore          float64 `json:"focus_score"`
	RestDays            float64 `json:"rest_days"`
	ConsecutiveWorkDays float64 `json:"consecutive_work_days"`
	AvgHoursPerDay      float64 `json:"avg_hours_per_day"`
	ProductivityChange  float64 `json:"productivity_change"`
	EngagementScore     float64 `json:"engagement_score"`
}

type BurnoutSymptom struct {
	Type        string    `json:"type" enum:"exhaustion,cynicism,inefficacy,detachment,physical"`
	Severity    string    `json:"severity" enum:"mild,moderate,severe"`
	Description string    `json:"description"`
	Detected    time.Time `json:"detected"`
}

type TrendPoint struct {
	Date         time.Time `json:"date"`
	BurnoutScore float64   `json:"burnout_score"`
	FatigueLevel float64   `json:"fatigue_level"`
	StressLevel  float64   `json:"stress_level"`
}

type BurnoutRecord struct {
	EmployeeID      string           `json:"employee_id"`
	EmployeeName    string           `json:"employee_name"`
	BurnoutScore    float64          `json:"burnout_score"`
	FatigueLevel    float64          `json:"fatigue_level"`
	StressLevel     float64          `json:"stress_level"`
	WorkloadIndex   float64          `json:"workload_index"`
	RecoveryScore   float64          `json:"recovery_score"`
	RiskLevel       string           `json:"risk_level" enum:"low,medium,high,critical"`
	Symptoms        []BurnoutSymptom `json:"symptoms"`
	WeeklyTrend     []TrendPoint     `json:"weekly_trend"`
	Recommendations []string         `json:"recommendations"`
	LastUpdated     time.Time        `json:"last_updated"`
}

type BurnoutPrediction struct {
	EmployeeID        string   `json:"employee_id"`
	PredictedBurnout  float64  `json:"predicted_burnout"`
	TimeToRisk        int      `json:"time_to_risk"`
	Confidence        float64  `json:"confidence"`
	PreventiveActions []string `json:"preventive_actions"`
}

// Influencer prediction records.

type EngagementMetrics struct {
	Likes          float64 `json:"likes"`
	Comments       float64 `json:"comments"`
	Shares         float64 `json:"shares"`
	Views          float64 `json:"views"`
	EngagementRate float64 `json:"engagement_rate"`
}

type CampaignPerformance struct {
	CampaignID  string    `json:"campaign_id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type" enum:"sponsored-post,story,video,live,collaboration"`
	Reach       float64   `json:"reach"`
	Engagement  float64   `json:"engagement"`
	Conversions float64   `json:"conversions"`
	Revenue     float64   `json:"revenue"`
	Cost        float64   `json:"cost"`
	ROI         float64   `json:"roi"`
}

type Demographics struct {
	AgeGroups map[string]float64 `json:"age_groups,omitempty"`
	Gender    map[string]float64 `json:"gender,omitempty"`
	Locations map[string]float64 `json:"locations,omitempty"`
}

type AudienceData struct {
	Demographics    Demographics `json:"demographics"`
	Interests       []string     `json:"interests,omitempty"`
	Authenticity    float64      `json:"authenticity"`
	ActiveFollowers int          `json:"active_followers"`
}

type InfluencerData struct {
	ID                    string                `json:"id"`
	Name                  string                `json:"name"`
	Platform              string                `json:"platform" enum:"instagram,twitter,youtube,tiktok,snapchat,multi"`
	Category              string                `json:"category,omitempty"`
	Followers             int                   `json:"followers"`
	Engagement            EngagementMetrics     `json:"engagement"`
	HistoricalPerformance []CampaignPerformance `json:"historical_performance,omitempty"`
	Audience              AudienceData          `json:"audience"`
	ContentQuality        float64               `json:"content_quality"`
	Reliability           float64               `json:"reliability"`
	LastUpdated           time.Time             `json:"last_updated"`
}

type PredictionResult struct {
	InfluencerID         string   `json:"influencer_id"`
	InfluencerName       string   `json:"influencer_name"`
	PredictedReach       float64  `json:"predicted_reach"`
	PredictedEngagement  float64  `json:"predicted_engagement"`
	PredictedConversions float64  `json:"predicted_conversions"`
	PredictedRevenue     float64  `json:"predicted_revenue"`
	EstimatedCost        float64  `json:"estimated_cost"`
	PredictedROI         float64  `json:"predicted_roi"`
	Confidence           float64  `json:"confidence"`
	RiskLevel            string   `json:"risk_level" enum:"low,medium,high"`
	RiskFactors          []string `json:"risk_factors"`
	Recommendation       string   `json:"recommendation" enum:"highly-recommended,recommended,consider-alternatives,not-recommended"`
	Score                float64  `json:"score"`
	Color                string   `json:"color" enum:"green,yellow,red"`
	Reasoning            []string `json:"reasoning"`
}

// Auto-decision records.

type Impact struct {
	Productivity float64 `json:"productivity"`
	Quality      float64 `json:"quality"`
	Morale       float64 `json:"morale"`
	Cost         float64 `json:"cost"`
	Time         float64 `json:"time"`
	Overall      float64 `json:"overall"`
}

type DecisionOption struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons"`
	EstimatedImpact Impact   `json:"estimated_impact"`
	Cost            float64  `json:"cost"`
	TimeRequired    string   `json:"time_required"`
	RiskLevel       string   `json:"risk_level" enum:"low,medium,high"`
	Probability     float64  `json:"probability"`
}

type Constraint struct {
	Type        string  `json:"type" enum:"budget,time,resource,policy,capacity"`
	Description string  `json:"description,omitempty"`
	Value       float64 `json:"value"`
	Strict      bool    `json:"strict"`
}

type RelatedEntity struct {
	Type string `json:"type" enum:"employee,project,task,budget,resource"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type DecisionContext struct {
	TriggeredBy     string          `json:"triggered_by"`
	RelatedEntities []RelatedEntity `json:"related_entities,omitempty"`
	CurrentState    map[string]any  `json:"current_state,omitempty"`
	Constraints     []Constraint    `json:"constraints,omitempty"`
	Objectives      []string        `json:"objectives,omitempty"`
}

type Decision struct {
	ID                string           `json:"id"`
	Type              string           `json:"type" enum:"task-assignment,budget-approval,resource-allocation,priority-adjustment,risk-mitigation,performance-action"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Context           DecisionContext  `json:"context"`
	Options           []DecisionOption `json:"options"`
	RecommendedOption string           `json:"recommended_option"`
	Reasoning         []string         `json:"reasoning"`
	Confidence        float64          `json:"confidence"`
	Urgency           string           `json:"urgency" enum:"low,medium,high,critical"`
	Impact            string           `json:"impact" enum:"minor,moderate,significant,major"`
	CreatedAt         time.Time        `json:"created_at"`
	ExpiresAt         time.Time        `json:"expires_at"`
	Status            string           `json:"status" enum:"pending,accepted,rejected,modified,expired"`
	DecidedBy         string           `json:"decided_by,omitempty"`
	DecidedAt         *time.Time       `json:"decided_at,omitempty"`
	ActualOutcome     string           `json:"actual_outcome,omitempty"`
	OutcomeNotes      string           `json:"outcome_notes,omitempty"`
}

// Mandatory workflow records.

type StepFile struct {
	ID         string    `json:"id"`
	StepID     string    `json:"step_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type,omitempty"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
	URL        string    `json:"url,omitempty"`
	Required   bool      `json:"required"`
}

type ProjectStep struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	StepNumber     int        `json:"step_number"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Required       bool       `json:"required"`
	Status         string     `json:"status" enum:"pending,in-progress,completed,skipped"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
	Files          []StepFile `json:"files"`
	Dependencies   []string   `json:"dependencies"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CompletedBy    string     `json:"completed_by,omitempty"`
	EstimatedHours float64    `json:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

type TemplateStep struct {
	StepNumber     int        `json:"step_number" yaml:"step_number"`
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description,omitempty" yaml:"description"`
	Required       bool       `json:"required" yaml:"required"`
	AssignedTo     string     `json:"assigned_to,omitempty" yaml:"assigned_to"`
	Dependencies   []string   `json:"dependencies,omitempty" yaml:"dependencies"`
	Deadline       *time.Time `json:"deadline,omitempty" yaml:"deadline"`
	EstimatedHours float64    `json:"estimated_hours" yaml:"estimated_hours"`
	Notes          string     `json:"notes,omitempty" yaml:"notes"`
}

type WorkflowTemplate struct {
	ID                  string         `json:"id" yaml:"id"`
	Name                string         `json:"name" yaml:"name"`
	Description         string         `json:"description,omitempty" yaml:"description"`
	Category            string         `json:"category" yaml:"category" enum:"marketing,development,design,event,campaign,general"`
	Steps               []TemplateStep `json:"steps" yaml:"steps"`
	EstimatedTotalHours float64        `json:"estimated_total_hours" yaml:"estimated_total_hours"`
	RequiredRoles       []string       `json:"required_roles,omitempty" yaml:"required_roles"`
}

type WorkflowProgress struct {
	ProjectID           string       `json:"project_id"`
	TotalSteps          int          `json:"total_steps"`
	CompletedSteps      int          `json:"completed_steps"`
	PendingSteps        int          `json:"pending_steps"`
	InProgressSteps     int          `json:"in_progress_steps"`
	SkippedSteps        int          `json:"skipped_steps"`
	ProgressPercentage  float64      `json:"progress_percentage"`
	IsBlocked           bool         `json:"is_blocked"`
	BlockedReason       string       `json:"blocked_reason,omitempty"`
	CurrentStep         *ProjectStep `json:"current_step,omitempty"`
	NextStep            *ProjectStep `json:"next_step,omitempty"`
	EstimatedCompletion *time.Time   `json:"estimated_completion,omitempty"`
}

// Best-practices library records.

type Author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"created_at"`
}

type PracticeStep struct {
	StepNumber     int      `json:"step_number"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Tips           []string `json:"tips,omitempty"`
	CommonMistakes []string `json:"common_mistakes,omitempty"`
	EstimatedTime  string   `json:"estimated_time,omitempty"`
}

type PracticeResult struct {
	Metric      string `json:"metric"`
	Before      string `json:"before"`
	After       string `json:"after"`
	Improvement string `json:"improvement,omitempty"`
}

type PracticeResource struct {
	Type        string `json:"type" enum:"document,video,link,template,tool"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

type BestPractice struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Category    string             `json:"category" enum:"marketing,sales,design,development,management,communication,customer-service"`
	Subcategory string             `json:"subcategory,omitempty"`
	RelatedTo   []string           `json:"related_to,omitempty"`
	Author      Author             `json:"author"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	UsageCount  int                `json:"usage_count"`
	Rating      float64            `json:"rating"`
	Reviews     []Review           `json:"reviews"`
	Tags        []string           `json:"tags,omitempty"`
	Steps       []PracticeStep     `json:"steps"`
	Results     []PracticeResult   `json:"results,omitempty"`
	Resources   []PracticeResource `json:"resources,omitempty"`
	Approved    bool               `json:"approved"`
	ApprovedBy  string             `json:"approved_by,omitempty"`
	Featured    bool               `json:"featured"`
}

type Executor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type CaseGoal struct {
	Metric          string  `json:"metric"`
	Target          string  `json:"target"`
	Actual          string  `json:"actual"`
	Achieved        bool    `json:"achieved"`
	AchievementRate float64 `json:"achievement_rate"`
}

type Challenge struct {
	Description string `json:"description"`
	Impact      string `json:"impact" enum:"low,medium,high"`
	HowOvercome string `json:"how_overcome,omitempty"`
}

type Solution struct {
	Problem       string  `json:"problem"`
	Solution      string  `json:"solution"`
	Effectiveness float64 `json:"effectiveness"`
}

type CaseResult struct {
	Metric     string `json:"metric"`
	Value      string `json:"value"`
	Comparison string `json:"comparison,omitempty"`
	Positive   bool   `json:"positive"`
}

type WrongFactor struct {
	Factor      string `json:"factor"`
	Category    string `json:"category" enum:"planning,execution,resources,timing,external,communication"`
	Description string `json:"description,omitempty"`
	Impact      string `json:"impact" enum:"low,medium,high"`
	Preventable bool   `json:"preventable"`
}

type SuccessCase struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Type              string       `json:"type" enum:"campaign,project,event,initiative"`
	Category          string       `json:"category,omitempty"`
	ExecutedBy        Executor     `json:"executed_by"`
	StartDate         time.Time    `json:"start_date"`
	EndDate           time.Time    `json:"end_date"`
	Budget            float64      `json:"budget"`
	ActualSpent       float64      `json:"actual_spent"`
	Goals             []CaseGoal   `json:"goals"`
	Strategy          string       `json:"strategy,omitempty"`
	Execution         []string     `json:"execution,omitempty"`
	Challenges        []Challenge  `json:"challenges,omitempty"`
	Solutions         []Solution   `json:"solutions,omitempty"`
	Results           []CaseResult `json:"results,omitempty"`
	KeyLearnings      []string     `json:"key_learnings,omitempty"`
	BestPracticesUsed []string     `json:"best_practices_used,omitempty"`
	Rating            float64      `json:"rating"`
	Featured          bool         `json:"featured"`
	Visibility        string       `json:"visibility" enum:"public,internal,restricted"`
}

type FailCase struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Type               string        `json:"type" enum:"campaign,project,event,initiative"`
	Category           string        `json:"category,omitempty"`
	ExecutedBy         Executor      `json:"executed_by"`
	StartDate          time.Time     `json:"start_date"`
	EndDate            time.Time     `json:"end_date"`
	Budget             float64       `json:"budget"`
	ActualSpent        float64       `json:"actual_spent"`
	OriginalGoals      []CaseGoal    `json:"original_goals,omitempty"`
	WhatWentWrong      []WrongFactor `json:"what_went_wrong"`
	RootCauses         []string      `json:"root_causes"`
	LessonsLearned     []string      `json:"lessons_learned,omitempty"`
	Recommendations    []string      `json:"recommendations,omitempty"`
	PreventiveMeasures []string      `json:"preventive_measures,omitempty"`
	Severity           string        `json:"severity" enum:"minor,moderate,major,critical"`
	Visibility         string        `json:"visibility" enum:"public,internal,restricted"`
}

type Pattern struct {
	Description string   `json:"description"`
	Frequency   int      `json:"frequency"`
	Confidence  float64  `json:"confidence"`
	Examples    []string `json:"examples"`
}

type RiskFactor struct {
	Factor      string  `json:"factor"`
	Probability float64 `json:"probability"`
	Impact      string  `json:"impact" enum:"low,medium,high"`
	Mitigation  string  `json:"mitigation,omitempty"`
}

type Predictor struct {
	Factor      string  `json:"factor"`
	Weight      float64 `json:"weight"`
	Correlation float64 `json:"correlation"`
}

type CaseAnalysis struct {
	SuccessPatterns   []Pattern    `json:"success_patterns"`
	FailurePatterns   []Pattern    `json:"failure_patterns"`
	Recommendations   []string     `json:"recommendations"`
	RiskFactors       []RiskFactor `json:"risk_factors"`
	SuccessPredictors []Predictor  `json:"success_predictors"`
}

// Operational records carried by the store.

type Assignment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	EmployeeID string    `json:"employee_id"`
	Score      float64   `json:"score"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
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
