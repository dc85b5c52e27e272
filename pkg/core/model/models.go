// Package model defines the core domain records used throughout the engine.
package model

import "time"

// RefereeLevel is a certification level on an ordered scale.
type RefereeLevel string

// Referee levels, lowest to highest.
const (
	LevelRookie RefereeLevel = "rookie"
	LevelJunior RefereeLevel = "junior"
	LevelSenior RefereeLevel = "senior"
	LevelElite  RefereeLevel = "elite"
)

var levelOrdinals = map[RefereeLevel]int{
	LevelRookie: 1,
	LevelJunior: 2,
	LevelSenior: 3,
	LevelElite:  4,
}

// Ordinal returns the level's position on the scale, 0 for unknown levels.
func (l RefereeLevel) Ordinal() int {
	return levelOrdinals[l]
}

// AtLeast reports whether the level meets or exceeds the required level.
// An unknown required level is treated as no requirement.
func (l RefereeLevel) AtLeast(required RefereeLevel) bool {
	req := required.Ordinal()
	if req == 0 {
		return true
	}
	return l.Ordinal() >= req
}

// ScheduleType describes how a rule is triggered.
type ScheduleType string

// Schedule types.
const (
	ScheduleManual    ScheduleType = "manual"
	ScheduleRecurring ScheduleType = "recurring"
	ScheduleOneTime   ScheduleType = "one_time"
)

// Frequency is the recurrence interval of a recurring schedule.
type Frequency string

// Recurrence frequencies.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Schedule describes when a rule runs. Weekly schedules require DayOfWeek,
// monthly schedules require DayOfMonth (1-28). StartDate and EndDate bound
// the validity window of recurring schedules; EndDate is inclusive of the
// whole day.
type Schedule struct {
	Type       ScheduleType  `json:"type"`
	Frequency  Frequency     `json:"frequency,omitempty"`
	DayOfWeek  *time.Weekday `json:"day_of_week,omitempty"`
	DayOfMonth *int          `json:"day_of_month,omitempty"`
	TimeOfDay  string        `json:"time_of_day,omitempty"` // "15:04", required for recurring schedules
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
	RunAt      *time.Time    `json:"run_at,omitempty"` // one_time only
}

// StrategyType selects the decision procedure used to rank candidates.
type StrategyType string

// Strategy types.
const (
	StrategyAlgorithmic   StrategyType = "algorithmic"
	StrategyModelAssisted StrategyType = "model_assisted"
)

// AlgorithmicParams are the weights of the deterministic scoring strategy.
// Each weight is a non-negative integer; weights conceptually sum to 100 and
// are divided by 100 to form fractional weights.
type AlgorithmicParams struct {
	DistanceWeight   int `json:"distance_weight"`
	SkillWeight      int `json:"skill_weight"`
	ExperienceWeight int `json:"experience_weight"`
	PartnerWeight    int `json:"partner_weight"`
}

// ModelParams configure the model-assisted strategy.
type ModelParams struct {
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	ContextPrompt string  `json:"context_prompt"`
}

// Criteria are the eligibility constraints and tie-break preferences of a rule.
type Criteria struct {
	GameTypes            []string     `json:"game_types"`
	AgeGroups            []string     `json:"age_groups"`
	MaxDaysAhead         int          `json:"max_days_ahead"`
	MinRefereeLevel      RefereeLevel `json:"min_referee_level"`
	MaxDistanceKm        float64      `json:"max_distance_km"`
	PrioritizeExperience bool         `json:"prioritize_experience"`
	AvoidBackToBack      bool         `json:"avoid_back_to_back"`
}

// Rule is a persisted assignment policy. Exactly one of Algorithmic or Model
// is populated, matching Strategy.
type Rule struct {
	ID          string
	Name        string
	Enabled     bool
	Schedule    Schedule
	Criteria    Criteria
	Strategy    StrategyType
	Algorithmic *AlgorithmicParams
	Model       *ModelParams

	NextRun            *time.Time
	LastRun            *time.Time
	LastRunStatus      RunStatus
	AssignmentsCreated int
	ConflictsFound     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PreferenceType marks a partner preference as positive or negative.
type PreferenceType string

// Partner preference types.
const (
	PreferencePreferred PreferenceType = "preferred"
	PreferenceAvoid     PreferenceType = "avoid"
)

// PartnerPreference is a directed pairwise preference between two referees,
// scoped to one rule: it applies when Referee1 is already allocated to a game
// and Referee2 is a candidate for the same game.
type PartnerPreference struct {
	ID         string
	RuleID     string
	Referee1ID string
	Referee2ID string
	Type       PreferenceType
}

// Game is an externally owned game record, read-only to the engine.
type Game struct {
	ID              string
	Start           time.Time
	DurationMinutes int // 0 means unspecified; the engine substitutes a default
	Type            string
	AgeGroup        string
	Level           RefereeLevel
	Location        string
	RefsNeeded      int // 0 means unspecified; the engine substitutes a default
}

// Window returns the game's occupied time window using defaultDuration when
// the record carries no duration.
func (g Game) Window(defaultDuration time.Duration) (start, end time.Time) {
	d := defaultDuration
	if g.DurationMinutes > 0 {
		d = time.Duration(g.DurationMinutes) * time.Minute
	}
	return g.Start, g.Start.Add(d)
}

// Referee is an externally owned referee record, read-only to the engine.
type Referee struct {
	ID              string
	Name            string
	Available       bool
	Level           RefereeLevel
	YearsExperience int
	DistanceKm      float64
}

// PlannedAssignment is one proposed referee-to-game allocation.
type PlannedAssignment struct {
	GameID        string  `json:"game_id"`
	RefereeID     string  `json:"referee_id"`
	Position      int     `json:"position"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// GamePlan holds the allocations produced for one game.
type GamePlan struct {
	GameID      string              `json:"game_id"`
	Assignments []PlannedAssignment `json:"assignments"`
}

// ConflictType classifies a plan conflict.
type ConflictType string

// Conflict types.
const (
	// ConflictUnfilled records a game that could not be staffed to refs_needed.
	ConflictUnfilled ConflictType = "unfilled"
	// ConflictCommitRace records a game+position lost to a concurrent run at
	// commit time.
	ConflictCommitRace ConflictType = "commit_race"
)

// Conflict is an unmet staffing need or a commit-time race for one game.
type Conflict struct {
	GameID    string       `json:"game_id"`
	Type      ConflictType `json:"type"`
	Shortfall int          `json:"shortfall,omitempty"`
	Detail    string       `json:"detail"`
}

// AssignmentPlan is the transient output of one orchestration pass.
type AssignmentPlan struct {
	Games          []GamePlan   `json:"games"`
	Conflicts      []Conflict   `json:"conflicts"`
	GamesProcessed int          `json:"games_processed"`
	MeanConfidence float64      `json:"mean_confidence"`
	Strategy       StrategyType `json:"strategy"`
	Model          string       `json:"model,omitempty"`
}

// AllAssignments flattens the per-game allocations in plan order.
func (p *AssignmentPlan) AllAssignments() []PlannedAssignment {
	var all []PlannedAssignment
	for _, g := range p.Games {
		all = append(all, g.Assignments...)
	}
	return all
}

// AssignmentCount returns the total number of planned allocations.
func (p *AssignmentPlan) AssignmentCount() int {
	n := 0
	for _, g := range p.Games {
		n += len(g.Assignments)
	}
	return n
}

// RunStatus is the terminal status of a rule run.
type RunStatus string

// Run statuses. A run is successful when its plan carries zero conflicts,
// partial when it carries any, and failed when the strategy itself was
// unavailable and no plan was produced.
const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// RuleRun is an append-only execution record. It is never mutated after
// insertion.
type RuleRun struct {
	ID                 string
	RuleID             string
	RanAt              time.Time
	Status             RunStatus
	Strategy           StrategyType
	Model              string
	DryRun             bool
	GamesProcessed     int
	AssignmentsCreated int
	ConflictsFound     int
	MeanConfidence     float64
	Duration           time.Duration
	ContextNotes       []string
	Plan               *AssignmentPlan
	Error              string
}
