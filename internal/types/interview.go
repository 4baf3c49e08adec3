package types

import (
	"fmt"
	"strings"
	"time"
)

// Level is the controlled vocabulary for skill proficiency.
type Level string

// Level values
const (
	LevelBeginner     Level = "BEGINNER"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelProfessional Level = "PROFESSIONAL"
	LevelExpert       Level = "EXPERT"
)

// Requirement says whether a skill is mandatory for the role.
type Requirement string

// Requirement values
const (
	RequirementMandatory Requirement = "MANDATORY"
	RequirementOptional  Requirement = "OPTIONAL"
)

// LikeState is the user's reaction to a question.
type LikeState string

// LikeState values
const (
	LikeNone     LikeState = "NONE"
	LikeLiked    LikeState = "LIKED"
	LikeDisliked LikeState = "DISLIKED"
)

// ParseLevel validates a stored level value.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelBeginner, LevelIntermediate, LevelProfessional, LevelExpert:
		return l, nil
	}
	return "", fmt.Errorf("invalid skill level %q", s)
}

// ParseRequirement validates a stored requirement value.
func ParseRequirement(s string) (Requirement, error) {
	switch r := Requirement(strings.ToUpper(strings.TrimSpace(s))); r {
	case RequirementMandatory, RequirementOptional:
		return r, nil
	}
	return "", fmt.Errorf("invalid skill requirement %q", s)
}

// ParseLikeState validates a stored like state. Empty maps to LikeNone.
func ParseLikeState(s string) (LikeState, error) {
	switch l := LikeState(strings.ToUpper(strings.TrimSpace(s))); l {
	case "":
		return LikeNone, nil
	case LikeNone, LikeLiked, LikeDisliked:
		return l, nil
	}
	return "", fmt.Errorf("invalid like state %q", s)
}

// Record groups the skills and questions generated for one requisition.
// It is correlated with the recruiting platform by (ExternalRequestID, ExternalUserID).
type Record struct {
	ID                int64     `json:"id"`
	ExternalRequestID string    `json:"external_request_id"`
	ExternalUserID    string    `json:"external_user_id"`
	RoundID           *int64    `json:"round_id,omitempty"` // platform round last synced against
	Title             string    `json:"title"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Skill is a competency extracted for a record.
type Skill struct {
	ID          int64       `json:"id"`
	RecordID    int64       `json:"record_id"`
	Name        string      `json:"name"`
	Level       Level       `json:"level"`
	Requirement Requirement `json:"requirement"`
	Category    string      `json:"category"`
	Priority    *int        `json:"priority,omitempty"`    // local only, the platform has no analog
	ExternalID  *int64      `json:"external_id,omitempty"` // platform skill_id once pushed or matched
	State       State       `json:"state"`
}

// QuestionContent is the generated payload of a question. It is stored and replaced as one blob.
type QuestionContent struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Format     string `json:"format"`
	IsCoding   bool   `json:"is_coding"`
}

// Question is an interview question tied to one skill and one record.
type Question struct {
	ID             int64           `json:"id"`
	RecordID       int64           `json:"record_id"`
	SkillID        int64           `json:"skill_id"`
	Content        QuestionContent `json:"content"`
	ExternalID     *int64          `json:"external_id,omitempty"`      // platform question_id
	ExternalPoolID *int64          `json:"external_pool_id,omitempty"` // only meaningful with ExternalID
	State          State           `json:"state"`
	Feedback       *string         `json:"feedback,omitempty"`
	Like           LikeState       `json:"like"`
}

// Regeneration is an append-only audit row linking the question that was replaced to its successor.
// For in-place regeneration both ids are equal.
type Regeneration struct {
	ID               int64     `json:"id"`
	OriginQuestionID int64     `json:"origin_question_id"`
	ResultQuestionID int64     `json:"result_question_id"`
	Reason           string    `json:"reason"`
	Feedback         *string   `json:"feedback,omitempty"`
	SkillID          int64     `json:"skill_id"`
	RecordID         int64     `json:"record_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// InPlace reports whether the regeneration rewrote the origin question itself.
func (r Regeneration) InPlace() bool {
	return r.OriginQuestionID == r.ResultQuestionID
}

// SkillPatch is a field-level update of one skill. Nil fields are left untouched.
type SkillPatch struct {
	SkillID     int64        `json:"skill_id"`
	State       *State       `json:"state,omitempty"`
	ExternalID  *int64       `json:"external_id,omitempty"`
	Name        *string      `json:"name,omitempty"`
	Level       *Level       `json:"level,omitempty"`
	Requirement *Requirement `json:"requirement,omitempty"`
}

// ChangesFields reports whether the patch touches anything besides the lifecycle state.
func (p SkillPatch) ChangesFields() bool {
	return p.ExternalID != nil || p.Name != nil || p.Level != nil || p.Requirement != nil
}

// Empty reports whether the patch is a no-op.
func (p SkillPatch) Empty() bool {
	return p.State == nil && !p.ChangesFields()
}

// QuestionPatch is a field-level update of one question. Nil fields are left untouched.
type QuestionPatch struct {
	QuestionID     int64  `json:"question_id"`
	State          *State `json:"state,omitempty"`
	ExternalPoolID *int64 `json:"external_pool_id,omitempty"`
}

// Empty reports whether the patch is a no-op.
func (p QuestionPatch) Empty() bool {
	return p.State == nil && p.ExternalPoolID == nil
}
