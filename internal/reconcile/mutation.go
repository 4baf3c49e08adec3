package reconcile

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-kit/internal/store"
	"github.com/jonathan/interview-kit/internal/types"
)

// Mutation is one row-level change. Exactly one of Skill or Question is set.
// Mutations touch a single row each, so any subset of them can be applied in any order.
type Mutation struct {
	Skill    *types.SkillPatch    `json:"skill,omitempty"`
	Question *types.QuestionPatch `json:"question,omitempty"`
}

// Apply writes the mutation through w.
func (m Mutation) Apply(ctx context.Context, w store.Writer) error {
	switch {
	case m.Skill != nil:
		if err := w.PatchSkill(ctx, *m.Skill); err != nil {
			return fmt.Errorf("failed to patch skill %d: %w", m.Skill.SkillID, err)
		}
	case m.Question != nil:
		if err := w.PatchQuestion(ctx, *m.Question); err != nil {
			return fmt.Errorf("failed to patch question %d: %w", m.Question.QuestionID, err)
		}
	}
	return nil
}

// SkillCounts tallies skill mutations.
type SkillCounts struct {
	Undeleted int `json:"undeleted"`
	Deleted   int `json:"deleted"`
	Updated   int `json:"updated"`
}

// QuestionCounts tallies question mutations.
type QuestionCounts struct {
	Undeleted int `json:"undeleted"`
	Deleted   int `json:"deleted"`
	PoolSet   int `json:"poolSet"`
}

// Counts tallies mutations per entity kind.
type Counts struct {
	Skills    SkillCounts    `json:"skills"`
	Questions QuestionCounts `json:"questions"`
}

// Add tallies one mutation. A skill patch that un-deletes and renames counts as both.
func (c *Counts) Add(m Mutation) {
	if p := m.Skill; p != nil {
		if p.State != nil {
			if p.State.IsDeleted() {
				c.Skills.Deleted++
			} else {
				c.Skills.Undeleted++
			}
		}
		if p.ChangesFields() {
			c.Skills.Updated++
		}
	}
	if p := m.Question; p != nil {
		if p.State != nil {
			if p.State.IsDeleted() {
				c.Questions.Deleted++
			} else {
				c.Questions.Undeleted++
			}
		}
		if p.ExternalPoolID != nil {
			c.Questions.PoolSet++
		}
	}
}

// Merge adds other into c.
func (c *Counts) Merge(other Counts) {
	c.Skills.Undeleted += other.Skills.Undeleted
	c.Skills.Deleted += other.Skills.Deleted
	c.Skills.Updated += other.Skills.Updated
	c.Questions.Undeleted += other.Questions.Undeleted
	c.Questions.Deleted += other.Questions.Deleted
	c.Questions.PoolSet += other.Questions.PoolSet
}

// Total returns the number of counted changes.
func (c Counts) Total() int {
	return c.Skills.Undeleted + c.Skills.Deleted + c.Skills.Updated +
		c.Questions.Undeleted + c.Questions.Deleted + c.Questions.PoolSet
}

// Tally counts a list of mutations.
func Tally(mutations []Mutation) Counts {
	var c Counts
	for _, m := range mutations {
		c.Add(m)
	}
	return c
}
