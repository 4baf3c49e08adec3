// Package reconcile computes the local mutations that make a record's skills and questions
// converge toward a recruiting-platform snapshot. It is pure: nothing here performs I/O.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-kit/internal/mapping"
	"github.com/jonathan/interview-kit/internal/platform"
	"github.com/jonathan/interview-kit/internal/types"
)

// RemovedFromPlatformReason is stored on questions soft-deleted because the platform dropped them.
const RemovedFromPlatformReason = "removed from platform"

// Diff classifies entities by where they are present.
type Diff struct {
	Unchanged    int `json:"unchanged"`     // matched, already converged
	Changed      int `json:"changed"`       // matched, patched
	LocalOnly    int `json:"local_only"`    // correlated locally, gone remotely
	ExternalOnly int `json:"external_only"` // on the platform with no local match
	Unsynced     int `json:"unsynced"`      // never pushed, left alone
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Mutations []Mutation `json:"mutations"`
	Skills    Diff       `json:"skills"`
	Questions Diff       `json:"questions"`
}

// Counts tallies the mutations of the result.
func (r *Result) Counts() Counts {
	return Tally(r.Mutations)
}

// Reconcile compares local skills and questions with one platform round.
// Skill mutations come first, then question mutations, each in the order of the local input.
// Running it again against the same round after applying the mutations yields none.
func Reconcile(skills []types.Skill, questions []types.Question, round *platform.Round) *Result {
	res := &Result{}
	var entries []platform.SkillEntry
	var pools []platform.Pool
	if round != nil {
		entries = round.SkillMatrix
		pools = round.QuestionPools
	}
	reconcileSkills(res, skills, entries)
	reconcileQuestions(res, questions, pools)
	return res
}

func reconcileSkills(res *Result, skills []types.Skill, entries []platform.SkillEntry) {
	// correlation id -> entry, first occurrence wins
	byCorrelation := make(map[int64]platform.SkillEntry, len(entries))
	for _, e := range entries {
		if e.CorrelationID == nil {
			continue
		}
		key := int64(*e.CorrelationID)
		if _, dup := byCorrelation[key]; !dup {
			byCorrelation[key] = e
		}
	}

	matched := make(map[int64]bool, len(byCorrelation))
	for _, sk := range skills {
		if sk.ExternalID == nil {
			res.Skills.Unsynced++
			continue
		}
		entry, ok := byCorrelation[sk.ID]
		if !ok {
			if sk.State.IsDeleted() {
				continue
			}
			res.Skills.LocalOnly++
			st := types.Deleted(RemovedFromPlatformReason)
			res.Mutations = append(res.Mutations, Mutation{Skill: &types.SkillPatch{SkillID: sk.ID, State: &st}})
			continue
		}
		matched[sk.ID] = true

		patch := skillPatch(sk, entry)
		if patch.Empty() {
			res.Skills.Unchanged++
			continue
		}
		res.Skills.Changed++
		res.Mutations = append(res.Mutations, Mutation{Skill: &patch})
	}

	for id := range byCorrelation {
		if !matched[id] {
			res.Skills.ExternalOnly++
		}
	}
}

// skillPatch builds the field-level patch for a matched skill. Unmappable level or
// requirement text leaves the local value alone.
func skillPatch(sk types.Skill, e platform.SkillEntry) types.SkillPatch {
	p := types.SkillPatch{SkillID: sk.ID}
	if sk.State.IsDeleted() {
		st := types.Active()
		p.State = &st
	}
	if ext := e.SkillID.Int64(); ext != nil && (sk.ExternalID == nil || *sk.ExternalID != *ext) {
		p.ExternalID = ext
	}
	if req, ok := mapping.MapRequirement(e.Requirement); ok && req != sk.Requirement {
		p.Requirement = &req
	}
	if lvl, ok := mapping.MapLevel(e.Level); ok && lvl != sk.Level {
		p.Level = &lvl
	}
	if name := strings.TrimSpace(e.Name); name != "" && name != sk.Name {
		p.Name = &name
	}
	return p
}

func pairKey(poolID, questionID int64) string {
	return fmt.Sprintf("%d:%d", poolID, questionID)
}

func reconcileQuestions(res *Result, questions []types.Question, pools []platform.Pool) {
	pairs := make(map[string]struct{})
	poolOf := make(map[int64]int64) // bare question id -> pool id, first occurrence wins
	for _, pool := range pools {
		if pool.PoolID == nil {
			continue
		}
		poolID := int64(*pool.PoolID)
		for _, q := range pool.Questions {
			if q.QuestionID == nil {
				continue
			}
			qid := int64(*q.QuestionID)
			pairs[pairKey(poolID, qid)] = struct{}{}
			if _, dup := poolOf[qid]; !dup {
				poolOf[qid] = poolID
			}
		}
	}

	matched := make(map[int64]bool, len(poolOf))
	for _, q := range questions {
		if q.ExternalID == nil {
			res.Questions.Unsynced++
			continue
		}
		extID := *q.ExternalID
		var storedPool int64
		if q.ExternalPoolID != nil {
			storedPool = *q.ExternalPoolID
		}

		_, inPair := pairs[pairKey(storedPool, extID)]
		mappedPool, inMap := poolOf[extID]
		if !inPair && !inMap {
			if q.State.IsDeleted() {
				continue
			}
			res.Questions.LocalOnly++
			st := types.Deleted(RemovedFromPlatformReason)
			res.Mutations = append(res.Mutations, Mutation{Question: &types.QuestionPatch{QuestionID: q.ID, State: &st}})
			continue
		}
		matched[extID] = true

		p := types.QuestionPatch{QuestionID: q.ID}
		if q.State.IsDeleted() {
			st := types.Active()
			p.State = &st
		}
		// A pair hit means the stored pool is still valid even if the question is filed twice.
		if !inPair && (q.ExternalPoolID == nil || *q.ExternalPoolID != mappedPool) {
			p.ExternalPoolID = &mappedPool
		}
		if p.Empty() {
			res.Questions.Unchanged++
			continue
		}
		res.Questions.Changed++
		res.Mutations = append(res.Mutations, Mutation{Question: &p})
	}

	for id := range poolOf {
		if !matched[id] {
			res.Questions.ExternalOnly++
		}
	}
}
