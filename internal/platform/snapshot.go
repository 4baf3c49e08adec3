// Package platform provides a read-only client for the external recruiting platform API
// and the snapshot types it returns.
package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a platform identifier. The platform is inconsistent about emitting ids as
// JSON numbers or numeric strings, so both are accepted.
type ID int64

// UnmarshalJSON accepts 42, "42" and null (left to the pointer holding the ID).
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid platform id %q: %w", s, err)
		}
		*id = ID(n)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid platform id %s: %w", string(data), err)
	}
	if n, err := strconv.ParseInt(num.String(), 10, 64); err == nil {
		*id = ID(n)
		return nil
	}
	// exponent or decimal forms such as 1e3 or 42.0
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return fmt.Errorf("invalid platform id %s: not an integer", string(data))
	}
	*id = ID(int64(f))
	return nil
}

// Int64 returns the id as a *int64, nil-safe.
func (id *ID) Int64() *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

// Snapshot is the body of GET /req-details/{reqId}/{userId}.
type Snapshot struct {
	Rounds []Round `json:"rounds"`
}

// Round is one interview round of a requisition.
type Round struct {
	RoundID       *ID          `json:"round_id"`
	Name          string       `json:"name"`
	SkillMatrix   []SkillEntry `json:"skill_matrix"`
	QuestionPools []Pool       `json:"question_pools"`
}

// SkillEntry is one row of a round's skill matrix.
// CorrelationID is the local skill id the platform stored when the skill was pushed to it.
type SkillEntry struct {
	SkillID       *ID    `json:"skill_id"`
	Name          string `json:"name"`
	Level         string `json:"level"`
	Requirement   string `json:"requirement"`
	CorrelationID *ID    `json:"ai_skill_id"`
}

// Pool is a question group inside a round.
type Pool struct {
	PoolID    *ID            `json:"pool_id"`
	Name      string         `json:"name"`
	Questions []PoolQuestion `json:"questions"`
}

// PoolQuestion is a question filed under a pool.
type PoolQuestion struct {
	QuestionID    *ID `json:"question_id"`
	CorrelationID *ID `json:"ai_question_id"`
}

// SelectRound picks the round whose id matches storedRoundID, falling back to the first round.
// Returns nil when the snapshot has no rounds.
func (s *Snapshot) SelectRound(storedRoundID *int64) *Round {
	if s == nil || len(s.Rounds) == 0 {
		return nil
	}
	if storedRoundID != nil {
		for i := range s.Rounds {
			if id := s.Rounds[i].RoundID; id != nil && int64(*id) == *storedRoundID {
				return &s.Rounds[i]
			}
		}
	}
	return &s.Rounds[0]
}

// UsableEntries counts the entries of a round that can be correlated with local rows:
// skills carrying a correlation id and pooled questions carrying both a pool id and a question id.
func (r *Round) UsableEntries() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.SkillMatrix {
		if s.CorrelationID != nil {
			n++
		}
	}
	for _, p := range r.QuestionPools {
		if p.PoolID == nil {
			continue
		}
		for _, q := range p.Questions {
			if q.QuestionID != nil {
				n++
			}
		}
	}
	return n
}
