// internal/domain/plan.go
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan represents one AI-generated (or hand-built) plan saved by a user.
// The plan structure itself is immutable once generated; all completion state
// lives in the sparse Completions map, never on the exercises.
type WorkoutPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"user"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"isActive" json:"is_active"`
	IsCompleted bool               `bson:"isCompleted" json:"is_completed"`
	PlanData    PlanData           `bson:"planData" json:"plan_data"`
	Completions Completions        `bson:"completions,omitempty" json:"exercise_completions,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// PlanData is the nested structure the generator returns.
type PlanData struct {
	PlanName        string       `bson:"planName" json:"plan_name"`
	PlanDescription string       `bson:"planDescription,omitempty" json:"plan_description,omitempty"`
	Days            []WorkoutDay `bson:"days" json:"days"`
}

// WorkoutDay is one scheduled session. DayNumber is the stable key into the
// completions map; the position of the day in the Days slice is NOT stable.
type WorkoutDay struct {
	DayNumber int        `bson:"dayNumber" json:"day_number"`
	DayName   string     `bson:"dayName,omitempty" json:"day_name,omitempty"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// Exercise is one prescribed movement. It carries no completion state; an
// exercise is identified by its index within the day's Exercises slice.
type Exercise struct {
	ExerciseName string `bson:"exerciseName" json:"exercise_name"`
	Sets         int    `bson:"sets" json:"sets"`
	Reps         string `bson:"reps" json:"reps"` // generator emits ranges like "8-12"
}

// Completion records whether one exercise on one day has been performed.
// CompletedAt is only set while Completed is true; un-toggling an exercise
// clears the timestamp so weekly aggregation un-counts the day.
type Completion struct {
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}

// Completions is the sparse completion state of a plan, keyed by day number
// then exercise index. Absent entries mean "not completed".
type Completions map[int]map[int]Completion

// The wire format keys the maps as "day_<N>" and "exercise_<I>". The custom
// JSON and BSON methods translate between that and the int-keyed in-memory
// form; BSON uses the same prefixed keys so a single entry can be updated with
// a plain dotted path.
const (
	dayKeyPrefix      = "day_"
	exerciseKeyPrefix = "exercise_"
)

// MarshalJSON renders the map with "day_<N>"/"exercise_<I>" keys.
func (c Completions) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]Completion, len(c))
	for dayNumber, exercises := range c {
		dayKey := dayKeyPrefix + strconv.Itoa(dayNumber)
		out[dayKey] = make(map[string]Completion, len(exercises))
		for exerciseIndex, completion := range exercises {
			out[dayKey][exerciseKeyPrefix+strconv.Itoa(exerciseIndex)] = completion
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses "day_<N>"/"exercise_<I>" keys back into int keys.
// Keys that do not match the expected prefixes are skipped rather than
// treated as errors; the map is sparse and tolerant by design.
func (c *Completions) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]Completion
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(Completions, len(raw))
	for dayKey, exercises := range raw {
		dayNumber, ok := parsePrefixedKey(dayKey, dayKeyPrefix)
		if !ok {
			continue
		}
		for exerciseKey, completion := range exercises {
			exerciseIndex, ok := parsePrefixedKey(exerciseKey, exerciseKeyPrefix)
			if !ok {
				continue
			}
			if result[dayNumber] == nil {
				result[dayNumber] = make(map[int]Completion)
			}
			result[dayNumber][exerciseIndex] = completion
		}
	}
	*c = result
	return nil
}

// MarshalBSON stores the map with the same prefixed string keys as the JSON
// wire format. Keeping one key scheme means a targeted update of a single
// entry is a plain dotted path ("completions.day_2.exercise_0").
func (c Completions) MarshalBSON() ([]byte, error) {
	out := make(map[string]map[string]Completion, len(c))
	for dayNumber, exercises := range c {
		dayKey := dayKeyPrefix + strconv.Itoa(dayNumber)
		out[dayKey] = make(map[string]Completion, len(exercises))
		for exerciseIndex, completion := range exercises {
			out[dayKey][exerciseKeyPrefix+strconv.Itoa(exerciseIndex)] = completion
		}
	}
	return bson.Marshal(out)
}

// UnmarshalBSON is the inverse of MarshalBSON, with the same tolerance for
// unexpected keys as the JSON path.
func (c *Completions) UnmarshalBSON(data []byte) error {
	var raw map[string]map[string]Completion
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(Completions, len(raw))
	for dayKey, exercises := range raw {
		dayNumber, ok := parsePrefixedKey(dayKey, dayKeyPrefix)
		if !ok {
			continue
		}
		for exerciseKey, completion := range exercises {
			exerciseIndex, ok := parsePrefixedKey(exerciseKey, exerciseKeyPrefix)
			if !ok {
				continue
			}
			if result[dayNumber] == nil {
				result[dayNumber] = make(map[int]Completion)
			}
			result[dayNumber][exerciseIndex] = completion
		}
	}
	*c = result
	return nil
}

// CompletionFieldPath returns the dotted BSON path of one completion entry
// within the plan document, used for targeted updates.
func CompletionFieldPath(dayNumber, exerciseIndex int) string {
	return "completions." + dayKeyPrefix + strconv.Itoa(dayNumber) +
		"." + exerciseKeyPrefix + strconv.Itoa(exerciseIndex)
}

func parsePrefixedKey(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Get looks up one completion entry. The zero Completion is returned for
// absent entries, so callers never need a nil check.
func (c Completions) Get(dayNumber, exerciseIndex int) (Completion, bool) {
	exercises, ok := c[dayNumber]
	if !ok {
		return Completion{}, false
	}
	completion, ok := exercises[exerciseIndex]
	return completion, ok
}

// Set records one completion entry, allocating nested maps as needed.
func (c *Completions) Set(dayNumber, exerciseIndex int, completion Completion) {
	if *c == nil {
		*c = make(Completions)
	}
	if (*c)[dayNumber] == nil {
		(*c)[dayNumber] = make(map[int]Completion)
	}
	(*c)[dayNumber][exerciseIndex] = completion
}

// DayByNumber finds a day by its stable day number, not its slice position.
func (p *WorkoutPlan) DayByNumber(dayNumber int) (*WorkoutDay, bool) {
	for i := range p.PlanData.Days {
		if p.PlanData.Days[i].DayNumber == dayNumber {
			return &p.PlanData.Days[i], true
		}
	}
	return nil, false
}

// Validate checks the structural invariants of the plan data: positive and
// unique day numbers, and a non-nil exercises list per day. An empty exercises
// slice is legal (such a day simply never counts as complete).
func (p *WorkoutPlan) Validate() error {
	seen := make(map[int]bool, len(p.PlanData.Days))
	for _, day := range p.PlanData.Days {
		if day.DayNumber <= 0 {
			return fmt.Errorf("day number must be positive, got %d", day.DayNumber)
		}
		if seen[day.DayNumber] {
			return fmt.Errorf("duplicate day number %d", day.DayNumber)
		}
		seen[day.DayNumber] = true
		if day.Exercises == nil {
			return fmt.Errorf("day %d has no exercises list", day.DayNumber)
		}
	}
	return nil
}
