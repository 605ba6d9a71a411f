// Package planout renders the `--plan` dry-run JSON document (spec
// §6.4): the step graph a hook run would execute, without running it.
package planout

import (
	"encoding/json"
	"time"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/skipreason"
)

// Reason is one entry in a step's reasons array.
type Reason struct {
	Kind   string                 `json:"kind"`
	Detail string                 `json:"detail,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// StepPlan is one step's entry in the plan document.
type StepPlan struct {
	Name            string                 `json:"name"`
	Status          string                 `json:"status"`
	OrderIndex      int                    `json:"orderIndex"`
	ParallelGroupID *string                `json:"parallelGroupId"`
	DependsOn       []string               `json:"dependsOn,omitempty"`
	Reasons         []Reason               `json:"reasons,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// Group is one parallel-execution group in the plan document.
type Group struct {
	ID      string   `json:"id"`
	StepIDs []string `json:"stepIds"`
}

// Plan is the full `--plan` document.
type Plan struct {
	Hook        string   `json:"hook"`
	Profiles    []string `json:"profiles,omitempty"`
	Steps       []StepPlan `json:"steps"`
	Groups      []Group    `json:"groups"`
	GeneratedAt string     `json:"generatedAt"`
}

// Input is everything the plan renderer needs: the resolved groups, the
// per-step skip reasons already computed by the scheduler, and the
// active profile set, so that this package never itself makes
// scheduling decisions — it only reports ones already made.
type Input struct {
	HookName   string
	Profiles   []string
	Groups     [][]string // ordered step names per parallel group
	SkipSteps  map[string]skipreason.Reason
	AllSteps   []*config.Step
	Now        time.Time
}

// Build assembles a Plan from Input.
func Build(in Input) *Plan {
	groupIndex := map[string]string{}
	var groups []Group
	for gi, names := range in.Groups {
		id := groupID(gi)
		groups = append(groups, Group{ID: id, StepIDs: names})
		for _, n := range names {
			groupIndex[n] = id
		}
	}

	var steps []StepPlan
	order := 0
	for _, s := range in.AllSteps {
		sp := StepPlan{
			Name:       s.Name,
			OrderIndex: order,
			DependsOn:  s.Depends,
			Status:     "included",
		}
		order++
		if gid, ok := groupIndex[s.Name]; ok {
			g := gid
			sp.ParallelGroupID = &g
		}
		if reason, skipped := in.SkipSteps[s.Name]; skipped {
			sp.Status = "skipped"
			sp.Reasons = append(sp.Reasons, Reason{Kind: reason.Kind.String(), Detail: reason.Message()})
		} else {
			sp.Reasons = append(sp.Reasons, includedReasons(s)...)
		}
		steps = append(steps, sp)
	}

	return &Plan{
		Hook:        in.HookName,
		Profiles:    in.Profiles,
		Steps:       steps,
		Groups:      groups,
		GeneratedAt: in.Now.Format(time.RFC3339),
	}
}

func includedReasons(s *config.Step) []Reason {
	var reasons []Reason
	if len(s.Depends) > 0 {
		reasons = append(reasons, Reason{Kind: "dependency", Detail: "waits for declared dependencies"})
	}
	if s.Glob != nil {
		reasons = append(reasons, Reason{Kind: "filter_match", Detail: "matched glob filter"})
	}
	if len(s.EnabledProfiles()) > 0 {
		reasons = append(reasons, Reason{Kind: "profile_include", Detail: "required profile is active"})
	}
	if s.StepCondition != "" {
		reasons = append(reasons, Reason{Kind: "condition_unknown", Detail: "step_condition evaluated at run time"})
	}
	if len(reasons) == 0 {
		reasons = append(reasons, Reason{Kind: "always"})
	}
	return reasons
}

func groupID(i int) string {
	return "g" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// Marshal renders the plan as indented JSON.
func Marshal(p *Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
