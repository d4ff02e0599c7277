package rules

import (
	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/rs/zerolog"
)

// Step is one stage of a matched chain with the options resolved for the
// build mode
type Step struct {
	StageID string
	Stage   stages.Stage
	Options stages.Options
}

// Rule is a compiled configuration rule
type Rule struct {
	Index   int
	Test    Pattern
	Exclude Pattern
	Kind    stages.Kind

	// Steps are in execution order
	Steps []Step
}

// Matcher selects the stage chain for a module path. It is immutable once
// compiled and safe for concurrent use.
type Matcher struct {
	rules  []Rule
	mode   types.BuildMode
	logger zerolog.Logger
}

// Compile validates the rule table against the stage registry and resolves
// every rule's options for mode. Unknown stages, bad patterns, invalid
// options and rules mixing stage kinds are configuration errors.
func Compile(cfgRules []config.Rule, reg *stages.Registry, mode types.BuildMode) (*Matcher, error) {
	logger := logging.GetLogger("rules.matcher")
	compiled := make([]Rule, 0, len(cfgRules))

	for i, cr := range cfgRules {
		rule, err := compileRule(i, cr, reg, mode)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rule)
	}

	logger.Debug().
		Int("ruleCount", len(compiled)).
		Strs("stages", reg.IDs()).
		Str("mode", mode.String()).
		Msg("Compiled rules")

	return &Matcher{rules: compiled, mode: mode, logger: logger}, nil
}

func compileRule(i int, cr config.Rule, reg *stages.Registry, mode types.BuildMode) (Rule, error) {
	rule := Rule{Index: i}

	test, err := ParsePattern(cr.Test)
	if err != nil {
		return rule, errors.Wrapf(err, errors.ErrConfigValid, "rule %d", i)
	}
	rule.Test = test

	if cr.Exclude != "" {
		exclude, err := ParsePattern(cr.Exclude)
		if err != nil {
			return rule, errors.Wrapf(err, errors.ErrConfigValid, "rule %d exclude", i)
		}
		rule.Exclude = exclude
	}

	if len(cr.Use) == 0 {
		return rule, errors.Newf(errors.ErrConfigValid, "rule %d (%s) has no stages", i, cr.Test)
	}

	for _, id := range cr.Use {
		stage, err := reg.Lookup(id)
		if err != nil {
			return rule, errors.Wrapf(err, errors.ErrConfigValid, "rule %d (%s)", i, cr.Test)
		}

		opts := stages.Options(cr.StageOptions(id, mode))
		if v, ok := stage.(stages.OptionsValidator); ok {
			if err := v.ValidateOptions(opts); err != nil {
				return rule, errors.Wrapf(err, errors.ErrConfigValid, "rule %d (%s): invalid options for %s", i, cr.Test, id).
					WithDetail(errors.DetailStage, id)
			}
		}

		if len(rule.Steps) == 0 {
			rule.Kind = stage.Kind()
		} else if stage.Kind() != rule.Kind {
			return rule, errors.Newf(errors.ErrConfigValid,
				"rule %d (%s) mixes %s and %s stages", i, cr.Test, rule.Kind, stage.Kind())
		}
		rule.Steps = append(rule.Steps, Step{StageID: id, Stage: stage, Options: opts})
	}

	for id := range cr.Options {
		if !reg.Has(id) {
			return rule, errors.Newf(errors.ErrConfigValid, "rule %d (%s) has options for unknown stage %s", i, cr.Test, id).
				WithDetail(errors.DetailStage, id)
		}
		if !contains(cr.Use, id) {
			return rule, errors.Newf(errors.ErrConfigValid, "rule %d (%s) has options for unused stage %s", i, cr.Test, id)
		}
	}

	if rule.Kind.RightToLeft() {
		for l, r := 0, len(rule.Steps)-1; l < r; l, r = l+1, r-1 {
			rule.Steps[l], rule.Steps[r] = rule.Steps[r], rule.Steps[l]
		}
	}

	return rule, nil
}

// Match returns the chain for path in execution order, or nil when no rule
// applies and the module is a pass-through asset
func (m *Matcher) Match(path string) []Step {
	rule, ok := m.Rule(path)
	if !ok {
		m.logger.Trace().Str("path", path).Msg("No rule matched, pass-through")
		return nil
	}
	return rule.Steps
}

// Rule returns the first non-excluded rule whose test matches path
func (m *Matcher) Rule(path string) (Rule, bool) {
	for _, rule := range m.rules {
		if rule.Exclude != nil && rule.Exclude.Match(path) {
			m.logger.Trace().
				Str("path", path).
				Str("exclude", rule.Exclude.String()).
				Msg("Rule excluded path")
			continue
		}
		if rule.Test.Match(path) {
			m.logger.Trace().
				Str("path", path).
				Str("test", rule.Test.String()).
				Int("rule", rule.Index).
				Msg("Path matched rule")
			return rule, true
		}
	}
	return Rule{}, false
}

// Mode returns the build mode the options were resolved for
func (m *Matcher) Mode() types.BuildMode {
	return m.mode
}

// StageIDs returns the identifiers of a chain
func StageIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.StageID
	}
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
