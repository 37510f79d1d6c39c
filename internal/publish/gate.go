package publish

import (
	"fmt"
	"strings"
)

// PublishCandidate is the release candidate being evaluated for publish
// readiness.
type PublishCandidate struct {
	VersionLabel     string   `json:"version_label,omitempty"`
	PreviousVersion  string   `json:"previous_version,omitempty"`
	ExistingVersions []string `json:"existing_versions,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	SpecDigest       string   `json:"spec_digest"`
}

// PublishRule is a single publish gate rule.
type PublishRule interface {
	name() string
	check(candidate PublishCandidate) (string, bool)
}

// SemverFormatRule requires version_label to parse as valid semver.
type SemverFormatRule struct{}

func (SemverFormatRule) name() string { return "semver_format" }

func (SemverFormatRule) check(candidate PublishCandidate) (string, bool) {
	label := candidate.VersionLabel
	if label == "" {
		return "version_label is missing or empty", true
	}
	if _, ok := parseSemver(label); !ok {
		return fmt.Sprintf("'%s' is not valid semver (expected MAJOR.MINOR.PATCH)", label), true
	}
	return "", false
}

// VersionBumpRule requires version_label to be strictly greater than
// previous_version, skipped when no previous version exists.
type VersionBumpRule struct{}

func (VersionBumpRule) name() string { return "version_bump" }

func (VersionBumpRule) check(candidate PublishCandidate) (string, bool) {
	currentLabel := candidate.VersionLabel
	if currentLabel == "" {
		return "", false
	}
	prevLabel := candidate.PreviousVersion
	if prevLabel == "" {
		return "", false
	}
	current, ok := parseSemver(currentLabel)
	if !ok {
		return "", false
	}
	previous, ok := parseSemver(prevLabel)
	if !ok {
		return "", false
	}
	if current.compare(previous) <= 0 {
		return fmt.Sprintf("version '%s' is not greater than previous '%s'", currentLabel, prevLabel), true
	}
	return "", false
}

// UniqueVersionRule requires version_label not already appear in
// existing_versions.
type UniqueVersionRule struct{}

func (UniqueVersionRule) name() string { return "unique_version" }

func (UniqueVersionRule) check(candidate PublishCandidate) (string, bool) {
	label := candidate.VersionLabel
	if label == "" {
		return "", false
	}
	for _, existing := range candidate.ExistingVersions {
		if existing == label {
			return fmt.Sprintf("version '%s' already exists in history", label), true
		}
	}
	return "", false
}

// RequireNotesRule requires non-empty release notes.
type RequireNotesRule struct{}

func (RequireNotesRule) name() string { return "require_notes" }

func (RequireNotesRule) check(candidate PublishCandidate) (string, bool) {
	if strings.TrimSpace(candidate.Notes) == "" {
		return "release notes are missing or empty", true
	}
	return "", false
}

// RequireSpecDigestRule requires a non-empty spec digest.
type RequireSpecDigestRule struct{}

func (RequireSpecDigestRule) name() string { return "require_spec_digest" }

func (RequireSpecDigestRule) check(candidate PublishCandidate) (string, bool) {
	if strings.TrimSpace(candidate.SpecDigest) == "" {
		return "spec_digest is missing or empty", true
	}
	return "", false
}

// PublishRuleSet is a set of publish rules with a fail-fast flag.
type PublishRuleSet struct {
	Rules    []PublishRule
	FailFast bool
}

// StandardRuleSet is SemverFormat + VersionBump + RequireSpecDigest, with
// fail_fast off.
func StandardRuleSet() PublishRuleSet {
	return PublishRuleSet{
		Rules: []PublishRule{
			SemverFormatRule{},
			VersionBumpRule{},
			RequireSpecDigestRule{},
		},
	}
}

// WithRule appends a rule and returns the updated set.
func (s PublishRuleSet) WithRule(rule PublishRule) PublishRuleSet {
	s.Rules = append(s.Rules, rule)
	return s
}

// PublishViolation is a single rule violation.
type PublishViolation struct {
	Rule   string
	Reason string
}

// PublishVerdict is the outcome of evaluating a PublishRuleSet against a
// PublishCandidate.
type PublishVerdict struct {
	Passed     bool
	Violations []PublishViolation
}

// Evaluate checks candidate against ruleSet, halting at the first violation
// when FailFast is set.
func Evaluate(ruleSet PublishRuleSet, candidate PublishCandidate) PublishVerdict {
	var violations []PublishViolation
	for _, rule := range ruleSet.Rules {
		if reason, violated := rule.check(candidate); violated {
			violations = append(violations, PublishViolation{Rule: rule.name(), Reason: reason})
			if ruleSet.FailFast {
				return PublishVerdict{Passed: false, Violations: violations}
			}
		}
	}
	if len(violations) == 0 {
		return PublishVerdict{Passed: true}
	}
	return PublishVerdict{Passed: false, Violations: violations}
}
