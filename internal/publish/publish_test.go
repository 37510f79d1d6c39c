package publish_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/internal/publish"
)

func baseCandidate() publish.PublishCandidate {
	return publish.PublishCandidate{
		VersionLabel:    "1.2.3",
		PreviousVersion: "1.2.2",
		Notes:           "fixed things",
		SpecDigest:      "deadbeef",
	}
}

func TestSemverFormatRuleAcceptsValidVersion(t *testing.T) {
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.SemverFormatRule{}}}, baseCandidate())
	assert.True(t, verdict.Passed)
}

func TestSemverFormatRuleRejectsInvalidVersion(t *testing.T) {
	candidate := baseCandidate()
	candidate.VersionLabel = "v1.2"
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.SemverFormatRule{}}}, candidate)
	require.False(t, verdict.Passed)
	require.Len(t, verdict.Violations, 1)
	assert.Contains(t, verdict.Violations[0].Reason, "not valid semver")
}

func TestSemverFormatRuleRejectsEmptyLabel(t *testing.T) {
	candidate := baseCandidate()
	candidate.VersionLabel = ""
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.SemverFormatRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "missing or empty")
}

func TestVersionBumpRuleRequiresStrictlyGreater(t *testing.T) {
	candidate := baseCandidate()
	candidate.VersionLabel = "1.2.2"
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.VersionBumpRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "not greater than previous")
}

func TestVersionBumpRuleAcceptsGreaterVersion(t *testing.T) {
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.VersionBumpRule{}}}, baseCandidate())
	assert.True(t, verdict.Passed)
}

func TestVersionBumpRuleSkippedWhenNoPreviousVersion(t *testing.T) {
	candidate := baseCandidate()
	candidate.PreviousVersion = ""
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.VersionBumpRule{}}}, candidate)
	assert.True(t, verdict.Passed)
}

func TestVersionBumpRulePrereleaseSortsBelowRelease(t *testing.T) {
	candidate := baseCandidate()
	candidate.PreviousVersion = "1.2.3"
	candidate.VersionLabel = "1.2.3-rc1"
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.VersionBumpRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "not greater than previous")
}

func TestVersionBumpRuleReleaseIsGreaterThanPrerelease(t *testing.T) {
	candidate := baseCandidate()
	candidate.PreviousVersion = "1.2.3-rc1"
	candidate.VersionLabel = "1.2.3"
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.VersionBumpRule{}}}, candidate)
	assert.True(t, verdict.Passed)
}

func TestUniqueVersionRuleRejectsDuplicate(t *testing.T) {
	candidate := baseCandidate()
	candidate.ExistingVersions = []string{"1.0.0", "1.2.3"}
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.UniqueVersionRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "already exists in history")
}

func TestUniqueVersionRuleAcceptsNewVersion(t *testing.T) {
	candidate := baseCandidate()
	candidate.ExistingVersions = []string{"1.0.0", "1.1.0"}
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.UniqueVersionRule{}}}, candidate)
	assert.True(t, verdict.Passed)
}

func TestRequireNotesRuleRejectsEmpty(t *testing.T) {
	candidate := baseCandidate()
	candidate.Notes = ""
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.RequireNotesRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "missing or empty")
}

func TestRequireNotesRuleRejectsWhitespaceOnly(t *testing.T) {
	candidate := baseCandidate()
	candidate.Notes = "   \t  "
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.RequireNotesRule{}}}, candidate)
	require.False(t, verdict.Passed)
}

func TestRequireSpecDigestRuleRejectsEmpty(t *testing.T) {
	candidate := baseCandidate()
	candidate.SpecDigest = ""
	verdict := publish.Evaluate(publish.PublishRuleSet{Rules: []publish.PublishRule{publish.RequireSpecDigestRule{}}}, candidate)
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "missing or empty")
}

func TestStandardRuleSetPassesCleanCandidate(t *testing.T) {
	verdict := publish.Evaluate(publish.StandardRuleSet(), baseCandidate())
	assert.True(t, verdict.Passed)
}

func TestFailFastStopsAtFirstViolation(t *testing.T) {
	candidate := baseCandidate()
	candidate.VersionLabel = "not-semver"
	candidate.SpecDigest = ""
	ruleSet := publish.PublishRuleSet{
		Rules:    []publish.PublishRule{publish.SemverFormatRule{}, publish.RequireSpecDigestRule{}},
		FailFast: true,
	}
	verdict := publish.Evaluate(ruleSet, candidate)
	require.False(t, verdict.Passed)
	assert.Len(t, verdict.Violations, 1)
}

func TestMultipleViolationsAccumulateWithoutFailFast(t *testing.T) {
	candidate := baseCandidate()
	candidate.VersionLabel = "not-semver"
	candidate.SpecDigest = ""
	ruleSet := publish.PublishRuleSet{
		Rules: []publish.PublishRule{publish.SemverFormatRule{}, publish.RequireSpecDigestRule{}},
	}
	verdict := publish.Evaluate(ruleSet, candidate)
	require.False(t, verdict.Passed)
	assert.Len(t, verdict.Violations, 2)
}

func TestWithRuleAppendsToRuleSet(t *testing.T) {
	ruleSet := publish.StandardRuleSet().WithRule(publish.RequireNotesRule{})
	assert.Len(t, ruleSet.Rules, 4)
}
