package enterprise

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/R3E-Network/aivcs/infrastructure/secrets"
)

// SecretRef references a managed secret by name and provider without ever
// storing its value.
type SecretRef struct {
	Name                 string
	Provider             string
	LastRotated          *time.Time
	RotationIntervalDays *uint64
}

// Resolve fetches this secret's current value through provider, scoped to
// userID. The returned value is the plaintext secret; callers must route it
// through a SecretsPolicy.Redact (or discard it) before it reaches a log,
// trace, or audit sink.
func (s SecretRef) Resolve(ctx context.Context, provider secrets.Provider, userID string) (string, error) {
	return provider.GetSecret(ctx, userID, s.Name)
}

// RedactionRule replaces matches of a pattern with a fixed placeholder.
type RedactionRule struct {
	PatternName   string
	RegexPattern  string
	Replacement   string
	compiled      *regexp.Regexp
}

// EnvVarRedactionRule builds a rule that redacts "NAME=value" assignments.
func EnvVarRedactionRule(name string) RedactionRule {
	return RedactionRule{
		PatternName:  name,
		RegexPattern: fmt.Sprintf(`(?i)%s=\S+`, regexp.QuoteMeta(name)),
		Replacement:  fmt.Sprintf("%s=[REDACTED]", name),
	}
}

// BearerTokenRedactionRule builds a rule that redacts "Bearer <token>" headers.
func BearerTokenRedactionRule() RedactionRule {
	return RedactionRule{
		PatternName:  "bearer_token",
		RegexPattern: `(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
		Replacement:  "Bearer [REDACTED]",
	}
}

func (r *RedactionRule) regexp() (*regexp.Regexp, error) {
	if r.compiled == nil {
		re, err := regexp.Compile(r.RegexPattern)
		if err != nil {
			return nil, err
		}
		r.compiled = re
	}
	return r.compiled, nil
}

// RedactionResult is the output of applying a SecretsPolicy's rules to text.
type RedactionResult struct {
	Text              string
	RedactionsApplied int
	RulesMatched      []string
}

// SecretsPolicy tracks managed secrets and the redaction rules applied to
// logs and traces before they are persisted or shipped.
type SecretsPolicy struct {
	Secrets        []SecretRef
	RedactionRules []RedactionRule
}

// NewSecretsPolicy constructs an empty policy.
func NewSecretsPolicy() *SecretsPolicy {
	return &SecretsPolicy{}
}

// AddSecret registers a managed secret reference.
func (p *SecretsPolicy) AddSecret(secret SecretRef) {
	p.Secrets = append(p.Secrets, secret)
}

// AddRedactionRule registers a redaction rule.
func (p *SecretsPolicy) AddRedactionRule(rule RedactionRule) {
	p.RedactionRules = append(p.RedactionRules, rule)
}

// SecretsNeedingRotation returns every secret whose age has reached or
// exceeded its configured rotation interval.
func (p *SecretsPolicy) SecretsNeedingRotation(now time.Time) []SecretRef {
	var due []SecretRef
	for _, s := range p.Secrets {
		if s.LastRotated == nil || s.RotationIntervalDays == nil {
			continue
		}
		ageDays := int64(now.Sub(*s.LastRotated).Hours() / 24)
		if ageDays >= int64(*s.RotationIntervalDays) {
			due = append(due, s)
		}
	}
	return due
}

// Redact applies every redaction rule to text in registration order,
// returning the redacted text and a count of total replacements.
func (p *SecretsPolicy) Redact(text string) RedactionResult {
	result := text
	count := 0
	var matched []string

	for i := range p.RedactionRules {
		rule := &p.RedactionRules[i]
		re, err := rule.regexp()
		if err != nil {
			continue
		}
		matches := re.FindAllStringIndex(result, -1)
		if len(matches) == 0 {
			continue
		}
		result = re.ReplaceAllString(result, rule.Replacement)
		count += len(matches)
		matched = append(matched, rule.PatternName)
	}

	return RedactionResult{Text: result, RedactionsApplied: count, RulesMatched: matched}
}
