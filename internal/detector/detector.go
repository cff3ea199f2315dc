// Package detector implements the email analysis pipeline: labeled
// pattern matching, feature expression rules, and the missing-organization
// entity check, summed into one score and mapped to a verdict.
package detector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
	"github.com/AamirAhmadDon/phishing-detector/internal/rules"
	"github.com/AamirAhmadDon/phishing-detector/internal/velocity"
)

// EngineVersion tags analyses with the pipeline revision.
const EngineVersion = "phish-1.0"

// ErrEmptyText is returned when the analyzed text is empty or whitespace.
var ErrEmptyText = errors.New("invalid or empty email text")

// senderWindowSecs is the lookback for the sender_count feature.
const senderWindowSecs = 3600

// entityCacheTTL bounds how long NER results are reused for identical text.
const entityCacheTTL = 10 * time.Minute

// Detector ties the pattern engine, expression engine, and NER
// collaborator into one analysis pass.
type Detector struct {
	mu         sync.RWMutex
	ruleset    *domain.RuleSet
	patterns   *rules.PatternEngine
	exprs      *rules.ExprEngine
	recognizer domain.Recognizer

	senderGetter velocity.Getter
	cache        domain.Cache
}

// Option configures optional detector collaborators.
type Option func(*Detector)

// WithSenderGetter wires the sender-frequency feature.
func WithSenderGetter(g velocity.Getter) Option {
	return func(d *Detector) { d.senderGetter = g }
}

// WithEntityCache caches NER results by text hash.
func WithEntityCache(c domain.Cache) Option {
	return func(d *Detector) { d.cache = c }
}

// New creates a detector from a loaded rule set and a constructed
// recognizer. Rule set loading failures are configuration errors and
// belong to the caller; a missing collaborator here is an
// initialization error.
func New(rs *domain.RuleSet, recognizer domain.Recognizer, opts ...Option) (*Detector, error) {
	if rs == nil || rs.Empty() {
		return nil, fmt.Errorf("initialization failed: ruleset is required")
	}
	if recognizer == nil {
		return nil, fmt.Errorf("initialization failed: recognizer is required")
	}

	exprs, err := rules.NewExprEngine()
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}

	d := &Detector{
		ruleset:    rs,
		patterns:   rules.NewPatternEngine(10),
		exprs:      exprs,
		recognizer: recognizer,
	}
	d.patterns.Load(rs.SuspiciousPatterns)
	d.exprs.Load(rs.ExpressionRules)

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Reload swaps in a new rule set (hot reload). The running analysis
// keeps the snapshot it started with.
func (d *Detector) Reload(rs *domain.RuleSet) error {
	if rs == nil || rs.Empty() {
		return fmt.Errorf("ruleset is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ruleset = rs
	d.patterns.Load(rs.SuspiciousPatterns)
	d.exprs.Load(rs.ExpressionRules)
	return nil
}

// RuleSet returns the currently loaded rule set.
func (d *Detector) RuleSet() *domain.RuleSet {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ruleset
}

// Input carries one email through the pipeline. Only Text is required;
// the service layer fills the rest.
type Input struct {
	TenantID string
	EmailID  string
	TraceID  string
	Sender   string
	Text     string
}

// Analyze runs one pass over the text and returns the scored analysis.
// Broken patterns and a failing recognizer degrade to flags; only empty
// input fails the call.
func (d *Detector) Analyze(ctx context.Context, in *Input) (*domain.Analysis, error) {
	start := time.Now()

	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}

	d.mu.RLock()
	rs := d.ruleset
	d.mu.RUnlock()

	analysis := &domain.Analysis{
		ID:        uuid.New().String(),
		TenantID:  in.TenantID,
		EmailID:   in.EmailID,
		Timestamp: time.Now().UTC(),
	}

	// Pattern stage
	patternResults := d.patterns.EvaluateAll(ctx, in.Text)
	patternsMs := time.Since(start).Milliseconds()

	for _, r := range patternResults {
		switch {
		case r.Err != nil:
			analysis.Flags = append(analysis.Flags, flagFromErr(r.Err))
			analysis.Findings = append(analysis.Findings, domain.Finding{
				Label: r.Label,
				Kind:  domain.FindingPattern,
				Flag:  flagFromErr(r.Err),
			})
		case r.Triggered():
			weight := rs.Weight(r.Label)
			analysis.Score += weight
			flag := fmt.Sprintf("%s found: %s", r.Label, strings.Join(r.Matches, ", "))
			analysis.Flags = append(analysis.Flags, flag)
			analysis.Findings = append(analysis.Findings, domain.Finding{
				Label:   r.Label,
				Kind:    domain.FindingPattern,
				Matches: r.Matches,
				Weight:  weight,
				Flag:    flag,
			})
		}
	}

	// Entity stage
	entityStart := time.Now()
	entities, nerErr := d.entities(ctx, in.TenantID, in.Text)
	entitiesMs := time.Since(entityStart).Milliseconds()

	// Expression stage
	features := rules.ExtractFeatures(in.Text)
	for _, e := range entities {
		if e.Label == domain.EntityOrg {
			features.OrgCount++
		}
	}
	if d.senderGetter != nil && in.Sender != "" && in.TenantID != "" {
		if count, err := d.senderGetter(ctx, in.TenantID, in.Sender, senderWindowSecs); err == nil {
			features.SenderCount = count
		}
	}

	for _, r := range d.exprs.EvaluateAll(features) {
		switch {
		case r.Err != nil:
			analysis.Flags = append(analysis.Flags, flagFromErr(r.Err))
			analysis.Findings = append(analysis.Findings, domain.Finding{
				Label: r.Label,
				Kind:  domain.FindingExpression,
				Flag:  flagFromErr(r.Err),
			})
		case r.Triggered:
			weight := rs.Weight(r.Label)
			analysis.Score += weight
			flag := fmt.Sprintf("%s detected", r.Label)
			analysis.Flags = append(analysis.Flags, flag)
			analysis.Findings = append(analysis.Findings, domain.Finding{
				Label:  r.Label,
				Kind:   domain.FindingExpression,
				Weight: weight,
				Flag:   flag,
			})
		}
	}

	// Missing-organization check. A recognizer failure is downgraded to
	// a flag without the penalty: unknown is not the same as absent.
	switch {
	case nerErr != nil:
		flag := fmt.Sprintf("Entity recognition unavailable: %v", nerErr)
		analysis.Flags = append(analysis.Flags, flag)
		analysis.Findings = append(analysis.Findings, domain.Finding{
			Label: domain.MissingOrganizationKey,
			Kind:  domain.FindingEntity,
			Flag:  flag,
		})
	case !domain.HasOrg(entities):
		weight := rs.Weight(domain.MissingOrganizationKey)
		analysis.Score += weight
		flag := "No organization detected"
		analysis.Flags = append(analysis.Flags, flag)
		analysis.Findings = append(analysis.Findings, domain.Finding{
			Label:  domain.MissingOrganizationKey,
			Kind:   domain.FindingEntity,
			Weight: weight,
			Flag:   flag,
		})
	}

	analysis.Verdict = domain.VerdictForScore(analysis.Score)
	analysis.Metadata = domain.AnalysisMetadata{
		TraceID:           in.TraceID,
		PatternsMs:        patternsMs,
		EntitiesMs:        entitiesMs,
		TotalMs:           time.Since(start).Milliseconds(),
		PatternsEvaluated: len(patternResults),
		EntitiesFound:     len(entities),
		EngineVersion:     EngineVersion,
	}

	return analysis, nil
}

// entities consults the cache before the recognizer. Cache errors fall
// through to the recognizer.
func (d *Detector) entities(ctx context.Context, tenantID, text string) ([]domain.Entity, error) {
	var hash string
	if d.cache != nil && tenantID != "" {
		sum := sha256.Sum256([]byte(text))
		hash = hex.EncodeToString(sum[:])
		if cached, err := d.cache.GetEntities(ctx, tenantID, hash); err == nil && cached != nil {
			return cached, nil
		}
	}

	entities, err := d.recognizer.Entities(ctx, text)
	if err != nil {
		return nil, err
	}

	if hash != "" {
		_ = d.cache.SetEntities(ctx, tenantID, hash, entities, entityCacheTTL)
	}

	return entities, nil
}

// flagFromErr turns a broken-rule error into a report flag.
func flagFromErr(err error) string {
	msg := err.Error()
	r := []rune(msg)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
