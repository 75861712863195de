package scoring

import (
	"net/netip"
	"regexp"
	"slices"
	"time"

	"github.com/nao1215/vpnsentry/internal/model"
)

// Result is the outcome of one scoring pass.
type Result struct {
	// Report is the immutable verdict.
	Report model.VerdictReport

	// Fingerprint is the digest of the current fingerprint. The caller
	// persists it so that the next pass can detect drift.
	Fingerprint string
}

// Engine evaluates the rule table.
type Engine struct {
	torRanges  []netip.Prefix
	datacenter *regexp.Regexp
	zones      *regexp.Regexp
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	torCIDRs []string
	keywords []string
	zones    []string
	now      func() time.Time
}

// WithTorCIDRs adds Tor exit ranges to the built-in list.
func WithTorCIDRs(cidrs ...string) Option {
	return func(c *engineConfig) {
		c.torCIDRs = append(c.torCIDRs, cidrs...)
	}
}

// WithDatacenterKeywords adds keywords to the built-in datacenter list.
func WithDatacenterKeywords(words ...string) Option {
	return func(c *engineConfig) {
		c.keywords = append(c.keywords, words...)
	}
}

// WithSuspiciousTimezones adds zones to the built-in suspicious list.
func WithSuspiciousTimezones(zones ...string) Option {
	return func(c *engineConfig) {
		c.zones = append(c.zones, zones...)
	}
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) {
		c.now = now
	}
}

// NewEngine creates an Engine with the built-in lists plus any additions.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		torCIDRs: slices.Clone(DefaultTorCIDRs),
		keywords: slices.Clone(DefaultDatacenterKeywords),
		zones:    slices.Clone(DefaultSuspiciousTimezones),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tor, err := parsePrefixes(cfg.torCIDRs)
	if err != nil {
		return nil, err
	}

	return &Engine{
		torRanges:  tor,
		datacenter: keywordPattern(cfg.keywords),
		zones:      keywordPattern(cfg.zones),
		now:        cfg.now,
	}, nil
}

// Score evaluates every rule once against ev. previousDigest is the digest
// persisted by the last pass, or "" when there is none.
func (e *Engine) Score(ev model.Evidence, previousDigest string) Result {
	in := &input{
		engine:   e,
		ev:       ev,
		previous: previousDigest,
		current:  ev.Fingerprint.Digest(),
	}

	var (
		score    int
		reasons  []string
		checks   = make([]model.CheckResult, 0, len(ruleTable))
		reliable = true
	)

	for _, r := range ruleTable {
		outcome, detail := r.eval(in)

		check := model.CheckResult{Label: r.label, Outcome: outcome, Detail: detail}
		if outcome == model.OutcomeFail && r.weight > 0 {
			check.Weight = r.weight
			score += r.weight
			reasons = append(reasons, r.reason)
		}
		checks = append(checks, check)

		switch {
		case r.reliability == unreliableOnFail && outcome == model.OutcomeFail:
			reliable = false
		case r.reliability == unreliableOnNeutral && outcome == model.OutcomeNeutral:
			reliable = false
		}
	}

	return Result{
		Report:      model.NewVerdictReport(Classify(reliable, score), score, reasons, checks, reliable, e.now()),
		Fingerprint: in.current,
	}
}

// Classify maps reliability and score to a verdict.
func Classify(reliable bool, score int) model.Verdict {
	switch {
	case !reliable && score == 0:
		return model.VerdictUnreliable
	case score >= DetectedThreshold:
		return model.VerdictDetected
	case score >= LikelyThreshold:
		return model.VerdictLikely
	default:
		return model.VerdictNotDetected
	}
}

// isTorExit reports whether addr is inside a Tor exit range.
func (e *Engine) isTorExit(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range e.torRanges {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
