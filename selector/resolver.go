package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/locator"
)

// Config controls how a [Resolver] is constructed.
type Config struct {
	// Engine is the document engine queries resolve against. Required.
	Engine engine.Engine

	// Logger receives resolution traces. Defaults to a no-op logger.
	Logger *zap.Logger

	// MaxPreviews caps the text excerpts attached to an
	// [AmbiguousError]. Defaults to 3.
	MaxPreviews int

	// PreviewLength caps each excerpt's length in bytes. Defaults to 40.
	PreviewLength int
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Engine == nil {
		return fmt.Errorf("selector: Engine is required")
	}
	if c.MaxPreviews < 0 {
		return fmt.Errorf("selector: MaxPreviews must be non-negative")
	}
	if c.PreviewLength < 0 {
		return fmt.Errorf("selector: PreviewLength must be non-negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MaxPreviews == 0 {
		c.MaxPreviews = 3
	}
	if c.PreviewLength == 0 {
		c.PreviewLength = 40
	}
}

// Resolver turns locators into selections against a single document engine.
//
// Resolution runs in stages: semantic validation, candidate enumeration,
// value indexing, filtering, and relation application. Each stage narrows
// the candidate list; an empty final list is a [NotFoundError], never an
// empty selection.
type Resolver struct {
	eng         engine.Engine
	log         *zap.Logger
	maxPreviews int
	previewLen  int
}

// New constructs a Resolver from the given configuration.
func New(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Resolver{
		eng:         cfg.Engine,
		log:         cfg.Logger,
		maxPreviews: cfg.MaxPreviews,
		previewLen:  cfg.PreviewLength,
	}, nil
}

// Select resolves loc against the whole document.
//
// When expectSingle is true, or when the locator is deterministic (an
// explicit index or a positional kind), a multi-element match is rejected
// with an [AmbiguousError]. A zero-element match is a [NotFoundError].
func (r *Resolver) Select(ctx context.Context, loc locator.Locator, expectSingle bool) (*Selection, error) {
	return r.SelectIn(ctx, loc, engine.WholeDocument(), expectSingle)
}

// SelectIn resolves loc with candidate enumeration restricted to scope.
// Anchors are always resolved against the whole document.
func (r *Resolver) SelectIn(ctx context.Context, loc locator.Locator, scope engine.Scope, expectSingle bool) (*Selection, error) {
	if err := r.validate(loc); err != nil {
		return nil, err
	}
	expectSingle = expectSingle || loc.Deterministic()

	var anchorRef element.Ref
	var anchorSpan element.Span
	if loc.Anchor != nil {
		ref, span, err := r.resolveAnchor(ctx, loc)
		if err != nil {
			return nil, err
		}
		anchorRef, anchorSpan = ref, span
	}

	// parent_of needs no enumeration: the candidate is the anchor's
	// parent or nothing.
	if loc.Relation == locator.ParentOf {
		return r.selectParent(ctx, loc, anchorRef)
	}

	enumScope := scope
	if loc.Relation == locator.AllOccurrencesWithin {
		enumScope = engine.Within(anchorSpan)
	}

	all, err := r.eng.Enumerate(ctx, loc.Target.Kind, enumScope)
	if err != nil {
		return nil, err
	}
	cands := all

	if idx, ok := loc.Target.IntValue(); ok {
		if idx >= len(cands) {
			return nil, &NotFoundError{
				Locator: loc.String(),
				Detail:  fmt.Sprintf("index %d out of %d candidates", idx, len(cands)),
			}
		}
		cands = cands[idx : idx+1]
	}

	cands, window, err := r.applyFilters(ctx, cands, effectiveFilters(loc.Target))
	if err != nil {
		return nil, err
	}

	switch loc.Relation {
	case locator.FirstOccurrenceAfter:
		cands, err = r.firstAfter(ctx, cands, anchorSpan)
	case locator.ImmediatelyFollowing:
		cands, err = r.adjacent(ctx, cands, all, anchorSpan, anchorRef, true)
	case locator.ImmediatelyPreceding:
		cands, err = r.adjacent(ctx, cands, all, anchorSpan, anchorRef, false)
	}
	if err != nil {
		return nil, err
	}

	if len(cands) == 0 {
		return nil, &NotFoundError{Locator: loc.String()}
	}
	if expectSingle && len(cands) > 1 {
		return nil, &AmbiguousError{
			Locator:  loc.String(),
			Count:    len(cands),
			Previews: r.previews(ctx, cands),
		}
	}

	r.log.Debug("locator resolved",
		zap.String("locator", loc.String()),
		zap.Int("matches", len(cands)))

	return &Selection{refs: cands, eng: r.eng, window: window}, nil
}

// resolveAnchor resolves the anchor spec as an independent single-match
// locator against the whole document.
func (r *Resolver) resolveAnchor(ctx context.Context, loc locator.Locator) (element.Ref, element.Span, error) {
	anchorLoc := locator.Locator{Target: *loc.Anchor}
	sel, err := r.SelectIn(ctx, anchorLoc, engine.WholeDocument(), true)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return element.Ref{}, element.Span{}, &NotFoundError{
				Locator: loc.String(),
				Detail:  "anchor matched nothing",
			}
		}
		return element.Ref{}, element.Span{}, err
	}
	ref := sel.First()
	span, err := r.eng.Span(ctx, ref)
	if err != nil {
		return element.Ref{}, element.Span{}, err
	}
	return ref, span, nil
}

func (r *Resolver) selectParent(ctx context.Context, loc locator.Locator, anchorRef element.Ref) (*Selection, error) {
	parent, ok, err := r.eng.Parent(ctx, anchorRef)
	if err != nil {
		return nil, err
	}
	if !ok || parent.Kind != loc.Target.Kind {
		return nil, &NotFoundError{
			Locator: loc.String(),
			Detail:  fmt.Sprintf("anchor has no %s parent", loc.Target.Kind),
		}
	}
	cands, window, err := r.applyFilters(ctx, []element.Ref{parent}, effectiveFilters(loc.Target))
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &NotFoundError{Locator: loc.String()}
	}
	return &Selection{refs: cands, eng: r.eng, window: window}, nil
}

// firstAfter keeps the first candidate starting at or after the anchor's end.
func (r *Resolver) firstAfter(ctx context.Context, cands []element.Ref, anchor element.Span) ([]element.Ref, error) {
	for _, ref := range cands {
		span, err := r.eng.Span(ctx, ref)
		if err != nil {
			return nil, err
		}
		if span.Start >= anchor.End {
			return []element.Ref{ref}, nil
		}
	}
	return nil, nil
}

// adjacent keeps the candidate nearest to the anchor on the given side,
// provided no element of the same kind lies between them. all is the full
// pre-filter enumeration used for the intervening-element check.
func (r *Resolver) adjacent(ctx context.Context, cands, all []element.Ref, anchor element.Span, anchorRef element.Ref, following bool) ([]element.Ref, error) {
	var best element.Ref
	var bestSpan element.Span
	found := false
	for _, ref := range cands {
		if ref == anchorRef {
			continue
		}
		span, err := r.eng.Span(ctx, ref)
		if err != nil {
			return nil, err
		}
		if following {
			if span.Start >= anchor.End && (!found || span.Start < bestSpan.Start) {
				best, bestSpan, found = ref, span, true
			}
		} else {
			if span.End <= anchor.Start && (!found || span.End > bestSpan.End) {
				best, bestSpan, found = ref, span, true
			}
		}
	}
	if !found {
		return nil, nil
	}
	for _, ref := range all {
		if ref == best || ref == anchorRef {
			continue
		}
		span, err := r.eng.Span(ctx, ref)
		if err != nil {
			return nil, err
		}
		if following && span.Start >= anchor.End && span.Start < bestSpan.Start {
			return nil, nil
		}
		if !following && span.End <= anchor.Start && span.End > bestSpan.End {
			return nil, nil
		}
	}
	return []element.Ref{best}, nil
}

// previews loads short text excerpts for the first matches.
func (r *Resolver) previews(ctx context.Context, refs []element.Ref) []string {
	n := len(refs)
	if n > r.maxPreviews {
		n = r.maxPreviews
	}
	out := make([]string, 0, n)
	for _, ref := range refs[:n] {
		text, err := r.eng.Text(ctx, ref)
		if err != nil {
			text = ""
		}
		text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
		if len(text) > r.previewLen {
			text = clip(text, r.previewLen) + "..."
		}
		out = append(out, fmt.Sprintf("%s: %q", ref.Kind, text))
	}
	return out
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// effectiveFilters returns the target's filters, with a non-numeric value
// rewritten as a leading contains_text filter.
func effectiveFilters(spec locator.TargetSpec) []locator.Filter {
	text, ok := spec.StringValue()
	if !ok {
		return spec.Filters
	}
	filters := make([]locator.Filter, 0, len(spec.Filters)+1)
	filters = append(filters, locator.Filter{Name: locator.ContainsText, Value: text})
	return append(filters, spec.Filters...)
}
