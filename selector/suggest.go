package selector

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/docselect/element"
	"github.com/jonwraymond/docselect/engine"
	"github.com/jonwraymond/docselect/locator"
)

// suggestSnippetLen caps the text qualifier a suggestion carries.
const suggestSnippetLen = 30

// Suggest builds a locator that re-resolves to ref. Text-bearing elements
// get a text qualifier when their text is unique in the document; everything
// else falls back to a positional index, which is precise but brittle
// across structural edits.
func (r *Resolver) Suggest(ctx context.Context, ref element.Ref) (locator.Locator, error) {
	if loc, ok, err := r.suggestByText(ctx, ref); err != nil {
		return locator.Locator{}, err
	} else if ok {
		return loc, nil
	}

	refs, err := r.eng.Enumerate(ctx, ref.Kind, engine.WholeDocument())
	if err != nil {
		return locator.Locator{}, err
	}
	for i, cand := range refs {
		if cand == ref {
			return locator.Locator{Target: locator.TargetSpec{Kind: ref.Kind, Value: i}}, nil
		}
	}
	return locator.Locator{}, &NotFoundError{
		Locator: ref.String(),
		Detail:  "element no longer present",
	}
}

func (r *Resolver) suggestByText(ctx context.Context, ref element.Ref) (locator.Locator, bool, error) {
	switch ref.Kind {
	case element.Paragraph, element.Heading, element.Cell, element.Comment:
	default:
		return locator.Locator{}, false, nil
	}

	text, err := r.eng.Text(ctx, ref)
	if err != nil {
		return locator.Locator{}, false, err
	}
	snippet := strings.TrimSpace(text)
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	if len(snippet) > suggestSnippetLen {
		snippet = clip(snippet, suggestSnippetLen)
	}
	if snippet == "" {
		return locator.Locator{}, false, nil
	}

	loc := locator.Locator{Target: locator.TargetSpec{Kind: ref.Kind, Value: snippet}}
	sel, err := r.Select(ctx, loc, true)
	if err != nil {
		if errors.Is(err, ErrAmbiguous) || errors.Is(err, ErrNotFound) {
			return locator.Locator{}, false, nil
		}
		return locator.Locator{}, false, err
	}
	if sel.First() != ref {
		return locator.Locator{}, false, nil
	}
	return loc, true, nil
}
