package verifier

import (
	"io"
	"strings"

	"verify/internal/canonical"
	"verify/internal/contract"
	verifyerrors "verify/internal/errors"
	"verify/internal/output"
	"verify/internal/scrub"
	"verify/internal/target"
)

// targets converts value into the targets it is compared as. Targets pass
// through unchanged; strings and builders become text targets; byte slices
// and readers become binary targets; anything else is walked into a
// canonical tree and rendered as indented JSON.
func (v *Verifier) targets(value any, s *settings, shared *scrub.Shared) ([]target.Target, error) {
	var (
		t   target.Target
		err error
	)
	switch x := value.(type) {
	case target.Target:
		return []target.Target{x}, nil
	case []target.Target:
		if len(x) == 0 {
			return nil, verifyerrors.New(verifyerrors.UnsupportedValue, "nothing to verify: no targets")
		}
		return x, nil
	case string:
		t, err = target.NewString(orDefault(s.extension, "txt"), x, target.DefaultName)
	case *strings.Builder:
		t, err = target.NewBuilder(orDefault(s.extension, "txt"), x, target.DefaultName)
	case []byte:
		t, err = target.NewBytes(orDefault(s.extension, "bin"), x, "")
	case io.Reader:
		t, err = target.NewStream(orDefault(s.extension, "bin"), x, "")
	default:
		t, err = v.render(value, s, shared)
	}
	if err != nil {
		return nil, err
	}
	return []target.Target{t}, nil
}

func (v *Verifier) render(value any, s *settings, shared *scrub.Shared) (target.Target, error) {
	rules := v.rules
	rules.Scrubber = shared
	walker := canonical.New(contract.NewResolver(rules), shared)

	tree, err := walker.Walk(value)
	if err != nil {
		return target.Target{}, err
	}
	data, err := output.EncodeIndented(tree, "  ")
	if err != nil {
		return target.Target{}, verifyerrors.Wrap(verifyerrors.InternalError, "failed to encode snapshot", err)
	}
	return target.NewString(orDefault(s.extension, v.cfg.Extension), string(data), target.DefaultName)
}

// textScrubbers returns the scrubbers for text targets in the order they run.
func (v *Verifier) textScrubbers(s *settings, shared *scrub.Shared) []scrub.Scrubber {
	list := []scrub.Scrubber{scrub.NormalizeText}
	if v.cfg.Scrub.Guids {
		list = append(list, shared.InlineGuids())
	}
	for _, layout := range s.layouts {
		list = append(list, shared.InlineDateTimes(layout))
	}
	if v.cfg.Scrub.Paths {
		list = append(list, scrub.Paths(v.root))
	}
	list = append(list, v.scrubbers...)
	list = append(list, s.scrubbers...)
	return append(list, scrub.NormalizeText)
}

// content returns the bytes written for t and whether they are text.
func (v *Verifier) content(t target.Target, s *settings, shared *scrub.Shared) ([]byte, bool, error) {
	if text, ok := t.TryGetString(); ok {
		text = scrub.Apply(text, v.textScrubbers(s, shared)...)
		return []byte(text + "\n"), true, nil
	}
	data, err := t.Bytes()
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// qualifierName is the target name used in multi-target file names.
func qualifierName(t target.Target) string {
	if t.Name() == target.DefaultName {
		return ""
	}
	return t.Name()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
