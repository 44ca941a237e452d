package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"sbmlkit/annotation"
	"sbmlkit/sbml"
	"sbmlkit/state"
)

// element addressing used by attach/detach/list: kind or kind:id

func resolveTarget(doc *sbml.Document, addr string) (annotation.Handle, error) {
	kind, id, _ := strings.Cut(addr, ":")

	switch kind {
	case "document":
		return annotation.Wrap(doc.Base()), nil
	case "model":
		return annotation.Wrap(doc.Model.Base()), nil
	}

	if doc.Model == nil {
		return annotation.Handle{}, fmt.Errorf("document has no model, cannot address %q", addr)
	}
	if id == "" {
		return annotation.Handle{}, fmt.Errorf("element kind %q requires an id (use %s:ID)", kind, kind)
	}

	var base *sbml.SBase
	switch kind {
	case "compartment":
		base = doc.Model.FindCompartment(id).Base()
	case "species":
		base = doc.Model.FindSpecies(id).Base()
	case "parameter":
		base = doc.Model.FindParameter(id).Base()
	case "unitdef":
		base = doc.Model.FindUnitDefinition(id).Base()
	case "reaction":
		base = doc.Model.FindReaction(id).Base()
	default:
		return annotation.Handle{}, fmt.Errorf("unknown element kind %q", kind)
	}
	if base == nil {
		return annotation.Handle{}, fmt.Errorf("no %s with id %q in model", kind, id)
	}
	return annotation.Wrap(base), nil
}

func loadDocument(ctx context.Context, cmd *cli.Command) (*sbml.Document, string, error) {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return nil, "", fmt.Errorf("no source file specified")
	}
	doc, err := sbml.ReadFile(src, env.Log)
	if err != nil {
		return nil, "", err
	}
	return doc, src, nil
}

func storeDocument(ctx context.Context, cmd *cli.Command, doc *sbml.Document, src string) error {
	env := state.EnvFromContext(ctx)

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = src
	}
	if err := doc.WriteFile(dst, env.Log); err != nil {
		return err
	}
	env.Log.Info("Document written", zap.String("file", dst))
	return nil
}

func listAnnotations(ctx context.Context, cmd *cli.Command) error {
	doc, _, err := loadDocument(ctx, cmd)
	if err != nil {
		return err
	}

	return eachElement(doc, func(addr string, sb *sbml.SBase) error {
		raw, ok := annotation.Wrap(sb).Raw()
		if !ok {
			return nil
		}
		frags, err := annotation.ParseFragments(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", addr, err)
		}
		for _, f := range frags {
			space, tag := annotation.Identity(f)
			fmt.Fprintf(os.Stdout, "%s\t{%s}%s\n", addr, space, tag)
		}
		return nil
	})
}

func attachAnnotation(ctx context.Context, cmd *cli.Command) error {
	doc, src, err := loadDocument(ctx, cmd)
	if err != nil {
		return err
	}

	h, err := resolveTarget(doc, cmd.String("element"))
	if err != nil {
		return err
	}

	frags, err := annotation.ParseFragments(cmd.String("xml"))
	if err != nil {
		return err
	}
	if len(frags) != 1 {
		return fmt.Errorf("expected exactly one XML fragment to attach, got %d", len(frags))
	}
	if err := annotation.AttachFragment(h, frags[0]); err != nil {
		return err
	}
	return storeDocument(ctx, cmd, doc, src)
}

func detachAnnotation(ctx context.Context, cmd *cli.Command) error {
	doc, src, err := loadDocument(ctx, cmd)
	if err != nil {
		return err
	}

	h, err := resolveTarget(doc, cmd.String("element"))
	if err != nil {
		return err
	}
	if err := annotation.DetachIdentity(h, cmd.String("ns"), cmd.String("tag")); err != nil {
		return err
	}
	return storeDocument(ctx, cmd, doc, src)
}

// eachElement visits every annotatable element of the document in document
// order, handing the visitor a stable address for reporting.
func eachElement(doc *sbml.Document, visit func(addr string, sb *sbml.SBase) error) error {
	if err := visit("document", doc.Base()); err != nil {
		return err
	}
	m := doc.Model
	if m == nil {
		return nil
	}
	if err := visit("model", m.Base()); err != nil {
		return err
	}
	for _, c := range m.Compartments {
		if err := visit("compartment:"+c.ID, c.Base()); err != nil {
			return err
		}
	}
	for _, s := range m.Species {
		if err := visit("species:"+s.ID, s.Base()); err != nil {
			return err
		}
	}
	for _, p := range m.Parameters {
		if err := visit("parameter:"+p.ID, p.Base()); err != nil {
			return err
		}
	}
	for _, u := range m.UnitDefinitions {
		if err := visit("unitdef:"+u.ID, u.Base()); err != nil {
			return err
		}
	}
	for _, r := range m.Reactions {
		if err := visit("reaction:"+r.ID, r.Base()); err != nil {
			return err
		}
	}
	return nil
}
