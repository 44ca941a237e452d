package sbml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"sbmlkit/annotation"
)

// XML emission for the SBML document model. Raw annotation strings are parsed
// back into subtrees and grafted under their elements; a stored string that no
// longer parses fails the whole write instead of producing a corrupt document.

// BuildXML renders the typed document model into an etree document.
func (d *Document) BuildXML(log *zap.Logger) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}

	root := doc.CreateElement("sbml")
	root.CreateAttr("xmlns", coreNamespace(d.Level, d.Version))
	root.CreateAttr("level", strconv.Itoa(d.Level))
	root.CreateAttr("version", strconv.Itoa(d.Version))
	if err := writeAnnotation(root, &d.SBase); err != nil {
		return nil, fmt.Errorf("sbml: %w", err)
	}

	if d.Model != nil {
		if err := writeModel(root, d.Model, log); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func coreNamespace(level, version int) string {
	return fmt.Sprintf("http://www.sbml.org/sbml/level%d/version%d/core", level, version)
}

func writeModel(parent *etree.Element, m *Model, log *zap.Logger) error {
	el := parent.CreateElement("model")
	writeSBaseAttrs(el, &m.SBase)
	if err := writeAnnotation(el, &m.SBase); err != nil {
		return fmt.Errorf("model %q: %w", m.ID, err)
	}

	if len(m.UnitDefinitions) > 0 {
		list := el.CreateElement("listOfUnitDefinitions")
		for _, u := range m.UnitDefinitions {
			if err := writeUnitDefinition(list, u); err != nil {
				return err
			}
		}
	}
	if len(m.Compartments) > 0 {
		list := el.CreateElement("listOfCompartments")
		for _, c := range m.Compartments {
			item := list.CreateElement("compartment")
			writeSBaseAttrs(item, &c.SBase)
			item.CreateAttr("spatialDimensions", strconv.FormatUint(uint64(c.SpatialDimensions), 10))
			if c.Size != nil {
				item.CreateAttr("size", formatFloat(*c.Size))
			}
			if c.Units != "" {
				item.CreateAttr("units", c.Units)
			}
			item.CreateAttr("constant", strconv.FormatBool(c.Constant))
			if err := writeAnnotation(item, &c.SBase); err != nil {
				return fmt.Errorf("compartment %q: %w", c.ID, err)
			}
		}
	}
	if len(m.Species) > 0 {
		list := el.CreateElement("listOfSpecies")
		for _, s := range m.Species {
			item := list.CreateElement("species")
			writeSBaseAttrs(item, &s.SBase)
			if s.Compartment != "" {
				item.CreateAttr("compartment", s.Compartment)
			}
			if s.InitialAmount != nil {
				item.CreateAttr("initialAmount", formatFloat(*s.InitialAmount))
			}
			if s.InitialConcentration != nil {
				item.CreateAttr("initialConcentration", formatFloat(*s.InitialConcentration))
			}
			if s.SubstanceUnits != "" {
				item.CreateAttr("substanceUnits", s.SubstanceUnits)
			}
			item.CreateAttr("hasOnlySubstanceUnits", strconv.FormatBool(s.HasOnlySubstanceUnits))
			item.CreateAttr("boundaryCondition", strconv.FormatBool(s.BoundaryCondition))
			item.CreateAttr("constant", strconv.FormatBool(s.Constant))
			if err := writeAnnotation(item, &s.SBase); err != nil {
				return fmt.Errorf("species %q: %w", s.ID, err)
			}
		}
	}
	if len(m.Parameters) > 0 {
		list := el.CreateElement("listOfParameters")
		for _, p := range m.Parameters {
			item := list.CreateElement("parameter")
			writeSBaseAttrs(item, &p.SBase)
			if p.Value != nil {
				item.CreateAttr("value", formatFloat(*p.Value))
			}
			if p.Units != "" {
				item.CreateAttr("units", p.Units)
			}
			item.CreateAttr("constant", strconv.FormatBool(p.Constant))
			if err := writeAnnotation(item, &p.SBase); err != nil {
				return fmt.Errorf("parameter %q: %w", p.ID, err)
			}
		}
	}
	if len(m.Reactions) > 0 {
		list := el.CreateElement("listOfReactions")
		for _, r := range m.Reactions {
			if err := writeReaction(list, r, log); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeUnitDefinition(parent *etree.Element, u *UnitDefinition) error {
	el := parent.CreateElement("unitDefinition")
	writeSBaseAttrs(el, &u.SBase)
	if err := writeAnnotation(el, &u.SBase); err != nil {
		return fmt.Errorf("unitDefinition %q: %w", u.ID, err)
	}
	if len(u.Units) == 0 {
		return nil
	}
	list := el.CreateElement("listOfUnits")
	for _, unit := range u.Units {
		item := list.CreateElement("unit")
		writeSBaseAttrs(item, &unit.SBase)
		item.CreateAttr("kind", unit.Kind.String())
		item.CreateAttr("exponent", formatFloat(unit.Exponent))
		item.CreateAttr("scale", strconv.Itoa(unit.Scale))
		item.CreateAttr("multiplier", formatFloat(unit.Multiplier))
		if err := writeAnnotation(item, &unit.SBase); err != nil {
			return fmt.Errorf("unit %q/%s: %w", u.ID, unit.Kind, err)
		}
	}
	return nil
}

func writeReaction(parent *etree.Element, r *Reaction, log *zap.Logger) error {
	el := parent.CreateElement("reaction")
	writeSBaseAttrs(el, &r.SBase)
	el.CreateAttr("reversible", strconv.FormatBool(r.Reversible))
	if err := writeAnnotation(el, &r.SBase); err != nil {
		return fmt.Errorf("reaction %q: %w", r.ID, err)
	}

	writeRefs := func(tag string, refs []*SpeciesReference) error {
		if len(refs) == 0 {
			return nil
		}
		list := el.CreateElement(tag)
		for _, sr := range refs {
			item := list.CreateElement("speciesReference")
			writeSBaseAttrs(item, &sr.SBase)
			item.CreateAttr("species", sr.Species)
			if sr.Stoichiometry != nil {
				item.CreateAttr("stoichiometry", formatFloat(*sr.Stoichiometry))
			}
			item.CreateAttr("constant", strconv.FormatBool(sr.Constant))
			if err := writeAnnotation(item, &sr.SBase); err != nil {
				return fmt.Errorf("speciesReference %q: %w", sr.Species, err)
			}
		}
		return nil
	}
	if err := writeRefs("listOfReactants", r.Reactants); err != nil {
		return err
	}
	if err := writeRefs("listOfProducts", r.Products); err != nil {
		return err
	}

	if r.KineticLaw != nil {
		k := el.CreateElement("kineticLaw")
		writeSBaseAttrs(k, &r.KineticLaw.SBase)
		if err := writeAnnotation(k, &r.KineticLaw.SBase); err != nil {
			return fmt.Errorf("kineticLaw of %q: %w", r.ID, err)
		}
		if f := strings.TrimSpace(r.KineticLaw.Formula); f != "" {
			math := etree.NewDocument()
			if err := math.ReadFromString(f); err != nil || math.Root() == nil {
				log.Warn("Kinetic law formula is not MathML, dropping", zap.String("reaction", r.ID))
			} else {
				k.AddChild(math.Root().Copy())
			}
		}
	}
	return nil
}

func writeSBaseAttrs(el *etree.Element, sb *SBase) {
	if sb.MetaID != "" {
		el.CreateAttr("metaid", sb.MetaID)
	}
	if sb.ID != "" {
		el.CreateAttr("id", sb.ID)
	}
	if sb.Name != "" {
		el.CreateAttr("name", sb.Name)
	}
}

// writeAnnotation grafts the element's stored annotation content under its
// XML element. The stored string is authoritative: if it no longer parses the
// write fails with the underlying ParseError.
func writeAnnotation(el *etree.Element, sb *SBase) error {
	if !sb.IsAnnotationSet() {
		return nil
	}
	frags, err := annotation.ParseFragments(sb.AnnotationString())
	if err != nil {
		return err
	}
	if len(frags) == 0 {
		return nil
	}
	ann := el.CreateElement(annotation.ContainerTag)
	for _, f := range frags {
		ann.AddChild(f.Copy())
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
