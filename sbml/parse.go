package sbml

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// XML parsing for the SBML document model. We want exhaustive parsing: every
// recognized tag is handled explicitly and everything else is logged, so
// foreign documents degrade loudly instead of silently.

// ParseDocument walks the etree DOM and constructs the typed document model.
// Annotation subtrees are captured verbatim into their element's raw
// annotation string, wrapper included, exactly as the element would hand them
// back through AnnotationString.
func ParseDocument(doc *etree.Document, log *zap.Logger) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if root.Tag != "sbml" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	d := NewDocument(intAttr(root, "level", 3, log), intAttr(root, "version", 2, log))
	parseSBase(root, &d.SBase)
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "model":
			model, err := parseModel(child, log)
			if err != nil {
				return nil, fmt.Errorf("model: %w", err)
			}
			d.Model = model
		case "annotation", "notes":
			// handled by parseSBase / ignored
		default:
			log.Warn("Unexpected tag in sbml, ignoring", zap.String("parent", root.Tag), zap.String("tag", child.Tag))
		}
	}
	return d, nil
}

func parseModel(el *etree.Element, log *zap.Logger) (*Model, error) {
	m := &Model{}
	parseSBase(el, &m.SBase)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "listOfCompartments":
			for _, item := range child.ChildElements() {
				if item.Tag != "compartment" {
					log.Warn("Unexpected tag in listOfCompartments, ignoring", zap.String("tag", item.Tag))
					continue
				}
				m.Compartments = append(m.Compartments, parseCompartment(item, log))
			}
		case "listOfSpecies":
			for _, item := range child.ChildElements() {
				if item.Tag != "species" {
					log.Warn("Unexpected tag in listOfSpecies, ignoring", zap.String("tag", item.Tag))
					continue
				}
				m.Species = append(m.Species, parseSpecies(item, log))
			}
		case "listOfParameters":
			for _, item := range child.ChildElements() {
				if item.Tag != "parameter" {
					log.Warn("Unexpected tag in listOfParameters, ignoring", zap.String("tag", item.Tag))
					continue
				}
				m.Parameters = append(m.Parameters, parseParameter(item, log))
			}
		case "listOfUnitDefinitions":
			for _, item := range child.ChildElements() {
				if item.Tag != "unitDefinition" {
					log.Warn("Unexpected tag in listOfUnitDefinitions, ignoring", zap.String("tag", item.Tag))
					continue
				}
				m.UnitDefinitions = append(m.UnitDefinitions, parseUnitDefinition(item, log))
			}
		case "listOfReactions":
			for _, item := range child.ChildElements() {
				if item.Tag != "reaction" {
					log.Warn("Unexpected tag in listOfReactions, ignoring", zap.String("tag", item.Tag))
					continue
				}
				reaction, err := parseReaction(item, log)
				if err != nil {
					return nil, fmt.Errorf("reaction: %w", err)
				}
				m.Reactions = append(m.Reactions, reaction)
			}
		case "annotation", "notes":
		default:
			log.Warn("Unexpected tag in model, ignoring", zap.String("parent", el.Tag), zap.String("tag", child.Tag))
		}
	}
	return m, nil
}

func parseCompartment(el *etree.Element, log *zap.Logger) *Compartment {
	c := &Compartment{}
	parseSBase(el, &c.SBase)
	c.SpatialDimensions = uint(intAttr(el, "spatialDimensions", 3, log))
	c.Size = floatAttrPtr(el, "size", log)
	c.Units = el.SelectAttrValue("units", "")
	c.Constant = boolAttr(el, "constant", true, log)
	return c
}

func parseSpecies(el *etree.Element, log *zap.Logger) *Species {
	s := &Species{}
	parseSBase(el, &s.SBase)
	s.Compartment = el.SelectAttrValue("compartment", "")
	s.InitialAmount = floatAttrPtr(el, "initialAmount", log)
	s.InitialConcentration = floatAttrPtr(el, "initialConcentration", log)
	s.SubstanceUnits = el.SelectAttrValue("substanceUnits", "")
	s.HasOnlySubstanceUnits = boolAttr(el, "hasOnlySubstanceUnits", false, log)
	s.BoundaryCondition = boolAttr(el, "boundaryCondition", false, log)
	s.Constant = boolAttr(el, "constant", false, log)
	return s
}

func parseParameter(el *etree.Element, log *zap.Logger) *Parameter {
	p := &Parameter{}
	parseSBase(el, &p.SBase)
	p.Value = floatAttrPtr(el, "value", log)
	p.Units = el.SelectAttrValue("units", "")
	p.Constant = boolAttr(el, "constant", true, log)
	return p
}

func parseUnitDefinition(el *etree.Element, log *zap.Logger) *UnitDefinition {
	u := &UnitDefinition{}
	parseSBase(el, &u.SBase)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "listOfUnits":
			for _, item := range child.ChildElements() {
				if item.Tag != "unit" {
					log.Warn("Unexpected tag in listOfUnits, ignoring", zap.String("tag", item.Tag))
					continue
				}
				unit := &Unit{}
				parseSBase(item, &unit.SBase)
				unit.Kind = UnitKind(item.SelectAttrValue("kind", ""))
				unit.Exponent = floatAttr(item, "exponent", 1, log)
				unit.Scale = intAttr(item, "scale", 0, log)
				unit.Multiplier = floatAttr(item, "multiplier", 1, log)
				u.Units = append(u.Units, unit)
			}
		case "annotation", "notes":
		default:
			log.Warn("Unexpected tag in unitDefinition, ignoring", zap.String("parent", el.Tag), zap.String("tag", child.Tag))
		}
	}
	return u
}

func parseReaction(el *etree.Element, log *zap.Logger) (*Reaction, error) {
	r := &Reaction{}
	parseSBase(el, &r.SBase)
	r.Reversible = boolAttr(el, "reversible", false, log)
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "listOfReactants":
			r.Reactants = append(r.Reactants, parseSpeciesReferences(child, log)...)
		case "listOfProducts":
			r.Products = append(r.Products, parseSpeciesReferences(child, log)...)
		case "kineticLaw":
			k := &KineticLaw{}
			parseSBase(child, &k.SBase)
			for _, sub := range child.ChildElements() {
				switch sub.Tag {
				case "math":
					// MathML is out of scope, keep the serialized expression
					k.Formula = rawXML(sub)
				case "annotation", "notes":
				default:
					log.Warn("Unexpected tag in kineticLaw, ignoring", zap.String("tag", sub.Tag))
				}
			}
			r.KineticLaw = k
		case "annotation", "notes":
		default:
			log.Warn("Unexpected tag in reaction, ignoring", zap.String("parent", el.Tag), zap.String("tag", child.Tag))
		}
	}
	return r, nil
}

func parseSpeciesReferences(el *etree.Element, log *zap.Logger) []*SpeciesReference {
	var refs []*SpeciesReference
	for _, item := range el.ChildElements() {
		if item.Tag != "speciesReference" {
			log.Warn("Unexpected tag in species reference list, ignoring", zap.String("parent", el.Tag), zap.String("tag", item.Tag))
			continue
		}
		sr := &SpeciesReference{}
		parseSBase(item, &sr.SBase)
		sr.Species = item.SelectAttrValue("species", "")
		sr.Stoichiometry = floatAttrPtr(item, "stoichiometry", log)
		sr.Constant = boolAttr(item, "constant", true, log)
		refs = append(refs, sr)
	}
	return refs
}

// parseSBase extracts attributes common to all elements and captures the
// annotation subtree verbatim.
func parseSBase(el *etree.Element, sb *SBase) {
	sb.ID = el.SelectAttrValue("id", "")
	sb.Name = el.SelectAttrValue("name", "")
	sb.MetaID = el.SelectAttrValue("metaid", "")
	for _, child := range el.ChildElements() {
		if child.Tag == "annotation" && child.Space == "" {
			sb.annotation = rawXML(child)
			break
		}
	}
}

// rawXML serializes one element subtree to a standalone string.
func rawXML(el *etree.Element) string {
	d := etree.NewDocument()
	d.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	d.SetRoot(el.Copy())
	out, err := d.WriteToString()
	if err != nil {
		// strings.Builder based writer, cannot fail
		return ""
	}
	return out
}

func intAttr(el *etree.Element, key string, dflt int, log *zap.Logger) int {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return dflt
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn("Invalid integer attribute, using default", zap.String("tag", el.Tag), zap.String("attr", key), zap.String("value", v))
		return dflt
	}
	return n
}

func floatAttr(el *etree.Element, key string, dflt float64, log *zap.Logger) float64 {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return dflt
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("Invalid number attribute, using default", zap.String("tag", el.Tag), zap.String("attr", key), zap.String("value", v))
		return dflt
	}
	return f
}

func floatAttrPtr(el *etree.Element, key string, log *zap.Logger) *float64 {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("Invalid number attribute, ignoring", zap.String("tag", el.Tag), zap.String("attr", key), zap.String("value", v))
		return nil
	}
	return &f
}

func boolAttr(el *etree.Element, key string, dflt bool, log *zap.Logger) bool {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return dflt
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn("Invalid boolean attribute, using default", zap.String("tag", el.Tag), zap.String("attr", key), zap.String("value", v))
		return dflt
	}
	return b
}
