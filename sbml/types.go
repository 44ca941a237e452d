// Package sbml implements a minimal strongly typed document model for SBML
// Level 3 reaction networks - the host side of the annotation layer. Elements
// own their annotation content as an opaque string; everything structured
// about annotations lives in the annotation package.
package sbml

import (
	"strings"

	"github.com/google/uuid"
)

// SBase carries the attributes shared by every SBML element. It implements
// annotation.Target with nil-receiver safety so an absent element reads as
// "no annotation" and silently drops writes.
type SBase struct {
	ID     string
	Name   string
	MetaID string

	annotation string
}

// Present reports whether the element exists.
func (s *SBase) Present() bool { return s != nil }

// IsAnnotationSet reports whether any annotation content is stored.
func (s *SBase) IsAnnotationSet() bool { return s != nil && s.annotation != "" }

// AnnotationString returns stored annotation content verbatim, including the
// enclosing <annotation> wrapper when one was stored.
func (s *SBase) AnnotationString() string {
	if s == nil {
		return ""
	}
	return s.annotation
}

// SetAnnotationString replaces the entire stored annotation content. The
// string is stored verbatim - no parsing, no normalization - so callers above
// are responsible for read-merge-write when preserving unrelated content.
func (s *SBase) SetAnnotationString(raw string) error {
	if s == nil {
		return nil
	}
	s.annotation = raw
	return nil
}

// EnsureMetaID assigns a fresh metaid when the element has none and returns
// the effective value. SBML metaid must be an XML NCName, so the UUID is
// prefixed and stripped of dashes.
func (s *SBase) EnsureMetaID() string {
	if s == nil {
		return ""
	}
	if s.MetaID == "" {
		s.MetaID = "meta_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return s.MetaID
}

// UnitKind enumerates base units from the SBML unit kind list. Only kinds
// used in practice by reaction network models are included.
type UnitKind string

const (
	UnitAmpere        UnitKind = "ampere"
	UnitBecquerel     UnitKind = "becquerel"
	UnitCandela       UnitKind = "candela"
	UnitDimensionless UnitKind = "dimensionless"
	UnitGram          UnitKind = "gram"
	UnitItem          UnitKind = "item"
	UnitKatal         UnitKind = "katal"
	UnitKelvin        UnitKind = "kelvin"
	UnitKilogram      UnitKind = "kilogram"
	UnitLitre         UnitKind = "litre"
	UnitMetre         UnitKind = "metre"
	UnitMole          UnitKind = "mole"
	UnitSecond        UnitKind = "second"
	UnitVolt          UnitKind = "volt"
	UnitWatt          UnitKind = "watt"
)

func (k UnitKind) String() string { return string(k) }

// Document is the root of an SBML document tree.
type Document struct {
	SBase
	Level   int
	Version int
	Model   *Model
}

// Model aggregates the element lists of one reaction network.
type Model struct {
	SBase
	Compartments    []*Compartment
	Species         []*Species
	Parameters      []*Parameter
	UnitDefinitions []*UnitDefinition
	Reactions       []*Reaction
}

// Compartment is a bounded space species live in.
type Compartment struct {
	SBase
	SpatialDimensions uint
	Size              *float64
	Units             string
	Constant          bool
}

// Species is a pool of reacting entities located in one compartment.
type Species struct {
	SBase
	Compartment           string
	InitialAmount         *float64
	InitialConcentration  *float64
	SubstanceUnits        string
	HasOnlySubstanceUnits bool
	BoundaryCondition     bool
	Constant              bool
}

// Parameter is a named quantity, global to the model.
type Parameter struct {
	SBase
	Value    *float64
	Units    string
	Constant bool
}

// UnitDefinition names a derived unit composed of base unit factors.
type UnitDefinition struct {
	SBase
	Units []*Unit
}

// Unit is one factor of a derived unit: (multiplier * 10^scale * kind)^exponent.
type Unit struct {
	SBase
	Kind       UnitKind
	Exponent   float64
	Scale      int
	Multiplier float64
}

// Reaction transforms reactant species into product species.
type Reaction struct {
	SBase
	Reversible bool
	Reactants  []*SpeciesReference
	Products   []*SpeciesReference
	KineticLaw *KineticLaw
}

// SpeciesReference ties a reaction to one participating species.
type SpeciesReference struct {
	SBase
	Species       string
	Stoichiometry *float64
	Constant      bool
}

// KineticLaw holds the rate expression of a reaction. The formula is kept as
// text; MathML expression trees are out of scope.
type KineticLaw struct {
	SBase
	Formula string
}

// Base returns the element's SBase for annotation access, nil-safe so absent
// elements produce absent handles.
func (d *Document) Base() *SBase {
	if d == nil {
		return nil
	}
	return &d.SBase
}

func (m *Model) Base() *SBase {
	if m == nil {
		return nil
	}
	return &m.SBase
}

func (c *Compartment) Base() *SBase {
	if c == nil {
		return nil
	}
	return &c.SBase
}

func (s *Species) Base() *SBase {
	if s == nil {
		return nil
	}
	return &s.SBase
}

func (p *Parameter) Base() *SBase {
	if p == nil {
		return nil
	}
	return &p.SBase
}

func (u *UnitDefinition) Base() *SBase {
	if u == nil {
		return nil
	}
	return &u.SBase
}

func (u *Unit) Base() *SBase {
	if u == nil {
		return nil
	}
	return &u.SBase
}

func (r *Reaction) Base() *SBase {
	if r == nil {
		return nil
	}
	return &r.SBase
}

func (sr *SpeciesReference) Base() *SBase {
	if sr == nil {
		return nil
	}
	return &sr.SBase
}

func (k *KineticLaw) Base() *SBase {
	if k == nil {
		return nil
	}
	return &k.SBase
}

// NewDocument creates an empty document for the given SBML level and version.
func NewDocument(level, version int) *Document {
	return &Document{Level: level, Version: version}
}

// CreateModel attaches a new empty model to the document, replacing any
// existing one, and returns it.
func (d *Document) CreateModel(id string) *Model {
	m := &Model{}
	m.ID = id
	d.Model = m
	return m
}

// AddCompartment appends a new compartment with SBML defaults and returns it.
func (m *Model) AddCompartment(id string) *Compartment {
	c := &Compartment{SpatialDimensions: 3, Constant: true}
	c.ID = id
	m.Compartments = append(m.Compartments, c)
	return c
}

// AddSpecies appends a new species and returns it.
func (m *Model) AddSpecies(id string) *Species {
	s := &Species{}
	s.ID = id
	m.Species = append(m.Species, s)
	return s
}

// AddParameter appends a new parameter and returns it.
func (m *Model) AddParameter(id string) *Parameter {
	p := &Parameter{Constant: true}
	p.ID = id
	m.Parameters = append(m.Parameters, p)
	return p
}

// AddUnitDefinition appends a new unit definition and returns it.
func (m *Model) AddUnitDefinition(id string) *UnitDefinition {
	u := &UnitDefinition{}
	u.ID = id
	m.UnitDefinitions = append(m.UnitDefinitions, u)
	return u
}

// AddUnit appends a base unit factor with neutral defaults and returns it.
func (u *UnitDefinition) AddUnit(kind UnitKind) *Unit {
	unit := &Unit{Kind: kind, Exponent: 1, Scale: 0, Multiplier: 1}
	u.Units = append(u.Units, unit)
	return unit
}

// AddReaction appends a new reaction and returns it.
func (m *Model) AddReaction(id string) *Reaction {
	r := &Reaction{}
	r.ID = id
	m.Reactions = append(m.Reactions, r)
	return r
}

// AddReactant appends a reactant reference for the given species ID.
func (r *Reaction) AddReactant(speciesID string) *SpeciesReference {
	sr := &SpeciesReference{Species: speciesID, Constant: true}
	r.Reactants = append(r.Reactants, sr)
	return sr
}

// AddProduct appends a product reference for the given species ID.
func (r *Reaction) AddProduct(speciesID string) *SpeciesReference {
	sr := &SpeciesReference{Species: speciesID, Constant: true}
	r.Products = append(r.Products, sr)
	return sr
}

// SetKineticLaw replaces the reaction's kinetic law and returns it.
func (r *Reaction) SetKineticLaw(formula string) *KineticLaw {
	k := &KineticLaw{Formula: formula}
	r.KineticLaw = k
	return k
}

// FindCompartment returns the compartment with the given ID, or nil.
func (m *Model) FindCompartment(id string) *Compartment {
	for _, c := range m.Compartments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindSpecies returns the species with the given ID, or nil.
func (m *Model) FindSpecies(id string) *Species {
	for _, s := range m.Species {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindParameter returns the parameter with the given ID, or nil.
func (m *Model) FindParameter(id string) *Parameter {
	for _, p := range m.Parameters {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindUnitDefinition returns the unit definition with the given ID, or nil.
func (m *Model) FindUnitDefinition(id string) *UnitDefinition {
	for _, u := range m.UnitDefinitions {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// FindReaction returns the reaction with the given ID, or nil.
func (m *Model) FindReaction(id string) *Reaction {
	for _, r := range m.Reactions {
		if r.ID == id {
			return r
		}
	}
	return nil
}
