package sbml

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"sbmlkit/annotation"
)

const sampleSBML = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level3/version2/core" level="3" version="2">
  <model id="example" name="Example model">
    <listOfUnitDefinitions>
      <unitDefinition id="mmol_per_l">
        <listOfUnits>
          <unit kind="mole" exponent="1" scale="-3" multiplier="1"/>
          <unit kind="litre" exponent="-1" scale="0" multiplier="1"/>
        </listOfUnits>
      </unitDefinition>
    </listOfUnitDefinitions>
    <listOfCompartments>
      <compartment id="cytosol" name="cytosol" spatialDimensions="3" size="1" constant="true"/>
    </listOfCompartments>
    <listOfSpecies>
      <species id="glucose" name="Glucose" compartment="cytosol" initialAmount="10" boundaryCondition="true" hasOnlySubstanceUnits="false" constant="false">
        <annotation>
          <myannotation xmlns="http://my.namespace.com"><key>test</key><value>1</value></myannotation>
        </annotation>
      </species>
      <species id="g6p" compartment="cytosol" initialConcentration="0.5" hasOnlySubstanceUnits="false" boundaryCondition="false" constant="false"/>
    </listOfSpecies>
    <listOfParameters>
      <parameter id="k1" value="0.1" constant="true"/>
    </listOfParameters>
    <listOfReactions>
      <reaction id="phosphorylation" reversible="false">
        <listOfReactants>
          <speciesReference species="glucose" stoichiometry="1" constant="true"/>
        </listOfReactants>
        <listOfProducts>
          <speciesReference species="g6p" stoichiometry="1" constant="true"/>
        </listOfProducts>
      </reaction>
    </listOfReactions>
  </model>
</sbml>`

func TestParseSampleDocument(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	doc, err := ReadFrom(strings.NewReader(sampleSBML), log)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	if doc.Level != 3 || doc.Version != 2 {
		t.Fatalf("unexpected level/version: %d/%d", doc.Level, doc.Version)
	}
	m := doc.Model
	if m == nil {
		t.Fatalf("expected a model")
	}
	if m.ID != "example" || m.Name != "Example model" {
		t.Fatalf("unexpected model identity: %q %q", m.ID, m.Name)
	}
	if len(m.Compartments) != 1 || len(m.Species) != 2 || len(m.Parameters) != 1 || len(m.Reactions) != 1 {
		t.Fatalf("unexpected element counts: %d compartments, %d species, %d parameters, %d reactions",
			len(m.Compartments), len(m.Species), len(m.Parameters), len(m.Reactions))
	}

	ud := m.FindUnitDefinition("mmol_per_l")
	if ud == nil || len(ud.Units) != 2 {
		t.Fatalf("unit definition not parsed: %+v", ud)
	}
	if ud.Units[0].Kind != UnitMole || ud.Units[0].Scale != -3 {
		t.Fatalf("unexpected first unit: %+v", ud.Units[0])
	}

	glucose := m.FindSpecies("glucose")
	if glucose == nil {
		t.Fatalf("glucose species missing")
	}
	if glucose.Compartment != "cytosol" || !glucose.BoundaryCondition {
		t.Fatalf("unexpected glucose attributes: %+v", glucose)
	}
	if glucose.InitialAmount == nil || *glucose.InitialAmount != 10 {
		t.Fatalf("unexpected initial amount: %v", glucose.InitialAmount)
	}

	if !glucose.IsAnnotationSet() {
		t.Fatalf("glucose annotation was not captured")
	}

	r := m.FindReaction("phosphorylation")
	if r == nil || len(r.Reactants) != 1 || len(r.Products) != 1 {
		t.Fatalf("reaction not parsed: %+v", r)
	}
	if r.Reactants[0].Species != "glucose" || r.Products[0].Species != "g6p" {
		t.Fatalf("unexpected reaction participants")
	}
}

type myAnnotation struct {
	XMLNS string
	Key   string
	Value int
}

func (a *myAnnotation) AnnotationSchema() annotation.Schema {
	return annotation.Schema{
		Tag: "myannotation",
		Fields: []annotation.Field{
			annotation.Namespace(&a.XMLNS),
			annotation.StringChild("key", &a.Key),
			annotation.IntChild("value", &a.Value),
		},
	}
}

func TestTypedReadFromParsedDocument(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	doc, err := ReadFrom(strings.NewReader(sampleSBML), log)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	var out myAnnotation
	if err := annotation.Read(annotation.Wrap(doc.Model.FindSpecies("glucose").Base()), &out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.Key != "test" || out.Value != 1 || out.XMLNS != "http://my.namespace.com" {
		t.Fatalf("unexpected annotation: %+v", out)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	doc := NewDocument(3, 2)
	model := doc.CreateModel("roundtrip")
	model.AddCompartment("cytosol").Name = "cytosol"
	glucose := model.AddSpecies("glucose")
	glucose.Compartment = "cytosol"
	amount := 10.0
	glucose.InitialAmount = &amount
	glucose.BoundaryCondition = true

	in := &myAnnotation{XMLNS: "http://my.namespace.com", Key: "test", Value: 1}
	if err := annotation.Attach(annotation.Wrap(glucose.Base()), in); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteTo(&buf, log); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	again, err := ReadFrom(bytes.NewReader(buf.Bytes()), log)
	if err != nil {
		t.Fatalf("ReadFrom after write: %v", err)
	}

	species := again.Model.FindSpecies("glucose")
	if species == nil {
		t.Fatalf("species lost in round trip")
	}
	if species.InitialAmount == nil || *species.InitialAmount != 10 {
		t.Fatalf("initial amount lost in round trip")
	}

	var out myAnnotation
	if err := annotation.Read(annotation.Wrap(species.Base()), &out); err != nil {
		t.Fatalf("Read after round trip: %v", err)
	}
	if out.Key != in.Key || out.Value != in.Value || out.XMLNS != in.XMLNS {
		t.Fatalf("annotation mismatch after round trip: %+v", out)
	}
}

func TestWriteFailsOnStoredMalformedAnnotation(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	doc := NewDocument(3, 2)
	model := doc.CreateModel("bad")
	s := model.AddSpecies("x")
	if err := s.SetAnnotationString("<unterminated"); err != nil {
		t.Fatalf("SetAnnotationString: %v", err)
	}

	var buf bytes.Buffer
	err := doc.WriteTo(&buf, log)
	if err == nil {
		t.Fatalf("expected write to fail on malformed stored annotation")
	}
}

func TestNilElementAnnotationContract(t *testing.T) {
	var s *Species

	h := annotation.Wrap(s.Base())
	if h.Present() {
		t.Fatalf("nil species must produce an absent handle")
	}
	if _, ok := h.Raw(); ok {
		t.Fatalf("nil species must read as no annotation")
	}
	if err := h.SetRaw("<x/>"); err != nil {
		t.Fatalf("write through nil species must be a no-op, got %v", err)
	}
}

func TestEnsureMetaID(t *testing.T) {
	s := &Species{}
	first := s.EnsureMetaID()
	if first == "" || !strings.HasPrefix(first, "meta_") {
		t.Fatalf("unexpected metaid %q", first)
	}
	if again := s.EnsureMetaID(); again != first {
		t.Fatalf("EnsureMetaID must be stable, got %q then %q", first, again)
	}
	if strings.Contains(first, "-") {
		t.Fatalf("metaid must be an NCName, got %q", first)
	}
}
