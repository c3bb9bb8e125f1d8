package dlupxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Decode parses a DlupAnnotations document. It returns *VersionError for
// an unsupported version attribute and *FormatError for any schema
// violation; in both cases no partial document is returned.
func Decode(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)

	root, err := nextStart(d)
	if err != nil {
		return nil, &FormatError{Element: RootName, Constraint: "document has no root element", Offset: -1}
	}
	if root.Name.Local != RootName {
		return nil, &FormatError{
			Element:    root.Name.Local,
			Constraint: fmt.Sprintf("root element must be <%s>", RootName),
			Offset:     d.InputOffset(),
		}
	}
	version := ""
	for _, a := range root.Attr {
		if a.Name.Local == "version" {
			version = a.Value
		}
	}
	if version == "" {
		return nil, &FormatError{Element: RootName, Constraint: `missing required "version" attribute`, Offset: d.InputOffset()}
	}
	if version != FormatVersion {
		return nil, &VersionError{Got: version, Want: FormatVersion}
	}

	doc := &Document{Version: version}

	// Children appear in a fixed sequence: Metadata, Tags?, Geometries,
	// RegionsOfInterest?.
	stages := map[string]int{"Metadata": 0, "Tags": 1, "Geometries": 2, "RegionsOfInterest": 3}
	stage := -1
	seenMetadata, seenGeometries := false, false

	for {
		se, end, err := nextChild(d, RootName)
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		want, known := stages[se.Name.Local]
		if !known {
			return nil, &FormatError{
				Element:    se.Name.Local,
				Constraint: fmt.Sprintf("unexpected element under <%s>", RootName),
				Offset:     d.InputOffset(),
			}
		}
		if want <= stage {
			return nil, &FormatError{
				Element:    se.Name.Local,
				Constraint: "element repeated or out of order",
				Offset:     d.InputOffset(),
			}
		}
		stage = want

		switch se.Name.Local {
		case "Metadata":
			if err := decodeMetadata(d, se, &doc.Metadata); err != nil {
				return nil, err
			}
			seenMetadata = true
		case "Tags":
			if err := decodeTags(d, se, doc); err != nil {
				return nil, err
			}
		case "Geometries":
			if err := decodeGeometries(d, se, doc); err != nil {
				return nil, err
			}
			seenGeometries = true
		case "RegionsOfInterest":
			if err := decodeROIs(d, se, doc); err != nil {
				return nil, err
			}
		}
	}

	if !seenMetadata {
		return nil, &FormatError{Element: "Metadata", Constraint: "required element missing", Offset: -1}
	}
	if !seenGeometries {
		return nil, &FormatError{Element: "Geometries", Constraint: "required element missing", Offset: -1}
	}
	return doc, nil
}

func decodeMetadata(d *xml.Decoder, se xml.StartElement, out *Metadata) error {
	if len(se.Attr) != 0 {
		return &FormatError{
			Element:    "Metadata",
			Constraint: fmt.Sprintf("unexpected attribute %q", se.Attr[0].Name.Local),
			Offset:     d.InputOffset(),
		}
	}
	for {
		child, end, err := nextChild(d, "Metadata")
		if err != nil {
			return err
		}
		if end {
			break
		}
		switch child.Name.Local {
		case "ImageID":
			out.ImageID, err = textContent(d, child)
		case "Description":
			out.Description, err = textContent(d, child)
		case "Version":
			out.Version, err = textContent(d, child)
		case "Authors":
			err = decodeAuthors(d, out)
		case "DateCreated":
			out.DateCreated, err = textContent(d, child)
		case "Software":
			out.Software, err = textContent(d, child)
		default:
			return &FormatError{
				Element:    child.Name.Local,
				Constraint: "unexpected element under <Metadata>",
				Offset:     d.InputOffset(),
			}
		}
		if err != nil {
			return err
		}
	}
	for name, v := range map[string]string{
		"ImageID": out.ImageID, "Version": out.Version,
		"DateCreated": out.DateCreated, "Software": out.Software,
	} {
		if v == "" {
			return &FormatError{Element: name, Constraint: "required metadata element missing or empty", Offset: d.InputOffset()}
		}
	}
	if !ValidDate(out.DateCreated) {
		return &FormatError{
			Element:    "DateCreated",
			Constraint: fmt.Sprintf("%q is not an ISO date (YYYY-MM-DD)", out.DateCreated),
			Offset:     d.InputOffset(),
		}
	}
	return nil
}

func decodeAuthors(d *xml.Decoder, out *Metadata) error {
	for {
		child, end, err := nextChild(d, "Authors")
		if err != nil {
			return err
		}
		if end {
			return nil
		}
		if child.Name.Local != "Author" {
			return &FormatError{
				Element:    child.Name.Local,
				Constraint: "Authors may only contain <Author> entries",
				Offset:     d.InputOffset(),
			}
		}
		author, err := textContent(d, child)
		if err != nil {
			return err
		}
		out.Authors = append(out.Authors, author)
	}
}

// textContent consumes a leaf element up to its closing tag and returns
// the trimmed character data. Attributes and child elements are schema
// violations.
func textContent(d *xml.Decoder, se xml.StartElement) (string, error) {
	if len(se.Attr) != 0 {
		return "", &FormatError{
			Element:    se.Name.Local,
			Constraint: fmt.Sprintf("unexpected attribute %q", se.Attr[0].Name.Local),
			Offset:     d.InputOffset(),
		}
	}
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return "", &FormatError{
				Element:    se.Name.Local,
				Constraint: "unexpected end of document: " + err.Error(),
				Offset:     d.InputOffset(),
			}
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return strings.TrimSpace(sb.String()), nil
		case xml.StartElement:
			return "", &FormatError{
				Element:    t.Name.Local,
				Constraint: fmt.Sprintf("<%s> does not allow child elements", se.Name.Local),
				Offset:     d.InputOffset(),
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			// ignored
		}
	}
}

func decodeTags(d *xml.Decoder, se xml.StartElement, doc *Document) error {
	var raw struct {
		Tag []struct {
			Label      string `xml:"label,attr"`
			Color      string `xml:"color,attr"`
			Attributes []struct {
				Color string `xml:"color,attr"`
				Text  string `xml:",chardata"`
			} `xml:"Attribute"`
		} `xml:"Tag"`
	}
	if err := d.DecodeElement(&raw, &se); err != nil {
		return &FormatError{Element: "Tags", Constraint: err.Error(), Offset: d.InputOffset()}
	}
	for _, t := range raw.Tag {
		if t.Label == "" {
			return &FormatError{Element: "Tag", Constraint: `missing required "label" attribute`, Offset: d.InputOffset()}
		}
		if t.Color != "" && !ValidColor(t.Color) {
			return &FormatError{
				Element:    "Tag",
				Constraint: fmt.Sprintf(`color %q does not match "#RRGGBB"`, t.Color),
				Offset:     d.InputOffset(),
			}
		}
		tag := Tag{Label: t.Label, Color: t.Color}
		for _, attr := range t.Attributes {
			if attr.Color != "" && !ValidColor(attr.Color) {
				return &FormatError{
					Element:    "Attribute",
					Constraint: fmt.Sprintf(`color %q does not match "#RRGGBB"`, attr.Color),
					Offset:     d.InputOffset(),
				}
			}
			tag.Attributes = append(tag.Attributes, TagAttribute{
				Color: attr.Color,
				Text:  strings.TrimSpace(attr.Text),
			})
		}
		doc.Tags = append(doc.Tags, tag)
	}
	return nil
}

// geometry element constraints per container.
type elementRules struct {
	container    string
	allowPoints  bool // standalone Point/MultiPoint entries allowed
	requireOrder bool // order required on areal kinds
	forbidColor  bool
}

var geometryRules = elementRules{container: "Geometries", allowPoints: true, requireOrder: true}
var roiRules = elementRules{container: "RegionsOfInterest", allowPoints: false, requireOrder: true, forbidColor: true}

func decodeGeometries(d *xml.Decoder, se xml.StartElement, doc *Document) error {
	elems, err := decodeElementList(d, geometryRules)
	if err != nil {
		return err
	}
	doc.Geometries = elems
	return nil
}

func decodeROIs(d *xml.Decoder, se xml.StartElement, doc *Document) error {
	elems, err := decodeElementList(d, roiRules)
	if err != nil {
		return err
	}
	doc.RegionsOfInterest = elems
	return nil
}

func decodeElementList(d *xml.Decoder, rules elementRules) ([]Element, error) {
	var elems []Element
	for {
		se, end, err := nextChild(d, rules.container)
		if err != nil {
			return nil, err
		}
		if end {
			return elems, nil
		}
		elem, err := decodeElement(d, se, rules)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
}

func decodeElement(d *xml.Decoder, se xml.StartElement, rules elementRules) (Element, error) {
	kind := se.Name.Local
	offset := d.InputOffset()
	fail := func(constraint string) (Element, error) {
		return Element{}, &FormatError{Element: kind, Constraint: constraint, Offset: offset}
	}

	switch kind {
	case "Point", "MultiPoint":
		if !rules.allowPoints {
			return fail(fmt.Sprintf("not allowed under <%s>", rules.container))
		}
	case "Polygon", "MultiPolygon", "Box":
		// allowed everywhere
	default:
		return fail("unknown geometry kind")
	}

	elem := Element{Kind: kind, Offset: offset}
	areal := kind == "Polygon" || kind == "MultiPolygon" || kind == "Box"

	for _, a := range se.Attr {
		val := a.Value
		switch a.Name.Local {
		case "label":
			elem.Label = val
		case "color":
			if rules.forbidColor {
				return fail(fmt.Sprintf(`"color" attribute not allowed under <%s>`, rules.container))
			}
			if !ValidColor(val) {
				return fail(fmt.Sprintf(`color %q does not match "#RRGGBB"`, val))
			}
			elem.Color = val
		case "index":
			elem.Index = val
		case "order":
			if !areal {
				return fail(`"order" attribute not allowed on free-floating point entries`)
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return fail(fmt.Sprintf("order %q is not an integer", val))
			}
			elem.Order = n
			elem.HasOrder = true
		case "x", "y":
			if kind != "Point" {
				return fail(fmt.Sprintf("unexpected attribute %q", a.Name.Local))
			}
			f, err := parseCoord(val)
			if err != nil {
				return fail(fmt.Sprintf("attribute %q: %v", a.Name.Local, err))
			}
			if a.Name.Local == "x" {
				elem.X = f
			} else {
				elem.Y = f
			}
		case "xMin", "yMin", "xMax", "yMax":
			if kind != "Box" {
				return fail(fmt.Sprintf("unexpected attribute %q", a.Name.Local))
			}
			f, err := parseCoord(val)
			if err != nil {
				return fail(fmt.Sprintf("attribute %q: %v", a.Name.Local, err))
			}
			switch a.Name.Local {
			case "xMin":
				elem.XMin = f
			case "yMin":
				elem.YMin = f
			case "xMax":
				elem.XMax = f
			case "yMax":
				elem.YMax = f
			}
		default:
			return fail(fmt.Sprintf("unexpected attribute %q", a.Name.Local))
		}
	}

	if elem.Label == "" {
		return fail(`missing required "label" attribute`)
	}
	if areal && rules.requireOrder && !elem.HasOrder {
		return fail(`missing required "order" attribute`)
	}

	switch kind {
	case "Point", "Box":
		if err := expectNoChildren(d, kind); err != nil {
			return Element{}, err
		}
	case "MultiPoint":
		pts, err := decodeRing(d, kind)
		if err != nil {
			return Element{}, err
		}
		elem.Points = pts
	case "Polygon":
		data, err := decodePolygonBody(d, kind)
		if err != nil {
			return Element{}, err
		}
		elem.Exterior, elem.Interiors = data.Exterior, data.Interiors
	case "MultiPolygon":
		for {
			child, end, err := nextChild(d, kind)
			if err != nil {
				return Element{}, err
			}
			if end {
				break
			}
			if child.Name.Local != "Polygon" {
				return Element{}, &FormatError{
					Element:    child.Name.Local,
					Constraint: "MultiPolygon may only contain <Polygon> parts",
					Offset:     d.InputOffset(),
				}
			}
			if len(child.Attr) != 0 {
				return Element{}, &FormatError{
					Element:    "Polygon",
					Constraint: "MultiPolygon parts carry no attributes",
					Offset:     d.InputOffset(),
				}
			}
			part, err := decodePolygonBody(d, "Polygon")
			if err != nil {
				return Element{}, err
			}
			elem.Parts = append(elem.Parts, part)
		}
	}
	return elem, nil
}

// decodePolygonBody reads <Exterior> and optional <Interiors> up to the
// closing tag of the surrounding polygon element.
func decodePolygonBody(d *xml.Decoder, outer string) (PolygonData, error) {
	var data PolygonData
	seenExterior := false
	for {
		se, end, err := nextChild(d, outer)
		if err != nil {
			return PolygonData{}, err
		}
		if end {
			break
		}
		switch se.Name.Local {
		case "Exterior":
			if seenExterior {
				return PolygonData{}, &FormatError{Element: "Exterior", Constraint: "repeated element", Offset: d.InputOffset()}
			}
			ring, err := decodeRing(d, "Exterior")
			if err != nil {
				return PolygonData{}, err
			}
			data.Exterior = ring
			seenExterior = true
		case "Interiors":
			for {
				inner, end, err := nextChild(d, "Interiors")
				if err != nil {
					return PolygonData{}, err
				}
				if end {
					break
				}
				if inner.Name.Local != "Interior" {
					return PolygonData{}, &FormatError{
						Element:    inner.Name.Local,
						Constraint: "Interiors may only contain <Interior> rings",
						Offset:     d.InputOffset(),
					}
				}
				ring, err := decodeRing(d, "Interior")
				if err != nil {
					return PolygonData{}, err
				}
				data.Interiors = append(data.Interiors, ring)
			}
		default:
			return PolygonData{}, &FormatError{
				Element:    se.Name.Local,
				Constraint: fmt.Sprintf("unexpected element under <%s>", outer),
				Offset:     d.InputOffset(),
			}
		}
	}
	if !seenExterior {
		return PolygonData{}, &FormatError{Element: outer, Constraint: "missing required <Exterior> ring", Offset: -1}
	}
	return data, nil
}

// decodeRing reads a sequence of <Point x=".." y=".."/> children.
func decodeRing(d *xml.Decoder, outer string) ([][2]float64, error) {
	var pts [][2]float64
	for {
		se, end, err := nextChild(d, outer)
		if err != nil {
			return nil, err
		}
		if end {
			return pts, nil
		}
		if se.Name.Local != "Point" {
			return nil, &FormatError{
				Element:    se.Name.Local,
				Constraint: fmt.Sprintf("<%s> may only contain <Point> vertices", outer),
				Offset:     d.InputOffset(),
			}
		}
		var x, y float64
		var hasX, hasY bool
		for _, a := range se.Attr {
			f, err := parseCoord(a.Value)
			if err != nil {
				return nil, &FormatError{
					Element:    "Point",
					Constraint: fmt.Sprintf("attribute %q: %v", a.Name.Local, err),
					Offset:     d.InputOffset(),
				}
			}
			switch a.Name.Local {
			case "x":
				x, hasX = f, true
			case "y":
				y, hasY = f, true
			default:
				return nil, &FormatError{
					Element:    "Point",
					Constraint: fmt.Sprintf("unexpected attribute %q", a.Name.Local),
					Offset:     d.InputOffset(),
				}
			}
		}
		if !hasX || !hasY {
			return nil, &FormatError{
				Element:    "Point",
				Constraint: `missing required "x"/"y" attributes`,
				Offset:     d.InputOffset(),
			}
		}
		if err := expectNoChildren(d, "Point"); err != nil {
			return nil, err
		}
		pts = append(pts, [2]float64{x, y})
	}
}

func parseCoord(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

// nextStart skips prolog tokens and returns the first start element.
func nextStart(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// nextChild returns the next child start element of the current element,
// or end=true at the closing tag. Whitespace and comments are skipped;
// anything else is a schema violation.
func nextChild(d *xml.Decoder, parent string) (se xml.StartElement, end bool, err error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return xml.StartElement{}, false, &FormatError{
				Element:    parent,
				Constraint: "unexpected end of document: " + err.Error(),
				Offset:     d.InputOffset(),
			}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, false, nil
		case xml.EndElement:
			return xml.StartElement{}, true, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return xml.StartElement{}, false, &FormatError{
					Element:    parent,
					Constraint: "unexpected character data",
					Offset:     d.InputOffset(),
				}
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			// ignored
		}
	}
}

// expectNoChildren consumes up to the closing tag, rejecting any child
// element.
func expectNoChildren(d *xml.Decoder, name string) error {
	se, end, err := nextChild(d, name)
	if err != nil {
		return err
	}
	if !end {
		return &FormatError{
			Element:    se.Name.Local,
			Constraint: fmt.Sprintf("<%s> does not allow child elements", name),
			Offset:     d.InputOffset(),
		}
	}
	return nil
}
