package dlupxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// Encode serializes a Document. Geometry entries are written in slice
// order, coordinates with shortest exact float formatting so a reload
// parses back identical values.
func Encode(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: RootName},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: doc.Version}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	if err := encodeMetadata(enc, &doc.Metadata); err != nil {
		return err
	}
	if len(doc.Tags) > 0 {
		if err := encodeTags(enc, doc.Tags); err != nil {
			return err
		}
	}
	if err := encodeElements(enc, "Geometries", doc.Geometries); err != nil {
		return err
	}
	if len(doc.RegionsOfInterest) > 0 {
		if err := encodeElements(enc, "RegionsOfInterest", doc.RegionsOfInterest); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeMetadata(enc *xml.Encoder, m *Metadata) error {
	type authorsXML struct {
		Author []string `xml:"Author"`
	}
	raw := struct {
		XMLName     xml.Name    `xml:"Metadata"`
		ImageID     string      `xml:"ImageID"`
		Description string      `xml:"Description,omitempty"`
		Version     string      `xml:"Version"`
		Authors     *authorsXML `xml:"Authors"`
		DateCreated string      `xml:"DateCreated"`
		Software    string      `xml:"Software"`
	}{
		ImageID:     m.ImageID,
		Description: m.Description,
		Version:     m.Version,
		DateCreated: m.DateCreated,
		Software:    m.Software,
	}
	if len(m.Authors) > 0 {
		raw.Authors = &authorsXML{Author: m.Authors}
	}
	return enc.Encode(raw)
}

func encodeTags(enc *xml.Encoder, tags []Tag) error {
	type attributeXML struct {
		Color string `xml:"color,attr,omitempty"`
		Text  string `xml:",chardata"`
	}
	type tagXML struct {
		Label      string         `xml:"label,attr"`
		Color      string         `xml:"color,attr,omitempty"`
		Attributes []attributeXML `xml:"Attribute"`
	}
	raw := struct {
		XMLName xml.Name `xml:"Tags"`
		Tag     []tagXML `xml:"Tag"`
	}{}
	for _, t := range tags {
		tx := tagXML{Label: t.Label, Color: t.Color}
		for _, a := range t.Attributes {
			tx.Attributes = append(tx.Attributes, attributeXML{Color: a.Color, Text: a.Text})
		}
		raw.Tag = append(raw.Tag, tx)
	}
	return enc.Encode(raw)
}

func encodeElements(enc *xml.Encoder, container string, elems []Element) error {
	start := xml.StartElement{Name: xml.Name{Local: container}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for i := range elems {
		if err := encodeElement(enc, &elems[i]); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

type vertexXML struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

type ringXML struct {
	Point []vertexXML `xml:"Point"`
}

type interiorsXML struct {
	Interior []ringXML `xml:"Interior"`
}

type polygonBodyXML struct {
	Exterior  ringXML       `xml:"Exterior"`
	Interiors *interiorsXML `xml:"Interiors"`
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	attrs := metadataAttrs(e)
	name := xml.Name{Local: e.Kind}

	switch e.Kind {
	case "Point":
		attrs = append(attrs,
			coordAttr("x", e.X), coordAttr("y", e.Y))
		return enc.EncodeElement(struct{}{}, xml.StartElement{Name: name, Attr: attrs})
	case "MultiPoint":
		raw := struct {
			Point []vertexXML `xml:"Point"`
		}{Point: vertices(e.Points)}
		return enc.EncodeElement(raw, xml.StartElement{Name: name, Attr: attrs})
	case "Polygon":
		return enc.EncodeElement(polygonBody(e.Exterior, e.Interiors), xml.StartElement{Name: name, Attr: attrs})
	case "MultiPolygon":
		raw := struct {
			Polygon []polygonBodyXML `xml:"Polygon"`
		}{}
		for _, part := range e.Parts {
			raw.Polygon = append(raw.Polygon, polygonBody(part.Exterior, part.Interiors))
		}
		return enc.EncodeElement(raw, xml.StartElement{Name: name, Attr: attrs})
	case "Box":
		attrs = append(attrs,
			coordAttr("xMin", e.XMin), coordAttr("yMin", e.YMin),
			coordAttr("xMax", e.XMax), coordAttr("yMax", e.YMax))
		return enc.EncodeElement(struct{}{}, xml.StartElement{Name: name, Attr: attrs})
	}
	return fmt.Errorf("dlupxml: unknown element kind %q", e.Kind)
}

func metadataAttrs(e *Element) []xml.Attr {
	attrs := []xml.Attr{{Name: xml.Name{Local: "label"}, Value: e.Label}}
	if e.Color != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "color"}, Value: e.Color})
	}
	if e.Index != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "index"}, Value: e.Index})
	}
	if e.HasOrder {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "order"}, Value: strconv.Itoa(e.Order)})
	}
	return attrs
}

func polygonBody(exterior [][2]float64, interiors [][][2]float64) polygonBodyXML {
	body := polygonBodyXML{Exterior: ringXML{Point: vertices(exterior)}}
	if len(interiors) > 0 {
		body.Interiors = &interiorsXML{}
		for _, hole := range interiors {
			body.Interiors.Interior = append(body.Interiors.Interior, ringXML{Point: vertices(hole)})
		}
	}
	return body
}

func vertices(pts [][2]float64) []vertexXML {
	out := make([]vertexXML, len(pts))
	for i, p := range pts {
		out[i] = vertexXML{X: formatCoord(p[0]), Y: formatCoord(p[1])}
	}
	return out
}

// formatCoord uses the shortest representation that re-parses to the
// exact same float64.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func coordAttr(name string, v float64) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: formatCoord(v)}
}
