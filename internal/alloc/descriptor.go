package alloc

import "encoding/xml"

// Descriptor is the parsed form of an element XML descriptor (§6): a
// type tag plus an attribute bag an Allocator reads to size the
// statistics object it constructs. Attribute access goes through
// Require/Optional rather than direct map indexing so every allocator
// reports a uniform, named error on a missing required attribute (§4.2:
// "a missing required attribute fails the construction with a logged
// error").
type Descriptor struct {
	Type  string
	Name  string
	Title string
	attrs map[string]string
}

// ParseDescriptor reads a Descriptor out of a <monitorElement ...>
// (or <qtest ...>) XML element's attributes.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var raw struct {
		XMLName xml.Name   `xml:""`
		Attrs   []xml.Attr `xml:",any,attr"`
	}
	if err := xml.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{attrs: make(map[string]string, len(raw.Attrs))}
	for _, a := range raw.Attrs {
		d.attrs[a.Name.Local] = a.Value
	}
	d.Type = d.attrs["type"]
	d.Name = d.attrs["name"]
	d.Title = d.attrs["title"]
	return d, nil
}

// NewDescriptor builds a Descriptor programmatically (the counterpart
// to the XML-driven path, used by book<T> callers that already have
// the attributes in hand).
func NewDescriptor(typeTag, name, title string, attrs map[string]string) Descriptor {
	d := Descriptor{Type: typeTag, Name: name, Title: title, attrs: make(map[string]string, len(attrs))}
	for k, v := range attrs {
		d.attrs[k] = v
	}
	if typeTag != "" {
		d.attrs["type"] = typeTag
	}
	if name != "" {
		d.attrs["name"] = name
	}
	if title != "" {
		d.attrs["title"] = title
	}
	return d
}

// Attr returns the raw string value of a named attribute.
func (d Descriptor) Attr(name string) (string, bool) {
	v, ok := d.attrs[name]
	return v, ok
}
