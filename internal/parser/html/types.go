package html

import "strings"

// RegionType identifies the kind of CSS region found in HTML
type RegionType int

const (
	// UnknownRegion is the zero value, indicating an uninitialized region type
	UnknownRegion RegionType = iota
	// StyleTag represents CSS inside a <style> element
	StyleTag
	// StyleAttribute represents CSS inside a style="..." attribute
	StyleAttribute
)

// CSSRegion represents a region of CSS content found in an HTML document
type CSSRegion struct {
	Content   string
	StartLine uint
	StartCol  uint
	Type      RegionType
}

// Attribute is one attribute of a start tag. Name is lower-cased and Value
// has character references decoded.
type Attribute struct {
	Name  string
	Value string
	// HasValue is false for bare boolean attributes like nomodule
	HasValue bool
}

// Element is one element of a parsed document. Offsets are byte offsets into
// Document.Source; Parent is an index into Document.Elements, -1 at top level.
type Element struct {
	Tag    string
	Parent int
	Start  uint
	End    uint
	// CloseStart is where the end tag begins, or End when there is none
	CloseStart uint
	Attrs      []Attribute
	// Text is the raw body of script and style elements
	Text string
}

// Attr returns the value of the first attribute named name
func (e *Element) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the element carries the attribute at all
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Document is a flat, index-linked view of an HTML document. Elements are
// stored in document order.
type Document struct {
	Source   string
	Elements []Element
}

// Find returns the indexes of all elements with the given tag, in document order
func (d *Document) Find(tag string) []int {
	var found []int
	for i := range d.Elements {
		if d.Elements[i].Tag == tag {
			found = append(found, i)
		}
	}
	return found
}

// First returns the index of the first element with the given tag, or -1
func (d *Document) First(tag string) int {
	for i := range d.Elements {
		if d.Elements[i].Tag == tag {
			return i
		}
	}
	return -1
}

// Children returns the indexes of direct children of parent with the given tag
func (d *Document) Children(parent int, tag string) []int {
	var found []int
	for i := range d.Elements {
		if d.Elements[i].Parent == parent && d.Elements[i].Tag == tag {
			found = append(found, i)
		}
	}
	return found
}
