package document

import "github.com/wudi/pdfstream/objects"

// Outline is a node in the document outline (the bookmark panel). Entries
// capture the page that was current when they were added; the whole tree
// serializes during End.
type Outline struct {
	doc      *Document
	page     *Page
	title    string
	expanded bool
	children []*Outline
	ref      *Reference
}

// Outline returns the root of the document outline. Children added to the
// root become top-level bookmarks.
func (d *Document) Outline() *Outline {
	if d.outlineRoot == nil {
		d.outlineRoot = &Outline{doc: d, expanded: true}
	}
	return d.outlineRoot
}

// Add appends a child entry titled title that jumps to the top of the
// current page. expanded controls whether the entry's own children show
// initially.
func (o *Outline) Add(title string, expanded bool) *Outline {
	child := &Outline{doc: o.doc, page: o.doc.page, title: title, expanded: expanded}
	o.children = append(o.children, child)
	return child
}

func (d *Document) endOutline() {
	root := d.outlineRoot
	if root == nil || len(root.children) == 0 {
		return
	}
	root.allocate()
	root.ref.Data = objects.Dict{
		"Type":  objects.Name("Outlines"),
		"First": root.children[0].ref,
		"Last":  root.children[len(root.children)-1].ref,
		"Count": root.count(),
	}
	root.endChildren(root.ref)
	root.ref.End()
	d.root.Data["Outlines"] = root.ref
}

func (o *Outline) allocate() {
	o.ref = o.doc.Ref()
	for _, c := range o.children {
		c.allocate()
	}
}

// count returns the visible descendant count: expanded nodes count their
// whole subtree, collapsed nodes only themselves.
func (o *Outline) count() int {
	n := len(o.children)
	for _, c := range o.children {
		if c.expanded {
			n += c.count()
		}
	}
	return n
}

func (o *Outline) endChildren(parent *Reference) {
	for i, c := range o.children {
		c.ref.Data = objects.Dict{
			"Title":  objects.Text(c.title),
			"Parent": parent,
		}
		if c.page != nil {
			c.ref.Data["Dest"] = objects.Array{c.page.dictionary, objects.Name("Fit")}
		}
		if i > 0 {
			c.ref.Data["Prev"] = o.children[i-1].ref
		}
		if i < len(o.children)-1 {
			c.ref.Data["Next"] = o.children[i+1].ref
		}
		if len(c.children) > 0 {
			c.ref.Data["First"] = c.children[0].ref
			c.ref.Data["Last"] = c.children[len(c.children)-1].ref
			n := c.count()
			if !c.expanded {
				n = -n
			}
			c.ref.Data["Count"] = n
			c.endChildren(c.ref)
		}
		c.ref.End()
	}
}
