package document

import (
	"sort"

	"github.com/wudi/pdfstream/objects"
)

// nameTreeLeafMax caps how many entries a single node holds before the
// tree splits into intermediate Kids nodes.
const nameTreeLeafMax = 32

// nameTree collects string-keyed values for the catalog name dictionary
// (named destinations, scripts, embedded files). Keys serialize in sorted
// order as the file format requires; adding a key again replaces its value.
type nameTree struct {
	entries map[string]any
}

func newNameTree() *nameTree {
	return &nameTree{entries: map[string]any{}}
}

func (t *nameTree) add(name string, value any) {
	t.entries[name] = value
}

func (t *nameTree) len() int { return len(t.entries) }

// build produces the tree's root node. Small trees serialize as a single
// flat Names node; larger ones split into leaf objects with Limits under a
// Kids root.
func (t *nameTree) build(d *Document) objects.Dict {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) <= nameTreeLeafMax {
		return objects.Dict{"Names": t.flatten(keys)}
	}

	var kids objects.Array
	for start := 0; start < len(keys); start += nameTreeLeafMax {
		end := start + nameTreeLeafMax
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]
		kid := d.Ref()
		kid.Data = objects.Dict{
			"Limits": objects.Array{objects.Text(chunk[0]), objects.Text(chunk[len(chunk)-1])},
			"Names":  t.flatten(chunk),
		}
		kid.End()
		kids = append(kids, kid)
	}
	return objects.Dict{"Kids": kids}
}

func (t *nameTree) flatten(keys []string) objects.Array {
	flat := make(objects.Array, 0, len(keys)*2)
	for _, k := range keys {
		flat = append(flat, objects.Text(k), t.entries[k])
	}
	return flat
}
