package document

import (
	"crypto/md5"
	"time"

	"github.com/wudi/pdfstream/objects"
)

// FileOptions describes an attachment added with AttachFile.
type FileOptions struct {
	// MIMEType becomes the embedded file's subtype.
	MIMEType string
	// Description shows in viewers' attachment panels.
	Description  string
	CreationDate time.Time
	ModifiedDate time.Time
}

type attachmentKey struct {
	sum  [md5.Size]byte
	name string
}

// AttachFile embeds data as a file attachment named name. Attaching the
// same bytes under the same name again reuses the existing embedded stream.
func (d *Document) AttachFile(name string, data []byte, opts *FileOptions) *Document {
	if d.err != nil {
		return d
	}
	o := FileOptions{}
	if opts != nil {
		o = *opts
	}
	sum := md5.Sum(data)
	key := attachmentKey{sum: sum, name: name}
	fileRef, ok := d.attachmentRefs[key]
	if !ok {
		fileRef = d.Ref()
		params := objects.Dict{
			"Size":     len(data),
			"CheckSum": objects.String(sum[:]),
		}
		if !o.CreationDate.IsZero() {
			params["CreationDate"] = objects.Date(o.CreationDate)
		}
		if !o.ModifiedDate.IsZero() {
			params["ModDate"] = objects.Date(o.ModifiedDate)
		}
		fileRef.Data = objects.Dict{
			"Type":   objects.Name("EmbeddedFile"),
			"Params": params,
		}
		if o.MIMEType != "" {
			fileRef.Data["Subtype"] = objects.Name(o.MIMEType)
		}
		fileRef.Write(data)
		fileRef.End()
		d.attachmentRefs[key] = fileRef
	}

	filespec := d.Ref()
	filespec.Data = objects.Dict{
		"Type": objects.Name("Filespec"),
		"F":    objects.Text(name),
		"UF":   objects.Text(name),
		"EF":   objects.Dict{"F": fileRef},
	}
	if o.Description != "" {
		filespec.Data["Desc"] = objects.Text(o.Description)
	}
	filespec.End()
	d.embedded.add(name, filespec)
	return d
}
