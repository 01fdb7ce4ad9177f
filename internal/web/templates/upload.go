package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// UploadPage is the landing page with the multipart upload form.
func UploadPage(maxFiles int, maxFileSize int64) templ.Component {
	return Layout("Data Sweeper", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<section class="card"><h1>Data Sweeper</h1>`)
		p.raw(`<p>Upload CSV or Excel files to preview, clean, reshape and convert them.</p>`)
		p.render(ctx, uploadForm("/upload", "Upload"))
		p.rawf(`<p class="hint">Up to %d files, %s each.</p>`, maxFiles, attr(formatBytes(maxFileSize)))
		p.raw(`</section>`)
		return p.err
	}))
}

// uploadForm posts one or more files under the "files" field to action.
func uploadForm(action, label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.rawf(`<form class="upload" method="post" action="%s" enctype="multipart/form-data">`, attr(action))
		p.raw(`<input type="file" name="files" accept=".csv,.xlsx" multiple required>`)
		p.rawf(`<button type="submit">%s</button></form>`, attr(label))
		return p.err
	})
}
