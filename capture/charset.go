package capture

import (
	"mime"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// encodingFor resolves the charset parameter of a Content-Type header to an
// encoding. Missing or unrecognized charsets fall back to UTF-8 (nil).
func encodingFor(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	name, ok := params["charset"]
	if !ok {
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}
