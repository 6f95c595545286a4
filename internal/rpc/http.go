package rpc

import (
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// readBody returns the decompressed response body, failing on any status
// other than 200.
func readBody(source string, resp *http.Response) ([]byte, error) {
	var (
		reader io.ReadCloser
		err    error
	)

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
	case "deflate":
		reader, err = zlib.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s: %s body", source, resp.Header.Get("Content-Encoding"))
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read body", source)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("%s: received http status %d: %s", source, resp.StatusCode, string(body))
	}

	return body, nil
}
