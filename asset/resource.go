package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// A Resource wraps a local file or a remote stream.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the file name of this resource without any leading path.
func (r *Resource) Name() string {
	return filepath.Base(r.url.Path)
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. Equivalent to NewResourceContext with a background context.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	return NewResourceContext(context.Background(), pathToResource, relTo)
}

// Open a resource stream. If relTo is specified and pathToResource does not
// define a scheme, then the path to the new Resource is resolved relative to
// the directory of relTo.
//
// Remote http/https resources are fetched with a request bound to ctx. The
// caller must close the returned Resource.
func NewResourceContext(ctx context.Context, pathToResource string, relTo *Resource) (*Resource, error) {
	u, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, err
	}

	if u.Scheme == "" && relTo != nil {
		u, err = resolveRelative(u.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch u.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(u.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		reader, err = fetch(ctx, u)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", u.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        u,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	u, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        u,
	}
}

func resolveRelative(path string, relTo *Resource) (*url.URL, error) {
	u, _ := url.Parse(relTo.url.String())
	prefix := u.Path
	if u.Scheme == "" {
		var err error
		prefix, err = filepath.Abs(relTo.url.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo.url.String(), err.Error())
		}
	}
	u.Path = filepath.Dir(prefix) + "/" + path
	return u, nil
}

func fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", u.String(), err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", u.String(), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", u.String(), resp.StatusCode)
	}
	return resp.Body, nil
}
