// Package netx wraps the HTTP calls made to archive and manifest servers.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/archiveloader/internal/common"
)

// BasicAuth carries credentials for protected downloads.
type BasicAuth struct {
	User     string
	Password string
}

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 512

// Get issues a GET bound to ctx. A non-200 response is drained, closed and
// reported as common.ErrUnexpectedStatus; otherwise the caller owns the body.
func Get(ctx context.Context, client *http.Client, url string, auth *BasicAuth) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if auth != nil {
		req.SetBasicAuth(auth.User, auth.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s; body: %s", common.ErrUnexpectedStatus, resp.Status, string(b))
	}
	return resp, nil
}
