package client

import (
	"context"
	"io"
	"net/http"
)

type ctxKey int

// retriedKey marks a request that has already been resent after a token
// refresh. The marker lives on the request context, so concurrent requests
// cannot see each other's retry state.
const retriedKey ctxKey = iota

// authTransport attaches the bearer token to outgoing requests and, on an
// unauthorized response, performs at most one token refresh followed by at
// most one resend of the original request.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.client.accessToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Already retried once: the failure is terminal.
	if req.Context().Value(retriedKey) != nil {
		return resp, nil
	}

	// A request whose body cannot be replayed cannot be retried.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	newToken, refreshErr := t.client.refreshAccess(req.Context(), token)
	if refreshErr != nil {
		// refreshAccess already cleared the session; surface the
		// original unauthorized response to the caller.
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()

	retry := req.Clone(context.WithValue(req.Context(), retriedKey, struct{}{}))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+newToken)

	return t.base.RoundTrip(retry)
}
