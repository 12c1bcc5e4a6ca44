package main

import (
	"fmt"
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetHeader("Content-Type", "application/json")
}

func runStore(apiURL, tenant, user, content, role string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]interface{}{"content": content, "role": role}).
		Post(fmt.Sprintf("/api/tenants/%s/users/%s/turns", url.PathEscape(tenant), url.PathEscape(user)))
	return writeResponse(resp, err, out)
}

func runRetrieve(apiURL, tenant, user, query string, limit int, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]interface{}{"query": query, "limit": limit}).
		Post(fmt.Sprintf("/api/tenants/%s/users/%s/retrieve", url.PathEscape(tenant), url.PathEscape(user)))
	return writeResponse(resp, err, out)
}

func runHistory(apiURL, tenant, user, window string, includeExpired bool, out io.Writer) error {
	req := newClient(apiURL).R().SetQueryParam("window", window)
	if includeExpired {
		req.SetQueryParam("includeExpired", "true")
	}
	resp, err := req.Get(fmt.Sprintf("/api/tenants/%s/users/%s/history", url.PathEscape(tenant), url.PathEscape(user)))
	return writeResponse(resp, err, out)
}

func runSweep(apiURL, tenant string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		Post(fmt.Sprintf("/api/tenants/%s/sweep", url.PathEscape(tenant)))
	return writeResponse(resp, err, out)
}

func runSweeps(apiURL, tenant string, limit int, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get(fmt.Sprintf("/api/tenants/%s/sweeps", url.PathEscape(tenant)))
	return writeResponse(resp, err, out)
}

func writeResponse(resp *resty.Response, err error, out io.Writer) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, werr := fmt.Fprintln(out, resp.String())
	return werr
}
