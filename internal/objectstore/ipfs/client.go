// Package ipfs implements the objectstore contract over the kubo RPC API.
// Each call is a single HTTP request with a bounded timeout and no
// automatic retry; retry policy belongs to the caller, if anywhere.
package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/provenia/provenia/internal/objectstore"
)

// DefaultTimeout bounds every RPC call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for the kubo RPC API at endpoint, e.g.
// "http://127.0.0.1:5001".
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

// addResponse is the JSON body of /api/v0/add.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Add streams r to the node as one object. Pinning is separate: objects
// are added unpinned and pinned explicitly once the catalog is about to
// reference them.
func (c *Client) Add(ctx context.Context, r io.Reader, name string) (*objectstore.StoredObject, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/v0/add?pin=false&cid-version=1", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs add: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("add", resp)
	}

	var body addResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ipfs add: decoding response: %w", err)
	}
	if body.Hash == "" {
		return nil, fmt.Errorf("ipfs add: response carries no content id")
	}

	size, err := strconv.ParseInt(body.Size, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ipfs add: bad size %q: %w", body.Size, err)
	}

	return &objectstore.StoredObject{ContentID: body.Hash, SizeBytes: size}, nil
}

// Cat fetches the object bytes. The caller closes the returned reader.
func (c *Client) Cat(ctx context.Context, contentID string) (io.ReadCloser, error) {
	resp, err := c.post(ctx, "cat", contentID)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError("cat", resp)
	}
	return resp.Body, nil
}

// Pin marks the object as must-retain on the node.
func (c *Client) Pin(ctx context.Context, contentID string) error {
	return c.simpleCall(ctx, "pin/add", contentID)
}

// Unpin releases the pin, allowing the node to garbage-collect the bytes.
func (c *Client) Unpin(ctx context.Context, contentID string) error {
	return c.simpleCall(ctx, "pin/rm", contentID)
}

func (c *Client) simpleCall(ctx context.Context, method, contentID string) error {
	resp, err := c.post(ctx, method, contentID)
	if err != nil {
		return fmt.Errorf("ipfs %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(method, resp)
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, method, arg string) (*http.Response, error) {
	u := fmt.Sprintf("%s/api/v0/%s?arg=%s", c.endpoint, method, url.QueryEscape(arg))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func apiError(method string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("ipfs %s: node replied %d: %s", method, resp.StatusCode, msg)
}
