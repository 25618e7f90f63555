// Package enrollapi is a client for the remote account, partner and device
// enrollment API.
package enrollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"youareloved-web/internal/model"
)

const maxResponseBytes = 1 << 20

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: base, httpClient: httpClient}, nil
}

// Host is the API host, used to restrict which links get QR codes.
func (c *Client) Host() string {
	return c.baseURL.Host
}

type RegisterRequest struct {
	Email     string
	FirstName string
	Password  string
}

type RegisterResult struct {
	Token string
}

type Account struct {
	Email     string
	FirstName string
	Partners  []model.Partner
}

type EnrollRequest struct {
	FirstName string
	Email     string
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	var resp registerResponse
	body := registerBody{Email: req.Email, FirstName: req.FirstName, Password: req.Password}
	if err := c.do(ctx, "register account", http.MethodPost, "/account/register", nil, body, &resp); err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Token: strings.TrimSpace(resp.Token)}, nil
}

func (c *Client) AccountByToken(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, errors.New("get account: missing token")
	}
	var resp accountResponse
	query := url.Values{"token": {token}}
	if err := c.do(ctx, "get account", http.MethodGet, "/account/me", query, nil, &resp); err != nil {
		return Account{}, err
	}
	return Account{
		Email:     strings.TrimSpace(string(resp.Email)),
		FirstName: strings.TrimSpace(string(resp.FirstName)),
		Partners:  resp.list(),
	}, nil
}

func (c *Client) ListPartners(ctx context.Context, email string) ([]model.Partner, error) {
	if email == "" {
		return nil, errors.New("list partners: missing email")
	}
	var resp partnersEnvelope
	query := url.Values{"email": {email}}
	if err := c.do(ctx, "list partners", http.MethodGet, "/account/partners", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.list(), nil
}

func (c *Client) CreatePartner(ctx context.Context, userEmail string, p model.Partner) error {
	body := createPartnerBody{
		UserEmail:       userEmail,
		PartnerName:     p.Name,
		PartnerTelegram: p.Telegram,
		PartnerEmail:    p.Email,
	}
	return c.do(ctx, "create partner", http.MethodPost, "/account/partners", nil, body, nil)
}

func (c *Client) Enroll(ctx context.Context, req EnrollRequest) (model.Enrollment, error) {
	var resp enrollResponse
	body := enrollBody{FirstName: req.FirstName, UserEmail: req.Email}
	if err := c.do(ctx, "enroll device", http.MethodPost, "/ios/enroll", nil, body, &resp); err != nil {
		return model.Enrollment{}, err
	}
	link := strings.TrimSpace(resp.DownloadURL)
	if link == "" {
		return model.Enrollment{}, fmt.Errorf("enroll device: %w: missing download_url", ErrDecode)
	}
	return model.Enrollment{DownloadURL: link, ExpiresIn: model.ProfileLinkLifetime}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode}
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("%s: %w: body too large", op, ErrDecode)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	return nil
}
