package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type apiError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// client talks to the gateway with an optional bearer token.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type barber struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Bio       string `json:"bio,omitempty"`
}

type appointment struct {
	ID      string `json:"id"`
	Barber  string `json:"barber"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

type bookRequest struct {
	ServiceID string `json:"service_id"`
	BarberID  string `json:"barber_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

func (c *client) login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"email": email, "password": password}, &out)
	return out.AccessToken, err
}

func (c *client) slots(ctx context.Context, barberID, date string) ([]slot, error) {
	var out []slot
	err := c.do(ctx, http.MethodGet, "/api/v1/client/slots", url.Values{"barber_id": {barberID}, "date": {date}}, nil, &out)
	return out, err
}

func (c *client) book(ctx context.Context, req bookRequest) (appointment, error) {
	var out appointment
	err := c.do(ctx, http.MethodPost, "/api/v1/client/book", nil, req, &out)
	return out, err
}

func (c *client) barbers(ctx context.Context) ([]barber, error) {
	var out []barber
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/barbers", nil, nil, &out)
	return out, err
}

func (c *client) createBarber(ctx context.Context, b barber) (barber, error) {
	var out barber
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/barbers", nil, b, &out)
	return out, err
}

// seedBarbers creates every barber in seed whose name is not taken yet.
func (c *client) seedBarbers(ctx context.Context, seed []barber) ([]barber, error) {
	existing, err := c.barbers(ctx)
	if err != nil {
		return nil, err
	}
	taken := map[string]bool{}
	for _, b := range existing {
		taken[strings.ToLower(b.Name)] = true
	}
	var created []barber
	for _, b := range seed {
		if taken[strings.ToLower(b.Name)] {
			continue
		}
		out, err := c.createBarber(ctx, b)
		if err != nil {
			return created, fmt.Errorf("create %s: %w", b.Name, err)
		}
		created = append(created, out)
	}
	return created, nil
}
