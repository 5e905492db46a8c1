// Package client talks to the experts/bookings REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/expertbooking/internal/domain"
)

const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListExperts(ctx context.Context, filter domain.ExpertFilter) (*domain.ExpertPage, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}

	var page domain.ExpertPage
	if err := c.do(ctx, http.MethodGet, "/experts", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetExpert(ctx context.Context, expertID string) (*domain.ExpertDetail, error) {
	var detail domain.ExpertDetail
	if err := c.do(ctx, http.MethodGet, "/experts/"+url.PathEscape(expertID), nil, nil, &detail); err != nil {
		return nil, err
	}
	if detail.SlotsByDate == nil {
		detail.SlotsByDate = map[string][]domain.Slot{}
	}
	return &detail, nil
}

func (c *Client) CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	var resp struct {
		Booking *domain.Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/bookings", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Booking == nil {
		return nil, errors.New("api returned no booking")
	}
	return resp.Booking, nil
}

func (c *Client) ListBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	var resp struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	q := url.Values{"email": []string{email}}
	if err := c.do(ctx, http.MethodGet, "/bookings", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bookings, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) (*domain.Booking, error) {
	body := map[string]domain.BookingStatus{"status": status}
	var booking domain.Booking
	if err := c.do(ctx, http.MethodPatch, "/bookings/"+url.PathEscape(bookingID)+"/status", nil, body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
