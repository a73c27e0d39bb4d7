package client

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/adapters"
	"github.com/de-tools/turbo-critical/pkg/models/api"
	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

const (
	apiPrefix        = "/api/v3"
	nextCursorHeader = "X-Next-Cursor"
)

var ErrNotFound = errors.New("not found")

// Config represents client configuration
type Config struct {
	Target       string // host[:port] or full base URL
	Username     string
	Password     string
	EncodedCreds string
	Insecure     bool

	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
	// LoginTimeout bounds the total time spent retrying the login call
	LoginTimeout time.Duration
	PageSize     int
	Debug        bool
}

// DefaultConfig returns default client configuration
func DefaultConfig(target string) Config {
	return Config{
		Target:        target,
		Timeout:       60 * time.Second,
		RetryCount:    2,
		RetryWaitTime: 2 * time.Second,
		LoginTimeout:  30 * time.Second,
		PageSize:      500,
	}
}

// Client is a session against the Turbonomic REST API.
// Reads go through client, which retries failed requests. Login and group writes go
// through writer, which never retries, and both share the session cookie jar.
type Client struct {
	client *resty.Client
	writer *resty.Client
	config Config
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("target is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig(cfg.Target).PageSize
	}

	username, password, err := cfg.credentials()
	if err != nil {
		return nil, err
	}
	cfg.Username, cfg.Password = username, password

	writer := newRestyClient(cfg)
	client := newRestyClient(cfg).
		SetCookieJar(writer.GetClient().Jar).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime)

	return &Client{client: client, writer: writer, config: cfg}, nil
}

func newRestyClient(cfg Config) *resty.Client {
	client := resty.New().
		SetBaseURL(BaseURL(cfg.Target)).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetDebug(cfg.Debug)

	if cfg.Insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return client
}

// BaseURL turns a target host into the API root, keeping an explicit scheme when given
func BaseURL(target string) string {
	target = strings.TrimSuffix(target, "/")
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}
	return target + apiPrefix
}

func (c Config) credentials() (string, string, error) {
	if c.EncodedCreds == "" {
		if c.Username == "" {
			return "", "", fmt.Errorf("either username or encoded credentials must be provided")
		}
		return c.Username, c.Password, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(c.EncodedCreds)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode encoded credentials: %w", err)
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || username == "" {
		return "", "", fmt.Errorf("encoded credentials must have the form user:password")
	}
	return username, password, nil
}

// Login opens a session. Transport errors and 5xx responses are retried with exponential backoff.
func (c *Client) Login(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	op := func() error {
		resp, err := c.writer.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"username": c.config.Username,
				"password": c.config.Password,
			}).
			Post("/login")
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			logger.Warn().Err(err).Msg("login request failed, retrying")
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			logger.Warn().Int("status", resp.StatusCode()).Msg("login rejected by server, retrying")
			return responseError(resp)
		}
		if resp.IsError() {
			return backoff.Permanent(responseError(resp))
		}
		// the session cookie is kept by resty's cookie jar
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.config.LoginTimeout
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("failed to log in to %s as %s: %w", c.config.Target, c.config.Username, err)
	}

	logger.Debug().Str("target", c.config.Target).Str("user", c.config.Username).Msg("logged in")
	return nil
}

func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	dtos, err := fetchAll[api.GroupApiDTO](ctx, c, http.MethodGet, "/groups", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]domain.Group, 0, len(dtos))
	for _, dto := range dtos {
		groups = append(groups, adapters.MapApiGroupToDomainGroup(dto))
	}
	return groups, nil
}

// GetGroupByName returns the first group whose display name equals name, or ErrNotFound
func (c *Client) GetGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	dtos, err := fetchAll[api.GroupApiDTO](ctx, c, http.MethodGet, "/search", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{"types": "Group", "q": name})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search group %q: %w", name, err)
	}

	for _, dto := range dtos {
		if dto.DisplayName == name {
			group := adapters.MapApiGroupToDomainGroup(dto)
			return &group, nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
}

func (c *Client) GetEntity(ctx context.Context, uuid string) (*domain.Entity, error) {
	var dto api.ServiceEntityApiDTO
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&dto).
		SetPathParam("uuid", uuid).
		Get("/entities/{uuid}")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get entity %s: %w", uuid, err)
	}

	entity := adapters.MapApiEntityToDomainEntity(dto)
	return &entity, nil
}

func (c *Client) GetEntityActions(ctx context.Context, uuid string) ([]domain.Action, error) {
	dtos, err := fetchAll[api.ActionApiDTO](ctx, c, http.MethodGet, "/entities/{uuid}/actions", func(r *resty.Request) {
		r.SetPathParam("uuid", uuid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get actions of entity %s: %w", uuid, err)
	}
	return adapters.MapApiActionsToDomainActions(dtos), nil
}

// ListActions returns every action of the realtime market
func (c *Client) ListActions(ctx context.Context) ([]domain.Action, error) {
	dtos, err := fetchAll[api.ActionApiDTO](ctx, c, http.MethodGet, "/markets/Market/actions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list market actions: %w", err)
	}
	return adapters.MapApiActionsToDomainActions(dtos), nil
}

func (c *Client) GetEntityStats(
	ctx context.Context,
	uuids []string,
	commodity string,
	relatedType string,
) ([]domain.EntityStats, error) {
	if len(uuids) == 0 {
		return nil, nil
	}

	body := api.StatScopesApiInputDTO{
		Scopes: uuids,
		Period: api.StatPeriodApiInputDTO{
			Statistics: []api.StatApiInputDTO{{Name: commodity}},
		},
		RelatedType: relatedType,
	}
	dtos, err := fetchAll[api.EntityStatsApiDTO](ctx, c, http.MethodPost, "/stats", func(r *resty.Request) {
		r.SetBody(body)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s stats for %d entities: %w", commodity, len(uuids), err)
	}

	stats := make([]domain.EntityStats, 0, len(dtos))
	for _, dto := range dtos {
		stats = append(stats, adapters.MapApiEntityStatsToDomain(dto))
	}
	return stats, nil
}

// SearchEntities finds entities of the given class whose display name is exactly name
func (c *Client) SearchEntities(ctx context.Context, className, name string) ([]domain.Entity, error) {
	dtos, err := fetchAll[api.ServiceEntityApiDTO](ctx, c, http.MethodGet, "/search", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{"types": className, "q": name})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s %q: %w", className, name, err)
	}

	var entities []domain.Entity
	for _, dto := range dtos {
		if dto.DisplayName == name && dto.ClassName == className {
			entities = append(entities, adapters.MapApiEntityToDomainEntity(dto))
		}
	}
	return entities, nil
}

func (c *Client) CreateGroup(ctx context.Context, spec domain.GroupSpec) (*domain.Group, error) {
	var dto api.GroupApiDTO
	resp, err := c.writer.R().
		SetContext(ctx).
		SetBody(adapters.MapDomainGroupSpecToApiInput(spec)).
		SetResult(&dto).
		Post("/groups")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to create group %q: %w", spec.DisplayName, err)
	}

	group := adapters.MapApiGroupToDomainGroup(dto)
	return &group, nil
}

func (c *Client) UpdateGroup(ctx context.Context, uuid string, spec domain.GroupSpec) (*domain.Group, error) {
	var dto api.GroupApiDTO
	resp, err := c.writer.R().
		SetContext(ctx).
		SetPathParam("uuid", uuid).
		SetBody(adapters.MapDomainGroupSpecToApiInput(spec)).
		SetResult(&dto).
		Put("/groups/{uuid}")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to update group %q: %w", spec.DisplayName, err)
	}

	group := adapters.MapApiGroupToDomainGroup(dto)
	return &group, nil
}

func (c *Client) DeleteGroup(ctx context.Context, uuid string) error {
	resp, err := c.writer.R().
		SetContext(ctx).
		SetPathParam("uuid", uuid).
		Delete("/groups/{uuid}")
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("failed to delete group %s: %w", uuid, err)
	}
	return nil
}

// fetchAll follows the cursor pagination of list endpoints until the last page
func fetchAll[T any](
	ctx context.Context,
	c *Client,
	method, path string,
	prepare func(r *resty.Request),
) ([]T, error) {
	var all []T
	cursor := ""
	for {
		var page []T
		req := c.client.R().
			SetContext(ctx).
			SetResult(&page).
			SetQueryParam("limit", strconv.Itoa(c.config.PageSize))
		if prepare != nil {
			prepare(req)
		}
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		resp, err := req.Execute(method, path)
		if err := checkResponse(resp, err); err != nil {
			return nil, err
		}
		all = append(all, page...)

		next := resp.Header().Get(nextCursorHeader)
		if next == "" || next == cursor {
			return all, nil
		}
		cursor = next
	}
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", resp.Request.URL, ErrNotFound)
	}
	if resp.IsError() {
		return responseError(resp)
	}
	return nil
}

func responseError(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	if body == "" {
		return fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status())
	}
	return fmt.Errorf("%s %s: %s: %s", resp.Request.Method, resp.Request.URL, resp.Status(), body)
}
