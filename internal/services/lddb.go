package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
)

type itemResponse struct {
	Message string              `json:"message"`
	Status  string              `json:"status,omitempty"`
	Item    *models.CatalogItem `json:"laserdisc"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ListCollection fetches one page of the collection.
func (a *APIService) ListCollection(ctx context.Context, q models.ListQuery) (*models.CollectionPage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	params.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}

	var page models.CollectionPage
	if err := a.do(ctx, http.MethodGet, "/api/collection?"+params.Encode(), nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.CatalogItem{}
	}
	return &page, nil
}

// CreateItem adds a LaserDisc to the collection.
func (a *APIService) CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.CatalogItem, error) {
	var resp itemResponse
	if err := a.do(ctx, http.MethodPost, "/api/collection", req, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// UpdateItem applies a partial update.
func (a *APIService) UpdateItem(ctx context.Context, id uint, req models.UpdateItemRequest) (*models.CatalogItem, error) {
	var resp itemResponse
	if err := a.do(ctx, http.MethodPut, itemPath(id), req, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// DeleteItem removes a LaserDisc.
func (a *APIService) DeleteItem(ctx context.Context, id uint) error {
	return a.do(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

// ToggleWatched flips the watched flag and returns the updated item.
func (a *APIService) ToggleWatched(ctx context.Context, id uint) (*models.CatalogItem, error) {
	var resp itemResponse
	if err := a.do(ctx, http.MethodPost, itemPath(id)+"/watched", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// LookupUPC queries the reference database by product code.
func (a *APIService) LookupUPC(ctx context.Context, upc string) (*models.Lookup, error) {
	return a.lookup(ctx, "/api/lookup/"+url.PathEscape(upc))
}

// LookupReference queries the reference database by catalog reference.
func (a *APIService) LookupReference(ctx context.Context, reference string) (*models.Lookup, error) {
	return a.lookup(ctx, "/api/lookup/reference/"+url.PathEscape(reference))
}

func (a *APIService) lookup(ctx context.Context, path string) (*models.Lookup, error) {
	var resp models.Lookup
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil || !resp.Result.Found {
		return &resp, fmt.Errorf("%w: %s", shared.ErrNotFound, path)
	}
	return &resp, nil
}

// RandomUnwatched picks a random unwatched LaserDisc.
//
// Returns [shared.ErrNoUnwatched] when the backend has none.
func (a *APIService) RandomUnwatched(ctx context.Context) (*models.CatalogItem, error) {
	var resp itemResponse
	if err := a.do(ctx, http.MethodGet, "/api/random-unwatched", nil, &resp); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", shared.ErrNoUnwatched, err)
		}
		return nil, err
	}
	if resp.Item == nil {
		return nil, shared.ErrNoUnwatched
	}
	return resp.Item, nil
}

// ValidateToken exchanges a typed access token for the canonical one.
//
// Does not store the token; see [APIService.Authenticate].
func (a *APIService) ValidateToken(ctx context.Context, token string) (string, error) {
	body := map[string]string{"token": shared.NormalizeToken(token)}

	var resp authResponse
	if err := a.request(ctx, http.MethodPost, "/auth/validate", body, &resp, true); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %w", shared.ErrInvalidToken, err)
		}
		return "", err
	}
	if resp.Token == "" {
		return body["token"], nil
	}
	return resp.Token, nil
}

// Authenticate validates token and stores it.
func (a *APIService) Authenticate(ctx context.Context, token string) (string, error) {
	canonical, err := a.ValidateToken(ctx, token)
	if err != nil {
		return "", err
	}
	if a.tokens != nil {
		if err := a.tokens.SetToken(ctx, canonical); err != nil {
			return "", fmt.Errorf("failed to store token: %w", err)
		}
	}
	return canonical, nil
}

// Logout forgets the stored token.
func (a *APIService) Logout(ctx context.Context) error {
	if a.tokens == nil {
		return nil
	}
	return a.tokens.ClearToken(ctx)
}

// HasToken reports whether a token is stored.
func (a *APIService) HasToken(ctx context.Context) bool {
	if a.tokens == nil {
		return false
	}
	token, err := a.tokens.Token(ctx)
	return err == nil && token != ""
}

func itemPath(id uint) string {
	return "/api/collection/" + strconv.FormatUint(uint64(id), 10)
}
