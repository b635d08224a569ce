package recipe

import (
	"context"
	"net/url"
	"strconv"

	"github.com/onnwee/tastemap/internal/apiclient"
)

// API wraps the recipe endpoints of the backend.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

// Create posts a new recipe and returns the stored document.
func (a *API) Create(ctx context.Context, p Payload) (*Recipe, error) {
	var out Recipe
	if err := a.client.Post(ctx, "/recipes", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a single recipe by id.
func (a *API) Get(ctx context.Context, id string) (*Recipe, error) {
	var out Recipe
	if err := a.client.Get(ctx, "/recipes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page of recipe previews. The query carries the caller's
// filters plus limit and cursor.
func (a *API) List(ctx context.Context, query url.Values) (*ListPage, error) {
	var out ListPage
	if err := a.client.Get(ctx, "/recipes", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLiked fetches one page of the signed-in user's liked recipes.
func (a *API) ListLiked(ctx context.Context, limit int, cursor string) (*ListPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	var out ListPage
	if err := a.client.Get(ctx, "/recipes/liked", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update patches an existing recipe and returns the updated document.
func (a *API) Update(ctx context.Context, id string, p Payload) (*Recipe, error) {
	var out Recipe
	if err := a.client.Patch(ctx, "/recipes/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a recipe owned by the signed-in user.
func (a *API) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, "/recipes/"+url.PathEscape(id), nil)
}

// Like marks a recipe as liked by the signed-in user.
func (a *API) Like(ctx context.Context, id string) error {
	return a.client.Patch(ctx, "/recipes/"+url.PathEscape(id)+"/like", nil, nil)
}

// Dislike removes the signed-in user's like from a recipe.
func (a *API) Dislike(ctx context.Context, id string) error {
	return a.client.Patch(ctx, "/recipes/"+url.PathEscape(id)+"/dislike", nil, nil)
}
