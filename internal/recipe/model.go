// Package recipe holds the recipe domain model, the API surface for recipe
// CRUD and reactions, and the draft form controller used by the create and
// edit flows.
package recipe

import (
	"github.com/onnwee/tastemap/internal/user"
)

// Ingredient is a single row of the ingredients editor.
type Ingredient struct {
	Name    string  `json:"ingredient"`
	Amount  float64 `json:"amount,omitempty"`
	Measure string  `json:"measure,omitempty"`
}

// Author is the denormalized owner embedded in a recipe document.
type Author struct {
	ID       string `json:"_id"`
	FullName string `json:"fullname,omitempty"`
	Username string `json:"username,omitempty"`
}

// Recipe is the full server-side document.
type Recipe struct {
	ID               string            `json:"_id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	Ingredients      []Ingredient      `json:"ingredients"`
	Instructions     []string          `json:"instructions"`
	DishTypes        []string          `json:"dishTypes,omitempty"`
	RecipePic        string            `json:"recipePic,omitempty"`
	Author           Author            `json:"authorId"`
	LocationID       string            `json:"locationId,omitempty"`
	LocationSnapshot user.FormLocation `json:"locationSnapshot"`
	Point            *user.GeoPoint    `json:"point,omitempty"`
	Likes            int               `json:"likes,omitempty"`
	CreatedAt        string            `json:"createdAt,omitempty"`
	UpdatedAt        string            `json:"updatedAt,omitempty"`
}

// CardPreview is the trimmed projection returned by list endpoints.
type CardPreview struct {
	ID               string            `json:"_id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	DishTypes        []string          `json:"dishTypes,omitempty"`
	RecipePic        string            `json:"recipePic,omitempty"`
	Author           Author            `json:"authorId"`
	LocationSnapshot user.FormLocation `json:"locationSnapshot"`
	Point            *user.GeoPoint    `json:"point,omitempty"`
	Likes            int               `json:"likes,omitempty"`
}

// Payload is the write shape for create and update calls. RecipePic carries
// the raw picture data URL; the server owns any resizing for recipe images.
type Payload struct {
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Ingredients  []Ingredient       `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	DishTypes    []string           `json:"dishTypes,omitempty"`
	RecipePic    string             `json:"recipePic,omitempty"`
	Location     *user.FormLocation `json:"location,omitempty"`
}

// ListPage is one cursor page of previews. A null or absent nextCursor
// decodes to the empty string, which means the bucket is exhausted.
type ListPage struct {
	Items       []CardPreview `json:"items"`
	NextCursor  string        `json:"nextCursor"`
	HasNextPage bool          `json:"hasNextPage"`
}
