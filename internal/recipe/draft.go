package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/onnwee/tastemap/internal/apiclient"
	"github.com/onnwee/tastemap/internal/fielderr"
	"github.com/onnwee/tastemap/internal/picture"
	"github.com/onnwee/tastemap/internal/user"
	"github.com/onnwee/tastemap/internal/validate"
)

// ErrNoID is returned by Edit and LoadForEdit when no recipe id was given.
var ErrNoID = errors.New("recipe: missing recipe id")

// Form is the mutable draft behind the create and edit screens. Ingredients
// and Instructions always hold at least one row so the editor has something
// to render.
type Form struct {
	Title        string
	Description  string
	Ingredients  []Ingredient
	Instructions []string
	DishTypes    []string
	RecipePic    string
	Location     user.FormLocation
}

// NewForm returns a blank draft with one empty ingredient row and one empty
// instruction step.
func NewForm() Form {
	return Form{
		Ingredients:  []Ingredient{{}},
		Instructions: []string{""},
	}
}

func (f Form) clone() Form {
	out := f
	out.Ingredients = append([]Ingredient(nil), f.Ingredients...)
	out.Instructions = append([]string(nil), f.Instructions...)
	out.DishTypes = append([]string(nil), f.DishTypes...)
	return out
}

// Controller owns a draft form, its validation state and the submit flow.
// All methods are safe for concurrent use.
type Controller struct {
	api *API

	mu      sync.Mutex
	form    Form
	errs    fielderr.Errors
	busy    bool
	editing string
	preview string

	// Notify, when set, receives user-facing toasts. Kind is "success" or
	// "error".
	Notify func(kind, message string)
	// OnSaved, when set, runs after a successful create, update or delete.
	OnSaved func()

	onChange func(Form)
}

func NewController(api *API) *Controller {
	return &Controller{
		api:  api,
		form: NewForm(),
		errs: fielderr.Errors{},
	}
}

// OnChange registers a callback invoked with a snapshot after every draft
// mutation.
func (c *Controller) OnChange(fn func(Form)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Form returns a snapshot of the draft.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.clone()
}

// Errors returns a copy of the current validation errors.
func (c *Controller) Errors() fielderr.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs.Clone()
}

// Busy reports whether a submit or load is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Update applies mutate to the draft under the controller lock and notifies
// the change observer with the resulting snapshot.
func (c *Controller) Update(mutate func(*Form)) {
	c.mu.Lock()
	mutate(&c.form)
	snap := c.form.clone()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// InsertIngredientAfter inserts a blank ingredient row after index i.
// Out-of-range indexes append at the end.
func (c *Controller) InsertIngredientAfter(i int) {
	c.Update(func(f *Form) {
		if i < 0 || i >= len(f.Ingredients) {
			f.Ingredients = append(f.Ingredients, Ingredient{})
			return
		}
		f.Ingredients = append(f.Ingredients, Ingredient{})
		copy(f.Ingredients[i+2:], f.Ingredients[i+1:])
		f.Ingredients[i+1] = Ingredient{}
	})
}

// RemoveIngredient removes the row at index i. The last remaining row is
// never removed.
func (c *Controller) RemoveIngredient(i int) {
	c.Update(func(f *Form) {
		if len(f.Ingredients) <= 1 || i < 0 || i >= len(f.Ingredients) {
			return
		}
		f.Ingredients = append(f.Ingredients[:i], f.Ingredients[i+1:]...)
	})
}

// InsertInstructionAfter inserts a blank step after index i. Out-of-range
// indexes append at the end.
func (c *Controller) InsertInstructionAfter(i int) {
	c.Update(func(f *Form) {
		if i < 0 || i >= len(f.Instructions) {
			f.Instructions = append(f.Instructions, "")
			return
		}
		f.Instructions = append(f.Instructions, "")
		copy(f.Instructions[i+2:], f.Instructions[i+1:])
		f.Instructions[i+1] = ""
	})
}

// RemoveInstruction removes the step at index i. The last remaining step is
// never removed.
func (c *Controller) RemoveInstruction(i int) {
	c.Update(func(f *Form) {
		if len(f.Instructions) <= 1 || i < 0 || i >= len(f.Instructions) {
			return
		}
		f.Instructions = append(f.Instructions[:i], f.Instructions[i+1:]...)
	})
}

// SetPicture validates the file type and stores the raw data URL on the
// draft. Recipe pictures are not compressed client-side.
func (c *Controller) SetPicture(mimeType string, data []byte) error {
	mt, err := validate.RecipePicture(mimeType)
	if err != nil {
		c.notify("error", "Only JPEG, PNG and WebP images are allowed.")
		return err
	}
	c.Update(func(f *Form) {
		f.RecipePic = picture.ToDataURL(mt, data)
	})
	return nil
}

// ClearPicture removes the draft picture.
func (c *Controller) ClearPicture() {
	c.Update(func(f *Form) { f.RecipePic = "" })
}

// Validate checks the draft and records per-field errors, including indexed
// paths for ingredient rows and instruction steps. It returns true when the
// draft is submittable.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validateLocked()
	return c.errs.Valid()
}

func (c *Controller) validateLocked() {
	c.errs.Reset()
	f := c.form

	if _, err := validate.RecipeTitle(f.Title); err != nil {
		if errors.Is(err, validate.ErrStringTooLong) {
			c.errs[fielderr.FieldTitle] = "Title should be 100 characters max."
		} else {
			c.errs[fielderr.FieldTitle] = "Title is required."
		}
	}
	if _, err := validate.RecipeDescription(f.Description); err != nil {
		c.errs[fielderr.FieldDescription] = "Description should be 500 characters max."
	}

	for i, ing := range f.Ingredients {
		if _, err := validate.IngredientName(ing.Name); err != nil {
			key := fmt.Sprintf("%s.%d.ingredient", fielderr.FieldIngredients, i)
			if errors.Is(err, validate.ErrStringTooLong) {
				c.errs[key] = "Ingredient name should be 100 characters max."
			} else {
				c.errs[key] = "Ingredient name is required."
			}
		}
		if _, err := validate.Measure(ing.Measure); err != nil {
			c.errs[fmt.Sprintf("%s.%d.measure", fielderr.FieldIngredients, i)] = "Measure should be 20 characters max."
		}
	}

	for i, step := range f.Instructions {
		if _, err := validate.InstructionStep(step); err != nil {
			key := fmt.Sprintf("instructions.%d", i)
			if errors.Is(err, validate.ErrStringTooLong) {
				c.errs[key] = "Instruction step should be 200 characters max."
			} else {
				c.errs[key] = "Instruction step cannot be empty."
			}
		}
	}

	if !f.Location.Trimmed().Complete() {
		c.errs[fielderr.FieldLocation] = "All location fields must be filled (locality, area, and country)."
	}
}

// payloadLocked builds the trimmed write payload from the draft.
func (c *Controller) payloadLocked() Payload {
	f := c.form
	p := Payload{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		RecipePic:   f.RecipePic,
		DishTypes:   append([]string(nil), f.DishTypes...),
	}
	for _, ing := range f.Ingredients {
		p.Ingredients = append(p.Ingredients, Ingredient{
			Name:    strings.TrimSpace(ing.Name),
			Amount:  ing.Amount,
			Measure: strings.TrimSpace(ing.Measure),
		})
	}
	for _, step := range f.Instructions {
		p.Instructions = append(p.Instructions, strings.TrimSpace(step))
	}
	loc := f.Location.Trimmed()
	p.Location = &loc
	return p
}

// Create validates and submits the draft as a new recipe. On success the
// draft is reset to blank.
func (c *Controller) Create(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil
	}
	c.validateLocked()
	if !c.errs.Valid() {
		c.mu.Unlock()
		return errors.New("recipe: draft is invalid")
	}
	c.busy = true
	payload := c.payloadLocked()
	c.mu.Unlock()

	_, err := c.api.Create(ctx, payload)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.applyAPIErrorLocked(err, "Failed to create recipe.")
		c.mu.Unlock()
		return err
	}
	c.form = NewForm()
	c.mu.Unlock()

	c.notify("success", "Recipe created.")
	c.saved()
	return nil
}

// Edit validates and submits the draft as an update to an existing recipe.
// An empty id is refused before any network call.
func (c *Controller) Edit(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		c.notify("error", "Missing recipe id.")
		return ErrNoID
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil
	}
	c.validateLocked()
	if !c.errs.Valid() {
		c.mu.Unlock()
		return errors.New("recipe: draft is invalid")
	}
	c.busy = true
	payload := c.payloadLocked()
	c.mu.Unlock()

	_, err := c.api.Update(ctx, id, payload)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.applyAPIErrorLocked(err, "Failed to update recipe.")
		c.mu.Unlock()
		return err
	}
	c.editing = ""
	c.preview = ""
	c.mu.Unlock()

	c.notify("success", "Recipe updated.")
	c.saved()
	return nil
}

// LoadForEdit fetches a recipe and fills the draft from it.
func (c *Controller) LoadForEdit(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		c.notify("error", "Missing recipe id.")
		return ErrNoID
	}

	c.mu.Lock()
	c.busy = true
	c.mu.Unlock()

	r, err := c.api.Get(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.errs[fielderr.FieldForm] = "Failed to load recipe."
		return err
	}
	c.editing = r.ID
	c.form = formFromRecipe(r)
	c.preview = r.RecipePic
	c.errs.Reset()
	return nil
}

// Preview returns the stored picture of the recipe being edited, for display
// until the draft picks a replacement.
func (c *Controller) Preview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// EditingID returns the id loaded by LoadForEdit, or "" when drafting a new
// recipe.
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Delete removes a recipe. The draft is untouched; callers decide what to
// render next.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		c.notify("error", "Missing recipe id.")
		return ErrNoID
	}
	if err := c.api.Delete(ctx, id); err != nil {
		c.notify("error", "Failed to delete recipe.")
		return err
	}
	c.notify("success", "Recipe deleted.")
	c.saved()
	return nil
}

func formFromRecipe(r *Recipe) Form {
	f := Form{
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  append([]Ingredient(nil), r.Ingredients...),
		Instructions: append([]string(nil), r.Instructions...),
		DishTypes:    append([]string(nil), r.DishTypes...),
		RecipePic:    r.RecipePic,
		Location:     r.LocationSnapshot,
	}
	if len(f.Ingredients) == 0 {
		f.Ingredients = []Ingredient{{}}
	}
	if len(f.Instructions) == 0 {
		f.Instructions = []string{""}
	}
	return f
}

// applyAPIErrorLocked routes a server message to the field it mentions, or
// the form-level slot when nothing matches.
func (c *Controller) applyAPIErrorLocked(err error, fallback string) {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			c.errs[fielderr.Classify(msg, fielderr.RecipeRules)] = msg
			return
		}
	}
	c.errs[fielderr.FieldForm] = fallback
}

func (c *Controller) notify(kind, message string) {
	if c.Notify != nil {
		c.Notify(kind, message)
	}
}

func (c *Controller) saved() {
	if c.OnSaved != nil {
		c.OnSaved()
	}
}
