package recipe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onnwee/tastemap/internal/apiclient"
	"github.com/onnwee/tastemap/internal/user"
)

func newTestAPI(t *testing.T, handler http.Handler) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}
	return NewAPI(client)
}

func validDraft(c *Controller) {
	c.Update(func(f *Form) {
		f.Title = "Shakshuka"
		f.Ingredients = []Ingredient{{Name: "Eggs", Amount: 4}, {Name: "Tomatoes", Amount: 6}}
		f.Instructions = []string{"Simmer the tomatoes.", "Crack in the eggs."}
		f.Location = user.FormLocation{Locality: "Jaffa", Area: "Tel Aviv", Country: "Israel"}
	})
}

func TestInsertIngredientAfter(t *testing.T) {
	c := NewController(nil)
	c.Update(func(f *Form) {
		f.Ingredients = []Ingredient{{Name: "a"}, {Name: "b"}}
	})

	c.InsertIngredientAfter(0)

	got := c.Form().Ingredients
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "" || got[2].Name != "b" {
		t.Errorf("ingredients = %+v, want blank row between a and b", got)
	}
}

func TestInsertInstructionAfterOutOfRangeAppends(t *testing.T) {
	c := NewController(nil)
	c.Update(func(f *Form) { f.Instructions = []string{"one"} })

	c.InsertInstructionAfter(5)

	got := c.Form().Instructions
	if len(got) != 2 || got[0] != "one" || got[1] != "" {
		t.Errorf("instructions = %q, want [one \"\"]", got)
	}
}

func TestRemoveKeepsLastRow(t *testing.T) {
	c := NewController(nil)

	c.RemoveIngredient(0)
	c.RemoveInstruction(0)

	f := c.Form()
	if len(f.Ingredients) != 1 {
		t.Errorf("ingredients len = %d, want 1", len(f.Ingredients))
	}
	if len(f.Instructions) != 1 {
		t.Errorf("instructions len = %d, want 1", len(f.Instructions))
	}
}

func TestRemoveIngredient(t *testing.T) {
	c := NewController(nil)
	c.Update(func(f *Form) {
		f.Ingredients = []Ingredient{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	})

	c.RemoveIngredient(1)

	got := c.Form().Ingredients
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("ingredients = %+v, want [a c]", got)
	}
}

func TestValidateIndexedPaths(t *testing.T) {
	c := NewController(nil)
	c.Update(func(f *Form) {
		f.Title = "Stew"
		f.Ingredients = []Ingredient{
			{Name: "Beef"},
			{Name: "", Measure: strings.Repeat("x", 21)},
		}
		f.Instructions = []string{"Brown the beef.", "   "}
	})

	if c.Validate() {
		t.Fatal("Validate() = true, want false")
	}
	errs := c.Errors()
	if _, ok := errs["ingredients.1.ingredient"]; !ok {
		t.Errorf("missing error for ingredients.1.ingredient, got %v", errs)
	}
	if _, ok := errs["ingredients.1.measure"]; !ok {
		t.Errorf("missing error for ingredients.1.measure, got %v", errs)
	}
	if _, ok := errs["instructions.1"]; !ok {
		t.Errorf("missing error for instructions.1, got %v", errs)
	}
	if _, ok := errs["ingredients.0.ingredient"]; ok {
		t.Errorf("unexpected error on valid row: %v", errs)
	}
}

func TestValidateRequiresLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  user.FormLocation
	}{
		{"empty", user.FormLocation{}},
		{"partial", user.FormLocation{Locality: "Lisbon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(nil)
			validDraft(c)
			c.Update(func(f *Form) { f.Location = tt.loc })

			if c.Validate() {
				t.Fatal("Validate() = true, want false")
			}
			if _, ok := c.Errors()["location"]; !ok {
				t.Errorf("missing location error, got %v", c.Errors())
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	c := NewController(nil)
	validDraft(c)
	c.Update(func(f *Form) {
		f.Title = ""
		f.Description = strings.Repeat("x", 501)
	})

	if c.Validate() {
		t.Fatal("Validate() = true, want false")
	}
	errs := c.Errors()
	if _, ok := errs["title"]; !ok {
		t.Errorf("missing title error, got %v", errs)
	}
	if _, ok := errs["description"]; !ok {
		t.Errorf("missing description error, got %v", errs)
	}
}

func TestCreateSendsTrimmedPayload(t *testing.T) {
	var got Payload
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/recipes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(Recipe{ID: "r1", Title: got.Title})
	}))

	c := NewController(api)
	c.Update(func(f *Form) {
		f.Title = "  Shakshuka  "
		f.Ingredients = []Ingredient{{Name: " Eggs ", Amount: 4, Measure: " pcs "}}
		f.Instructions = []string{" Simmer. "}
		f.Location = user.FormLocation{Locality: " Lisbon ", Area: "Lisboa", Country: "Portugal"}
	})

	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if got.Title != "Shakshuka" {
		t.Errorf("title = %q, want trimmed", got.Title)
	}
	if got.Ingredients[0].Name != "Eggs" || got.Ingredients[0].Measure != "pcs" {
		t.Errorf("ingredient = %+v, want trimmed", got.Ingredients[0])
	}
	if got.Instructions[0] != "Simmer." {
		t.Errorf("instruction = %q, want trimmed", got.Instructions[0])
	}
	if got.Location == nil || got.Location.Locality != "Lisbon" {
		t.Errorf("location = %+v, want trimmed complete location", got.Location)
	}

	if f := c.Form(); f.Title != "" {
		t.Errorf("draft not reset after create, title = %q", f.Title)
	}
}


func TestCreateClassifiesServerError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Description too long"})
	}))

	c := NewController(api)
	validDraft(c)

	if err := c.Create(context.Background()); err == nil {
		t.Fatal("Create() error = nil, want error")
	}
	errs := c.Errors()
	if errs["description"] != "Description too long" {
		t.Errorf("errors = %v, want description entry", errs)
	}
	if c.Busy() {
		t.Error("Busy() = true after failed create")
	}
}

func TestCreateInvalidDraftSkipsNetwork(t *testing.T) {
	calls := 0
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	c := NewController(api)
	if err := c.Create(context.Background()); err == nil {
		t.Fatal("Create() error = nil, want validation error")
	}
	if calls != 0 {
		t.Errorf("server calls = %d, want 0", calls)
	}
	if _, ok := c.Errors()["title"]; !ok {
		t.Errorf("missing title error, got %v", c.Errors())
	}
}

func TestEditRefusesEmptyID(t *testing.T) {
	var toast string
	c := NewController(nil)
	c.Notify = func(kind, msg string) { toast = kind + ": " + msg }
	validDraft(c)

	if err := c.Edit(context.Background(), "  "); err != ErrNoID {
		t.Fatalf("Edit() error = %v, want ErrNoID", err)
	}
	if !strings.HasPrefix(toast, "error:") {
		t.Errorf("toast = %q, want error toast", toast)
	}
}

func TestLoadForEditFillsDraft(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/r42" {
			t.Errorf("path = %s, want /recipes/r42", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Recipe{
			ID:           "r42",
			Title:        "Bifana",
			Ingredients:  []Ingredient{{Name: "Pork", Amount: 1}},
			Instructions: []string{"Marinate overnight."},
			RecipePic:    "data:image/jpeg;base64,Zm9v",
			LocationSnapshot: user.FormLocation{
				Locality: "Porto", Area: "Porto", Country: "Portugal",
			},
		})
	}))

	c := NewController(api)
	if err := c.LoadForEdit(context.Background(), "r42"); err != nil {
		t.Fatalf("LoadForEdit() error: %v", err)
	}
	f := c.Form()
	if f.Title != "Bifana" || f.Location.Locality != "Porto" {
		t.Errorf("form = %+v, want populated from recipe", f)
	}
	if f.RecipePic == "" {
		t.Error("RecipePic empty, want data URL from recipe")
	}
	if c.Preview() != f.RecipePic {
		t.Errorf("Preview() = %q, want stored picture", c.Preview())
	}
	if c.EditingID() != "r42" {
		t.Errorf("EditingID() = %q, want r42", c.EditingID())
	}
}

func TestDeleteNotifies(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/recipes/r1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	var toasts []string
	savedCalls := 0
	c := NewController(api)
	c.Notify = func(kind, msg string) { toasts = append(toasts, kind) }
	c.OnSaved = func() { savedCalls++ }

	if err := c.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(toasts) != 1 || toasts[0] != "success" {
		t.Errorf("toasts = %v, want [success]", toasts)
	}
	if savedCalls != 1 {
		t.Errorf("OnSaved calls = %d, want 1", savedCalls)
	}
}

func TestSetPictureRejectsGIF(t *testing.T) {
	c := NewController(nil)
	if err := c.SetPicture("image/gif", []byte("gif")); err == nil {
		t.Fatal("SetPicture() error = nil, want error")
	}
	if c.Form().RecipePic != "" {
		t.Error("RecipePic set after rejected type")
	}
}

func TestSetPictureStoresRawDataURL(t *testing.T) {
	c := NewController(nil)
	if err := c.SetPicture("image/png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("SetPicture() error: %v", err)
	}
	if got := c.Form().RecipePic; !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("RecipePic = %q, want png data URL", got)
	}
}

func TestDraftSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.cbor")

	c := NewController(nil)
	validDraft(c)
	c.Update(func(f *Form) { f.DishTypes = []string{"Breakfast"} })

	if err := c.SaveDraft(path); err != nil {
		t.Fatalf("SaveDraft() error: %v", err)
	}

	restored := NewController(nil)
	ok, err := restored.LoadDraft(path)
	if err != nil {
		t.Fatalf("LoadDraft() error: %v", err)
	}
	if !ok {
		t.Fatal("LoadDraft() = false, want true")
	}
	f := restored.Form()
	if f.Title != "Shakshuka" || len(f.Ingredients) != 2 || f.DishTypes[0] != "Breakfast" {
		t.Errorf("restored form = %+v, want saved draft", f)
	}
}

func TestLoadDraftMissingFile(t *testing.T) {
	c := NewController(nil)
	ok, err := c.LoadDraft(filepath.Join(t.TempDir(), "none.cbor"))
	if err != nil {
		t.Fatalf("LoadDraft() error: %v", err)
	}
	if ok {
		t.Error("LoadDraft() = true for missing file")
	}
}

func TestLikeDislike(t *testing.T) {
	var paths []string
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if err := api.Like(ctx, "r1"); err != nil {
		t.Fatalf("Like() error: %v", err)
	}
	if err := api.Dislike(ctx, "r1"); err != nil {
		t.Fatalf("Dislike() error: %v", err)
	}
	want := []string{"/recipes/r1/like", "/recipes/r1/dislike"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("path[%d] = %s, want %s", i, paths[i], p)
		}
	}
}
