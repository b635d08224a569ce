// Package fielderr assigns a server-rejected-input message to the form field
// it most likely concerns. The server contract is a single {message} string,
// so classification is an ordered list of keyword rules; the first match
// wins and anything unmatched lands in the form-level bucket. This mirrors
// the legacy behavior exactly, including its case-sensitivity asymmetries:
// prefer a structured {field, message} payload wherever the server contract
// can change.
package fielderr

import "strings"

// Field names used as classification targets.
const (
	FieldForm        = "form"
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldBio         = "bio"
	FieldLocation    = "location"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldIngredients = "ingredients"
	FieldDishTypes   = "dishTypes"
)

// Errors maps a field path (including indexed paths like
// "ingredients.2.ingredient") to a human-readable message. Presence of any
// entry means the form is invalid.
type Errors map[string]string

// Reset clears every entry; called at the start of each validation pass.
func (e Errors) Reset() {
	for k := range e {
		delete(e, k)
	}
}

// Valid reports whether the set holds no errors.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Clone returns a copy safe to hand to callers.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Rule maps a message predicate to a target field.
type Rule struct {
	Field string
	Match func(msg string) bool
}

func contains(substr string) func(string) bool {
	return func(msg string) bool { return strings.Contains(msg, substr) }
}

func containsFold(substr string) func(string) bool {
	return func(msg string) bool {
		return strings.Contains(strings.ToLower(msg), strings.ToLower(substr))
	}
}

func locationMessage(msg string) bool {
	return strings.HasPrefix(msg, "Missing required location fields") ||
		msg == "Unknown country name." ||
		msg == "Failed to geocode."
}

// ProfileRules classify server messages from profile-update rejections.
// Order matters: "Username" (case-sensitive), "email" (case-insensitive),
// "Bio" (case-sensitive), then the known location phrases.
var ProfileRules = []Rule{
	{Field: FieldUsername, Match: contains("Username")},
	{Field: FieldEmail, Match: containsFold("email")},
	{Field: FieldBio, Match: contains("Bio")},
	{Field: FieldLocation, Match: locationMessage},
}

// RecipeRules classify server messages from recipe create/edit rejections.
// The recipe-specific buckets run before the shared profile/location rules.
var RecipeRules = append([]Rule{
	{Field: FieldTitle, Match: contains("Title")},
	{Field: FieldDescription, Match: contains("Description")},
	{Field: FieldIngredients, Match: contains("Ingredient")},
	{Field: FieldDishTypes, Match: containsFold("dish type")},
}, ProfileRules...)

// Classify returns the field for msg under the given rules, falling back to
// the form-level bucket when nothing matches.
func Classify(msg string, rules []Rule) string {
	for _, rule := range rules {
		if rule.Match(msg) {
			return rule.Field
		}
	}
	return FieldForm
}
