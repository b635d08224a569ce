// Package profile implements the profile editing flow: the form controller,
// the account deletion path and the picture upload pipeline.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/onnwee/tastemap/internal/apiclient"
	"github.com/onnwee/tastemap/internal/fielderr"
	"github.com/onnwee/tastemap/internal/metrics"
	"github.com/onnwee/tastemap/internal/picture"
	"github.com/onnwee/tastemap/internal/session"
	"github.com/onnwee/tastemap/internal/user"
	"github.com/onnwee/tastemap/internal/validate"
)

// Status is the controller's submit state. Errors return it to editing so
// the form stays usable.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSaved      Status = "saved"
	StatusError      Status = "error"
)

// ErrBusy is returned when a picture pick arrives while one is in flight.
var ErrBusy = errors.New("profile: picture upload in flight")

// Form holds the editable profile fields.
type Form struct {
	FullName string
	Username string
	Email    string
	Bio      string
	Location user.FormLocation
}

// Options configures a Controller.
type Options struct {
	// Compress bounds the profile picture downscale. Zero means defaults.
	Compress picture.CompressOptions
	// MaxPicBytes caps uploads. Zero means validate.MaxProfilePicBytes.
	MaxPicBytes int64

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Controller owns the profile form, its validation errors and the picture
// pipeline state. All methods are safe for concurrent use.
type Controller struct {
	session  *session.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	compress picture.CompressOptions
	maxBytes int64

	mu      sync.Mutex
	form    Form
	errs    fielderr.Errors
	status  Status
	picBusy bool
	preview string

	// OnSaved, when set, runs with the fresh user after a successful submit.
	OnSaved func(*user.User)
}

func NewController(sess *session.Store, opts Options) *Controller {
	compress := opts.Compress
	if compress.MaxDimension <= 0 || compress.Quality <= 0 {
		compress = picture.DefaultCompressOptions()
	}
	maxBytes := opts.MaxPicBytes
	if maxBytes <= 0 {
		maxBytes = validate.MaxProfilePicBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session:  sess,
		metrics:  opts.Metrics,
		logger:   logger,
		compress: compress,
		maxBytes: maxBytes,
		errs:     fielderr.Errors{},
		status:   StatusEditing,
	}
}

// SetFromUser fills the form from a session user. A nil user blanks it.
func (c *Controller) SetFromUser(u *user.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		c.form = Form{}
		return
	}
	c.form = Form{
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Bio:      u.Bio,
	}
	if u.DefaultLocation != nil {
		c.form.Location = user.FormLocation{
			Locality: u.DefaultLocation.Locality,
			Area:     u.DefaultLocation.Area,
			Country:  u.DefaultLocation.Country,
		}
	}
}

// Form returns a snapshot of the form.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Update applies mutate to the form under the controller lock.
func (c *Controller) Update(mutate func(*Form)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.form)
}

// Errors returns a copy of the current validation errors.
func (c *Controller) Errors() fielderr.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs.Clone()
}

// Status returns the submit state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// TempPreview returns the optimistic picture data URL shown while an upload
// is in flight, or "" when none is pending.
func (c *Controller) TempPreview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// Validate checks the form and records field errors. It returns true when
// the form is submittable.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validateLocked()
	return c.errs.Valid()
}

func (c *Controller) validateLocked() {
	c.errs.Reset()
	f := c.form

	if _, err := validate.FullName(f.FullName); err != nil {
		c.errs["fullname"] = "Full name must be at least 3 characters."
	}
	if _, err := validate.Email(f.Email); err != nil {
		c.errs[fielderr.FieldEmail] = "Please enter a valid email address."
	}
	if _, err := validate.Username(f.Username); err != nil {
		c.errs[fielderr.FieldUsername] = "Username must be at least 6 characters."
	}
	if _, err := validate.Bio(f.Bio); err != nil {
		c.errs[fielderr.FieldBio] = "Bio should be 200 characters max."
	}
	loc := f.Location.Trimmed()
	if !loc.Empty() && !loc.Complete() {
		c.errs[fielderr.FieldLocation] = "All location fields must be filled (locality, area, and country)."
	}
}

// Submit validates and patches the profile. Invalid forms never hit the
// network. The payload carries the location only when fully populated.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusSubmitting {
		c.mu.Unlock()
		return nil
	}
	c.validateLocked()
	if !c.errs.Valid() {
		c.status = StatusEditing
		c.mu.Unlock()
		return errors.New("profile: form is invalid")
	}
	c.status = StatusSubmitting
	f := c.form
	c.mu.Unlock()

	payload := session.UpdateProfilePayload{
		FullName: f.FullName,
		Username: f.Username,
		Email:    f.Email,
		Bio:      f.Bio,
	}
	if loc := f.Location.Trimmed(); loc.Complete() {
		payload.Location = &loc
	}

	u, err := c.session.UpdateProfile(ctx, payload)

	c.mu.Lock()
	if err != nil {
		c.applyAPIErrorLocked(err, "Failed to update profile.")
		c.status = StatusEditing
		c.mu.Unlock()
		return err
	}
	c.status = StatusSaved
	c.mu.Unlock()

	if c.OnSaved != nil {
		c.OnSaved(u)
	}
	return nil
}

// DeleteAccount removes the profile and then signs out. A failed delete
// leaves the session signed in and reports a form-level error.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	if err := c.session.DeleteProfile(ctx); err != nil {
		c.mu.Lock()
		c.errs[fielderr.FieldForm] = "Failed to delete account."
		c.mu.Unlock()
		return err
	}
	if err := c.session.Signout(ctx); err != nil {
		c.logger.Warn("signout after delete failed", "error", err)
	}
	return nil
}

// PickPicture validates, compresses and uploads a profile picture. The
// preview is set optimistically before the upload and cleared either way
// when it settles. Concurrent picks are rejected until the first resolves.
func (c *Controller) PickPicture(ctx context.Context, mimeType string, data []byte) error {
	c.mu.Lock()
	if c.picBusy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.picBusy = true
	c.mu.Unlock()

	err := c.pickPicture(ctx, mimeType, data)

	c.mu.Lock()
	c.picBusy = false
	c.preview = ""
	c.mu.Unlock()
	return err
}

func (c *Controller) pickPicture(ctx context.Context, mimeType string, data []byte) error {
	mt, err := validate.ProfilePicture(mimeType, int64(len(data)))
	if err != nil {
		c.mu.Lock()
		if errors.Is(err, validate.ErrFileTooLarge) {
			c.errs["profilePic"] = "Image must be 5MB or smaller."
		} else {
			c.errs["profilePic"] = "Only JPEG, PNG and WebP images are allowed."
		}
		c.mu.Unlock()
		c.countUpload("rejected")
		return err
	}

	compressed, err := picture.Compress(picture.ToDataURL(mt, data), c.compress)
	if err != nil {
		c.mu.Lock()
		c.errs["profilePic"] = "Failed to process image."
		c.mu.Unlock()
		c.countUpload("error")
		return err
	}

	c.mu.Lock()
	c.preview = compressed
	delete(c.errs, "profilePic")
	c.mu.Unlock()

	if _, err := c.session.UpdateProfilePic(ctx, compressed); err != nil {
		c.mu.Lock()
		c.errs["profilePic"] = "Failed to update profile picture."
		c.mu.Unlock()
		c.countUpload("error")
		return err
	}

	c.countUpload("success")
	return nil
}

func (c *Controller) applyAPIErrorLocked(err error, fallback string) {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			c.errs[fielderr.Classify(msg, fielderr.ProfileRules)] = msg
			return
		}
	}
	c.errs[fielderr.FieldForm] = fallback
}

func (c *Controller) countUpload(outcome string) {
	if c.metrics != nil {
		c.metrics.IncPictureUpload(outcome)
	}
}
