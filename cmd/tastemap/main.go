// Package main is the entry point for the Tastemap command line client.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onnwee/tastemap/internal/apiclient"
	"github.com/onnwee/tastemap/internal/config"
	"github.com/onnwee/tastemap/internal/debounce"
	"github.com/onnwee/tastemap/internal/fielderr"
	"github.com/onnwee/tastemap/internal/locations"
	"github.com/onnwee/tastemap/internal/logging"
	"github.com/onnwee/tastemap/internal/metrics"
	"github.com/onnwee/tastemap/internal/picture"
	"github.com/onnwee/tastemap/internal/profile"
	"github.com/onnwee/tastemap/internal/recipe"
	"github.com/onnwee/tastemap/internal/recipelist"
	"github.com/onnwee/tastemap/internal/session"
	"github.com/onnwee/tastemap/internal/tracing"
)

func usage() {
	fmt.Println("Tastemap client")
	fmt.Println()
	fmt.Println("Usage: tastemap [options] <command> [command options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  signup    create an account")
	fmt.Println("  signin    sign in with username/email and password")
	fmt.Println("  me        show the signed-in user")
	fmt.Println("  setpic    upload a new profile picture")
	fmt.Println("  create    create a recipe (drafts survive failed attempts)")
	fmt.Println("  list      list recipes with optional filters")
	fmt.Println("  more      list recipes and follow the cursor for extra pages")
	fmt.Println("  near      list recipes around a point")
	fmt.Println("  like      like a recipe by id")
	fmt.Println("  dislike   remove a like from a recipe by id")
	fmt.Println("  search    interactive search prompt (reads stdin)")
	fmt.Println("  coords    dump all stored location coordinates")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	session *session.Store
	recipes *recipe.API
	lists   *recipelist.Store
	locs    *locations.API
}

func main() {
	configPath := flag.String("config", os.Getenv("TASTEMAP_CONFIG"), "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help || flag.NArg() == 0 {
		usage()
		if *help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "tastemap-client",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TraceSampleRate,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.New()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("metrics registration failed", "error", err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("client setup failed", "error", err)
		os.Exit(1)
	}

	recipes := recipe.NewAPI(client)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		session: session.New(client, logger),
		recipes: recipes,
		lists: recipelist.New(recipes, recipelist.Options{
			Limit:     cfg.PageLimit,
			NearKm:    cfg.NearKm,
			NearLimit: cfg.NearLimit,
			Metrics:   m,
			Logger:    logger,
		}),
		locs: locations.NewAPI(client),
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := a.run(ctx, cmd, args); err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signup(ctx, args)
	case "signin":
		return a.signin(ctx, args)
	case "me":
		return a.me(ctx)
	case "setpic":
		return a.setpic(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "more":
		return a.more(ctx, args)
	case "near":
		return a.near(ctx, args)
	case "like":
		return a.react(ctx, args, a.recipes.Like, "liked")
	case "dislike":
		return a.react(ctx, args, a.recipes.Dislike, "unliked")
	case "search":
		return a.search(ctx)
	case "coords":
		return a.coords(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	fullname := fs.String("fullname", "", "full name")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	u, err := a.session.Signup(ctx, session.SignupPayload{
		FullName: *fullname,
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("signed up as %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *app) signin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	id := fs.String("id", "", "username or email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	u, err := a.session.Signin(ctx, session.SigninPayload{
		Identifier: *id,
		Password:   *password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *app) me(ctx context.Context) error {
	u, err := a.session.Me(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) setpic(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("setpic", flag.ExitOnError)
	file := fs.String("file", "", "path to the image file")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("an image file is required")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	ctrl := profile.NewController(a.session, profile.Options{
		Compress: picture.CompressOptions{
			MaxDimension: a.cfg.PicMaxDimension,
			Quality:      a.cfg.PicJPEGQuality,
		},
		MaxPicBytes: a.cfg.PicMaxUploadBytes(),
		Metrics:     a.metrics,
		Logger:      a.logger,
	})
	if err := ctrl.PickPicture(ctx, http.DetectContentType(data), data); err != nil {
		printErrors(ctrl.Errors())
		return err
	}
	fmt.Println("profile picture updated")
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "recipe title")
	description := fs.String("description", "", "recipe description")
	ingredients := fs.String("ingredients", "", "comma-separated rows of name:amount:measure")
	instructions := fs.String("instructions", "", "semicolon-separated steps")
	dishTypes := fs.String("dishTypes", "", "comma-separated dish-type tags")
	locality := fs.String("locality", "", "location locality")
	area := fs.String("area", "", "location area")
	country := fs.String("country", "", "location country")
	pic := fs.String("pic", "", "path to a recipe image")
	fs.Parse(args)

	ctrl := recipe.NewController(a.recipes)
	ctrl.Notify = func(kind, message string) {
		fmt.Printf("%s: %s\n", kind, message)
	}

	if a.cfg.DraftPath != "" {
		ok, err := ctrl.LoadDraft(a.cfg.DraftPath)
		if err != nil {
			a.logger.Warn("draft restore failed", "path", a.cfg.DraftPath, "error", err)
		} else if ok {
			fmt.Println("resumed saved draft")
		}
	}

	rows, err := parseIngredients(*ingredients)
	if err != nil {
		return err
	}
	ctrl.Update(func(f *recipe.Form) {
		if *title != "" {
			f.Title = *title
		}
		if *description != "" {
			f.Description = *description
		}
		if len(rows) > 0 {
			f.Ingredients = rows
		}
		if *instructions != "" {
			f.Instructions = strings.Split(*instructions, ";")
		}
		if *dishTypes != "" {
			f.DishTypes = strings.Split(*dishTypes, ",")
		}
		if *locality != "" {
			f.Location.Locality = *locality
		}
		if *area != "" {
			f.Location.Area = *area
		}
		if *country != "" {
			f.Location.Country = *country
		}
	})
	if *pic != "" {
		data, err := os.ReadFile(*pic)
		if err != nil {
			return err
		}
		if err := ctrl.SetPicture(http.DetectContentType(data), data); err != nil {
			printErrors(ctrl.Errors())
			return err
		}
	}

	if err := ctrl.Create(ctx); err != nil {
		printErrors(ctrl.Errors())
		if a.cfg.DraftPath != "" {
			if saveErr := ctrl.SaveDraft(a.cfg.DraftPath); saveErr != nil {
				a.logger.Warn("draft save failed", "path", a.cfg.DraftPath, "error", saveErr)
			} else {
				fmt.Println("draft saved for next time")
			}
		}
		return err
	}
	if a.cfg.DraftPath != "" {
		if err := recipe.DiscardDraft(a.cfg.DraftPath); err != nil {
			a.logger.Warn("draft discard failed", "path", a.cfg.DraftPath, "error", err)
		}
	}
	return nil
}

// parseIngredients turns "flour:200:g,salt:1:tsp" into ingredient rows. The
// amount and measure parts are optional per row.
func parseIngredients(s string) ([]recipe.Ingredient, error) {
	if s == "" {
		return nil, nil
	}
	var rows []recipe.Ingredient
	for _, raw := range strings.Split(s, ",") {
		parts := strings.SplitN(raw, ":", 3)
		row := recipe.Ingredient{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 && parts[1] != "" {
			amount, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("bad ingredient amount %q", parts[1])
			}
			row.Amount = amount
		}
		if len(parts) > 2 {
			row.Measure = strings.TrimSpace(parts[2])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// listFlags holds the shared filter flags of list and more.
func listFlags(fs *flag.FlagSet) (q, country, dishTypes *string, geo *bool) {
	q = fs.String("q", "", "free-text search")
	country = fs.String("country", recipelist.CountryAll, "country filter")
	dishTypes = fs.String("dishTypes", "", "comma-separated dish-type tags")
	geo = fs.Bool("geojson", false, "print the GeoJSON projection instead of rows")
	return
}

func (a *app) applyFilters(q, country, dishTypes string) {
	f := recipelist.Filters{Q: q, Country: country}
	if dishTypes != "" {
		f.DishTypes = strings.Split(dishTypes, ",")
	}
	a.lists.SetFilters(f)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	q, country, dishTypes, geo := listFlags(fs)
	fs.Parse(args)

	a.applyFilters(*q, *country, *dishTypes)
	if err := a.lists.FetchFirstPage(ctx); err != nil {
		return err
	}
	if *geo {
		return printGeoJSON(a.lists)
	}
	printBucket(a.lists.Main())
	return nil
}

func (a *app) more(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("more", flag.ExitOnError)
	q, country, dishTypes, geo := listFlags(fs)
	pages := fs.Int("pages", 2, "number of pages to fetch")
	fs.Parse(args)

	a.applyFilters(*q, *country, *dishTypes)
	if err := a.lists.FetchFirstPage(ctx); err != nil {
		return err
	}
	for i := 1; i < *pages && a.lists.Main().HasNextPage; i++ {
		if err := a.lists.FetchNextPage(ctx); err != nil {
			return err
		}
	}
	if *geo {
		return printGeoJSON(a.lists)
	}
	printBucket(a.lists.Main())
	return nil
}

func (a *app) near(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("near", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	fs.Parse(args)

	if err := a.lists.OpenNear(ctx, *lat, *lng); err != nil {
		return err
	}
	bucket, _ := a.lists.Near()
	printBucket(bucket)
	a.lists.CloseNear()
	return nil
}

func (a *app) react(ctx context.Context, args []string, call func(context.Context, string) error, verb string) error {
	fs := flag.NewFlagSet("react", flag.ExitOnError)
	id := fs.String("id", "", "recipe id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("recipe id is required")
	}
	if err := call(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", verb, *id)
	return nil
}

// search reads lines from stdin and refetches the list after each pause in
// typing. Ctrl-D ends the prompt.
func (a *app) search(ctx context.Context) error {
	d := debounce.New(300*time.Millisecond, func(q string) {
		a.lists.SetQuery(q)
		if err := a.lists.FetchFirstPage(ctx); err != nil {
			a.logger.Warn("search fetch failed", "error", err)
			return
		}
		printBucket(a.lists.Main())
	})
	defer d.Stop()

	fmt.Println("type a query and press enter (Ctrl-D to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		d.Send(strings.TrimSpace(scanner.Text()))
	}
	d.Flush()
	return scanner.Err()
}

func (a *app) coords(ctx context.Context) error {
	coords, err := a.locs.AllCoords(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d locations\n", coords.Count)
	for _, pair := range coords.Coords {
		fmt.Printf("%.5f,%.5f\n", pair[0], pair[1])
	}
	return nil
}

func printErrors(errs fielderr.Errors) {
	for field, msg := range errs {
		fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
	}
}

func printBucket(b recipelist.Bucket) {
	for _, item := range b.Items {
		line := item.ID + "\t" + item.Title
		if item.LocationSnapshot.Country != "" {
			line += " (" + item.LocationSnapshot.Country + ")"
		}
		fmt.Println(line)
	}
	if b.HasNextPage {
		fmt.Println("... more available")
	}
}

func printGeoJSON(lists *recipelist.Store) error {
	out, err := lists.Features().MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
