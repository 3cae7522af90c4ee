// Package catalogctl implements a terminal front end for the product API.
package catalogctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"catalog/internal/models"
	"catalog/pkg/client"

	"github.com/shopspring/decimal"
)

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// Config holds catalogctl configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Command string
	Args    []string
}

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage: catalogctl [-url URL] [-timeout D] <list|get|create|update|delete> [args]")

// ParseConfig parses the global flags and splits off the command.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		BaseURL: envOrDefault(lookup, "CATALOG_API_URL", client.DefaultBaseURL),
		Timeout: client.DefaultTimeout,
	}
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "products endpoint")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, ErrUsage
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}

// Run executes the configured command. Results go to out. Every failure is
// reported to errOut exactly once, either as the API notification or as the
// returned error.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	notified := false
	api := client.New(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithNotifier(client.NotifierFunc(func(n client.Notification) {
			notified = true
			fmt.Fprintf(errOut, "error: %s\n", n.Message)
		})),
	)

	err := dispatch(ctx, api, cfg, out)
	if err != nil && !notified {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return err
}

func dispatch(ctx context.Context, api *client.Client, cfg Config, out io.Writer) error {
	switch cfg.Command {
	case "list":
		return runList(ctx, api, cfg.Args, out)
	case "get":
		return runGet(ctx, api, cfg.Args, out)
	case "create":
		return runCreate(ctx, api, cfg.Args, out)
	case "update":
		return runUpdate(ctx, api, cfg.Args, out)
	case "delete":
		return runDelete(ctx, api, cfg.Args, out)
	default:
		return fmt.Errorf("unknown command %q: %w", cfg.Command, ErrUsage)
	}
}

func runList(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	opts := client.DefaultListOptions()
	var desc bool
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&opts.Page, "page", opts.Page, "page number")
	fs.IntVar(&opts.PageSize, "page-size", opts.PageSize, "products per page")
	fs.StringVar(&opts.Search, "search", "", "filter by name or price")
	fs.StringVar(&opts.SortBy, "sort", opts.SortBy, "sort column (name, price)")
	fs.BoolVar(&desc, "desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.Ascending = !desc

	page, err := api.ListProducts(ctx, opts)
	if err != nil {
		return err
	}
	if err := writeTable(out, page.Items); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d (%d products)\n", opts.Page, page.PageCount(opts.PageSize), page.TotalCount)
	return nil
}

func runGet(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	product, err := api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return writeTable(out, []models.Product{*product})
}

func runCreate(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	var product models.Product
	fs, price := productFlags("create", &product)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := applyPrice(&product, *price); err != nil {
		return err
	}

	created, err := api.CreateProduct(ctx, &product)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created product %d\n", created.ProductID)
	return writeTable(out, []models.Product{*created})
}

// runUpdate loads the current product and overwrites only the flags given.
func runUpdate(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("update needs a product id: %w", ErrUsage)
	}
	id, err := parseID(args[:1])
	if err != nil {
		return err
	}

	var changes models.Product
	fs, price := productFlags("update", &changes)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	product, err := api.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			product.Name = changes.Name
		case "description":
			product.Description = changes.Description
		case "quantity":
			product.Quantity = changes.Quantity
		case "price":
			visitErr = applyPrice(product, *price)
		}
	})
	if visitErr != nil {
		return visitErr
	}

	ack, err := api.UpdateProduct(ctx, id, product)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ack)
	return nil
}

func runDelete(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted product %d\n", id)
	return nil
}

func productFlags(name string, product *models.Product) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&product.Name, "name", "", "product name")
	fs.StringVar(&product.Description, "description", "", "product description")
	fs.IntVar(&product.Quantity, "quantity", 0, "units in stock")
	price := fs.String("price", "", "unit price, e.g. 19.99")
	return fs, price
}

func applyPrice(product *models.Product, raw string) error {
	if raw == "" {
		return nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", raw, err)
	}
	product.Price = price
	return nil
}

func parseID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one product id: %w", ErrUsage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

func writeTable(out io.Writer, products []models.Product) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQUANTITY\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ProductID, p.Name, p.Price.StringFixed(2), p.Quantity, p.Description)
	}
	return tw.Flush()
}

func envOrDefault(lookup EnvLookup, key, fallback string) string {
	if lookup == nil {
		return fallback
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
