package catalogctl_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog/internal/catalogctl"
	"catalog/internal/config"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"
	"catalog/pkg/client"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T) string {
	t.Helper()
	v := config.New()
	v.Set("DATABASE_DRIVER", "memory")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	svc := services.NewProductService(repositories.NewMemoryProductRepository(), nil, log)
	srv := httptest.NewServer(adaptor.FiberApp(server.New(cfg, log, svc)))
	t.Cleanup(srv.Close)
	return srv.URL + "/api/products"
}

func run(t *testing.T, baseURL string, args ...string) (string, string, error) {
	t.Helper()
	cfg := catalogctl.Config{BaseURL: baseURL, Timeout: 2 * time.Second, Command: args[0], Args: args[1:]}
	var out, errOut bytes.Buffer
	err := catalogctl.Run(context.Background(), cfg, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestParseConfig(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "CATALOG_API_URL" {
			return "http://api.internal/api/products", true
		}
		return "", false
	}

	fs := flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := catalogctl.ParseConfig(fs, []string{"-timeout", "3s", "list", "-page", "2"}, lookup)
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal/api/products", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "list", cfg.Command)
	assert.Equal(t, []string{"-page", "2"}, cfg.Args)

	fs = flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	cfg, err = catalogctl.ParseConfig(fs, []string{"get", "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)

	fs = flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	_, err = catalogctl.ParseConfig(fs, nil, nil)
	assert.ErrorIs(t, err, catalogctl.ErrUsage)
}

func TestProductLifecycle(t *testing.T) {
	baseURL := newServer(t)

	out, _, err := run(t, baseURL, "create", "-name", "Widget", "-price", "9.5", "-quantity", "4", "-description", "small")
	require.NoError(t, err)
	assert.Contains(t, out, "created product 1")
	assert.Contains(t, out, "9.50")

	_, _, err = run(t, baseURL, "create", "-name", "Gadget", "-price", "20")
	require.NoError(t, err)

	out, _, err = run(t, baseURL, "list", "-page-size", "1", "-sort", "price", "-desc")
	require.NoError(t, err)
	assert.Contains(t, out, "Gadget")
	assert.NotContains(t, out, "Widget")
	assert.Contains(t, out, "page 1 of 2 (2 products)")

	out, _, err = run(t, baseURL, "update", "1", "-price", "11")
	require.NoError(t, err)
	assert.Equal(t, "Product updated successfully.\n", out)

	out, _, err = run(t, baseURL, "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "11.00")
	assert.Contains(t, out, "small")

	out, _, err = run(t, baseURL, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted product 1\n", out)
}

func TestFailuresAreReportedOnce(t *testing.T) {
	baseURL := newServer(t)

	_, errOut, err := run(t, baseURL, "get", "42")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "error: "+client.MessageNotFound+"\n", errOut)

	_, _, err = run(t, baseURL, "create", "-name", "Gadget", "-price", "1")
	require.NoError(t, err)
	_, errOut, err = run(t, baseURL, "create", "-name", "gadget", "-price", "2")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(errOut, "error:"))
	assert.Contains(t, errOut, "already exists")

	_, errOut, err = run(t, baseURL, "get", "abc")
	require.Error(t, err)
	assert.Equal(t, "error: invalid product id \"abc\"\n", errOut)

	_, errOut, err = run(t, baseURL, "frobnicate")
	assert.ErrorIs(t, err, catalogctl.ErrUsage)
	assert.Contains(t, errOut, "unknown command")
}
