package cli_test

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory/internal/cli"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type result struct {
	out, err string
	runErr   error
}

func run(t *testing.T, dsn string, args ...string) result {
	t.Helper()
	cmd := cli.NewRootCommand(viper.New())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--store", "sqlite", "--dsn", dsn}, args...))
	err := cmd.Execute()
	return result{out: stdout.String(), err: stderr.String(), runErr: err}
}

func TestProductsCommands(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "inventory.db")
	image := filepath.Join(dir, "widget.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	res := run(t, dsn, "migrate")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "sqlite schema is up to date")

	res = run(t, dsn, "products", "list")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "No products")

	res = run(t, dsn, "products", "add", "--name", "Widget", "--price", "$2.50", "--quantity", "1")
	assert.Error(t, res.runErr)
	assert.Contains(t, res.err, "Please select an image")

	res = run(t, dsn, "products", "add", "--name", "Widget", "--price", "$2.50", "--quantity", "1", "--image", image)
	require.NoError(t, res.runErr)
	assert.Equal(t, "1", strings.TrimSpace(res.out))
	assert.Contains(t, res.err, "Product saved")

	res = run(t, dsn, "products", "sell", "1")
	require.NoError(t, res.runErr)

	res = run(t, dsn, "products", "list")
	require.NoError(t, res.runErr)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"1", "Widget", "$2.50", "0", "1"}, strings.Fields(lines[1]))

	res = run(t, dsn, "products", "sell", "1")
	assert.Error(t, res.runErr)
	assert.Contains(t, res.err, "No inventory available")

	res = run(t, dsn, "products", "order", "1", "--quantity", "3")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "mailto:")

	res = run(t, dsn, "products", "delete", "1")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.err, "Product deleted")

	res = run(t, dsn, "products", "delete", "1")
	assert.Error(t, res.runErr)

	res = run(t, dsn, "products", "sell", "abc")
	assert.ErrorContains(t, res.runErr, "invalid product id")
}

func TestMemoryStoreMigrate(t *testing.T) {
	cmd := cli.NewRootCommand(viper.New())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--store", "memory", "migrate"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "memory store needs no migration")
}
