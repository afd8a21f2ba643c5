package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/shelf/internal/apitest"
	"github.com/me/shelf/internal/session"
	"github.com/me/shelf/pkg/model"
)

// runCLI executes the root command with stdout captured. Commands
// print program output with fmt, so the pipe dance is needed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var errBuf bytes.Buffer
	root.SetOut(&errBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	execErr := root.Execute()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), execErr
}

// loggedIn writes a valid token to a temp credentials file and returns
// its path.
func loggedIn(t *testing.T, srv *apitest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := session.NewStore(path).Save(srv.Token); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
	return path
}

func TestLoginCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := filepath.Join(t.TempDir(), "credentials.json")

	output, err := runCLI(t,
		"--server", srv.URL,
		"--credentials", credPath,
		"login", "--email", "alice@example.com",
	)
	if err != nil {
		t.Fatalf("login error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Logged in.") {
		t.Errorf("expected 'Logged in.' in output, got: %s", output)
	}
	if tok := session.NewStore(credPath).Token(); tok != srv.Token {
		t.Errorf("stored token = %q, want %q", tok, srv.Token)
	}
}

func TestLoginCommand_BlankEmail(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := filepath.Join(t.TempDir(), "credentials.json")

	_, err := runCLI(t,
		"--server", srv.URL,
		"--credentials", credPath,
		"login", "--email", "   ",
	)
	if !model.IsCode(err, model.ErrValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if session.NewStore(credPath).IsAuthenticated() {
		t.Error("blank-email login stored a token")
	}
}

func TestLogoutCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "logout")
	if err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if !strings.Contains(output, "Logged out.") {
		t.Errorf("expected 'Logged out.' in output, got: %s", output)
	}
	if session.NewStore(credPath).IsAuthenticated() {
		t.Error("token still present after logout")
	}
}

func TestStatusCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := filepath.Join(t.TempDir(), "credentials.json")

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "status")
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if !strings.Contains(output, "Not logged in.") {
		t.Errorf("expected 'Not logged in.', got: %s", output)
	}

	credPath = loggedIn(t, srv)
	output, err = runCLI(t, "--server", srv.URL, "--credentials", credPath, "status")
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if !strings.Contains(output, "Logged in.") {
		t.Errorf("expected 'Logged in.', got: %s", output)
	}
}

func TestProductsListCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SeedProducts(12)
	srv.TotalHeader = true
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "products", "list")
	if err != nil {
		t.Fatalf("list error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "NAME") {
		t.Errorf("expected table header, got: %s", output)
	}
	if !strings.Contains(output, "Widget 01") {
		t.Errorf("expected first product, got: %s", output)
	}
	if !strings.Contains(output, "Page 1 of 2 (12 products)") {
		t.Errorf("expected pagination footer, got: %s", output)
	}
}

func TestProductsListCommand_SecondPage(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SeedProducts(12)
	srv.TotalHeader = true
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "list", "--page", "2")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(output, "Widget 10") {
		t.Errorf("expected second-page product, got: %s", output)
	}
	if strings.Contains(output, "Widget 01") {
		t.Errorf("first-page product leaked onto page 2: %s", output)
	}
}

func TestProductsListCommand_Search(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddProduct(model.Product{Name: "Walnut Desk", Price: 120})
	srv.AddProduct(model.Product{Name: "Chair", Price: 60})
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "list", "--search", "desk")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if !strings.Contains(output, "Walnut Desk") {
		t.Errorf("expected match in output, got: %s", output)
	}
	if strings.Contains(output, "Chair") {
		t.Errorf("non-match leaked into output: %s", output)
	}
}

func TestProductsListCommand_NotLoggedIn(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SeedProducts(1)
	credPath := filepath.Join(t.TempDir(), "credentials.json")

	_, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "products", "list")
	if !model.IsAuthMissing(err) {
		t.Fatalf("err = %v, want AUTH_MISSING", err)
	}
	if srv.ListCalls != 0 {
		t.Errorf("server saw %d list calls before login, want 0", srv.ListCalls)
	}
}

func TestProductsGetCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	p := srv.AddProduct(model.Product{Name: "Lamp", Price: 25, Description: "Brass desk lamp"})
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "products", "get", p.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if !strings.Contains(output, "Lamp") || !strings.Contains(output, "Brass desk lamp") {
		t.Errorf("expected product detail, got: %s", output)
	}
}

func TestProductsCreateCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "create", "--name", "Stool", "--price", "30", "--image", "stool.png")
	if err != nil {
		t.Fatalf("create error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Created p_") {
		t.Errorf("expected 'Created p_...' in output, got: %s", output)
	}

	stored := srv.Products()
	if len(stored) != 1 {
		t.Fatalf("server holds %d products, want 1", len(stored))
	}
	if len(stored[0].Images) != 1 || !strings.HasPrefix(stored[0].Images[0], "local://images/") {
		t.Errorf("images = %v, want one local:// locator", stored[0].Images)
	}
	if !strings.HasSuffix(stored[0].Images[0], ".png") {
		t.Errorf("image locator %q lost its extension", stored[0].Images[0])
	}
}

func TestProductsCreateCommand_Invalid(t *testing.T) {
	srv := apitest.NewServer(t)
	credPath := loggedIn(t, srv)

	_, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "create", "--name", "Stool")
	if !model.IsCode(err, model.ErrValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if len(srv.Products()) != 0 {
		t.Error("invalid product reached the server")
	}
}

func TestProductsUpdateCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	p := srv.AddProduct(model.Product{Name: "Lamp", Price: 25})
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "update", p.ID, "--price", "35")
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if !strings.Contains(output, "Updated "+p.ID) {
		t.Errorf("expected 'Updated %s', got: %s", p.ID, output)
	}

	stored := srv.Products()
	if stored[0].Price != 35 {
		t.Errorf("price = %v, want 35", stored[0].Price)
	}
	if stored[0].Name != "Lamp" {
		t.Errorf("name = %q, unset flags must keep current values", stored[0].Name)
	}
}

func TestProductsDeleteCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	p := srv.AddProduct(model.Product{Name: "Lamp", Price: 25})
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"products", "delete", p.ID)
	if err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if !strings.Contains(output, "Deleted "+p.ID) {
		t.Errorf("expected 'Deleted %s', got: %s", p.ID, output)
	}
	if len(srv.Products()) != 0 {
		t.Error("product still on server after delete")
	}
}

func TestCategoriesListCommand(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddCategory(model.Category{Name: "Furniture", Description: "Desks and chairs"})
	srv.AddCategory(model.Category{Name: "Lighting"})
	credPath := loggedIn(t, srv)

	output, err := runCLI(t, "--server", srv.URL, "--credentials", credPath, "categories", "list")
	if err != nil {
		t.Fatalf("categories error: %v", err)
	}
	if !strings.Contains(output, "Furniture") || !strings.Contains(output, "Lighting") {
		t.Errorf("expected both categories, got: %s", output)
	}

	output, err = runCLI(t, "--server", srv.URL, "--credentials", credPath,
		"categories", "list", "--search", "light")
	if err != nil {
		t.Fatalf("categories search error: %v", err)
	}
	if strings.Contains(output, "Furniture") {
		t.Errorf("non-match leaked into filtered output: %s", output)
	}
}
