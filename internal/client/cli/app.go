package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/baleriaa/493/internal/client/api"
	"github.com/baleriaa/493/internal/client/config"
	"github.com/baleriaa/493/internal/client/models"
)

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage error")

// API is the part of the HTTP client the commands use.
type API interface {
	Register(ctx context.Context, name, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, identifier string, password []byte) (string, error)
	GetUser(ctx context.Context, token string, id int64) (*models.User, error)
	Businesses(ctx context.Context, token string, userID int64) ([]models.Business, error)
	Reviews(ctx context.Context, token string, userID int64) ([]models.Review, error)
	Photos(ctx context.Context, token string, userID int64) ([]models.Photo, error)
}

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	api    API
	tokens *tokenFile
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return newApp(api.New(c.ServerURL, c.RequestTimeout), c.TokenFile, os.Stdin, os.Stdout)
}

func newApp(client API, tokenPath string, in io.Reader, out io.Writer) *App {
	return &App{
		api:    client,
		tokens: &tokenFile{path: tokenPath},
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	switch args[0] {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout()
	case "whoami":
		return a.WhoAmI(ctx)
	case "list":
		if len(args) != 2 {
			a.usage()
			return ErrUsage
		}
		return a.List(ctx, args[1])
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Available commands: register, login, logout, whoami, list <businesses|reviews|photos>")
}
