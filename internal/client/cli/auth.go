package cli

import (
	"context"
	"fmt"

	"github.com/baleriaa/493/internal/common"
)

// Register prompts for a name, an email and a password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d)\n", user.Name, user.ID)
	return nil
}

// Login prompts for a name or email and a password and stores the returned
// token.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter user name or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout() error {
	if err := a.tokens.Remove(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	token, id, err := a.session()
	if err != nil {
		return err
	}
	user, err := a.api.GetUser(ctx, token, id)
	if err != nil {
		return err
	}
	role := "user"
	if user.Admin {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s <%s> id=%d role=%s\n", user.Name, user.Email, user.ID, role)
	return nil
}

func (a *App) session() (string, int64, error) {
	token, err := a.tokens.Load()
	if err != nil {
		return "", 0, err
	}
	id, err := subjectOf(token)
	if err != nil {
		return "", 0, err
	}
	return token, id, nil
}
