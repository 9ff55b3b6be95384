package cli

import (
	"context"
	"fmt"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// askEmail prompts for an email, offering the last one used as default.
func (a *App) askEmail() (string, error) {
	prompt := "Enter email"
	if a.email != "" {
		prompt = fmt.Sprintf("Enter email [%s]", a.email)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if email == "" {
		email = a.email
	}
	a.email = email
	return email, nil
}

func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	u, err := a.api.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account %s created. A verification code was sent to %s; run 'verify'.\n", u.ID, u.Email)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter 6-digit code", a.out)
	if err != nil {
		return err
	}
	return a.printMessage(a.api.VerifyCode(ctx, email, code))
}

func (a *App) Resend(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	return a.printMessage(a.api.ResendCode(ctx, email))
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Login(ctx, email, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	verified := "not verified"
	if u.IsVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "%s <%s> id=%s (%s)\n", u.Name, u.Email, u.ID, verified)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Access token refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	return a.printMessage(a.api.ForgotPassword(ctx, email))
}

func (a *App) Reset(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter 6-digit code", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}
	return a.printMessage(a.api.ResetPassword(ctx, email, code, password))
}

func (a *App) Health(ctx context.Context) error {
	h, err := a.api.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "server %s, database %s\n", h.Status, h.Database)
	return nil
}

func (a *App) printMessage(msg string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
