package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/models"
	"github.com/guardget/guardget/internal/client/session"
	"github.com/guardget/guardget/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details and creates the account. The
// account stays locked until the emailed code is confirmed with 'verify'.
func (a *App) Register(ctx context.Context) error {
	firstName, err := getSimpleText(a.reader, "First name", os.Stdout)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name", os.Stdout)
	if err != nil {
		return err
	}
	userName, err := getSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Phone", os.Stdout)
	if err != nil {
		return err
	}
	keyholders, err := getSimpleText(a.reader, "Keyholder emails (comma separated, optional)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Register(ctx, api.RegisterRequest{
		FirstName:  firstName,
		LastName:   lastName,
		UserName:   userName,
		Email:      email,
		Phone:      phone,
		Password:   string(password),
		Keyholders: splitList(keyholders),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Account %s created. Check %s for the verification code, then run 'verify'.\n", user.UserName, user.Email)
	return nil
}

// Verify confirms the emailed registration code and logs the user in.
func (a *App) Verify(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	otp, err := getSimpleText(a.reader, "Verification code", os.Stdout)
	if err != nil {
		return err
	}

	pair, err := a.api.VerifyOTP(ctx, email, otp)
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, pair); err != nil {
		return err
	}

	fmt.Println("Email verified, you are logged in.")
	return nil
}

// Login authenticates with a username or email plus password.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Username or email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pair, err := a.api.Login(ctx, login, string(password))
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, pair); err != nil {
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

// Logout revokes the refresh token and wipes the local session. The local
// wipe happens even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		if err := a.api.Logout(ctx, sess.RefreshToken); err != nil {
			fmt.Println("Server logout failed:", err.Error())
		}
	}
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// Me prints the profile: user details, device count and subscription.
func (a *App) Me(ctx context.Context) error {
	profile, err := a.api.GetMe(ctx)
	if err != nil {
		return err
	}

	u := profile.User
	fmt.Printf("%s %s (%s)\n", u.FirstName, u.LastName, u.UserName)
	fmt.Printf("  email: %s  phone: %s\n", u.Email, u.Phone)
	if len(u.Keyholders) > 0 {
		fmt.Printf("  keyholders: %s\n", strings.Join(u.Keyholders, ", "))
	}
	fmt.Printf("  devices: %d\n", profile.DeviceCount)
	if profile.Subscription != nil && profile.Plan != nil {
		fmt.Printf("  plan: %s (until %s)\n", profile.Plan.Name, profile.Subscription.EndDate.Format("2006-01-02"))
	} else {
		fmt.Println("  plan: free tier")
	}
	return nil
}

// saveSession stores the token pair and refreshes the cached user snapshot.
func (a *App) saveSession(ctx context.Context, pair *models.TokenPair) error {
	sess := &session.Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := a.sessions.Save(sess); err != nil {
		return err
	}

	profile, err := a.api.GetMe(ctx)
	if err == nil {
		sess.User = &profile.User
		return a.sessions.Save(sess)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
