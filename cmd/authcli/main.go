package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wekeza/investment-platform/pkg/authclient"
)

// Default server base URL; override with WEKEZA_SERVER env var or --server flag.
var serverBaseURL = "http://localhost:8000"

func main() {
	_ = godotenv.Load()

	serverFlag := flag.String("server", "", "Override server base URL (e.g. https://api.wekeza.example)")
	flag.Parse()
	if env := os.Getenv("WEKEZA_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	store, err := tokenStore()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	client := authclient.NewClient(serverBaseURL, store)
	session := authclient.NewSession(client, store)
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, client, session, args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *authclient.Client, session *authclient.Session, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return registerFlow(ctx, session, rest)
	case "verify":
		if len(rest) != 2 {
			return fmt.Errorf("usage: authcli verify <email> <otp>")
		}
		if err := session.VerifyOTP(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Println("Email verified. You can now log in.")
		return nil
	case "resend-otp":
		if len(rest) != 1 {
			return fmt.Errorf("usage: authcli resend-otp <email>")
		}
		if err := session.ResendOTP(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Println("A new verification code has been sent.")
		return nil
	case "login":
		return loginFlow(ctx, session, rest)
	case "logout":
		if err := session.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	case "profile":
		return profileFlow(ctx, session)
	case "sectors":
		return sectorsFlow(ctx, client)
	case "forgot-password":
		if len(rest) != 1 {
			return fmt.Errorf("usage: authcli forgot-password <email>")
		}
		if err := session.ForgotPassword(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Println("If the account exists, a reset link has been sent.")
		return nil
	case "reset-password":
		if len(rest) != 2 {
			return fmt.Errorf("usage: authcli reset-password <email> <token>")
		}
		pw, err := promptLine("New password: ")
		if err != nil {
			return err
		}
		if err := session.ResetPassword(ctx, rest[0], rest[1], pw); err != nil {
			return err
		}
		fmt.Println("Password reset. Log in with your new password.")
		return nil
	case "change-password":
		current, err := promptLine("Current password: ")
		if err != nil {
			return err
		}
		next, err := promptLine("New password: ")
		if err != nil {
			return err
		}
		if err := session.ChangePassword(ctx, current, next); err != nil {
			return err
		}
		fmt.Println("Password changed.")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func registerFlow(ctx context.Context, session *authclient.Session, rest []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Full name")
	investor := fs.Bool("investor", false, "Register as an investor (default: business)")
	individual := fs.Bool("individual", false, "Individual investor (vs institution)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return fmt.Errorf("usage: authcli register --email <email> --name <name> [--investor] [--individual]")
	}
	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}

	registered, err := session.Register(ctx, authclient.RegisterData{
		Email:        *email,
		Name:         *name,
		Password:     password,
		IsInvestor:   *investor,
		IsIndividual: *individual,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s. Check your inbox for the verification code, then run:\n", registered)
	fmt.Printf("  authcli verify %s <otp>\n", registered)
	return nil
}

func loginFlow(ctx context.Context, session *authclient.Session, rest []string) error {
	if len(rest) != 1 {
		return fmt.Errorf("usage: authcli login <email>")
	}
	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}
	if err := session.Login(ctx, rest[0], password); err != nil {
		return err
	}
	u := session.User()
	fmt.Printf("Logged in as %s (%s).\n", u.Name, u.Email)
	return nil
}

func profileFlow(ctx context.Context, session *authclient.Session) error {
	if err := session.Initialize(ctx); err != nil {
		return err
	}
	if !session.IsAuthenticated() {
		return fmt.Errorf("not logged in; run: authcli login <email>")
	}
	enc, err := json.MarshalIndent(session.User(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func sectorsFlow(ctx context.Context, client *authclient.Client) error {
	sectors, err := client.GetSectors(ctx)
	if err != nil {
		return err
	}
	for _, s := range sectors {
		fmt.Printf("%3d  %-30s %s\n", s.ID, s.Name, s.Description)
	}
	return nil
}

func tokenStore() (*authclient.FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return authclient.NewFileStore(filepath.Join(home, ".wekeza", "tokens.json")), nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func usage() {
	fmt.Println(`Usage: authcli [--server URL] <command> [args]

Commands:
  register --email <email> --name <name> [--investor] [--individual]
  verify <email> <otp>
  resend-otp <email>
  login <email>
  logout
  profile
  sectors
  forgot-password <email>
  reset-password <email> <token>
  change-password`)
}
