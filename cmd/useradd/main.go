// Command useradd creates a user in the intelligence user store.
//
// Database settings are read the same way the server reads them (JSON file,
// environment, flags); only the database settings are validated, so no token
// secret is needed. The password is prompted for on the terminal, or read
// from the first line of stdin when stdin is not a terminal.
//
//	useradd -name alice -email alice@example.com [-firstname A] [-lastname B] [-admin=true]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/intelligence/internal/flagx"
	"github.com/dmitrijs2005/intelligence/internal/server/config"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
	"github.com/dmitrijs2005/intelligence/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/intelligence/internal/server/services"
	"golang.org/x/term"
)

var userFlags = []string{"-name", "-email", "-firstname", "-lastname", "-admin"}

type registerFunc func(ctx context.Context, in services.NewUser) (*models.User, error)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		os.Exit(1)
	}

	svc := services.NewUserService(db, rm, nil)
	if err := run(ctx, os.Args[1:], readPassword, os.Stdout, svc.Register); err != nil {
		fmt.Fprintf(os.Stderr, "useradd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, password func(io.Writer) ([]byte, error), out io.Writer, register registerFunc) error {
	in, err := parseArgs(args)
	if err != nil {
		return err
	}

	in.Password, err = password(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	u, err := register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created user %s (%s)\n", u.Name, u.ID)
	return nil
}

func parseArgs(args []string) (services.NewUser, error) {
	var in services.NewUser

	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&in.Name, "name", "", "user name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.FirstName, "firstname", "", "first name")
	fs.StringVar(&in.LastName, "lastname", "", "last name")
	fs.BoolVar(&in.Admin, "admin", false, "grant admin rights")

	if err := fs.Parse(flagx.FilterArgs(args, userFlags)); err != nil {
		return in, fmt.Errorf("parse flags: %w", err)
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return in, errors.New("-name and -email are required")
	}
	return in, nil
}

func readPassword(out io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	fmt.Fprint(out, "Password: ")
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func readLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(string(line), "\r\n")), nil
}
