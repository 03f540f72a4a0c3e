package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/simaogato/fraxion-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fraxion-backend/internal/usecase/seeder"
	"github.com/simaogato/fraxion-backend/internal/usecase/user"
)

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or roll back the database schema" }
func (*migrateCmd) Usage() string {
	return `migrate [-down]

  Applies every pending migration. With -down, rolls every migration back.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "roll back every migration instead of applying them")
}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	if c.down {
		err = postgres.MigrateDown(e.db, e.logger)
	} else {
		err = postgres.Migrate(e.db, e.logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type seedCmd struct {
	name  string
	email string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the bootstrap manager account" }
func (*seedCmd) Usage() string {
	return `seed [-name <name>] [-email <email>]

  Creates the bootstrap manager if it does not exist yet. An existing account is left untouched.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", seeder.DefaultManager.Name, "manager display name")
	f.StringVar(&c.email, "email", seeder.DefaultManager.Email, "manager email")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	manager := seeder.BootstrapManager{Name: c.name, Email: c.email}
	if err := seeder.NewManagerSeeder(postgres.NewUserRepository(e.db), manager, e.logger).Seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(seeder.SYS_MANAGER)
	return subcommands.ExitSuccess
}

type userCmd struct {
	name    string
	email   string
	manager bool
}

func (*userCmd) Name() string     { return "user" }
func (*userCmd) Synopsis() string { return "create a user account" }
func (*userCmd) Usage() string {
	return `user -name <name> -email <email> [-manager]

  Creates a user and prints its id. Emails must be unique.
`
}

func (c *userCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "email address")
	f.BoolVar(&c.manager, "manager", false, "allow the user to create and revalue assets")
}

func (c *userCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input := user.CreateUserInput{IsManager: c.manager}
	if c.name != "" {
		input.Name = &c.name
	}
	if c.email != "" {
		input.Email = &c.email
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	service := user.NewUserService(postgres.NewTransactor(e.db), postgres.NewUserRepository(e.db), e.logger)
	created, err := service.CreateUser(ctx, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(created.ID)
	return subcommands.ExitSuccess
}

type pingCmd struct{}

func (*pingCmd) Name() string     { return "ping" }
func (*pingCmd) Synopsis() string { return "check that the database is reachable" }
func (*pingCmd) Usage() string {
	return `ping

  Connects to the configured database and reports whether it answers.
`
}

func (*pingCmd) SetFlags(*flag.FlagSet) {}

func (*pingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	if err := e.db.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("ok")
	return subcommands.ExitSuccess
}
