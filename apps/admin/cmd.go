package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/ratiba/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp         = errors.New("help provided")
	errNoMigrations = errors.New("the configured database has no migrations")
)

type commandLine struct {
	usrSvc   *user.Service
	validate *validator.Validate
	// migrate is nil for stores without a schema.
	migrate func(command string, version int64) error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createadmin -name NAME -email EMAIL - create an admin; the password is prompted")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password; the password is prompted")
	fmt.Println("  approvestudent -email EMAIL - approve a student's registration")
	fmt.Println("  migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo - manage the database schema")
}

func (cli *commandLine) readPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminName := createAdminCmd.String("name", "", "The admin's name.")
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	approveStudentCmd := flag.NewFlagSet("approvestudent", flag.ContinueOnError)
	approveStudentEmail := approveStudentCmd.String("email", "", "The student's email.")

	switch args[1] {
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminName == "" || *createAdminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(createAdminCmd.Usage)
		if err != nil {
			return err
		}
		return cli.createAdmin(*createAdminName, *createAdminEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "approvestudent":
		if err := approveStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveStudentEmail == "" {
			approveStudentCmd.Usage()
			return errHelp
		}
		return cli.approveStudent(*approveStudentEmail)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		var version int64
		if args[2] == "up-to" || args[2] == "down-to" {
			if len(args) < 4 {
				return fmt.Errorf("%s must be of form: migrate %s VERSION", args[2], args[2])
			}
			v, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[3])
			}
			version = v
		}
		return cli.runMigration(args[2], version)

	default:
		cli.printUsage()
		return errHelp
	}
}
