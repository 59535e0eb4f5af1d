package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	usrSvc      user.Service
	schoolSvc   school.Service
	lookupSvc   lookup.Service
	activitySvc activity.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...]                                    - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser -email EMAIL [-first NAME] [-last NAME] [-staff] [-school ID] - create or update a user")
	fmt.Println("  resetpassword -email EMAIL                                   - reset a user's password")
	fmt.Println("  loaddata FILE.yaml                                           - load fixtures in a single transaction")
}

// printError writes err to stderr, followed by one line per invalid field for validation errors.
func (cli *commandLine) printError(err error) {
	fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
	if fldErrs, ok := core.FieldErrors(err, cli.translator); ok {
		for fld, msg := range fldErrs {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fld, msg)
		}
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserStaff := addUserCmd.Bool("staff", false, "Grant access to the admin pages.")
	addUserSchool := addUserCmd.Int64("school", 0, "The ID of the user's school.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		var schoolID *int64
		if *addUserSchool > 0 {
			schoolID = addUserSchool
		}
		usr, err := cli.addUser(newUserArgs{
			email:    *addUserEmail,
			first:    *addUserFirst,
			last:     *addUserLast,
			pwd:      pwd,
			isStaff:  *addUserStaff,
			schoolID: schoolID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("user %q saved (id %d)\n", usr.Email, usr.ID)
		return nil
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "loaddata":
		if len(args) != 3 {
			cli.printUsage()
			return errHelp
		}
		counts, err := cli.loadDataFile(args[2])
		if err != nil {
			return err
		}
		fmt.Println(counts)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
