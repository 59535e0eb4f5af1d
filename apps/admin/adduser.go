package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core/user"
)

type newUserArgs struct {
	email    string
	first    string
	last     string
	pwd      string
	isStaff  bool
	schoolID *int64
}

// addUser updates or creates a user.User; an existing account is reactivated.
func (cli *commandLine) addUser(args newUserArgs) (user.User, error) {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByEmail(ctx, args.email)
	switch errors.Cause(err) {
	case nil:
		active := true
		uu := user.UpdateUser{
			FirstName:       args.first,
			LastName:        args.last,
			IsActive:        &active,
			IsStaff:         &args.isStaff,
			SchoolID:        args.schoolID,
			Password:        args.pwd,
			PasswordConfirm: args.pwd,
		}
		if err = uu.Validate(ctx, usr, cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Update(ctx, usr, uu, nil)
	case user.ErrNotFound:
		nu := user.NewUser{
			Email:           args.email,
			FirstName:       args.first,
			LastName:        args.last,
			Password:        args.pwd,
			PasswordConfirm: args.pwd,
			IsStaff:         args.isStaff,
			SchoolID:        args.schoolID,
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu, nil)
	default:
		return user.User{}, err
	}
}
