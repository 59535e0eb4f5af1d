package main

import (
	"context"

	"github.com/simplesis/simplesis/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.Update(ctx, usr, user.UpdateUser{
		Email:           usr.Email,
		FirstName:       usr.FirstName,
		LastName:        usr.LastName,
		Password:        pwd,
		PasswordConfirm: pwd,
	}, nil)
	return err
}
