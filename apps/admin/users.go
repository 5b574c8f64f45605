package main

import (
	"context"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ni := user.NewIdentity{Name: name, Email: email, Password: pwd}
	ni.Clean()
	if err := cli.validate.Struct(&ni); err != nil {
		return err
	}
	ni.Role = user.RoleAdmin
	_, err := cli.usrSvc.Create(context.Background(), ni)
	return err
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	return cli.usrSvc.SetPassword(ctx, usr.ID, pwd)
}

func (cli *commandLine) approveStudent(email string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.ApproveStudent(ctx, usr.ID)
	return err
}
