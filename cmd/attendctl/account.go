package main

import (
	"context"
	"flag"
	"fmt"

	"attendboard/internal/gateway"
)

func (a *app) cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grant, err := a.gw.Login(context.Background(), gateway.Credentials{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		return err
	}

	sess, err := a.sessions.Establish(grant.AccessToken)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", sess.DisplayName, sess.Role)
	return nil
}

func (a *app) cmdSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	name := fs.String("name", "", "full name")
	role := fs.String("role", "student", "admin, teacher or student")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.gw.Register(context.Background(), gateway.RegistrationForm{
		Username: *username,
		Password: *password,
		FullName: *name,
		Role:     *role,
	})
	if err != nil {
		return err
	}
	fmt.Println("Account created, you can log in now")
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) cmdWhoami() error {
	sess, err := a.requireRole()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s), id %s\n", sess.DisplayName, sess.Role, sess.PrincipalID)
	return nil
}
